package identity

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/denisbrodbeck/machineid"
)

// dmiAttrFiles is the fixed, ordered list of DMI attributes folded into the
// fingerprint. Missing or unreadable entries contribute "unknown" so the
// attribute count (and therefore the fingerprint layout) never varies.
var dmiAttrFiles = []string{
	"/sys/class/dmi/id/sys_vendor",
	"/sys/class/dmi/id/product_name",
	"/sys/class/dmi/id/product_family",
	"/sys/class/dmi/id/board_vendor",
	"/sys/class/dmi/id/board_name",
}

func readHostAttr(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "unknown"
	}
	return v
}

// collectHostAttrs gathers the stable host characteristics used for the
// primary fingerprint: DMI identity, OS, architecture, CPU count and
// hostname, in a fixed order.
func collectHostAttrs() ([]string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	attrs := make([]string, 0, len(dmiAttrFiles)+4)
	for _, f := range dmiAttrFiles {
		attrs = append(attrs, readHostAttr(f))
	}
	attrs = append(attrs,
		runtime.GOOS,
		runtime.GOARCH,
		strconv.Itoa(runtime.NumCPU()),
		hostname,
	)
	return attrs, nil
}

// coarseFingerprint is the degraded fallback: OS, architecture and hostname
// only.
func coarseFingerprint() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("hostname: %w", err)
	}
	return runtime.GOOS + "-" + runtime.GOARCH + "-" + hostname, nil
}

// machineInstallID returns the platform-assigned machine id, hashed by the
// library with the application name so the raw id never leaves the host.
func machineInstallID() (string, error) {
	return machineid.ProtectedID("loadgate")
}
