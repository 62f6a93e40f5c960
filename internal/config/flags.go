package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/loadgate/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the license service (default from Config)
//	-m string   variant manifest URL
//	-s string   path of the local store database
//	-d string   download directory
//	-t int      request timeout in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-s", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the license service")
	fs.StringVar(&cfg.ManifestURL, "m", cfg.ManifestURL, "variant manifest URL")
	fs.StringVar(&cfg.StorePath, "s", cfg.StorePath, "path of the local store database")
	fs.StringVar(&cfg.DownloadDir, "d", cfg.DownloadDir, "download directory")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
