package config

import "time"

// Application identity constants. These have to match the values registered
// with the license service; Validate reports any drift.
const (
	AppName       = "com.loadgate.client"
	OwnerID       = "kQ7wbV0dXz"
	AppVersion    = "1.3"
	IntegrityHash = "9b1cd34f20e8a67d5c13f04b88a2571e"

	DefaultBaseURL     = "https://api.loadgate.dev/v1/"
	DefaultManifestURL = "https://api.loadgate.dev/manifest.json"
)

// DefaultVariant is the variant preselected in the download UI.
const DefaultVariant = "GL"

// KnownVariants lists the application variants the manifest may offer.
var KnownVariants = []string{"GL", "KR", "TW", "VNG", "BGMI"}

// Config holds runtime settings for the loadgate client.
//
// Fields:
//   - BaseURL: endpoint of the license-validation service.
//   - ManifestURL: endpoint of the variant manifest.
//   - StorePath: path of the local encrypted store database.
//   - DownloadDir: directory downloads are placed into.
//   - RequestTimeout: per-request timeout for remote calls.
type Config struct {
	BaseURL        string         `envconfig:"BASE_URL"`
	ManifestURL    string         `envconfig:"MANIFEST_URL"`
	StorePath      string         `envconfig:"STORE_PATH"`
	DownloadDir    string         `envconfig:"DOWNLOAD_DIR"`
	RequestTimeout time.Duration  `envconfig:"REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = DefaultBaseURL
	c.ManifestURL = DefaultManifestURL
	c.StorePath = "loadgate.db"
	c.DownloadDir = "downloads"
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, a JSON file (if present) and command-line flags (if
// present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
