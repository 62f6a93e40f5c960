package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/loadgate/internal/flagx"
	"github.com/dmitrijs2005/loadgate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "15s" or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	BaseURL        string         `json:"base_url"`
	ManifestURL    string         `json:"manifest_url"`
	StorePath      string         `json:"store_path"`
	DownloadDir    string         `json:"download_dir"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file resolved via
// the -c/-config flags. If no file was given, nothing happens. Read or
// unmarshal errors panic (caller may recover if desired).
//
// Only non-zero JSON fields override the current values, so a partial config
// file is fine.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.ManifestURL != "" {
		cfg.ManifestURL = jc.ManifestURL
	}
	if jc.StorePath != "" {
		cfg.StorePath = jc.StorePath
	}
	if jc.DownloadDir != "" {
		cfg.DownloadDir = jc.DownloadDir
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}
