// Package variants implements the application variant pipeline: fetching
// the download manifest and performing verified, authentication-gated
// downloads of variant files.
package variants

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/loadgate/internal/config"
)

// FileEntry describes one downloadable file of a variant.
type FileEntry struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"` // "apk" or "obb"
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Manifest is the versioned download index served by the distribution
// endpoint.
type Manifest struct {
	Version  string                 `json:"version"`
	Variants map[string][]FileEntry `json:"variants"`
}

// Names returns the variant names present in the manifest, known ones
// first in their canonical order, anything unexpected after them.
func (m *Manifest) Names() []string {
	var names []string
	for _, v := range config.KnownVariants {
		if _, ok := m.Variants[v]; ok {
			names = append(names, v)
		}
	}
	var extra []string
	for v := range m.Variants {
		if !slices.Contains(config.KnownVariants, v) {
			extra = append(extra, v)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

func (m *Manifest) validate() error {
	if len(m.Variants) == 0 {
		return fmt.Errorf("manifest lists no variants")
	}
	for name, entries := range m.Variants {
		if len(entries) == 0 {
			return fmt.Errorf("variant %q has no files", name)
		}
		for _, e := range entries {
			if e.Name == "" || e.URL == "" || e.SHA256 == "" {
				return fmt.Errorf("variant %q has an incomplete file entry", name)
			}
		}
	}
	return nil
}
