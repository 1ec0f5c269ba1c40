// airport/load.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"groundctl/log"
	"groundctl/util"

	"github.com/klauspost/compress/zstd"
)

// Load reads an airport surface description from the given JSON file
// (optionally zstd-compressed, by extension) and validates it. A parsed
// copy is cached in the user's cache directory so that subsequent startups
// skip JSON decoding for large airports.
func Load(path string, lg *log.Logger) (*Airport, error) {
	cacheName := filepath.Base(path) + ".cache"

	if st, err := os.Stat(path); err == nil {
		var cached Airport
		if mtime, err := util.CacheRetrieveObject(cacheName, &cached); err == nil && mtime.After(st.ModTime()) {
			if err := cached.Validate(); err == nil {
				lg.Debugf("%s: loaded airport from cache", path)
				return &cached, nil
			}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".zst" {
		zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	var ap Airport
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ap); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := ap.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := util.CacheStoreObject(cacheName, &ap); err != nil {
		// Not being able to cache is a shame but not an error.
		lg.Warnf("%s: unable to cache parsed airport: %v", path, err)
	}

	lg.Info("loaded airport", "name", ap.Name, "nodes", len(ap.Nodes), "edges", len(ap.Edges),
		"runways", len(ap.Runways), "parking", len(ap.Parking))

	return &ap, nil
}
