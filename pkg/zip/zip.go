// Package zip bundles generated assets into a single downloadable archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

type Asset struct {
	Filename string
	Data     []byte
}

// ArchiveAssets writes the assets into a zip archive. Duplicate filenames are
// disambiguated with a numeric suffix so no asset silently overwrites another.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]int, len(assets))
	for _, asset := range assets {
		name := uniqueName(seen, asset.Filename)
		w, err := zw.Create(name)
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}

func uniqueName(seen map[string]int, name string) string {
	if name == "" {
		name = "asset"
	}
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	if dot := strings.LastIndex(name, "."); dot > 0 {
		return fmt.Sprintf("%s-%d%s", name[:dot], n, name[dot:])
	}
	return fmt.Sprintf("%s-%d", name, n)
}
