// Package library keeps the user's saved generation outputs so later flows
// (image-to-video stills, exports) can reference them.
package library

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"server/internal/domain"
	pkgzip "server/pkg/zip"
)

// Asset is one saved output, addressed by its data or remote URL.
type Asset struct {
	ID  string
	URL string
}

// Library collects generated assets. Add tolerates duplicates; implementations
// decide whether to deduplicate.
type Library interface {
	Add(ctx context.Context, urls ...string) error
	List(ctx context.Context) ([]Asset, error)
}

// Exporter bundles the whole library into a downloadable zip archive.
type Exporter interface {
	Export(ctx context.Context) ([]byte, error)
}

// Memory is an in-process Library for tests and single-node deployments.
type Memory struct {
	mu     sync.RWMutex
	assets []Asset
	nextID int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Add(_ context.Context, urls ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, url := range urls {
		if url == "" {
			continue
		}
		m.nextID++
		m.assets = append(m.assets, Asset{ID: strconv.Itoa(m.nextID), URL: url})
	}
	return nil
}

func (m *Memory) List(_ context.Context) ([]Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Asset, len(m.assets))
	copy(out, m.assets)
	return out, nil
}

// Export zips the data-URL assets currently held in memory. Remote URLs are
// skipped; they have no local bytes to archive.
func (m *Memory) Export(ctx context.Context) ([]byte, error) {
	assets, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	var files []pkgzip.Asset
	for _, asset := range assets {
		if !strings.HasPrefix(asset.URL, "data:") {
			continue
		}
		img, err := domain.ParseDataURL(asset.URL)
		if err != nil {
			continue
		}
		files = append(files, pkgzip.Asset{
			Filename: "asset-" + asset.ID + extensionFor(img.MIME),
			Data:     img.Data,
		})
	}
	if len(files) == 0 {
		return nil, domain.E(domain.KindNotFound, "library_empty", "the asset library is empty")
	}
	return pkgzip.ArchiveAssets(files), nil
}

var (
	_ Library  = (*Memory)(nil)
	_ Exporter = (*Memory)(nil)
	_ Exporter = (*Filesystem)(nil)
)
