package library

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/storage"
	pkgzip "server/pkg/zip"
)

// Filesystem persists data-URL assets through a FileStore so the library
// survives restarts. Remote URLs (video download links) are stored as small
// .url reference files rather than fetched.
type Filesystem struct {
	store  *storage.FileStore
	prefix string
}

func NewFilesystem(store *storage.FileStore) *Filesystem {
	return &Filesystem{store: store, prefix: "library"}
}

func (f *Filesystem) Add(ctx context.Context, urls ...string) error {
	for _, url := range urls {
		if url == "" {
			continue
		}
		id := uuid.NewString()
		if strings.HasPrefix(url, "data:") {
			img, err := domain.ParseDataURL(url)
			if err != nil {
				return err
			}
			key := fmt.Sprintf("%s/%s%s", f.prefix, id, extensionFor(img.MIME))
			if _, err := f.store.Write(ctx, key, img.Data); err != nil {
				return domain.Wrap(domain.KindInternal, "library_write_failed", err)
			}
			continue
		}
		key := fmt.Sprintf("%s/%s.url", f.prefix, id)
		if _, err := f.store.Write(ctx, key, []byte(url)); err != nil {
			return domain.Wrap(domain.KindInternal, "library_write_failed", err)
		}
	}
	return nil
}

func (f *Filesystem) List(ctx context.Context) ([]Asset, error) {
	keys, err := f.store.List(ctx, f.prefix)
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "library_list_failed", err)
	}
	assets := make([]Asset, 0, len(keys))
	for _, key := range keys {
		assets = append(assets, Asset{ID: key, URL: key})
	}
	return assets, nil
}

// Export bundles every stored asset into a single zip archive.
func (f *Filesystem) Export(ctx context.Context) ([]byte, error) {
	keys, err := f.store.List(ctx, f.prefix)
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "library_list_failed", err)
	}
	if len(keys) == 0 {
		return nil, domain.E(domain.KindNotFound, "library_empty", "the asset library is empty")
	}
	assets := make([]pkgzip.Asset, 0, len(keys))
	for _, key := range keys {
		data, err := f.store.Read(ctx, key)
		if err != nil {
			return nil, domain.Wrap(domain.KindInternal, "library_read_failed", err)
		}
		name := key[strings.LastIndex(key, "/")+1:]
		assets = append(assets, pkgzip.Asset{Filename: name, Data: data})
	}
	return pkgzip.ArchiveAssets(assets), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

var _ Library = (*Filesystem)(nil)
