package library

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"server/internal/domain"
	"server/internal/storage"
)

const testImage = "data:image/png;base64,aGVsbG8="

func TestMemoryAddSkipsEmptyURLs(t *testing.T) {
	lib := NewMemory()
	ctx := context.Background()
	if err := lib.Add(ctx, testImage, "", "https://dl.example/v.mp4"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	assets, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("len = %d, want empty URLs skipped", len(assets))
	}
}

func TestMemoryExportZipsDataURLs(t *testing.T) {
	lib := NewMemory()
	ctx := context.Background()
	if err := lib.Add(ctx, testImage, "https://dl.example/v.mp4"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	archive, err := lib.Export(ctx)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("archive is not a valid zip: %v", err)
	}
	if len(reader.File) != 1 {
		t.Fatalf("zip has %d files, want 1: remote URLs have no bytes to export", len(reader.File))
	}
}

func TestMemoryExportEmptyIsNotFound(t *testing.T) {
	lib := NewMemory()
	_, err := lib.Export(context.Background())
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("err kind = %v, want NOT_FOUND", domain.KindOf(err))
	}
}

func TestFilesystemAddAndExport(t *testing.T) {
	fileStore, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	lib := NewFilesystem(fileStore)
	ctx := context.Background()

	if err := lib.Add(ctx, testImage, "https://dl.example/v.mp4"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	assets, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("len = %d, want the image plus the URL reference", len(assets))
	}

	archive, err := lib.Export(ctx)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("archive is not a valid zip: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("zip has %d files, want 2", len(reader.File))
	}
}

func TestFilesystemAddRejectsMalformedDataURL(t *testing.T) {
	fileStore, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	lib := NewFilesystem(fileStore)
	if err := lib.Add(context.Background(), "data:image/png;base64,!!!"); err == nil {
		t.Fatal("a malformed data URL must be rejected")
	}
}
