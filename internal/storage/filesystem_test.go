package storage

import (
	"context"
	"testing"
)

func TestFileStoreWriteReadList(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "library/a.png", []byte("abc"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if key != "library/a.png" {
		t.Fatalf("key = %q", key)
	}

	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("data = %q", data)
	}

	keys, err := store.List(ctx, "library")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "library/a.png" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestFileStoreListMissingPrefixIsEmpty(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	keys, err := store.List(context.Background(), "nothing-here")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys = %v, want empty", keys)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if _, err := store.Write(context.Background(), "../escape.txt", []byte("x")); err == nil {
		t.Fatal("a traversal key must be rejected")
	}
}
