package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWriteReadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "stickers/u1/job/00.png", []byte("payload"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "stickers/u1/job/00.png" {
		t.Fatalf("canonical key = %q", key)
	}

	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("Read = %q", data)
	}
}

func TestFileStoreReadMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Read(context.Background(), "stickers/missing.png"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Read missing err = %v, want ErrNotExist", err)
	}
}

func TestFileStoreRemove(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Write(ctx, "a/b.png", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Remove(ctx, "a/b.png"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ctx, "a/b.png"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.BasePath(), "a", "b.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file still present: %v", err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"stickers/u1/00.png", "stickers/u1/00.png", false},
		{"/leading/slash.png", "leading/slash.png", false},
		{"./dotted/key.png", "dotted/key.png", false},
		{"a//b.png", "a/b.png", false},
		{"../escape.png", "", true},
		{"a/../../escape.png", "", true},
		{"   ", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := sanitizeKey(tt.key)
		if tt.wantErr {
			if err == nil {
				t.Errorf("sanitizeKey(%q) = %q, want error", tt.key, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("sanitizeKey(%q): %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
