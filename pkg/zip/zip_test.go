package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveStickersNamesEntriesByIndex(t *testing.T) {
	stickers := []Sticker{
		{Index: 0, Data: []byte("first")},
		{Index: 1, Data: []byte("second")},
		{Index: 15, Data: []byte("last")},
	}

	archive, err := ArchiveStickers(stickers)
	if err != nil {
		t.Fatalf("ArchiveStickers: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	want := map[string]string{
		"sticker_00.png": "first",
		"sticker_01.png": "second",
		"sticker_15.png": "last",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("entries = %d, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		data, ok := want[f.Name]
		if !ok {
			t.Errorf("unexpected entry %q", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		if string(got) != data {
			t.Errorf("%s = %q, want %q", f.Name, got, data)
		}
	}
}

func TestArchiveStickersEmpty(t *testing.T) {
	archive, err := ArchiveStickers(nil)
	if err != nil {
		t.Fatalf("ArchiveStickers: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("entries = %d", len(zr.File))
	}
}
