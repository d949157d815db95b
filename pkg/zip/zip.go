// Package zip bundles finished sticker sets for download.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Sticker is one entry in the archive, named by its slot index.
type Sticker struct {
	Index int
	Data  []byte
}

// ArchiveStickers packs the stickers into a zip, one sticker_NN.png per slot.
func ArchiveStickers(stickers []Sticker) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, sticker := range stickers {
		w, err := zw.Create(fmt.Sprintf("sticker_%02d.png", sticker.Index))
		if err != nil {
			return nil, fmt.Errorf("zip entry %d: %w", sticker.Index, err)
		}
		if _, err := w.Write(sticker.Data); err != nil {
			return nil, fmt.Errorf("zip write %d: %w", sticker.Index, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip close: %w", err)
	}
	return buf.Bytes(), nil
}
