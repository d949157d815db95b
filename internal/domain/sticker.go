package domain

// SlotCount is the number of stickers in one generated sheet (4x4 grid).
const SlotCount = 16

// StickerSlot is one position in a user's current sticker set. StorageKey is
// the persisted form; URL is the presentable form, derived on read and never
// stored. Locked is true only when the slot was reused from the previous set
// during a merge.
type StickerSlot struct {
	Index      int    `json:"index"`
	StorageKey string `json:"storage_key"`
	URL        string `json:"url,omitempty"`
	Locked     bool   `json:"locked"`
}

// StickerSet is the canonical current set for a user, tagged with the job
// that produced it. Slots are index-unique and ordered 0..15.
type StickerSet struct {
	UserID string
	JobID  string
	Slots  []StickerSlot
}

// SanitizeLockedIndices keeps only in-range integers and deduplicates them.
// Entries outside 0..15 are dropped rather than rejected; the merge rule
// treats absent slots as unlocked anyway.
func SanitizeLockedIndices(indices []int) map[int]bool {
	out := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < SlotCount {
			out[idx] = true
		}
	}
	return out
}
