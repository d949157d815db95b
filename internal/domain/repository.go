package domain

import "context"

// UserRepository defines access methods for users and the coin ledger.
// ChargeCoins and RefundCoins must be atomic read-modify-write operations so
// concurrent charges against the same balance never lose updates.
type UserRepository interface {
	Sync(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	ChargeCoins(ctx context.Context, userID string, amount int) (int, error)
	RefundCoins(ctx context.Context, userID string, amount int) (int, error)
	TopUpCoins(ctx context.Context, userID string, coins int, thbAmount float64, referenceID string) (int, error)
}

// JobRepository defines persistence for generation jobs.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, errMsg *string, slots []StickerSlot, gridFallback bool) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
}

// SlotRepository persists the user's current sticker set. Save fully
// replaces any prior set (last writer wins).
type SlotRepository interface {
	Load(ctx context.Context, userID string) (*StickerSet, error)
	Save(ctx context.Context, set *StickerSet) error
	Clear(ctx context.Context, userID string) error
}
