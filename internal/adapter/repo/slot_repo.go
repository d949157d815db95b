package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stickerline/internal/domain"
)

// SlotRepositoryPG persists each user's current sticker set. A user owns at
// most one set; saving replaces it wholesale.
type SlotRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSlotRepository creates a new slot repository backed by PostgreSQL.
func NewSlotRepository(pool *pgxpool.Pool) *SlotRepositoryPG {
	return &SlotRepositoryPG{pool: pool}
}

// Load fetches the user's current set. Returns domain.ErrNotFound when the
// user has none yet.
func (r *SlotRepositoryPG) Load(ctx context.Context, userID string) (*domain.StickerSet, error) {
	query := `
SELECT job_id, slots
FROM sticker_sets
WHERE user_id = $1;
`
	row := r.pool.QueryRow(ctx, query, userID)
	var (
		set     domain.StickerSet
		payload []byte
	)
	if err := row.Scan(&set.JobID, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	slots, err := unmarshalSlots(payload)
	if err != nil {
		return nil, err
	}
	set.UserID = userID
	set.Slots = slots
	return &set, nil
}

// Save upserts the user's set, replacing any prior slots.
func (r *SlotRepositoryPG) Save(ctx context.Context, set *domain.StickerSet) error {
	payload, err := marshalSlots(set.Slots)
	if err != nil {
		return err
	}
	query := `
INSERT INTO sticker_sets (user_id, job_id, slots)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET job_id = EXCLUDED.job_id,
    slots = EXCLUDED.slots,
    updated_at = NOW();
`
	_, err = r.pool.Exec(ctx, query, set.UserID, set.JobID, payload)
	return err
}

// Clear drops the user's set. Clearing an absent set is not an error.
func (r *SlotRepositoryPG) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sticker_sets WHERE user_id = $1`, userID)
	return err
}

var _ domain.SlotRepository = (*SlotRepositoryPG)(nil)
