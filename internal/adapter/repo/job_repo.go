package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stickerline/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

type slotRecord struct {
	Index      int    `json:"index"`
	StorageKey string `json:"storage_key"`
	Locked     bool   `json:"locked"`
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, user_id, status, style_id, image_ref, prompt, grid_fallback, error_message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.Status,
		job.StyleID,
		job.ImageRef,
		job.Prompt,
		job.GridFallback,
		job.ErrorMessage,
	)
	return err
}

// UpdateStatus transitions a job, optionally attaching an error message and
// the finished slots.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg *string, slots []domain.StickerSlot, gridFallback bool) error {
	payload, err := marshalSlots(slots)
	if err != nil {
		return err
	}
	query := `
UPDATE jobs
SET status = $2,
    updated_at = NOW(),
    error_message = COALESCE($3, error_message),
    result_slots = COALESCE($4, result_slots),
    grid_fallback = $5
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, jobID, status, errMsg, payload, gridFallback)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, user_id, status, style_id, image_ref, prompt, grid_fallback, result_slots, error_message, created_at, updated_at
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var (
		job     domain.Job
		payload []byte
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Status,
		&job.StyleID,
		&job.ImageRef,
		&job.Prompt,
		&job.GridFallback,
		&payload,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	slots, err := unmarshalSlots(payload)
	if err != nil {
		return nil, err
	}
	job.ResultSlots = slots
	return &job, nil
}

func marshalSlots(slots []domain.StickerSlot) ([]byte, error) {
	if slots == nil {
		return nil, nil
	}
	records := make([]slotRecord, len(slots))
	for i, s := range slots {
		records[i] = slotRecord{Index: s.Index, StorageKey: s.StorageKey, Locked: s.Locked}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal slots: %w", err)
	}
	return payload, nil
}

func unmarshalSlots(payload []byte) ([]domain.StickerSlot, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var records []slotRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("unmarshal slots: %w", err)
	}
	slots := make([]domain.StickerSlot, len(records))
	for i, rec := range records {
		slots[i] = domain.StickerSlot{Index: rec.Index, StorageKey: rec.StorageKey, Locked: rec.Locked}
	}
	return slots, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
