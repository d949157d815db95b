// Package orchestrator runs the sticker generation lifecycle: charge, queue,
// throttle, render, decompose, merge and persist.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"stickerline/internal/domain"
	"stickerline/internal/imagegen"
	"stickerline/internal/imaging"
	"stickerline/internal/infra"
	"stickerline/internal/providers/image"
)

// coinCost is the ledger price of one generation job.
const coinCost = 1

// BlobStore is the subset of the storage layer the orchestrator writes
// finished stickers through.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Cleaner decomposes a prepared composite into finished sticker blobs.
type Cleaner interface {
	Process(ctx context.Context, img *imaging.Image, xEdges, yEdges imaging.GridEdges) ([][]byte, error)
}

// Options tunes throttling and the per-job deadline.
type Options struct {
	Concurrency int
	Cooldown    time.Duration
	Timeout     time.Duration
}

// Orchestrator owns job submission and the background processing of each
// generation.
type Orchestrator struct {
	users     domain.UserRepository
	jobs      domain.JobRepository
	slots     domain.SlotRepository
	generator image.Generator
	cleaner   Cleaner
	store     BlobStore
	logger    *infra.Logger

	sem     *semaphore.Weighted
	timeout time.Duration

	cooldown    time.Duration
	mu          sync.Mutex
	nextAllowed map[string]time.Time

	wg sync.WaitGroup
}

// New wires an Orchestrator. Concurrency below one is clamped to one.
func New(
	users domain.UserRepository,
	jobs domain.JobRepository,
	slots domain.SlotRepository,
	generator image.Generator,
	cleaner Cleaner,
	store BlobStore,
	logger *infra.Logger,
	opts Options,
) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &Orchestrator{
		users:       users,
		jobs:        jobs,
		slots:       slots,
		generator:   generator,
		cleaner:     cleaner,
		store:       store,
		logger:      logger,
		sem:         semaphore.NewWeighted(int64(opts.Concurrency)),
		timeout:     opts.Timeout,
		cooldown:    opts.Cooldown,
		nextAllowed: make(map[string]time.Time),
	}
}

// SubmitRequest carries everything needed to start a generation job.
type SubmitRequest struct {
	UserID        string
	StyleID       string
	Prompt        string
	ImageRef      string
	ImageData     []byte
	ImageMime     string
	LockedIndices []int
	Locale        string
}

// Submit validates the request, charges one coin, persists the queued job and
// starts processing in the background. The returned job is already visible to
// status polls.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*domain.Job, error) {
	style, err := imagegen.ResolveStyle(req.StyleID)
	if err != nil {
		return nil, err
	}
	if len(req.ImageData) == 0 {
		return nil, fmt.Errorf("%w: reference image is required", domain.ErrInvalidPrompt)
	}

	if _, err := o.users.ChargeCoins(ctx, req.UserID, coinCost); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Status:    domain.JobStatusQueued,
		StyleID:   style.ID,
		ImageRef:  req.ImageRef,
		Prompt:    strings.TrimSpace(req.Prompt),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		o.refund(context.WithoutCancel(ctx), job)
		return nil, fmt.Errorf("create job: %w", err)
	}

	o.wg.Add(1)
	go o.run(job, style, req)

	return job, nil
}

// Wait blocks until all in-flight jobs have reached a terminal state. Used on
// shutdown and in tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) run(job *domain.Job, style imagegen.Style, req SubmitRequest) {
	defer o.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("job_id", job.ID).
				Interface("panic", r).
				Msg("orchestrator: job panicked")
			o.fail(context.Background(), job, fmt.Errorf("internal error"))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout+o.cooldownDelay(job.UserID, false))
	defer cancel()

	o.sleepCooldown(job.UserID)

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.fail(ctx, job, fmt.Errorf("acquire slot: %w", err))
		return
	}
	defer o.sem.Release(1)

	if err := o.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusProcessing, nil, nil, false); err != nil {
		o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("orchestrator: mark processing failed")
	}

	slots, fallback, err := o.process(ctx, job, style, req)
	if err != nil {
		o.fail(ctx, job, err)
		return
	}

	if err := o.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusCompleted, nil, slots, fallback); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("orchestrator: mark completed failed")
		return
	}

	o.logger.Info().
		Str("job_id", job.ID).
		Str("user_id", job.UserID).
		Bool("grid_fallback", fallback).
		Msg("orchestrator: job completed")
}

func (o *Orchestrator) process(ctx context.Context, job *domain.Job, style imagegen.Style, req SubmitRequest) ([]domain.StickerSlot, bool, error) {
	instruction := imagegen.BuildInstruction(style, req.Prompt, req.Locale)
	sheet, err := o.generator.Generate(ctx, image.GenerateRequest{
		Instruction: instruction,
		ImageData:   req.ImageData,
		ImageMime:   req.ImageMime,
		RequestID:   job.ID,
	})
	if err != nil {
		return nil, false, fmt.Errorf("generate sheet: %w", err)
	}
	if sheet == nil || len(sheet.Data) == 0 {
		return nil, false, domain.ErrNoImageData
	}

	composite, err := imaging.DecodeRGB(sheet.Data)
	if err != nil {
		return nil, false, fmt.Errorf("decode sheet: %w", err)
	}
	prepared := imaging.Prepare(composite)
	xEdges, yEdges, fallback := imaging.Locate(prepared)
	if fallback {
		o.logger.Warn().
			Str("job_id", job.ID).
			Msg("orchestrator: gutters not resolvable, using equal quarters")
	}

	blobs, err := o.cleaner.Process(ctx, prepared, xEdges, yEdges)
	if err != nil {
		return nil, false, fmt.Errorf("clean cells: %w", err)
	}
	if len(blobs) != domain.SlotCount {
		return nil, false, fmt.Errorf("expected %d stickers, got %d", domain.SlotCount, len(blobs))
	}

	slots, err := o.mergeAndStore(ctx, job, req.LockedIndices, blobs)
	if err != nil {
		return nil, false, err
	}
	return slots, fallback, nil
}

// mergeAndStore writes the fresh blobs, re-pins any locked slots onto their
// previous blobs, and replaces the user's current set.
func (o *Orchestrator) mergeAndStore(ctx context.Context, job *domain.Job, lockedIndices []int, blobs [][]byte) ([]domain.StickerSlot, error) {
	locked := domain.SanitizeLockedIndices(lockedIndices)

	previous := map[int]domain.StickerSlot{}
	if len(locked) > 0 {
		set, err := o.slots.Load(ctx, job.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load current set: %w", err)
		}
		if set != nil {
			for _, slot := range set.Slots {
				previous[slot.Index] = slot
			}
		}
	}

	slots := make([]domain.StickerSlot, domain.SlotCount)
	for idx := 0; idx < domain.SlotCount; idx++ {
		if prev, ok := previous[idx]; ok && locked[idx] {
			slots[idx] = domain.StickerSlot{Index: idx, StorageKey: prev.StorageKey, Locked: true}
			continue
		}
		key := fmt.Sprintf("stickers/%s/%s/%02d.png", job.UserID, job.ID, idx)
		written, err := o.store.Write(ctx, key, blobs[idx])
		if err != nil {
			return nil, fmt.Errorf("store sticker %d: %w", idx, err)
		}
		slots[idx] = domain.StickerSlot{Index: idx, StorageKey: written}
	}

	if err := o.slots.Save(ctx, &domain.StickerSet{UserID: job.UserID, JobID: job.ID, Slots: slots}); err != nil {
		return nil, fmt.Errorf("save sticker set: %w", err)
	}
	return slots, nil
}

// fail marks the job failed and refunds the coin. A refund failure never
// resurrects the job; it is logged for manual reconciliation.
func (o *Orchestrator) fail(ctx context.Context, job *domain.Job, cause error) {
	ctx = context.WithoutCancel(ctx)
	msg := userFacingError(cause)
	if err := o.jobs.UpdateStatus(ctx, job.ID, domain.JobStatusFailed, &msg, nil, false); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("orchestrator: mark failed failed")
	}
	o.logger.Warn().
		Err(cause).
		Str("job_id", job.ID).
		Str("user_id", job.UserID).
		Msg("orchestrator: job failed")
	o.refund(ctx, job)
}

func (o *Orchestrator) refund(ctx context.Context, job *domain.Job) {
	if _, err := o.users.RefundCoins(ctx, job.UserID, coinCost); err != nil {
		o.logger.Error().
			Err(err).
			Str("job_id", job.ID).
			Str("user_id", job.UserID).
			Int("coins", coinCost).
			Msg("orchestrator: refund failed, manual reconciliation required")
	}
}

// userFacingError keeps provider internals out of responses.
func userFacingError(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return domain.ErrRateLimited.Error()
	case errors.Is(err, domain.ErrNoImageData):
		return domain.ErrNoImageData.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "generation timed out, please try again"
	default:
		return "generation failed, please try again"
	}
}

// cooldownDelay returns how long the caller would wait right now, and if
// advance is set also pushes the user's next allowed start past that wait.
func (o *Orchestrator) cooldownDelay(userID string, advance bool) time.Duration {
	if o.cooldown <= 0 {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	next := o.nextAllowed[userID]
	wait := next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	if advance {
		start := now.Add(wait)
		o.nextAllowed[userID] = start.Add(o.cooldown)
	}
	return wait
}

// sleepCooldown reserves this job's start slot before sleeping, so a burst of
// submissions from one user serializes at cooldown intervals instead of all
// waking at once.
func (o *Orchestrator) sleepCooldown(userID string) {
	if wait := o.cooldownDelay(userID, true); wait > 0 {
		time.Sleep(wait)
	}
}
