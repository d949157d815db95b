package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stickerline/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
// Coin movements are single-statement updates so concurrent charges against
// the same balance serialize on the row without an explicit transaction.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// Sync inserts the LIFF profile on first sight, granting the free trial
// coins, and refreshes display fields on subsequent logins.
func (r *UserRepositoryPG) Sync(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
INSERT INTO users (id, display_name, picture_url, coin_balance, total_spent_thb, is_free_trial_used)
VALUES ($1, $2, $3, $4, 0, TRUE)
ON CONFLICT (id) DO UPDATE
SET display_name = EXCLUDED.display_name,
    picture_url = EXCLUDED.picture_url,
    updated_at = NOW()
RETURNING id, display_name, picture_url, coin_balance, total_spent_thb, is_free_trial_used, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query, user.ID, user.DisplayName, user.PictureURL, domain.FreeTrialCoins)
	return scanUser(row)
}

// GetByID fetches a user by LINE user id.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, display_name, picture_url, coin_balance, total_spent_thb, is_free_trial_used, created_at, updated_at
FROM users
WHERE id = $1;
`, id)
	return scanUser(row)
}

// ChargeCoins debits amount atomically and returns the new balance. The
// guard in the WHERE clause makes an insufficient balance a no-op instead of
// going negative.
func (r *UserRepositoryPG) ChargeCoins(ctx context.Context, userID string, amount int) (int, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE users
SET coin_balance = coin_balance - $2,
    updated_at = NOW()
WHERE id = $1 AND coin_balance >= $2
RETURNING coin_balance;
`, userID, amount)

	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, r.classifyChargeMiss(ctx, userID)
		}
		return 0, err
	}
	return balance, nil
}

// classifyChargeMiss distinguishes a missing user from an empty wallet after
// a guarded charge matched no row.
func (r *UserRepositoryPG) classifyChargeMiss(ctx context.Context, userID string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientCoins
}

// RefundCoins credits amount back and returns the new balance.
func (r *UserRepositoryPG) RefundCoins(ctx context.Context, userID string, amount int) (int, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE users
SET coin_balance = coin_balance + $2,
    updated_at = NOW()
WHERE id = $1
RETURNING coin_balance;
`, userID, amount)

	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// TopUpCoins credits a purchase, accumulates lifetime THB spend, and records
// the payment reference for audit.
func (r *UserRepositoryPG) TopUpCoins(ctx context.Context, userID string, coins int, thbAmount float64, referenceID string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
UPDATE users
SET coin_balance = coin_balance + $2,
    total_spent_thb = total_spent_thb + $3,
    updated_at = NOW()
WHERE id = $1
RETURNING coin_balance;
`, userID, coins, thbAmount)

	var balance int
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO payments (reference_id, user_id, coins, amount_thb)
VALUES ($1, $2, $3, $4)
ON CONFLICT (reference_id) DO NOTHING;
`, referenceID, userID, coins, thbAmount); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.PictureURL, &u.CoinBalance, &u.TotalSpentTHB, &u.IsFreeTrialUsed, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
