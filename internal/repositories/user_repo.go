package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, telegram_user_id, username, first_name, wallet_address, created_at, last_active_at`

func (r *UserRepo) UpsertByTelegramID(ctx context.Context, telegramID int64, username, firstName *string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_user_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_user_id) DO UPDATE SET
			username = COALESCE(EXCLUDED.username, users.username),
			first_name = COALESCE(EXCLUDED.first_name, users.first_name),
			last_active_at = now()
		RETURNING `+userColumns+`
	`, telegramID, username, firstName).Scan(
		&u.ID, &u.TelegramUserID, &u.Username, &u.FirstName, &u.WalletAddress, &u.CreatedAt, &u.LastActiveAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.TelegramUserID, &u.Username, &u.FirstName, &u.WalletAddress, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RememberWalletAddress caches the address the user last paid from, so the
// mini-app can pre-fill it on the next visit.
func (r *UserRepo) RememberWalletAddress(ctx context.Context, id uuid.UUID, address string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET wallet_address = $1 WHERE id = $2`, address, id)
	return err
}

func (r *UserRepo) UpdateLastActive(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}
