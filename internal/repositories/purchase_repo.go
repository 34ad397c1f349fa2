package repositories

import (
	"context"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/models"
	"github.com/ton-course/backend/internal/ton"
)

// Unique constraint names from migrations/0001_init.up.sql. The database is
// the source of truth for both uniqueness invariants: two concurrent inserts
// with the same tx hash (or for the same still-active user) are resolved
// here, not by the pre-checks in the service layer.
const (
	constraintTxHash    = "purchases_tx_hash_key"
	constraintOneActive = "purchases_one_active_per_user"
)

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

const purchaseColumns = `id, user_id, wallet_address, tx_hash, amount_nano, completed, refunded, created_at`

func (r *PurchaseRepo) Create(ctx context.Context, p *models.Purchase) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO purchases (user_id, wallet_address, tx_hash, amount_nano)
		VALUES ($1, $2, $3, $4)
		RETURNING id, completed, refunded, created_at
	`, p.UserID, p.WalletAddress, p.TxHash, p.AmountNano).Scan(&p.ID, &p.Completed, &p.Refunded, &p.CreatedAt)
	if err != nil {
		return mapConstraint(err)
	}
	p.AmountTON = ton.FormatNano(big.NewInt(p.AmountNano))
	return nil
}

func (r *PurchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT `+purchaseColumns+` FROM purchases WHERE id = $1
	`, id))
}

func (r *PurchaseRepo) FindByTxHash(ctx context.Context, txHash string) (*models.Purchase, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT `+purchaseColumns+` FROM purchases WHERE tx_hash = $1
	`, txHash))
}

// FindActiveForUser returns the user's purchase that is neither completed nor
// refunded, or ErrNotFound.
func (r *PurchaseRepo) FindActiveForUser(ctx context.Context, userID uuid.UUID) (*models.Purchase, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT `+purchaseColumns+` FROM purchases
		WHERE user_id = $1 AND completed = false AND refunded = false
	`, userID))
}

func (r *PurchaseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+purchaseColumns+` FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.WalletAddress, &p.TxHash, &p.AmountNano, &p.Completed, &p.Refunded, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.AmountTON = ton.FormatNano(big.NewInt(p.AmountNano))
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// MarkCompleted sets completed = true. Refunded is untouched; only a refund
// payout closes the record.
func (r *PurchaseRepo) MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		UPDATE purchases SET completed = true
		WHERE id = $1
		RETURNING `+purchaseColumns+`
	`, id))
}

// MarkClosed sets both flags after a successful refund payout. There is no
// operation that re-opens a closed purchase.
func (r *PurchaseRepo) MarkClosed(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		UPDATE purchases SET completed = true, refunded = true
		WHERE id = $1
		RETURNING `+purchaseColumns+`
	`, id))
}

func (r *PurchaseRepo) scanOne(row pgx.Row) (*models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(&p.ID, &p.UserID, &p.WalletAddress, &p.TxHash, &p.AmountNano, &p.Completed, &p.Refunded, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.AmountTON = ton.FormatNano(big.NewInt(p.AmountNano))
	return &p, nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case constraintTxHash:
			return apperrors.ErrDuplicateTransaction
		case constraintOneActive:
			return apperrors.ErrActivePurchaseExists
		}
	}
	return err
}
