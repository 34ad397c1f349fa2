package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ton-course/backend/internal/models"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Log(ctx context.Context, entry models.AuditEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (user_id, actor_type, action, purchase_id, meta)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.UserID, entry.ActorType, entry.Action, entry.PurchaseID, entry.Meta)
	return err
}

func (r *AuditRepo) ListByPurchase(ctx context.Context, purchaseID uuid.UUID, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, actor_type, action, purchase_id, meta, created_at
		FROM audit_log WHERE purchase_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, purchaseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ActorType, &e.Action, &e.PurchaseID, &e.Meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
