package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/config"
	"github.com/ton-course/backend/internal/events"
	"github.com/ton-course/backend/internal/models"
	"github.com/ton-course/backend/internal/ton"
)

// PayoutSender broadcasts an outbound value transfer and reports the outcome.
type PayoutSender interface {
	Send(ctx context.Context, to string, amountNano *big.Int, comment string) error
}

// RefundService pays back the configured fraction of a purchase and closes
// the record. Ordering is strict: the record is only marked refunded after
// the sender reported success, so a failed payout leaves it untouched.
type RefundService struct {
	store     PurchaseStore
	sender    PayoutSender
	audit     AuditLogger
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewRefundService(
	store PurchaseStore,
	sender PayoutSender,
	audit AuditLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *RefundService {
	return &RefundService{
		store:     store,
		sender:    sender,
		audit:     audit,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// RefundAmount computes the payout in nanoTON: amount × RefundRateBPS / 10000.
// The remainder stays with the project as the service fee.
func (s *RefundService) RefundAmount(amountNano int64) *big.Int {
	refund := big.NewInt(amountNano)
	refund.Mul(refund, big.NewInt(int64(s.cfg.RefundRateBPS)))
	return refund.Quo(refund, big.NewInt(10000))
}

// Refund pays out and closes the purchase. Idempotent in effect: a second
// call returns ErrAlreadyRefunded and changes nothing.
func (s *RefundService) Refund(ctx context.Context, purchaseID uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.store.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.Closed() {
		return nil, apperrors.ErrAlreadyRefunded
	}

	refundNano := s.RefundAmount(purchase.AmountNano)

	payoutCtx, cancel := context.WithTimeout(ctx, s.cfg.PayoutTimeout)
	defer cancel()

	comment := fmt.Sprintf("course refund %s", purchase.ID)
	if err := s.sender.Send(payoutCtx, purchase.WalletAddress, refundNano, comment); err != nil {
		_ = s.audit.Log(ctx, models.AuditEntry{
			UserID:     &purchase.UserID,
			ActorType:  "system",
			Action:     models.AuditRefundFailed,
			PurchaseID: &purchase.ID,
			Meta:       map[string]any{"error": err.Error()},
		})

		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(apperrors.ErrPayoutTimeout, "purchase %s", purchase.ID)
		}
		if apperrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrRefundFailed, "purchase %s: %v", purchase.ID, err)
	}

	// Payout confirmed; now (and only now) close the record.
	updated, err := s.store.MarkClosed(ctx, purchaseID)
	if err != nil {
		// Payout went out but the store update failed. Surface the error and
		// leave reconciliation to the audit trail.
		s.log.Error("refund sent but purchase not closed",
			zap.String("purchase_id", purchaseID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditEntry{
		UserID:     &purchase.UserID,
		ActorType:  "system",
		Action:     models.AuditPurchaseRefunded,
		PurchaseID: &purchase.ID,
		Meta: map[string]any{
			"refund_ton": ton.FormatNano(refundNano),
			"rate_bps":   s.cfg.RefundRateBPS,
		},
	})

	_ = s.publisher.Publish(ctx, events.PurchaseEvent(events.EventPurchaseRefunded, purchase.ID, purchase.UserID, map[string]any{
		"refund_ton": ton.FormatNano(refundNano),
	}))

	s.log.Info("purchase refunded",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("refund_ton", ton.FormatNano(refundNano)),
		zap.String("to", purchase.WalletAddress),
	)

	return updated, nil
}
