package services

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/config"
	"github.com/ton-course/backend/internal/events"
	"github.com/ton-course/backend/internal/models"
	"github.com/ton-course/backend/internal/ton"
)

// PurchaseStore owns purchase records. All mutation goes through it; its
// unique constraints (tx hash, one active purchase per user) are the final
// word when concurrent submits race past the pre-checks below.
type PurchaseStore interface {
	Create(ctx context.Context, p *models.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByTxHash(ctx context.Context, txHash string) (*models.Purchase, error)
	FindActiveForUser(ctx context.Context, userID uuid.UUID) (*models.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	MarkClosed(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
}

// PaymentVerifier confirms that an expected payment arrived on-chain.
type PaymentVerifier interface {
	VerifyIncoming(ctx context.Context, expectedNano *big.Int, expectedSender string, since time.Time) (bool, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditEntry) error
}

// WalletAddressRecorder caches the last address a user paid from.
type WalletAddressRecorder interface {
	RememberWalletAddress(ctx context.Context, userID uuid.UUID, address string) error
}

type PurchaseService struct {
	store     PurchaseStore
	verifier  PaymentVerifier
	users     WalletAddressRecorder
	audit     AuditLogger
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewPurchaseService(
	store PurchaseStore,
	verifier PaymentVerifier,
	users WalletAddressRecorder,
	audit AuditLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *PurchaseService {
	return &PurchaseService{
		store:     store,
		verifier:  verifier,
		users:     users,
		audit:     audit,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// SubmitPurchase is the entry point of the purchase flow: confirm the claimed
// payment on-chain, reject duplicates, create the record.
//
// The window anchor is taken before verification starts, so retries inside
// the matcher never widen it.
func (s *PurchaseService) SubmitPurchase(ctx context.Context, userID uuid.UUID, walletAddress, txHash, amountTON string) (*models.Purchase, error) {
	amountNano, err := ton.ParseTON(amountTON)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAmount, "%v", err)
	}
	if !amountNano.IsInt64() || amountNano.Sign() <= 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidAmount, "amount out of range: %s", amountTON)
	}
	// 1. Платёж реально пришёл на проектный кошелёк?
	since := time.Now().Add(-s.cfg.PaymentWindow)
	found, err := s.verifier.VerifyIncoming(ctx, amountNano, walletAddress, since)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.ErrPaymentNotFound
	}

	// 2. Pre-checks. Cheap and give precise errors, but the store constraints
	// remain the source of truth under concurrency.
	if existing, err := s.store.FindByTxHash(ctx, txHash); err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateTransaction
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if active, err := s.store.FindActiveForUser(ctx, userID); err == nil && active != nil {
		return nil, apperrors.ErrActivePurchaseExists
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	// 3. Create. A concurrent submit with the same tx hash loses here with
	// ErrDuplicateTransaction from the unique constraint.
	purchase := &models.Purchase{
		UserID:        userID,
		WalletAddress: walletAddress,
		TxHash:        txHash,
		AmountNano:    amountNano.Int64(),
	}
	if err := s.store.Create(ctx, purchase); err != nil {
		return nil, err
	}

	_ = s.users.RememberWalletAddress(ctx, userID, walletAddress)

	_ = s.audit.Log(ctx, models.AuditEntry{
		UserID:     &userID,
		ActorType:  "user",
		Action:     models.AuditPurchaseCreated,
		PurchaseID: &purchase.ID,
		Meta:       map[string]any{"tx_hash": txHash, "amount_ton": purchase.AmountTON},
	})

	_ = s.publisher.Publish(ctx, events.PurchaseEvent(events.EventPurchaseCreated, purchase.ID, userID, map[string]any{
		"amount_ton": purchase.AmountTON,
	}))

	s.log.Info("purchase created",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("tx_hash", txHash),
		zap.String("amount_ton", purchase.AmountTON),
	)

	return purchase, nil
}

// CompletePurchase marks the course finished without a payout. Completed is
// monotonic: a second call (or a call on a closed purchase) is rejected, the
// flag is never reset.
func (s *PurchaseService) CompletePurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.store.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	if purchase.Completed || purchase.Refunded {
		return nil, apperrors.ErrAlreadyCompleted
	}

	updated, err := s.store.MarkCompleted(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditEntry{
		UserID:     &userID,
		ActorType:  "user",
		Action:     models.AuditPurchaseCompleted,
		PurchaseID: &purchaseID,
	})

	_ = s.publisher.Publish(ctx, events.PurchaseEvent(events.EventPurchaseCompleted, purchaseID, userID, nil))

	return updated, nil
}

func (s *PurchaseService) ListUserPurchases(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	return s.store.ListByUser(ctx, userID)
}
