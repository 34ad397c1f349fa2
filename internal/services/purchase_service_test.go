package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/config"
)

func newPurchaseService(store PurchaseStore, verifier PaymentVerifier) *PurchaseService {
	cfg := &config.Config{PaymentWindow: 5 * time.Minute}
	return NewPurchaseService(store, verifier, nopRecorder{}, nopAudit{}, nopPublisher{}, cfg, zap.NewNop())
}

func TestSubmitPurchase_HappyPath(t *testing.T) {
	store := newFakeStore()
	svc := newPurchaseService(store, fakeVerifier{found: true})
	userID := uuid.New()

	p, err := svc.SubmitPurchase(context.Background(), userID, "EQwallet", "abc", "10")
	if err != nil {
		t.Fatal(err)
	}

	if p.Completed || p.Refunded {
		t.Errorf("new purchase must be active, got completed=%v refunded=%v", p.Completed, p.Refunded)
	}
	if p.AmountNano != 10_000_000_000 {
		t.Errorf("expected 10 TON in nano, got %d", p.AmountNano)
	}
	if p.AmountTON != "10" {
		t.Errorf("expected display amount 10, got %s", p.AmountTON)
	}
	if p.TxHash != "abc" {
		t.Errorf("unexpected tx hash %s", p.TxHash)
	}
}

func TestSubmitPurchase_PaymentNotFound(t *testing.T) {
	svc := newPurchaseService(newFakeStore(), fakeVerifier{found: false})

	_, err := svc.SubmitPurchase(context.Background(), uuid.New(), "EQwallet", "abc", "10")
	if !errors.Is(err, apperrors.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got: %v", err)
	}
}

func TestSubmitPurchase_DuplicateTxHash(t *testing.T) {
	store := newFakeStore()
	svc := newPurchaseService(store, fakeVerifier{found: true})

	if _, err := svc.SubmitPurchase(context.Background(), uuid.New(), "EQa", "abc", "10"); err != nil {
		t.Fatal(err)
	}

	// Same hash from another user: the hash is globally unique.
	_, err := svc.SubmitPurchase(context.Background(), uuid.New(), "EQb", "abc", "10")
	if !errors.Is(err, apperrors.ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got: %v", err)
	}
}

func TestSubmitPurchase_ActivePurchaseExists(t *testing.T) {
	store := newFakeStore()
	svc := newPurchaseService(store, fakeVerifier{found: true})
	userID := uuid.New()

	if _, err := svc.SubmitPurchase(context.Background(), userID, "EQa", "tx1", "10"); err != nil {
		t.Fatal(err)
	}

	_, err := svc.SubmitPurchase(context.Background(), userID, "EQa", "tx2", "10")
	if !errors.Is(err, apperrors.ErrActivePurchaseExists) {
		t.Fatalf("expected ErrActivePurchaseExists, got: %v", err)
	}
}

func TestSubmitPurchase_InvalidAmount(t *testing.T) {
	svc := newPurchaseService(newFakeStore(), fakeVerifier{found: true})

	for _, amount := range []string{"", "abc", "-1", "1.2.3", "0"} {
		_, err := svc.SubmitPurchase(context.Background(), uuid.New(), "EQa", "tx", amount)
		if !errors.Is(err, apperrors.ErrInvalidAmount) {
			t.Errorf("amount %q: expected ErrInvalidAmount, got: %v", amount, err)
		}
	}
}

// Two submits racing with the same tx hash: exactly one create wins, the
// loser gets ErrDuplicateTransaction from the store constraint.
func TestSubmitPurchase_ConcurrentSameTxHash(t *testing.T) {
	store := newFakeStore()
	svc := newPurchaseService(store, fakeVerifier{found: true})

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.SubmitPurchase(context.Background(), uuid.New(), "EQa", "same-hash", "10")
			results[i] = err
		}(i)
	}
	wg.Wait()

	var created, duplicates int
	for _, err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrDuplicateTransaction):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if created != 1 {
		t.Errorf("expected exactly 1 created purchase, got %d", created)
	}
	if duplicates != racers-1 {
		t.Errorf("expected %d duplicates, got %d", racers-1, duplicates)
	}

	p, err := store.FindByTxHash(context.Background(), "same-hash")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil {
		t.Fatal("winner's purchase missing from store")
	}
}

func TestCompletePurchase(t *testing.T) {
	store := newFakeStore()
	svc := newPurchaseService(store, fakeVerifier{found: true})
	userID := uuid.New()

	p, err := svc.SubmitPurchase(context.Background(), userID, "EQa", "tx", "10")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.CompletePurchase(context.Background(), userID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Completed {
		t.Error("purchase not marked completed")
	}
	if updated.Refunded {
		t.Error("direct completion must not mark refunded")
	}

	// Second completion is rejected; the flag stays monotonic.
	if _, err := svc.CompletePurchase(context.Background(), userID, p.ID); !errors.Is(err, apperrors.ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted, got: %v", err)
	}
}

func TestCompletePurchase_WrongUser(t *testing.T) {
	store := newFakeStore()
	svc := newPurchaseService(store, fakeVerifier{found: true})

	p, err := svc.SubmitPurchase(context.Background(), uuid.New(), "EQa", "tx", "10")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CompletePurchase(context.Background(), uuid.New(), p.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign purchase, got: %v", err)
	}
}

func TestCompletePurchase_Missing(t *testing.T) {
	svc := newPurchaseService(newFakeStore(), fakeVerifier{found: true})

	if _, err := svc.CompletePurchase(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

// A completed (but not refunded) purchase frees the user's active slot in
// neither direction: completed purchases are not active, so a new submit
// is allowed.
func TestSubmitPurchase_AfterCompletion(t *testing.T) {
	store := newFakeStore()
	svc := newPurchaseService(store, fakeVerifier{found: true})
	userID := uuid.New()

	p, err := svc.SubmitPurchase(context.Background(), userID, "EQa", "tx1", "10")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CompletePurchase(context.Background(), userID, p.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SubmitPurchase(context.Background(), userID, "EQa", "tx2", "10"); err != nil {
		t.Fatalf("completed purchase still blocks new ones: %v", err)
	}
}

var _ PurchaseStore = (*fakeStore)(nil)
