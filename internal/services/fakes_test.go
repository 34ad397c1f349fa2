package services

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/events"
	"github.com/ton-course/backend/internal/models"
	"github.com/ton-course/backend/internal/ton"
)

// fakeStore mimics the postgres repo including both uniqueness constraints,
// so the races the database would arbitrate are arbitrated here too.
type fakeStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Purchase
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[uuid.UUID]*models.Purchase)}
}

func (s *fakeStore) Create(ctx context.Context, p *models.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byID {
		if existing.TxHash == p.TxHash {
			return apperrors.ErrDuplicateTransaction
		}
		if existing.UserID == p.UserID && existing.Active() {
			return apperrors.ErrActivePurchaseExists
		}
	}

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.AmountTON = ton.FormatNano(big.NewInt(p.AmountNano))

	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (s *fakeStore) FindByTxHash(ctx context.Context, txHash string) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byID {
		if p.TxHash == txHash {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *fakeStore) FindActiveForUser(ctx context.Context, userID uuid.UUID) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byID {
		if p.UserID == userID && p.Active() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Purchase
	for _, p := range s.byID {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.Completed = true
	cp := *p
	return &cp, nil
}

func (s *fakeStore) MarkClosed(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.Completed = true
	p.Refunded = true
	cp := *p
	return &cp, nil
}

type fakeVerifier struct {
	found bool
	err   error
}

func (v fakeVerifier) VerifyIncoming(ctx context.Context, expectedNano *big.Int, expectedSender string, since time.Time) (bool, error) {
	return v.found, v.err
}

// fakeLedger serves canned batches, optionally failing the first N calls.
type fakeLedger struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	txs      []ton.Transaction
}

func (l *fakeLedger) Recent(ctx context.Context, limit int) ([]ton.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.calls <= l.failures {
		return nil, l.err
	}
	return l.txs, nil
}

type fakeSender struct {
	mu    sync.Mutex
	err   error
	calls []sentPayout
}

type sentPayout struct {
	to     string
	amount *big.Int
}

func (s *fakeSender) Send(ctx context.Context, to string, amountNano *big.Int, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, sentPayout{to: to, amount: new(big.Int).Set(amountNano)})
	return nil
}

type nopAudit struct{}

func (nopAudit) Log(ctx context.Context, entry models.AuditEntry) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event events.Event) error {
	return nil
}

type nopRecorder struct{}

func (nopRecorder) RememberWalletAddress(ctx context.Context, userID uuid.UUID, address string) error {
	return nil
}
