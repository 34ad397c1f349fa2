package services

import (
	"context"
	"errors"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/config"
	"github.com/ton-course/backend/internal/retryutil"
	"github.com/ton-course/backend/internal/ton"
)

// LedgerSource is the read side the matcher needs from the TON client:
// a recent window of the project wallet's incoming transactions.
type LedgerSource interface {
	Recent(ctx context.Context, limit int) ([]ton.Transaction, error)
}

// errNoMatch makes "payment not indexed yet" retryable inside the combinator
// without inventing a success-shaped sentinel value.
var errNoMatch = errors.New("no matching transaction in window")

// Matcher decides whether an expected payment has landed on the project
// wallet. A just-broadcast transaction may take a while to show up in the
// ledger, so the whole fetch-and-scan cycle is retried a bounded number of
// times; transient ledger failures count as "not yet found", not as errors.
type Matcher struct {
	ledger LedgerSource
	cfg    *config.Config
	log    *zap.Logger
}

func NewMatcher(ledger LedgerSource, cfg *config.Config, log *zap.Logger) *Matcher {
	return &Matcher{ledger: ledger, cfg: cfg, log: log}
}

// VerifyIncoming reports whether a transaction with exactly expectedNano
// value from expectedSender arrived at the project wallet at or after since.
//
// Amounts compare in nanoTON; sender addresses compare after encoding
// normalization, so raw and friendly forms of the same address are equal.
// Only a malformed expected sender is an immediate error; everything else
// resolves to a boolean.
func (m *Matcher) VerifyIncoming(ctx context.Context, expectedNano *big.Int, expectedSender string, since time.Time) (bool, error) {
	if _, err := ton.ParseAddress(expectedSender); err != nil {
		return false, err
	}

	cutoff := since.Unix()

	_, err := retryutil.Do(ctx, retryutil.Config{
		MaxAttempts: m.cfg.VerifyMaxAttempts,
		Delay:       m.cfg.VerifyRetryDelay,
	}, m.log, func(ctx context.Context) (struct{}, error) {
		txs, err := m.ledger.Recent(ctx, m.cfg.LedgerFetchLimit)
		if err != nil {
			// Ledger hiccup: treat as not-yet-indexed and let the loop retry.
			m.log.Warn("ledger fetch failed, will retry", zap.Error(err))
			return struct{}{}, err
		}

		for _, tx := range txs {
			if tx.Timestamp < cutoff {
				continue
			}
			if tx.AmountNano.Cmp(expectedNano) != 0 {
				continue
			}
			if !ton.SameAddress(tx.Sender, expectedSender) {
				continue
			}
			m.log.Info("payment matched",
				zap.String("tx_hash", tx.Hash),
				zap.String("sender", tx.Sender),
				zap.String("amount_ton", tx.Amount),
			)
			return struct{}{}, nil
		}
		return struct{}{}, errNoMatch
	}, nil)

	if err == nil {
		return true, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, err
	}
	// Attempts exhausted: the payment is not there (or the ledger stayed
	// unavailable, which the caller cannot tell apart anyway).
	return false, nil
}

var _ LedgerSource = (*ton.LedgerClient)(nil)
