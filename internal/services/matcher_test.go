package services

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/config"
	"github.com/ton-course/backend/internal/ton"
)

func matcherConfig() *config.Config {
	return &config.Config{
		VerifyMaxAttempts: 3,
		VerifyRetryDelay:  time.Millisecond,
		LedgerFetchLimit:  20,
		PaymentWindow:     5 * time.Minute,
	}
}

func senderAddr() (raw string, friendly string) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	a := address.NewAddress(0, 0, data)
	return "0:" + hex.EncodeToString(data), a.String()
}

func ledgerTx(sender string, amountNano int64, ts time.Time) ton.Transaction {
	nano := big.NewInt(amountNano)
	return ton.Transaction{
		Hash:       "aabbcc",
		Timestamp:  ts.Unix(),
		AmountNano: nano,
		Amount:     ton.FormatNano(nano),
		Sender:     sender,
		Recipient:  "EQproject",
	}
}

func TestVerifyIncoming_Match(t *testing.T) {
	_, friendly := senderAddr()
	ledger := &fakeLedger{txs: []ton.Transaction{
		ledgerTx(friendly, 10_000_000_000, time.Now()),
	}}

	m := NewMatcher(ledger, matcherConfig(), zap.NewNop())
	found, err := m.VerifyIncoming(context.Background(), big.NewInt(10_000_000_000), friendly, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected payment to be found")
	}
	if ledger.calls != 1 {
		t.Errorf("expected 1 ledger call, got %d", ledger.calls)
	}
}

func TestVerifyIncoming_RetriesThroughTransientFailures(t *testing.T) {
	// Ledger fails on the first 2 attempts, then serves the matching batch.
	_, friendly := senderAddr()
	ledger := &fakeLedger{
		failures: 2,
		err:      apperrors.ErrLedgerUnavailable,
		txs:      []ton.Transaction{ledgerTx(friendly, 5_000_000_000, time.Now())},
	}

	m := NewMatcher(ledger, matcherConfig(), zap.NewNop())
	found, err := m.VerifyIncoming(context.Background(), big.NewInt(5_000_000_000), friendly, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected match on 3rd attempt")
	}
	if ledger.calls != 3 {
		t.Errorf("expected 3 ledger calls, got %d", ledger.calls)
	}
}

func TestVerifyIncoming_ExactBaseUnitAmount(t *testing.T) {
	_, friendly := senderAddr()
	// 9.999999999 TON on the ledger must not satisfy an expected 10 TON.
	ledger := &fakeLedger{txs: []ton.Transaction{
		ledgerTx(friendly, 9_999_999_999, time.Now()),
	}}

	m := NewMatcher(ledger, matcherConfig(), zap.NewNop())
	found, err := m.VerifyIncoming(context.Background(), big.NewInt(10_000_000_000), friendly, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("9.999999999 matched an expected 10.000000000")
	}
	if ledger.calls != 3 {
		t.Errorf("expected all %d attempts, got %d", 3, ledger.calls)
	}
}

func TestVerifyIncoming_AddressEncodingInvariant(t *testing.T) {
	raw, friendly := senderAddr()
	// Ledger reports the friendly form, the client claims the raw form.
	ledger := &fakeLedger{txs: []ton.Transaction{
		ledgerTx(friendly, 1_000_000_000, time.Now()),
	}}

	m := NewMatcher(ledger, matcherConfig(), zap.NewNop())
	found, err := m.VerifyIncoming(context.Background(), big.NewInt(1_000_000_000), raw, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("raw and friendly encodings of the same sender did not match")
	}
}

func TestVerifyIncoming_OutsideWindow(t *testing.T) {
	_, friendly := senderAddr()
	ledger := &fakeLedger{txs: []ton.Transaction{
		ledgerTx(friendly, 1_000_000_000, time.Now().Add(-time.Hour)),
	}}

	m := NewMatcher(ledger, matcherConfig(), zap.NewNop())
	found, err := m.VerifyIncoming(context.Background(), big.NewInt(1_000_000_000), friendly, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("transaction older than the window matched")
	}
}

func TestVerifyIncoming_InvalidSenderIsFatal(t *testing.T) {
	ledger := &fakeLedger{}
	m := NewMatcher(ledger, matcherConfig(), zap.NewNop())

	_, err := m.VerifyIncoming(context.Background(), big.NewInt(1), "not-an-address", time.Now())
	if apperrors.CodeOf(err) != apperrors.CodeInvalidAddress {
		t.Fatalf("expected invalid_address, got: %v", err)
	}
	if ledger.calls != 0 {
		t.Errorf("ledger should not be queried for a malformed sender, got %d calls", ledger.calls)
	}
}
