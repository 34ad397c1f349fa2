package ton

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/apperrors"
)

// RefundSender broadcasts outbound TON transfers from the project wallet.
// Signing is delegated to tonutils-go; we only hold the derived wallet.
type RefundSender struct {
	wallet *wallet.Wallet
	log    *zap.Logger
}

// NewRefundSender derives the payout wallet (V4R2) from its mnemonic.
func NewRefundSender(client *LedgerClient, mnemonic string, log *zap.Logger) (*RefundSender, error) {
	words := strings.Fields(mnemonic)
	if len(words) == 0 {
		return nil, fmt.Errorf("empty wallet mnemonic")
	}

	w, err := wallet.FromSeed(client.API(), words, wallet.V4R2)
	if err != nil {
		return nil, fmt.Errorf("derive payout wallet: %w", err)
	}

	log.Info("payout wallet initialized", zap.String("address", w.WalletAddress().String()))
	return &RefundSender{wallet: w, log: log}, nil
}

// Send transfers amountNano to the destination and waits for the transfer to
// be accepted. Failure means nothing was recorded on our side; the caller
// must not mark anything refunded.
func (s *RefundSender) Send(ctx context.Context, to string, amountNano *big.Int, comment string) error {
	dst, err := ParseAddress(to)
	if err != nil {
		return err
	}

	if err := s.wallet.Transfer(ctx, dst, tlb.FromNanoTON(amountNano), comment, true); err != nil {
		return fmt.Errorf("transfer %s TON to %s: %w", FormatNano(amountNano), dst.String(), err)
	}

	s.log.Info("refund sent",
		zap.String("to", dst.String()),
		zap.String("amount_ton", FormatNano(amountNano)),
	)
	return nil
}

// DisabledSender replaces RefundSender when no mnemonic is configured.
// Every payout attempt fails cleanly instead of panicking at wire time.
type DisabledSender struct{}

func (DisabledSender) Send(ctx context.Context, to string, amountNano *big.Int, comment string) error {
	return apperrors.Wrap(apperrors.ErrRefundFailed, "payouts disabled: WALLET_MNEMONIC is not set")
}
