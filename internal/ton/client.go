// Package ton talks to the TON blockchain: it reads the recent transaction
// history of a wallet (the ledger side of payment verification) and sends
// outbound transfers (refund payouts). Everything downstream consumes the
// canonical Transaction shape produced here, never raw tlb structures.
package ton

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	tonapi "github.com/xssnick/tonutils-go/ton"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/config"
)

// Transaction is the canonical view of a ledger record. Amounts are carried
// in nanoTON for comparison; the decimal fields exist for JSON display only.
type Transaction struct {
	Hash       string   `json:"hash"`
	Timestamp  int64    `json:"timestamp"`
	AmountNano *big.Int `json:"-"`
	Amount     string   `json:"amount"`
	Sender     string   `json:"sender"`
	Recipient  string   `json:"recipient"`
	Fee        string   `json:"fee"`
}

type LedgerClient struct {
	api     tonapi.APIClientWrapped
	project *address.Address
	limit   int
	timeout time.Duration
	log     *zap.Logger
}

// Connect establishes the lite server connection pool and resolves the
// project wallet address. If LITE_SERVER_HOST + LITE_SERVER_KEY are set,
// connects to that server; otherwise auto-discovers from the global TON
// config matching TON_NETWORK.
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*LedgerClient, error) {
	project, err := ParseAddress(cfg.ProjectWalletAddress)
	if err != nil {
		return nil, fmt.Errorf("project wallet address: %w", err)
	}

	client := liteclient.NewConnectionPool()

	if cfg.LiteServerHost != "" && cfg.LiteServerKey != "" {
		addr := fmt.Sprintf("%s:%d", cfg.LiteServerHost, cfg.LiteServerPort)
		log.Info("connecting to lite server", zap.String("addr", addr))
		if err := client.AddConnection(ctx, addr, cfg.LiteServerKey); err != nil {
			return nil, fmt.Errorf("connect to lite server %s: %w", addr, err)
		}
	} else {
		var configURL string
		switch strings.ToLower(cfg.TONNetwork) {
		case "mainnet":
			configURL = "https://ton.org/global.config.json"
		default:
			configURL = "https://ton.org/testnet-global.config.json"
		}
		log.Info("connecting via global config", zap.String("url", configURL), zap.String("network", cfg.TONNetwork))
		if err := client.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
			return nil, fmt.Errorf("connect via config %s: %w", configURL, err)
		}
	}

	proofPolicy := tonapi.ProofCheckPolicyFast
	if strings.ToLower(cfg.TONNetwork) == "mainnet" {
		proofPolicy = tonapi.ProofCheckPolicySecure
	}

	return &LedgerClient{
		api:     tonapi.NewAPIClient(client, proofPolicy).WithRetry(),
		project: project,
		limit:   cfg.LedgerFetchLimit,
		timeout: cfg.LedgerTimeout,
		log:     log,
	}, nil
}

// API exposes the underlying client for components that need more than
// history reads (the refund sender builds its wallet on top of it).
func (c *LedgerClient) API() tonapi.APIClientWrapped { return c.api }

func (c *LedgerClient) ProjectAddress() string { return c.project.String() }

// Recent returns up to limit of the project wallet's most recent incoming
// transfers, most recent first. Zero results is not an error; callers must
// not assume any ordering beyond "a recent window". Limit <= 0 falls back to
// the configured fetch limit.
func (c *LedgerClient) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	return c.TransactionsFor(ctx, c.project, limit)
}

// RecentFor is Recent for an arbitrary address string (read-only passthrough).
func (c *LedgerClient) RecentFor(ctx context.Context, addr string, limit int) ([]Transaction, error) {
	parsed, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	return c.TransactionsFor(ctx, parsed, limit)
}

func (c *LedgerClient) TransactionsFor(ctx context.Context, addr *address.Address, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = c.limit
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrLedgerUnavailable, "get master block: %v", err)
	}

	account, err := c.api.GetAccount(ctx, block, addr)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrLedgerUnavailable, "get account: %v", err)
	}

	// Not an error: a wallet with no history yet simply has nothing to match.
	if account == nil || !account.IsActive || account.LastTxLT == 0 {
		return nil, nil
	}

	raw, err := c.api.ListTransactions(ctx, addr, uint32(limit), account.LastTxLT, account.LastTxHash)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrLedgerUnavailable, "list transactions: %v", err)
	}

	// ListTransactions returns oldest-first; flip to most-recent-first.
	txs := make([]Transaction, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		tx, ok := normalize(raw[i])
		if !ok {
			// A single malformed record is skipped, never aborts the batch.
			c.log.Debug("skipping non-transfer ledger record", zap.Uint64("lt", raw[i].LT))
			continue
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// Balance returns the TON balance of an address as a decimal string.
func (c *LedgerClient) Balance(ctx context.Context, addr string) (string, error) {
	parsed, err := ParseAddress(addr)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrLedgerUnavailable, "get master block: %v", err)
	}

	account, err := c.api.GetAccount(ctx, block, parsed)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrLedgerUnavailable, "get account: %v", err)
	}

	if account == nil || !account.IsActive {
		return "0", nil
	}
	return account.State.Balance.String(), nil
}

// normalize converts a raw ledger record into the canonical shape. Records
// that are not plain incoming value transfers (external messages, bounced
// transfers, zero-value) are reported as not ok.
func normalize(tx *tlb.Transaction) (Transaction, bool) {
	if tx == nil || tx.IO.In == nil {
		return Transaction{}, false
	}

	inMsg, ok := tx.IO.In.Msg.(*tlb.InternalMessage)
	if !ok || inMsg == nil {
		return Transaction{}, false
	}
	if inMsg.Bounced {
		return Transaction{}, false
	}

	amount := inMsg.Amount.Nano()
	if amount == nil || amount.Sign() <= 0 {
		return Transaction{}, false
	}

	var sender, recipient string
	if inMsg.SrcAddr != nil {
		sender = inMsg.SrcAddr.String()
	}
	if inMsg.DstAddr != nil {
		recipient = inMsg.DstAddr.String()
	}
	if sender == "" || recipient == "" {
		return Transaction{}, false
	}

	return Transaction{
		Hash:       hex.EncodeToString(tx.Hash),
		Timestamp:  int64(tx.Now),
		AmountNano: amount,
		Amount:     FormatNano(amount),
		Sender:     sender,
		Recipient:  recipient,
		Fee:        tx.TotalFees.Coins.String(),
	}, true
}
