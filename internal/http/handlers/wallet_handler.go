package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/http/dto"
	"github.com/ton-course/backend/internal/ton"
)

// WalletHandler отдаёт read-only данные проектного кошелька из леджера.
type WalletHandler struct {
	ledger *ton.LedgerClient
	log    *zap.Logger
}

func NewWalletHandler(ledger *ton.LedgerClient, log *zap.Logger) *WalletHandler {
	return &WalletHandler{ledger: ledger, log: log}
}

// GetBalance возвращает текущий баланс проектного кошелька.
// GET /wallet/balance
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	balance, err := h.ledger.Balance(c.Context(), h.ledger.ProjectAddress())
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.BalanceResponse{
		Address: h.ledger.ProjectAddress(),
		Balance: balance,
	})
}

// GetTransactions возвращает последние входящие переводы на адрес.
// GET /wallet/transactions/:address
func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	addr := c.Params("address")
	if addr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address is required"})
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	txs, err := h.ledger.RecentFor(c.Context(), addr, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: txs})
}
