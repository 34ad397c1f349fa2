package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/http/dto"
	"github.com/ton-course/backend/internal/middleware"
	"github.com/ton-course/backend/internal/services"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
	refundService   *services.RefundService
	log             *zap.Logger
}

func NewPurchaseHandler(purchaseService *services.PurchaseService, refundService *services.RefundService, log *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService, refundService: refundService, log: log}
}

// SubmitPurchase регистрирует покупку после проверки платежа в истории
// проектного кошелька.
// POST /purchases
func (h *PurchaseHandler) SubmitPurchase(c *fiber.Ctx) error {
	var req dto.SubmitPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.WalletAddress == "" || req.TransactionHash == "" || req.Amount == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "wallet_address, transaction_hash, and amount are required"})
	}

	userID := middleware.GetUserID(c)
	purchase, err := h.purchaseService.SubmitPurchase(c.Context(), userID, req.WalletAddress, req.TransactionHash, req.Amount)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: purchase})
}

// VerifyPurchase — альтернативная точка входа для мини-аппа: та же проверка
// и регистрация, но с ответом {success, purchase}.
// POST /wallet/verify-purchase
func (h *PurchaseHandler) VerifyPurchase(c *fiber.Ctx) error {
	var req dto.SubmitPurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	if req.WalletAddress == "" || req.TransactionHash == "" || req.Amount == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "wallet_address, transaction_hash, and amount are required"})
	}

	userID := middleware.GetUserID(c)
	purchase, err := h.purchaseService.SubmitPurchase(c.Context(), userID, req.WalletAddress, req.TransactionHash, req.Amount)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.VerifyPurchaseResponse{Success: true, Purchase: purchase})
}

// ListUserPurchases возвращает покупки пользователя, новые первыми.
// GET /purchases/user/:userId
func (h *PurchaseHandler) ListUserPurchases(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}

	// Историю покупок можно смотреть только свою.
	if userID != middleware.GetUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "access denied"})
	}

	purchases, err := h.purchaseService.ListUserPurchases(c.Context(), userID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: purchases})
}

// CompletePurchase помечает покупку завершённой (доступ к курсу выдан).
// POST /purchases/:id/complete
func (h *PurchaseHandler) CompletePurchase(c *fiber.Ctx) error {
	purchaseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid purchase id"})
	}

	userID := middleware.GetUserID(c)
	purchase, err := h.purchaseService.CompletePurchase(c.Context(), userID, purchaseID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: purchase})
}

// ProcessRefund возвращает покупателю часть суммы и закрывает покупку.
// POST /wallet/process-refund
func (h *PurchaseHandler) ProcessRefund(c *fiber.Ctx) error {
	var req dto.ProcessRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	purchaseID, err := uuid.Parse(req.PurchaseID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid purchase id"})
	}

	purchase, err := h.refundService.Refund(c.Context(), purchaseID)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.RefundResponse{Success: true, Purchase: purchase})
}
