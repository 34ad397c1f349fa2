package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ton-course/backend/internal/apperrors"
	"github.com/ton-course/backend/internal/http/dto"
	"github.com/ton-course/backend/internal/middleware"
)

// statusFor переводит код доменной ошибки в HTTP-статус.
// Всё, что не входит в таксономию, отдаётся как 500.
func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodePaymentNotFound,
		apperrors.CodeDuplicateTransaction,
		apperrors.CodeActivePurchase,
		apperrors.CodeAlreadyRefunded,
		apperrors.CodeAlreadyCompleted,
		apperrors.CodeInvalidAmount,
		apperrors.CodeInvalidAddress:
		return fiber.StatusBadRequest
	case apperrors.CodeNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeLedgerUnavailable:
		return fiber.StatusServiceUnavailable
	case apperrors.CodePayoutTimeout:
		return fiber.StatusGatewayTimeout
	case apperrors.CodeRefundFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	reqID, _ := c.Locals(middleware.CtxRequestID).(string)
	code := apperrors.CodeOf(err)

	if code == "" {
		log.Error("unhandled error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:     "internal server error",
			RequestID: reqID,
		})
	}

	return c.Status(statusFor(code)).JSON(dto.ErrorResponse{
		Error:     err.Error(),
		Code:      string(code),
		RequestID: reqID,
	})
}
