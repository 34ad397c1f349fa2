package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func LoggerMiddleware(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// healthchecks спамят лог
		if c.Path() == "/health" {
			return c.Next()
		}

		start := time.Now()

		err := c.Next()

		reqID, _ := c.Locals(CtxRequestID).(string)
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		// после auth-миддлвари в Locals лежит идентичность
		if tgID := GetTelegramUserID(c); tgID != 0 {
			fields = append(fields, zap.Int64("telegram_user_id", tgID))
		}
		log.Info("request", fields...)

		return err
	}
}
