package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xrp-transfer/backend/internal/auth"
	"github.com/xrp-transfer/backend/internal/config"
	"go.uber.org/zap"
)

const CtxOperator = "operator"

// AuthMiddleware requires a bearer JWT signed with API_JWT_SECRET. With no
// secret configured every request passes.
func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.AuthEnabled() {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.APIJWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxOperator, claims.Operator)
		return c.Next()
	}
}

func GetOperator(c *fiber.Ctx) string {
	op, _ := c.Locals(CtxOperator).(string)
	return op
}
