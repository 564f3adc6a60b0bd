package middleware

import (
	"context"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"

	"github.com/gofiber/fiber/v2"
)

// TenantMiddleware extracts the X-Tenant-ID header and adds it to the context.
// Every workflow and document query is scoped by it.
func TenantMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenant := c.Get("X-Tenant-ID")
		if tenant != "" {
			ctx := context.WithValue(c.UserContext(), common_models.TenantIDKey, tenant)
			c.SetUserContext(ctx)
		}
		return c.Next()
	}
}

// TenantFromContext reads the tenant injected by TenantMiddleware.
func TenantFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(common_models.TenantIDKey).(string); ok {
		return v
	}
	return ""
}
