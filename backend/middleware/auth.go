package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

const (
	LocalUserID = "userID"
	LocalRole   = "role"
)

// AuthMiddleware accepts a bearer token or the session cookie and stores
// the caller's id and role in locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := utils.ExtractSession(c, cfg)
		if err != nil {
			return utils.HandleError(c, utils.NotAuthenticated("Unauthorized"), cfg)
		}
		c.Locals(LocalUserID, session.UserID)
		c.Locals(LocalRole, session.Role)
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(LocalRole).(string); role != models.RoleAdmin {
			return utils.HandleError(c, utils.NotPermitted("Admin access required"), cfg)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or 0 outside AuthMiddleware.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}
