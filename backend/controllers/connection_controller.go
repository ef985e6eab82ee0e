package controllers

import (
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/middleware"
	"github.com/brentedwards-nz/Benefit-sub000/backend/services"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

// ConnectionController links Gmail and Fitbit accounts for the practice.
// Connections is nil when no encryption key is configured.
type ConnectionController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Connections *services.ConnectionService
}

func NewConnectionController(db *gorm.DB, cfg *config.Config) *ConnectionController {
	cc := &ConnectionController{DB: db, Cfg: cfg}
	svc, err := services.NewConnectionService(db, cfg)
	if err != nil {
		log.Warn("account connections disabled", "error", err)
		return cc
	}
	cc.Connections = svc
	return cc
}

func (cc *ConnectionController) service() (*services.ConnectionService, error) {
	if cc.Connections == nil {
		return nil, utils.Conflict("Account connections are not configured")
	}
	return cc.Connections, nil
}

func (cc *ConnectionController) ListConnections(c *fiber.Ctx) error {
	svc, err := cc.service()
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	conns, err := svc.List(ctx)
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, conns)
}

// Authorize godoc
// @Summary Start linking an account
// @Description Returns the provider consent URL. Pass redirect=true to be redirected instead.
// @Tags connections
// @Produce json
// @Param provider path string true "gmail or fitbit"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/connections/{provider}/authorize [get]
func (cc *ConnectionController) Authorize(c *fiber.Ctx) error {
	svc, err := cc.service()
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	url, err := svc.AuthorizeURL(ctx, c.Params("provider"), middleware.UserID(c))
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	if c.QueryBool("redirect") {
		return c.Redirect(url, fiber.StatusFound)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": url})
}

func (cc *ConnectionController) Callback(c *fiber.Ctx) error {
	svc, err := cc.service()
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	if reason := c.Query("error"); reason != "" {
		return utils.HandleError(c, utils.InvalidInput("Authorization was declined: %s", reason), cc.Cfg)
	}
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	conn, err := svc.Callback(ctx, c.Params("provider"), c.Query("state"), c.Query("code"))
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	return utils.Message(c, "Account connected", conn)
}

func (cc *ConnectionController) DeleteConnection(c *fiber.Ctx) error {
	svc, err := cc.service()
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	if err := svc.Delete(ctx, c.Params("provider")); err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	return utils.NoContent(c)
}

// ConnectionStatus reports whether the linked account still yields a token.
func (cc *ConnectionController) ConnectionStatus(c *fiber.Ctx) error {
	svc, err := cc.service()
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	status, err := svc.Status(ctx, c.Params("provider"))
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, status)
}
