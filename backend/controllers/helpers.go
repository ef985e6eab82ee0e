package controllers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// fieldErrors is returned by bind so handlers can render a 422.
type fieldErrors map[string]string

func (fieldErrors) Error() string { return "validation failed" }

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return utils.InvalidInput("Cannot parse JSON")
	}
	if errs := utils.ValidateStruct(dst); errs != nil {
		return fieldErrors(errs)
	}
	return nil
}

func respondError(c *fiber.Ctx, err error, cfg *config.Config) error {
	var fe fieldErrors
	if errors.As(err, &fe) {
		return utils.ValidationError(c, fe)
	}
	return utils.HandleError(c, err, cfg)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, utils.InvalidInput("Invalid %s", name)
	}
	return uint(id), nil
}

// requestContext bounds storage calls made on behalf of a request.
func requestContext(c *fiber.Ctx, cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.RequestTimeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), cfg.RequestTimeout)
}

// lookupError maps a failed First to NotFound or StorageFailure.
func lookupError(err error, what string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Missing("%s %v not found", what, id)
	}
	return utils.StorageFailure(err, "Failed to load %s", what)
}

func pagination(c *fiber.Ctx) (page, pageSize int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = c.QueryInt("page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
