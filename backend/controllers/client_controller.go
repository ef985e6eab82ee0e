package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

type ClientController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewClientController(db *gorm.DB, cfg *config.Config) *ClientController {
	return &ClientController{DB: db, Cfg: cfg}
}

type ClientRequest struct {
	FirstName string             `json:"first_name" validate:"required,max=100"`
	LastName  string             `json:"last_name" validate:"max=100"`
	Email     string             `json:"email" validate:"omitempty,email"`
	Phone     string             `json:"phone" validate:"max=40"`
	Contact   models.ContactInfo `json:"contact"`
}

func (r ClientRequest) apply(client *models.Client) {
	client.FirstName = r.FirstName
	client.LastName = r.LastName
	client.Email = strings.ToLower(strings.TrimSpace(r.Email))
	client.Phone = r.Phone
	client.Contact = datatypes.NewJSONType(r.Contact)
}

// ListClients godoc
// @Summary List clients
// @Description Paginated client list, optionally filtered by name or email
// @Tags clients
// @Produce json
// @Param q query string false "Search text"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Security ApiKeyAuth
// @Router /admin/clients [get]
func (cc *ClientController) ListClients(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	page, pageSize := pagination(c)
	query := cc.DB.WithContext(ctx).Model(&models.Client{})

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to count clients"), cc.Cfg)
	}

	var clients []models.Client
	if err := query.Order("last_name, first_name, id").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&clients).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to list clients"), cc.Cfg)
	}

	return utils.Paginate(c, clients, total, page, pageSize)
}

func (cc *ClientController) GetClient(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}

	var client models.Client
	if err := cc.DB.WithContext(ctx).
		Preload("Enrolments.Programme").
		First(&client, id).Error; err != nil {
		return utils.HandleError(c, lookupError(err, "Client", id), cc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, client)
}

func (cc *ClientController) CreateClient(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	var req ClientRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, cc.Cfg)
	}

	var client models.Client
	req.apply(&client)
	if err := cc.DB.WithContext(ctx).Create(&client).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to create client"), cc.Cfg)
	}
	return utils.Created(c, client)
}

func (cc *ClientController) UpdateClient(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, cc.Cfg)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, cc.Cfg)
	}
	var req ClientRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, cc.Cfg)
	}

	var client models.Client
	if err := cc.DB.WithContext(ctx).First(&client, id).Error; err != nil {
		return utils.HandleError(c, lookupError(err, "Client", id), cc.Cfg)
	}
	req.apply(&client)
	if err := cc.DB.WithContext(ctx).Omit("Enrolments").Save(&client).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to update client"), cc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, client)
}
