package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/habits"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

type ProgrammeController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgrammeController(db *gorm.DB, cfg *config.Config) *ProgrammeController {
	return &ProgrammeController{DB: db, Cfg: cfg}
}

type ProgrammeRequest struct {
	Name       string           `json:"name" validate:"required,max=200"`
	StartDate  string           `json:"start_date" validate:"required,date"`
	EndDate    *string          `json:"end_date" validate:"omitempty,date"`
	MaxClients int              `json:"max_clients" validate:"gte=0"`
	Cost       float64          `json:"cost" validate:"gte=0"`
	Notes      string           `json:"notes" validate:"max=4000"`
	Adhoc      models.AdhocData `json:"adhoc"`
}

// apply copies the request onto p, storing dates as civil days.
func (r ProgrammeRequest) apply(p *models.Programme, cfg *config.Config) error {
	start, err := utils.ParseDate(r.StartDate, cfg.Location())
	if err != nil {
		return err
	}
	end, err := utils.ParseOptionalDate(r.EndDate, cfg.Location())
	if err != nil {
		return err
	}
	if end != nil && end.Before(start) {
		return utils.InvalidInput("end_date must not be before start_date")
	}
	if err := r.Adhoc.Validate(); err != nil {
		return utils.InvalidInput("adhoc: %s", err.Error())
	}

	p.Name = r.Name
	p.StartDate = habits.CivilDate(start)
	p.EndDate = nil
	if end != nil {
		civilEnd := habits.CivilDate(*end)
		p.EndDate = &civilEnd
	}
	p.MaxClients = r.MaxClients
	p.Cost = r.Cost
	p.Notes = r.Notes
	p.Adhoc = datatypes.NewJSONType(r.Adhoc)
	return nil
}

func newHumanReadableID(start string) string {
	return fmt.Sprintf("PRG-%s-%s", start[:4], strings.ToUpper(uuid.NewString()[:8]))
}

// ListProgrammes godoc
// @Summary List programmes
// @Tags programmes
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.PaginatedResponse
// @Security ApiKeyAuth
// @Router /admin/programmes [get]
func (pc *ProgrammeController) ListProgrammes(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	page, pageSize := pagination(c)
	query := pc.DB.WithContext(ctx).Model(&models.Programme{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to count programmes"), pc.Cfg)
	}

	var programmes []models.Programme
	if err := query.Order("start_date DESC, id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&programmes).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to list programmes"), pc.Cfg)
	}

	return utils.Paginate(c, programmes, total, page, pageSize)
}

// GetProgramme returns a programme with its habits and enrolment count.
func (pc *ProgrammeController) GetProgramme(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	db := pc.DB.WithContext(ctx)
	var programme models.Programme
	if err := db.Preload("ProgrammeHabits.Habit").First(&programme, id).Error; err != nil {
		return utils.HandleError(c, lookupError(err, "Programme", id), pc.Cfg)
	}

	var enrolled int64
	if err := db.Model(&models.ProgrammeEnrolment{}).Where("programme_id = ?", id).Count(&enrolled).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to count enrolments"), pc.Cfg)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"programme": programme,
		"enrolled":  enrolled,
	})
}

// CreateProgramme godoc
// @Summary Create a programme
// @Tags programmes
// @Accept json
// @Produce json
// @Param request body ProgrammeRequest true "Programme"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/programmes [post]
func (pc *ProgrammeController) CreateProgramme(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	var req ProgrammeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, pc.Cfg)
	}

	programme := models.Programme{HumanReadableID: newHumanReadableID(req.StartDate)}
	if err := req.apply(&programme, pc.Cfg); err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	if err := pc.DB.WithContext(ctx).Create(&programme).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to create programme"), pc.Cfg)
	}
	return utils.Created(c, programme)
}

func (pc *ProgrammeController) UpdateProgramme(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	var req ProgrammeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, pc.Cfg)
	}

	db := pc.DB.WithContext(ctx)
	var programme models.Programme
	if err := db.First(&programme, id).Error; err != nil {
		return utils.HandleError(c, lookupError(err, "Programme", id), pc.Cfg)
	}
	if err := req.apply(&programme, pc.Cfg); err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	if err := db.Model(&programme).Updates(map[string]interface{}{
		"name":        programme.Name,
		"start_date":  programme.StartDate,
		"end_date":    programme.EndDate,
		"max_clients": programme.MaxClients,
		"cost":        programme.Cost,
		"notes":       programme.Notes,
		"adhoc":       programme.Adhoc,
	}).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to update programme"), pc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, programme)
}

// DeleteProgramme soft-deletes the programme. Completion history is kept.
func (pc *ProgrammeController) DeleteProgramme(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	result := pc.DB.WithContext(ctx).Delete(&models.Programme{}, id)
	if result.Error != nil {
		return utils.HandleError(c, utils.StorageFailure(result.Error, "Failed to delete programme"), pc.Cfg)
	}
	if result.RowsAffected == 0 {
		return utils.HandleError(c, utils.Missing("Programme %d not found", id), pc.Cfg)
	}
	return utils.NoContent(c)
}
