package controllers

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

type EnrolmentController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewEnrolmentController(db *gorm.DB, cfg *config.Config) *EnrolmentController {
	return &EnrolmentController{DB: db, Cfg: cfg}
}

type EnrolRequest struct {
	ClientID uint             `json:"client_id" validate:"required"`
	Notes    string           `json:"notes" validate:"max=2000"`
	Adhoc    models.AdhocData `json:"adhoc"`
}

func (ec *EnrolmentController) ListEnrolments(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, ec.Cfg)
	defer cancel()

	programmeID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, ec.Cfg)
	}

	var enrolments []models.ProgrammeEnrolment
	if err := ec.DB.WithContext(ctx).
		Where("programme_id = ?", programmeID).
		Preload("Client").
		Order("created_at").
		Find(&enrolments).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to list enrolments"), ec.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, enrolments)
}

// Enrol godoc
// @Summary Enrol a client in a programme
// @Description Fails with 409 when the client is already enrolled or the programme is full. A removed enrolment is restored.
// @Tags enrolments
// @Accept json
// @Produce json
// @Param id path int true "Programme ID"
// @Param request body EnrolRequest true "Enrolment"
// @Success 201 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/programmes/{id}/enrolments [post]
func (ec *EnrolmentController) Enrol(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, ec.Cfg)
	defer cancel()

	programmeID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, ec.Cfg)
	}
	var req EnrolRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, ec.Cfg)
	}
	if err := req.Adhoc.Validate(); err != nil {
		return utils.HandleError(c, utils.InvalidInput("adhoc: %s", err.Error()), ec.Cfg)
	}

	var enrolment models.ProgrammeEnrolment
	var client models.Client
	err = ec.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var programme models.Programme
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&programme, programmeID).Error; err != nil {
			return lookupError(err, "Programme", programmeID)
		}
		if err := tx.Select("id", "first_name", "last_name").First(&client, req.ClientID).Error; err != nil {
			return lookupError(err, "Client", req.ClientID)
		}

		existing := models.ProgrammeEnrolment{}
		err := tx.Unscoped().
			Where("programme_id = ? AND client_id = ?", programmeID, req.ClientID).
			First(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.StorageFailure(err, "Failed to check enrolment")
		}
		if found && !existing.DeletedAt.Valid {
			return utils.Conflict("Client %d is already enrolled", req.ClientID)
		}

		if programme.MaxClients > 0 {
			var count int64
			if err := tx.Model(&models.ProgrammeEnrolment{}).Where("programme_id = ?", programmeID).Count(&count).Error; err != nil {
				return utils.StorageFailure(err, "Failed to count enrolments")
			}
			if count >= int64(programme.MaxClients) {
				return utils.Conflict("Programme is full (%d clients)", programme.MaxClients)
			}
		}

		adhoc := datatypes.NewJSONType(req.Adhoc)
		if found {
			if err := tx.Unscoped().Model(&existing).Updates(map[string]interface{}{
				"deleted_at": nil,
				"notes":      req.Notes,
				"adhoc":      adhoc,
			}).Error; err != nil {
				return utils.StorageFailure(err, "Failed to restore enrolment")
			}
			existing.DeletedAt = gorm.DeletedAt{}
			existing.Notes = req.Notes
			existing.Adhoc = adhoc
			enrolment = existing
			return nil
		}

		enrolment = models.ProgrammeEnrolment{
			ProgrammeID: programmeID,
			ClientID:    req.ClientID,
			Notes:       req.Notes,
			Adhoc:       adhoc,
		}
		if err := tx.Omit("Programme", "Client").Create(&enrolment).Error; err != nil {
			return utils.StorageFailure(err, "Failed to enrol client")
		}
		return nil
	})
	if err != nil {
		return utils.HandleError(c, err, ec.Cfg)
	}

	log.Info("client enrolled", "programme_id", programmeID, "client_id", req.ClientID, "client", client.FullName())
	return utils.Created(c, enrolment)
}

// RemoveEnrolment soft-deletes the enrolment so it can be restored later.
func (ec *EnrolmentController) RemoveEnrolment(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, ec.Cfg)
	defer cancel()

	programmeID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, ec.Cfg)
	}
	clientID, err := paramID(c, "clientId")
	if err != nil {
		return utils.HandleError(c, err, ec.Cfg)
	}

	result := ec.DB.WithContext(ctx).
		Where("programme_id = ? AND client_id = ?", programmeID, clientID).
		Delete(&models.ProgrammeEnrolment{})
	if result.Error != nil {
		return utils.HandleError(c, utils.StorageFailure(result.Error, "Failed to remove enrolment"), ec.Cfg)
	}
	if result.RowsAffected == 0 {
		return utils.HandleError(c, utils.Missing("Client %d is not enrolled", clientID), ec.Cfg)
	}
	return utils.NoContent(c)
}
