package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/repository"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

// ProgrammeHabitController assigns habits to programmes with weekday targets.
type ProgrammeHabitController struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Completions *repository.CompletionRepository
}

func NewProgrammeHabitController(db *gorm.DB, cfg *config.Config) *ProgrammeHabitController {
	return &ProgrammeHabitController{DB: db, Cfg: cfg, Completions: repository.NewCompletionRepository(db)}
}

type ProgrammeHabitRequest struct {
	HabitID uint `json:"habit_id" validate:"required"`
	models.WeeklyFrequency
	FrequencyPerDay *int   `json:"frequency_per_day" validate:"omitempty,gte=1,lte=20"`
	Notes           string `json:"notes" validate:"max=2000"`
	Current         *bool  `json:"current"`
}

func (r ProgrammeHabitRequest) check() error {
	errs := fieldErrors{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if n := r.On(wd); n < 0 || n > models.MaxTimesDone {
			errs[strings.ToLower(wd.String())] = "must be between 0 and 20"
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (phc *ProgrammeHabitController) programmeHabit(c *fiber.Ctx) (*models.ProgrammeHabit, error) {
	ctx, cancel := requestContext(c, phc.Cfg)
	defer cancel()

	programmeID, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	phID, err := paramID(c, "phId")
	if err != nil {
		return nil, err
	}

	var ph models.ProgrammeHabit
	if err := phc.DB.WithContext(ctx).
		Where("programme_id = ?", programmeID).
		Preload("Habit").
		First(&ph, phID).Error; err != nil {
		return nil, lookupError(err, "Programme habit", phID)
	}
	return &ph, nil
}

// AssignHabit godoc
// @Summary Add a habit to a programme
// @Tags programmes
// @Accept json
// @Produce json
// @Param id path int true "Programme ID"
// @Param request body ProgrammeHabitRequest true "Weekday targets"
// @Success 201 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/programmes/{id}/habits [post]
func (phc *ProgrammeHabitController) AssignHabit(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, phc.Cfg)
	defer cancel()

	programmeID, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, phc.Cfg)
	}
	var req ProgrammeHabitRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, phc.Cfg)
	}
	if err := req.check(); err != nil {
		return respondError(c, err, phc.Cfg)
	}

	db := phc.DB.WithContext(ctx)
	if err := db.Select("id").First(&models.Programme{}, programmeID).Error; err != nil {
		return utils.HandleError(c, lookupError(err, "Programme", programmeID), phc.Cfg)
	}
	var habit models.Habit
	if err := db.First(&habit, req.HabitID).Error; err != nil {
		return utils.HandleError(c, lookupError(err, "Habit", req.HabitID), phc.Cfg)
	}

	ph := models.ProgrammeHabit{
		ProgrammeID:     programmeID,
		HabitID:         habit.ID,
		WeeklyFrequency: req.WeeklyFrequency,
		FrequencyPerDay: req.FrequencyPerDay,
		Notes:           req.Notes,
		Current:         true,
	}
	if err := db.Omit("Habit", "Programme").Create(&ph).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to assign habit"), phc.Cfg)
	}
	ph.Habit = habit
	return utils.Created(c, ph)
}

func (phc *ProgrammeHabitController) UpdateProgrammeHabit(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, phc.Cfg)
	defer cancel()

	var req ProgrammeHabitRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, phc.Cfg)
	}
	if err := req.check(); err != nil {
		return respondError(c, err, phc.Cfg)
	}

	ph, err := phc.programmeHabit(c)
	if err != nil {
		return utils.HandleError(c, err, phc.Cfg)
	}

	ph.WeeklyFrequency = req.WeeklyFrequency
	ph.FrequencyPerDay = req.FrequencyPerDay
	ph.Notes = req.Notes
	if req.Current != nil {
		ph.Current = *req.Current
	}

	if err := phc.DB.WithContext(ctx).Model(ph).Updates(map[string]interface{}{
		"monday":            ph.Monday,
		"tuesday":           ph.Tuesday,
		"wednesday":         ph.Wednesday,
		"thursday":          ph.Thursday,
		"friday":            ph.Friday,
		"saturday":          ph.Saturday,
		"sunday":            ph.Sunday,
		"frequency_per_day": ph.FrequencyPerDay,
		"notes":             ph.Notes,
		"current":           ph.Current,
	}).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to update programme habit"), phc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, ph)
}

// RemoveProgrammeHabit disables a programme habit that has completion
// history and deletes it outright otherwise.
func (phc *ProgrammeHabitController) RemoveProgrammeHabit(c *fiber.Ctx) error {
	ph, err := phc.programmeHabit(c)
	if err != nil {
		return utils.HandleError(c, err, phc.Cfg)
	}

	ctx, cancel := requestContext(c, phc.Cfg)
	defer cancel()
	records, err := phc.Completions.CountForProgrammeHabit(ctx, ph.ID)
	if err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to check completion history"), phc.Cfg)
	}

	db := phc.DB.WithContext(ctx)
	if records > 0 {
		if err := db.Model(ph).Update("current", false).Error; err != nil {
			return utils.HandleError(c, utils.StorageFailure(err, "Failed to disable programme habit"), phc.Cfg)
		}
		ph.Current = false
		return utils.Message(c, "Programme habit disabled", ph)
	}

	if err := db.Unscoped().Delete(ph).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to delete programme habit"), phc.Cfg)
	}
	return utils.NoContent(c)
}
