package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/habits"
	"github.com/brentedwards-nz/Benefit-sub000/backend/middleware"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/services"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

// ProgressController exposes habit tracking. Routes under /api/me act on
// the caller's client record; admin routes take the client id as :id.
type ProgressController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Habits *services.HabitService
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg, Habits: services.NewHabitService(db, cfg)}
}

type CompletionRequest struct {
	Date      string  `json:"date" validate:"required,date"`
	Delta     *int    `json:"delta" validate:"omitempty,gte=-20,lte=20"`
	Completed *bool   `json:"completed"`
	TimesDone *int    `json:"times_done"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

func (pc *ProgressController) clientID(ctx context.Context, c *fiber.Ctx) (uint, error) {
	if c.Params("id") != "" {
		return paramID(c, "id")
	}
	client, err := pc.Habits.ClientForUser(ctx, middleware.UserID(c))
	if err != nil {
		return 0, err
	}
	return client.ID, nil
}

// GetHabitDays godoc
// @Summary Habit calendar
// @Description One entry per day between start and end with scheduled and completed counts
// @Tags habits
// @Produce json
// @Param start query string true "First day, YYYY-MM-DD"
// @Param end query string true "Last day, YYYY-MM-DD"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /me/habits/days [get]
func (pc *ProgressController) GetHabitDays(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	if c.Query("start") == "" || c.Query("end") == "" {
		return utils.HandleError(c, utils.InvalidInput("start and end are required"), pc.Cfg)
	}
	start, err := utils.ParseDate(c.Query("start"), pc.Cfg.Location())
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	end, err := utils.ParseDate(c.Query("end"), pc.Cfg.Location())
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	clientID, err := pc.clientID(ctx, c)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	days, err := pc.Habits.GetHabitDayData(ctx, clientID, start, end)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, days)
}

// GetDailyHabits godoc
// @Summary Habits for one day
// @Description Scheduled habits for date (default today) with progress
// @Tags habits
// @Produce json
// @Param date query string false "Day, YYYY-MM-DD"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /me/habits/daily [get]
func (pc *ProgressController) GetDailyHabits(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	day := pc.Habits.Today()
	if q := c.Query("date"); q != "" {
		parsed, err := utils.ParseDate(q, pc.Cfg.Location())
		if err != nil {
			return utils.HandleError(c, err, pc.Cfg)
		}
		day = parsed
	}

	clientID, err := pc.clientID(ctx, c)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	daily, err := pc.Habits.GetDailyHabits(ctx, clientID, day)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"date":   habits.DayKey(day),
		"habits": daily,
	})
}

// UpsertCompletion godoc
// @Summary Record habit progress
// @Description Exactly one of delta, completed or times_done. times_done sets an absolute count and is safe to retry.
// @Tags habits
// @Accept json
// @Produce json
// @Param programmeHabitId path int true "Programme habit ID"
// @Param request body CompletionRequest true "Change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /me/habits/{programmeHabitId}/completions [post]
func (pc *ProgressController) UpsertCompletion(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	phID, err := paramID(c, "programmeHabitId")
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	var req CompletionRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, pc.Cfg)
	}
	day, err := utils.ParseDate(req.Date, pc.Cfg.Location())
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	clientID, err := pc.clientID(ctx, c)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	outcome, err := pc.Habits.UpsertCompletion(ctx, clientID, phID, services.CompletionRequest{
		Date: day,
		Intent: habits.Intent{
			Delta:     req.Delta,
			Completed: req.Completed,
			TimesDone: req.TimesDone,
		},
		Notes: req.Notes,
	})
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, outcome)
}

// GetProgrammes lists the caller's enrolled programmes with current habits.
func (pc *ProgressController) GetProgrammes(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, pc.Cfg)
	defer cancel()

	clientID, err := pc.clientID(ctx, c)
	if err != nil {
		return utils.HandleError(c, err, pc.Cfg)
	}

	var programmes []models.Programme
	if err := pc.DB.WithContext(ctx).
		Joins("JOIN programme_enrolments ON programme_enrolments.programme_id = programmes.id AND programme_enrolments.deleted_at IS NULL").
		Where("programme_enrolments.client_id = ?", clientID).
		Preload("ProgrammeHabits", "current = ?", true).
		Preload("ProgrammeHabits.Habit").
		Order("programmes.start_date DESC").
		Find(&programmes).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to load programmes"), pc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, programmes)
}
