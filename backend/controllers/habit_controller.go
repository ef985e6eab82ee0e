package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

// HabitController manages the habit library that programmes draw from.
type HabitController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewHabitController(db *gorm.DB, cfg *config.Config) *HabitController {
	return &HabitController{DB: db, Cfg: cfg}
}

type HabitRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Notes     string `json:"notes" validate:"max=2000"`
	Frequency string `json:"frequency" validate:"max=200"`
}

func (hc *HabitController) ListHabits(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, hc.Cfg)
	defer cancel()

	var habits []models.Habit
	if err := hc.DB.WithContext(ctx).Order("title").Find(&habits).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to list habits"), hc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, habits)
}

func (hc *HabitController) CreateHabit(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, hc.Cfg)
	defer cancel()

	var req HabitRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, hc.Cfg)
	}

	habit := models.Habit{Title: req.Title, Notes: req.Notes, Frequency: req.Frequency}
	if err := hc.DB.WithContext(ctx).Create(&habit).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to create habit"), hc.Cfg)
	}
	return utils.Created(c, habit)
}

func (hc *HabitController) UpdateHabit(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, hc.Cfg)
	defer cancel()

	id, err := paramID(c, "id")
	if err != nil {
		return utils.HandleError(c, err, hc.Cfg)
	}
	var req HabitRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, hc.Cfg)
	}

	var habit models.Habit
	if err := hc.DB.WithContext(ctx).First(&habit, id).Error; err != nil {
		return utils.HandleError(c, lookupError(err, "Habit", id), hc.Cfg)
	}
	habit.Title = req.Title
	habit.Notes = req.Notes
	habit.Frequency = req.Frequency
	if err := hc.DB.WithContext(ctx).Save(&habit).Error; err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Failed to update habit"), hc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, habit)
}
