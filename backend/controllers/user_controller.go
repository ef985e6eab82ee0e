package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/middleware"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

// UserController serves the signed-in user's own profile.
type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

type UpdateProfileRequest struct {
	FirstName   string              `json:"first_name" validate:"required,max=100"`
	LastName    string              `json:"last_name" validate:"max=100"`
	Phone       string              `json:"phone" validate:"max=40"`
	Contact     *models.ContactInfo `json:"contact"`
	OldPassword string              `json:"old_password" validate:"required_with=NewPassword"`
	NewPassword string              `json:"new_password" validate:"omitempty,min=8,max=72"`
}

func (uc *UserController) load(c *fiber.Ctx) (*models.User, error) {
	ctx, cancel := requestContext(c, uc.Cfg)
	defer cancel()

	var user models.User
	err := uc.DB.WithContext(ctx).Preload("Client").First(&user, middleware.UserID(c)).Error
	if err != nil {
		return nil, lookupError(err, "User", middleware.UserID(c))
	}
	if user.Client == nil {
		return nil, utils.Missing("No client profile for user %d", user.ID)
	}
	return &user, nil
}

// GetProfile godoc
// @Summary Get own profile
// @Description Returns the authenticated user with their client profile
// @Tags users
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /me [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	user, err := uc.load(c)
	if err != nil {
		return utils.HandleError(c, err, uc.Cfg)
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Description Updates name and contact details, and optionally the password
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile data"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /me [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, uc.Cfg)
	defer cancel()

	var req UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, uc.Cfg)
	}

	user, err := uc.load(c)
	if err != nil {
		return utils.HandleError(c, err, uc.Cfg)
	}

	if req.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			return utils.HandleError(c, utils.NotAuthenticated("Old password is incorrect"), uc.Cfg)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return utils.HandleError(c, utils.StorageFailure(err, "Could not hash password"), uc.Cfg)
		}
		user.PasswordHash = string(hashed)
	}

	client := user.Client
	client.FirstName = req.FirstName
	client.LastName = req.LastName
	client.Phone = req.Phone
	if req.Contact != nil {
		client.Contact = datatypes.NewJSONType(*req.Contact)
	}

	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("password_hash", user.PasswordHash).Error; err != nil {
			return err
		}
		return tx.Omit("UserID", "Enrolments").Save(client).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.HandleError(c, utils.Missing("Client not found"), uc.Cfg)
		}
		return utils.HandleError(c, utils.StorageFailure(err, "Could not update profile"), uc.Cfg)
	}

	return utils.Success(c, fiber.StatusOK, user)
}
