package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (ac *AuthController) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     utils.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   ac.Cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (ac *AuthController) issue(c *fiber.Ctx, user models.User, status int) error {
	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Could not generate token"), ac.Cfg)
	}
	ac.setSessionCookie(c, token, time.Now().Add(time.Duration(ac.Cfg.JWTTTLHours)*time.Hour))

	return utils.Success(c, status, fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Register godoc
// @Summary Register a new user
// @Description Creates a user and its client profile. The first user becomes an administrator.
// @Tags auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, ac.Cfg)
	defer cancel()

	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, ac.Cfg)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.HandleError(c, utils.StorageFailure(err, "Could not hash password"), ac.Cfg)
	}

	user := models.User{Email: email, PasswordHash: string(hashedPassword), Role: models.RoleClient}
	err = ac.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUsers(tx); err != nil {
			return err
		}

		var taken int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return utils.Conflict("Email is already registered")
		}

		var users int64
		if err := tx.Model(&models.User{}).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			user.Role = models.RoleAdmin
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		client := models.Client{
			UserID:    &user.ID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     email,
		}
		if err := tx.Create(&client).Error; err != nil {
			return err
		}
		user.Client = &client
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return utils.HandleError(c, appErr, ac.Cfg)
		}
		return utils.HandleError(c, utils.StorageFailure(err, "Could not create user"), ac.Cfg)
	}

	log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return ac.issue(c, user, fiber.StatusCreated)
}

// lockUsers serializes registrations so only the first user becomes admin.
// SQLite already allows a single writer.
func lockUsers(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error
}

// Login godoc
// @Summary User login
// @Description Authenticates by email and password, returning a JWT and setting the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, ac.Cfg)
	defer cancel()

	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, ac.Cfg)
	}

	var user models.User
	if err := ac.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.HandleError(c, utils.NotAuthenticated("Invalid credentials"), ac.Cfg)
		}
		return utils.HandleError(c, utils.StorageFailure(err, "Could not query database"), ac.Cfg)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return utils.HandleError(c, utils.NotAuthenticated("Invalid credentials"), ac.Cfg)
	}

	return ac.issue(c, user, fiber.StatusOK)
}

// Logout clears the session cookie.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	ac.setSessionCookie(c, "", time.Unix(0, 0))
	return utils.Message(c, "Logged out", nil)
}
