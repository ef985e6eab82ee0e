package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "testsecret", JWTTTLHours: 1, AppEnv: "development"}
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateJWTToken(42, "admin", cfg)
	require.NoError(t, err)

	session, err := ParseJWTToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint(42), session.UserID)
	assert.Equal(t, "admin", session.Role)

	_, err = ParseJWTToken(token, &config.Config{JWTSecret: "other"})
	assert.Error(t, err)
}

func TestExtractSessionSources(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateJWTToken(7, "client", cfg)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		session, err := ExtractSession(c, cfg)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(fiber.Map{"id": session.UserID})
	})

	for _, tt := range []struct {
		name string
		set  func(r *http.Request)
	}{
		{"raw header", func(r *http.Request) { r.Header.Set("Authorization", token) }},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }},
		{"cookie", func(r *http.Request) { r.Header.Set("Cookie", SessionCookie+"="+token) }},
	} {
		req := httptest.NewRequest("GET", "/", nil)
		tt.set(req)
		resp, err := app.Test(req)
		require.NoError(t, err, tt.name)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, tt.name)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSecretBox(t *testing.T) {
	box, err := NewSecretBox("correct horse battery staple")
	require.NoError(t, err)

	sealed, err := box.Seal([]byte("ya29.token"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "ya29.token")

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", string(opened))

	other, err := NewSecretBox("another key")
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.Error(t, err)

	_, err = box.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrSealedTooShort)

	_, err = NewSecretBox("")
	assert.Error(t, err)
}

func TestErrorKinds(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), NotPermitted("client %d is not enrolled", 3))
	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.Equal(t, KindStorageFailure, KindOf(errors.New("boom")))

	assert.Equal(t, fiber.StatusBadRequest, KindInvalidInput.Status())
	assert.Equal(t, fiber.StatusUnauthorized, KindUnauthorized.Status())
	assert.Equal(t, fiber.StatusForbidden, KindForbidden.Status())
	assert.Equal(t, fiber.StatusNotFound, KindNotFound.Status())
	assert.Equal(t, fiber.StatusUnprocessableEntity, KindOutOfWindow.Status())
	assert.Equal(t, fiber.StatusInternalServerError, KindStorageFailure.Status())
}

func TestHandleErrorHidesStorageDetailInProduction(t *testing.T) {
	cause := errors.New("pq: relation client_habits does not exist")

	for _, tt := range []struct {
		env         string
		wantDetails bool
	}{
		{"development", true},
		{"production", false},
	} {
		cfg := &config.Config{AppEnv: tt.env}
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			return HandleError(c, StorageFailure(cause, "Could not load habits"), cfg)
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Could not load habits", body.Message)
		assert.Equal(t, KindStorageFailure, body.Kind)
		if tt.wantDetails {
			assert.Equal(t, cause.Error(), body.Details, tt.env)
		} else {
			assert.Nil(t, body.Details, tt.env)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Name  string `json:"name" validate:"required"`
		Date  string `json:"date" validate:"required,date"`
		Count int    `json:"count" validate:"gte=0,lte=20"`
	}

	assert.Nil(t, ValidateStruct(input{Name: "Walk", Date: "2025-01-08", Count: 3}))

	errs := ValidateStruct(input{Date: "08/01/2025", Count: 21})
	assert.Equal(t, "is required", errs["name"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", errs["date"])
	assert.Equal(t, "must be at most 20", errs["count"])
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	d, err := ParseDate("2025-01-08", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 8, 0, 0, 0, 0, loc), d)

	_, err = ParseDate("tomorrow", loc)
	assert.Equal(t, KindInvalidInput, KindOf(err))

	none, err := ParseOptionalDate(nil, loc)
	require.NoError(t, err)
	assert.Nil(t, none)
}
