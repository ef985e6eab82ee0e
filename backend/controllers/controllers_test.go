package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/routes"
	"github.com/brentedwards-nz/Benefit-sub000/backend/testutil"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

type testEnv struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testutil.Config()
	db := testutil.NewDB(t)

	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler(cfg)})
	routes.SetupRoutes(app, db, cfg)
	return &testEnv{t: t, app: app, db: db}
}

func (e *testEnv) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewBuffer(jsonData)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)

	var result map[string]interface{}
	if resp.StatusCode != fiber.StatusNoContent {
		require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&result))
	}
	return resp.StatusCode, result
}

func data(result map[string]interface{}) map[string]interface{} {
	return result["data"].(map[string]interface{})
}

func id(m map[string]interface{}) uint {
	return uint(m["ID"].(float64))
}

// register returns the token and client id of a new user.
func (e *testEnv) register(email string) (string, uint) {
	e.t.Helper()
	status, result := e.do("POST", "/api/auth/register", "", map[string]interface{}{
		"email":      email,
		"password":   "password123",
		"first_name": "Test",
	})
	require.Equal(e.t, fiber.StatusCreated, status, result)

	d := data(result)
	client := d["user"].(map[string]interface{})["client"].(map[string]interface{})
	return d["token"].(string), id(client)
}

func dayKey(offset int) string {
	return time.Now().UTC().AddDate(0, 0, offset).Format(time.DateOnly)
}

type programmeSetup struct {
	adminToken  string
	clientToken string
	clientID    uint
	programmeID uint
	phID        uint
}

// setupProgramme enrols a client in a programme around today with one
// habit needing two repetitions every day.
func (e *testEnv) setupProgramme() programmeSetup {
	e.t.Helper()
	var s programmeSetup
	s.adminToken, _ = e.register("admin@example.com")
	s.clientToken, s.clientID = e.register("client@example.com")

	status, result := e.do("POST", "/api/admin/habits", s.adminToken, map[string]interface{}{
		"title": "Walk",
	})
	require.Equal(e.t, fiber.StatusCreated, status, result)
	habitID := id(data(result))

	status, result = e.do("POST", "/api/admin/programmes", s.adminToken, map[string]interface{}{
		"name":        "Spring Reset",
		"start_date":  dayKey(-10),
		"end_date":    dayKey(20),
		"max_clients": 1,
	})
	require.Equal(e.t, fiber.StatusCreated, status, result)
	s.programmeID = id(data(result))

	status, result = e.do("POST", fmt.Sprintf("/api/admin/programmes/%d/habits", s.programmeID), s.adminToken, map[string]interface{}{
		"habit_id":  habitID,
		"monday":    2,
		"tuesday":   2,
		"wednesday": 2,
		"thursday":  2,
		"friday":    2,
		"saturday":  2,
		"sunday":    2,
	})
	require.Equal(e.t, fiber.StatusCreated, status, result)
	s.phID = id(data(result))

	status, result = e.do("POST", fmt.Sprintf("/api/admin/programmes/%d/enrolments", s.programmeID), s.adminToken, map[string]interface{}{
		"client_id": s.clientID,
	})
	require.Equal(e.t, fiber.StatusCreated, status, result)
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)

	status, result := e.do("POST", "/api/auth/register", "", map[string]interface{}{
		"email":      "first@example.com",
		"password":   "password123",
		"first_name": "Mere",
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, models.RoleAdmin, data(result)["user"].(map[string]interface{})["role"])

	status, result = e.do("POST", "/api/auth/register", "", map[string]interface{}{
		"email":      "second@example.com",
		"password":   "password123",
		"first_name": "Hemi",
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, models.RoleClient, data(result)["user"].(map[string]interface{})["role"])

	status, _ = e.do("POST", "/api/auth/register", "", map[string]interface{}{
		"email":      "second@example.com",
		"password":   "password123",
		"first_name": "Hemi",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, result = e.do("POST", "/api/auth/register", "", map[string]interface{}{
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	details := result["details"].(map[string]interface{})
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "first_name")

	status, _ = e.do("POST", "/api/auth/login", "", map[string]interface{}{
		"email":    "second@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestConcurrentFirstRegistrationsMakeOneAdmin(t *testing.T) {
	e := newTestEnv(t)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]interface{}{
				"email":      fmt.Sprintf("user%d@example.com", i),
				"password":   "password123",
				"first_name": "Test",
			})
			req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := e.app.Test(req, -1)
			if assert.NoError(t, err) {
				resp.Body.Close()
				assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
			}
		}(i)
	}
	wg.Wait()

	var users, admins int64
	require.NoError(t, e.db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, e.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(6), users)
	assert.Equal(t, int64(1), admins)
}

func TestSessionCookie(t *testing.T) {
	e := newTestEnv(t)
	e.register("cookie@example.com")

	jsonData, _ := json.Marshal(map[string]string{"email": "cookie@example.com", "password": "password123"})
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == utils.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req = httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(session)
	resp, err = e.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAccessControl(t *testing.T) {
	e := newTestEnv(t)
	e.register("admin@example.com")
	clientToken, _ := e.register("client@example.com")

	status, result := e.do("GET", "/api/me/habits/daily", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, string(utils.KindUnauthorized), result["kind"])

	status, result = e.do("GET", "/api/admin/clients", clientToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, string(utils.KindForbidden), result["kind"])
}

func TestHabitTrackingFlow(t *testing.T) {
	e := newTestEnv(t)
	s := e.setupProgramme()
	today := dayKey(0)

	status, result := e.do("GET", "/api/me/habits/daily?date="+today, s.clientToken, nil)
	require.Equal(t, fiber.StatusOK, status, result)
	daily := data(result)["habits"].([]interface{})
	require.Len(t, daily, 1)
	walk := daily[0].(map[string]interface{})
	assert.Equal(t, "Walk", walk["title"])
	assert.Equal(t, float64(0), walk["times_done"])
	assert.Equal(t, float64(2), walk["required_per_day"])
	assert.Equal(t, false, walk["completed"])

	completions := fmt.Sprintf("/api/me/habits/%d/completions", s.phID)
	status, result = e.do("POST", completions, s.clientToken, map[string]interface{}{"date": today, "delta": 1})
	require.Equal(t, fiber.StatusOK, status, result)
	assert.Equal(t, float64(1), data(result)["times_done"])
	assert.Equal(t, false, data(result)["completed"])

	status, result = e.do("POST", completions, s.clientToken, map[string]interface{}{"date": today, "delta": 1})
	require.Equal(t, fiber.StatusOK, status, result)
	assert.Equal(t, float64(2), data(result)["times_done"])
	assert.Equal(t, true, data(result)["completed"])

	status, result = e.do("GET", fmt.Sprintf("/api/me/habits/days?start=%s&end=%s", dayKey(-1), today), s.clientToken, nil)
	require.Equal(t, fiber.StatusOK, status, result)
	days := result["data"].([]interface{})
	require.Len(t, days, 2)
	last := days[1].(map[string]interface{})
	assert.Equal(t, today, last["date"])
	assert.Equal(t, float64(1), last["completion_rate"])
	assert.Equal(t, "complete", last["colour"])
	assert.Equal(t, "none", days[0].(map[string]interface{})["colour"])

	status, result = e.do("GET", fmt.Sprintf("/api/admin/clients/%d/habits/days?start=%s&end=%s", s.clientID, today, today), s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status, result)
	assert.Len(t, result["data"].([]interface{}), 1)

	status, result = e.do("GET", "/api/me/programmes", s.clientToken, nil)
	require.Equal(t, fiber.StatusOK, status, result)
	assert.Len(t, result["data"].([]interface{}), 1)
}

func TestHabitTrackingErrors(t *testing.T) {
	e := newTestEnv(t)
	s := e.setupProgramme()
	completions := fmt.Sprintf("/api/me/habits/%d/completions", s.phID)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		kind   utils.ErrorKind
	}{
		{"inverted range", "GET", fmt.Sprintf("/api/me/habits/days?start=%s&end=%s", dayKey(0), dayKey(-1)), nil, fiber.StatusBadRequest, utils.KindInvalidInput},
		{"range past lookahead", "GET", fmt.Sprintf("/api/me/habits/days?start=%s&end=%s", dayKey(0), dayKey(14)), nil, fiber.StatusBadRequest, utils.KindInvalidInput},
		{"missing range", "GET", "/api/me/habits/days", nil, fiber.StatusBadRequest, utils.KindInvalidInput},
		{"bad date", "GET", "/api/me/habits/daily?date=yesterday", nil, fiber.StatusBadRequest, utils.KindInvalidInput},
		{"stale day", "POST", completions, map[string]interface{}{"date": dayKey(-5), "delta": 1}, fiber.StatusUnprocessableEntity, utils.KindOutOfWindow},
		{"two intents", "POST", completions, map[string]interface{}{"date": dayKey(0), "delta": 1, "times_done": 2}, fiber.StatusBadRequest, utils.KindInvalidInput},
		{"unknown habit", "POST", "/api/me/habits/9999/completions", map[string]interface{}{"date": dayKey(0), "delta": 1}, fiber.StatusNotFound, utils.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, result := e.do(tt.method, tt.path, s.clientToken, tt.body)
			assert.Equal(t, tt.status, status, result)
			assert.Equal(t, string(tt.kind), result["kind"])
		})
	}
}

func TestCompletionRequiresEnrolment(t *testing.T) {
	e := newTestEnv(t)
	s := e.setupProgramme()
	otherToken, _ := e.register("other@example.com")

	status, result := e.do("POST", fmt.Sprintf("/api/me/habits/%d/completions", s.phID), otherToken,
		map[string]interface{}{"date": dayKey(0), "times_done": 1})
	assert.Equal(t, fiber.StatusForbidden, status, result)
}

func TestEnrolmentCapacityAndRestore(t *testing.T) {
	e := newTestEnv(t)
	s := e.setupProgramme()
	_, otherID := e.register("other@example.com")
	enrolments := fmt.Sprintf("/api/admin/programmes/%d/enrolments", s.programmeID)

	status, _ := e.do("POST", enrolments, s.adminToken, map[string]interface{}{"client_id": s.clientID})
	assert.Equal(t, fiber.StatusConflict, status, "already enrolled")

	status, _ = e.do("POST", enrolments, s.adminToken, map[string]interface{}{"client_id": otherID})
	assert.Equal(t, fiber.StatusConflict, status, "programme is full")

	status, _ = e.do("DELETE", fmt.Sprintf("%s/%d", enrolments, s.clientID), s.adminToken, nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status, result := e.do("POST", enrolments, s.adminToken, map[string]interface{}{"client_id": s.clientID, "notes": "back again"})
	require.Equal(t, fiber.StatusCreated, status, result)

	var rows []models.ProgrammeEnrolment
	require.NoError(t, e.db.Unscoped().Where("programme_id = ?", s.programmeID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].DeletedAt.Valid)
	assert.Equal(t, "back again", rows[0].Notes)
}

func TestRemoveProgrammeHabit(t *testing.T) {
	e := newTestEnv(t)
	s := e.setupProgramme()
	path := fmt.Sprintf("/api/admin/programmes/%d/habits/%d", s.programmeID, s.phID)

	status, _ := e.do("POST", fmt.Sprintf("/api/me/habits/%d/completions", s.phID), s.clientToken,
		map[string]interface{}{"date": dayKey(0), "delta": 1})
	require.Equal(t, fiber.StatusOK, status)

	status, result := e.do("DELETE", path, s.adminToken, nil)
	require.Equal(t, fiber.StatusOK, status, result)
	assert.Equal(t, false, data(result)["current"])

	status, result = e.do("GET", "/api/me/habits/daily", s.clientToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, data(result)["habits"])

	status, _ = e.do("POST", fmt.Sprintf("/api/me/habits/%d/completions", s.phID), s.clientToken,
		map[string]interface{}{"date": dayKey(0), "delta": 1})
	assert.Equal(t, fiber.StatusNotFound, status, "disabled habits take no new records")

	var habit models.Habit
	require.NoError(t, e.db.First(&habit).Error)
	unused := models.ProgrammeHabit{ProgrammeID: s.programmeID, HabitID: habit.ID, Current: true}
	require.NoError(t, e.db.Create(&unused).Error)

	status, _ = e.do("DELETE", fmt.Sprintf("/api/admin/programmes/%d/habits/%d", s.programmeID, unused.ID), s.adminToken, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	var count int64
	require.NoError(t, e.db.Unscoped().Model(&models.ProgrammeHabit{}).Where("id = ?", unused.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProgrammeValidation(t *testing.T) {
	e := newTestEnv(t)
	adminToken, _ := e.register("admin@example.com")

	status, result := e.do("POST", "/api/admin/programmes", adminToken, map[string]interface{}{
		"start_date": "01/02/2025",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	details := result["details"].(map[string]interface{})
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "start_date")

	status, _ = e.do("POST", "/api/admin/programmes", adminToken, map[string]interface{}{
		"name":       "Backwards",
		"start_date": "2025-02-01",
		"end_date":   "2025-01-01",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = e.do("POST", "/api/admin/programmes", adminToken, map[string]interface{}{
		"name":       "Bad adhoc",
		"start_date": "2025-02-01",
		"adhoc": map[string]interface{}{
			"entries": []map[string]interface{}{{"key": "weight", "kind": "number", "text": "heavy"}},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, result = e.do("POST", "/api/admin/programmes", adminToken, map[string]interface{}{
		"name":       "Open ended",
		"start_date": "2025-02-01",
	})
	require.Equal(t, fiber.StatusCreated, status, result)
	assert.Regexp(t, `^PRG-2025-[0-9A-F]{8}$`, data(result)["human_readable_id"])
	assert.Nil(t, data(result)["end_date"])
}

func TestClientAdmin(t *testing.T) {
	e := newTestEnv(t)
	adminToken, _ := e.register("admin@example.com")

	status, result := e.do("POST", "/api/admin/clients", adminToken, map[string]interface{}{
		"first_name": "Wiremu",
		"last_name":  "Tane",
		"email":      "Wiremu@Example.com",
		"contact": map[string]interface{}{
			"city":      "Rotorua",
			"emergency": map[string]string{"name": "Ana", "phone": "021 555 0101"},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, result)
	clientID := id(data(result))
	assert.Equal(t, "wiremu@example.com", data(result)["email"])

	status, result = e.do("GET", "/api/admin/clients?q=wiremu", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), result["total"])

	status, result = e.do("GET", fmt.Sprintf("/api/admin/clients/%d", clientID), adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	contact := data(result)["contact"].(map[string]interface{})
	assert.Equal(t, "Rotorua", contact["city"])

	status, _ = e.do("GET", "/api/admin/clients/9999", adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestConnectionsRequireProviderConfig(t *testing.T) {
	e := newTestEnv(t)
	adminToken, _ := e.register("admin@example.com")

	status, result := e.do("GET", "/api/admin/connections", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status, result)

	status, _ = e.do("GET", "/api/admin/connections/gmail/authorize", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = e.do("GET", "/api/admin/connections/myspace/authorize", adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = e.do("GET", "/api/admin/connections/gmail/status", adminToken, nil)
	assert.Equal(t, fiber.StatusNotFound, status, "nothing linked yet")
}
