// Package testutil builds in-memory databases and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

// Config returns a development config backed by in-memory SQLite.
func Config() *config.Config {
	return &config.Config{
		AppEnv:         "development",
		DBDriver:       "sqlite",
		SQLitePath:     ":memory:",
		JWTSecret:      "testsecret",
		JWTTTLHours:    1,
		Timezone:       "UTC",
		EditWindowDays: 3,
		LookaheadDays:  7,
		MaxRangeDays:   366,
		RequestTimeout: 5 * time.Second,
		AllowOrigins:   "*",
		EncryptionKey:  "test-encryption-key",
	}
}

func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := utils.InitDB(Config())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixture is a client enrolled in a January 2025 programme with one
// habit needing two repetitions on Wednesdays.
type Fixture struct {
	User      models.User
	Client    models.Client
	Programme models.Programme
	Habit     models.Habit
	Walk      models.ProgrammeHabit
}

func SeedFixture(t testing.TB, db *gorm.DB) Fixture {
	t.Helper()

	var f Fixture
	f.User = models.User{Email: "client@example.com", PasswordHash: "x", Role: models.RoleClient}
	require.NoError(t, db.Create(&f.User).Error)

	f.Client = models.Client{UserID: &f.User.ID, FirstName: "Aroha", LastName: "Ngata", Email: f.User.Email}
	require.NoError(t, db.Create(&f.Client).Error)

	end := Day(2025, 1, 31)
	f.Programme = models.Programme{
		HumanReadableID: "PRG-2025-TEST",
		Name:            "January Reset",
		StartDate:       Day(2025, 1, 1),
		EndDate:         &end,
	}
	require.NoError(t, db.Create(&f.Programme).Error)

	f.Habit = models.Habit{Title: "Walk", Frequency: "twice on Wednesdays"}
	require.NoError(t, db.Create(&f.Habit).Error)

	f.Walk = models.ProgrammeHabit{ProgrammeID: f.Programme.ID, HabitID: f.Habit.ID, Current: true}
	f.Walk.Wednesday = 2
	require.NoError(t, db.Create(&f.Walk).Error)

	require.NoError(t, db.Create(&models.ProgrammeEnrolment{
		ProgrammeID: f.Programme.ID,
		ClientID:    f.Client.ID,
	}).Error)

	return f
}
