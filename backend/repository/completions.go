package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brentedwards-nz/Benefit-sub000/backend/habits"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
)

// CompletionKey is the natural key of a completion record.
type CompletionKey struct {
	ProgrammeHabitID uint
	ClientID         uint
	Date             time.Time
}

type CompletionRepository struct {
	DB *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{DB: db}
}

func (r *CompletionRepository) CompletionsBetween(ctx context.Context, clientID uint, from, to time.Time) ([]models.ClientHabit, error) {
	var records []models.ClientHabit
	err := r.DB.WithContext(ctx).
		Where("client_id = ? AND date >= ? AND date <= ?", clientID, habits.CivilDate(from), habits.CivilDate(to)).
		Order("date, programme_habit_id").
		Find(&records).Error
	return records, err
}

// UpsertCompletion runs mutate against the locked row for key inside one
// transaction, creating the row first if needed. Concurrent callers on the
// same key are serialized by the row lock and the unique index.
func (r *CompletionRepository) UpsertCompletion(
	ctx context.Context,
	key CompletionKey,
	mutate func(current models.ClientHabit) models.ClientHabit,
) (models.ClientHabit, error) {
	var result models.ClientHabit
	day := habits.CivilDate(key.Date)

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.ClientHabit{
			ProgrammeHabitID: key.ProgrammeHabitID,
			ClientID:         key.ClientID,
			Date:             day,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "programme_habit_id"}, {Name: "client_id"}, {Name: "date"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		var current models.ClientHabit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("programme_habit_id = ? AND client_id = ? AND date = ?", key.ProgrammeHabitID, key.ClientID, day).
			First(&current).Error; err != nil {
			return err
		}

		next := mutate(current)
		if err := tx.Model(&current).Updates(map[string]interface{}{
			"times_done": next.TimesDone,
			"completed":  next.Completed,
			"notes":      next.Notes,
		}).Error; err != nil {
			return err
		}

		current.TimesDone = next.TimesDone
		current.Completed = next.Completed
		current.Notes = next.Notes
		result = current
		return nil
	})

	return result, err
}

func (r *CompletionRepository) CountForProgrammeHabit(ctx context.Context, programmeHabitID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.ClientHabit{}).
		Where("programme_habit_id = ?", programmeHabitID).
		Count(&count).Error
	return count, err
}
