// Package repository holds the gorm-backed readers and writers used by the
// habit tracking service.
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/habits"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
)

type ProgrammeRepository struct {
	DB *gorm.DB
}

func NewProgrammeRepository(db *gorm.DB) *ProgrammeRepository {
	return &ProgrammeRepository{DB: db}
}

// EnrolledProgrammes returns the client's programmes whose window overlaps
// [from, to], with current programme habits and their habits loaded.
func (r *ProgrammeRepository) EnrolledProgrammes(ctx context.Context, clientID uint, from, to time.Time) ([]models.Programme, error) {
	var programmes []models.Programme
	err := r.DB.WithContext(ctx).
		Joins("JOIN programme_enrolments ON programme_enrolments.programme_id = programmes.id AND programme_enrolments.deleted_at IS NULL").
		Where("programme_enrolments.client_id = ?", clientID).
		Where("programmes.start_date <= ?", habits.CivilDate(to)).
		Where("(programmes.end_date IS NULL OR programmes.end_date >= ?)", habits.CivilDate(from)).
		Preload("ProgrammeHabits", "current = ?", true).
		Preload("ProgrammeHabits.Habit").
		Order("programmes.start_date, programmes.id").
		Find(&programmes).Error
	return programmes, err
}

// ProgrammeHabit loads a programme habit with its programme and habit.
// Missing rows return gorm.ErrRecordNotFound.
func (r *ProgrammeRepository) ProgrammeHabit(ctx context.Context, id uint) (*models.ProgrammeHabit, error) {
	var ph models.ProgrammeHabit
	if err := r.DB.WithContext(ctx).Preload("Programme").Preload("Habit").First(&ph, id).Error; err != nil {
		return nil, err
	}
	return &ph, nil
}

func (r *ProgrammeRepository) IsEnrolled(ctx context.Context, clientID, programmeID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.ProgrammeEnrolment{}).
		Where("client_id = ? AND programme_id = ?", clientID, programmeID).
		Count(&count).Error
	return count > 0, err
}
