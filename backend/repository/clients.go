package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
)

type ClientRepository struct {
	DB *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{DB: db}
}

func (r *ClientRepository) Client(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := r.DB.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// ClientByUserID resolves an authenticated user to their client record.
func (r *ClientRepository) ClientByUserID(ctx context.Context, userID uint) (*models.Client, error) {
	var client models.Client
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}
