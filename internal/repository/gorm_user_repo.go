package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Prag-18/Reviva/internal/domain"
)

// GormUserRepository reads the users table owned by the account service.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByID retrieves a user by ID.
func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var model domain.UserModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
