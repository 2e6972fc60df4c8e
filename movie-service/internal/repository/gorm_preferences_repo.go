package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
)

// GormPreferencesRepository implements PreferencesRepository using GORM.
type GormPreferencesRepository struct {
	db *gorm.DB
}

func NewGormPreferencesRepository(db *gorm.DB) *GormPreferencesRepository {
	return &GormPreferencesRepository{db: db}
}

func (r *GormPreferencesRepository) Get(ctx context.Context, userID uint) (*domain.Preferences, error) {
	var model domain.PreferencesModel
	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPreferencesNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// Save creates or replaces the preferences of userID.
func (r *GormPreferencesRepository) Save(ctx context.Context, userID uint, p *domain.Preferences) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := domain.PreferencesToModel(userID, p)

		var existing domain.PreferencesModel
		err := tx.First(&existing, "user_id = ?", userID).Error
		switch {
		case err == nil:
			model.ID = existing.ID
			model.CreatedAt = existing.CreatedAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Save(model).Error; err != nil {
			return err
		}
		p.UpdatedAt = model.UpdatedAt
		return nil
	})
}

func (r *GormPreferencesRepository) Delete(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.PreferencesModel{}).Error
}
