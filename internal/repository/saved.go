package repository

import (
	"context"

	"swappi/internal/cache"
	"swappi/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedRepository tracks which profiles a user has bookmarked.
type SavedRepository interface {
	Save(ctx context.Context, ownerID, savedUserID uint) error
	Unsave(ctx context.Context, ownerID, savedUserID uint) error
	List(ctx context.Context, ownerID uint) ([]models.Profile, error)
}

type savedRepository struct {
	db *gorm.DB
}

// NewSavedRepository returns a new SavedRepository implementation.
func NewSavedRepository(db *gorm.DB) SavedRepository {
	return &savedRepository{db: db}
}

func (r *savedRepository) Save(ctx context.Context, ownerID, savedUserID uint) error {
	if ownerID == 0 {
		return models.NewNotAuthenticatedError()
	}

	entry := models.SavedProfile{OwnerID: ownerID, SavedUserID: savedUserID}
	// Saving twice is a no-op
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error; err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidateSaved(ctx, ownerID)
	return nil
}

func (r *savedRepository) Unsave(ctx context.Context, ownerID, savedUserID uint) error {
	if ownerID == 0 {
		return models.NewNotAuthenticatedError()
	}

	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND saved_user_id = ?", ownerID, savedUserID).
		Delete(&models.SavedProfile{}).Error; err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidateSaved(ctx, ownerID)
	return nil
}

func (r *savedRepository) List(ctx context.Context, ownerID uint) ([]models.Profile, error) {
	if ownerID == 0 {
		return nil, models.NewNotAuthenticatedError()
	}

	profiles := []models.Profile{}
	err := cache.Aside(ctx, cache.SavedKey(ownerID), &profiles, cache.SavedTTL, func() error {
		return r.db.WithContext(ctx).
			Joins("JOIN saved_profiles ON saved_profiles.saved_user_id = profiles.user_id").
			Where("saved_profiles.owner_id = ?", ownerID).
			Order("saved_profiles.created_at DESC").
			Find(&profiles).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}
