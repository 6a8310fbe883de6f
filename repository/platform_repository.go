package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"veestributes/model"
)

// PlatformRepository defines the interface for the platform catalog.
type PlatformRepository interface {
	GetActivePlatforms(ctx context.Context) ([]*model.Platform, error)
	GetAllPlatforms(ctx context.Context) ([]*model.Platform, error)
	GetPlatformByName(ctx context.Context, name string) (*model.Platform, error)
}

// gormPlatformRepository implements PlatformRepository with GORM.
type gormPlatformRepository struct {
	db *gorm.DB
}

// NewGormPlatformRepository creates a new gormPlatformRepository.
func NewGormPlatformRepository(db *gorm.DB) PlatformRepository {
	return &gormPlatformRepository{db: db}
}

// GetActivePlatforms lists the platforms releases are distributed to.
func (r *gormPlatformRepository) GetActivePlatforms(ctx context.Context) ([]*model.Platform, error) {
	var platforms []*model.Platform
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&platforms).Error; err != nil {
		return nil, fmt.Errorf("failed to query active platforms: %w", err)
	}
	return platforms, nil
}

// GetAllPlatforms lists the whole catalog, inactive entries included.
func (r *gormPlatformRepository) GetAllPlatforms(ctx context.Context) ([]*model.Platform, error) {
	var platforms []*model.Platform
	if err := r.db.WithContext(ctx).Order("name").Find(&platforms).Error; err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	return platforms, nil
}

// GetPlatformByName looks a platform up by its unique name.
func (r *gormPlatformRepository) GetPlatformByName(ctx context.Context, name string) (*model.Platform, error) {
	var platform model.Platform
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&platform).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Platform not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query platform %s: %w", name, err)
	}
	return &platform, nil
}
