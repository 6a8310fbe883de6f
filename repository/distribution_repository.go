package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"veestributes/model"
)

// DistributionRepository records per-platform submission outcomes. One
// row exists per release × platform pair; repeated runs update it in
// place.
type DistributionRepository interface {
	RecordSuccess(ctx context.Context, releaseID int64, platform *model.Platform, platformReleaseID, platformURL string, at time.Time) error
	RecordFailure(ctx context.Context, releaseID int64, platform *model.Platform, message string) error
	GetAttemptsByReleaseID(ctx context.Context, releaseID int64) ([]*model.DistributionAttempt, error)
}

// gormDistributionRepository implements DistributionRepository with GORM.
type gormDistributionRepository struct {
	db *gorm.DB
}

// NewGormDistributionRepository creates a new gormDistributionRepository.
func NewGormDistributionRepository(db *gorm.DB) DistributionRepository {
	return &gormDistributionRepository{db: db}
}

// RecordSuccess upserts the pair's attempt as distributed. A success
// clears any failure fields from earlier runs.
func (r *gormDistributionRepository) RecordSuccess(ctx context.Context, releaseID int64, platform *model.Platform, platformReleaseID, platformURL string, at time.Time) error {
	return r.withAttempt(ctx, releaseID, platform, func(attempt *model.DistributionAttempt) {
		markAttemptDistributed(attempt, platformReleaseID, platformURL, at)
	})
}

// RecordFailure upserts the pair's attempt as failed and increments
// its retry count.
func (r *gormDistributionRepository) RecordFailure(ctx context.Context, releaseID int64, platform *model.Platform, message string) error {
	return r.withAttempt(ctx, releaseID, platform, func(attempt *model.DistributionAttempt) {
		markAttemptFailed(attempt, message)
	})
}

func markAttemptDistributed(attempt *model.DistributionAttempt, platformReleaseID, platformURL string, at time.Time) {
	attempt.Status = model.AttemptStatusDistributed
	attempt.PlatformReleaseID = platformReleaseID
	attempt.PlatformURL = platformURL
	attempt.ErrorMessage = ""
	attempt.DistributedAt = &at
}

// markAttemptFailed counts every failed submission for the pair,
// including the first one.
func markAttemptFailed(attempt *model.DistributionAttempt, message string) {
	attempt.RetryCount++
	attempt.Status = model.AttemptStatusFailed
	attempt.ErrorMessage = message
	attempt.PlatformReleaseID = ""
	attempt.PlatformURL = ""
	attempt.DistributedAt = nil
}

// GetAttemptsByReleaseID lists a release's attempts across platforms.
func (r *gormDistributionRepository) GetAttemptsByReleaseID(ctx context.Context, releaseID int64) ([]*model.DistributionAttempt, error) {
	var attempts []*model.DistributionAttempt
	if err := r.db.WithContext(ctx).Where("release_id = ?", releaseID).Order("platform_name").Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to query attempts for release %d: %w", releaseID, err)
	}
	return attempts, nil
}

// withAttempt loads or initializes the pair's row, applies mutate, and
// saves it inside one transaction.
func (r *gormDistributionRepository) withAttempt(ctx context.Context, releaseID int64, platform *model.Platform, mutate func(*model.DistributionAttempt)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attempt model.DistributionAttempt
		err := tx.Where("release_id = ? AND platform_id = ?", releaseID, platform.ID).First(&attempt).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load attempt for release %d platform %d: %w", releaseID, platform.ID, err)
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			attempt = model.DistributionAttempt{
				ReleaseID:    releaseID,
				PlatformID:   platform.ID,
				PlatformName: platform.Name,
			}
		}

		mutate(&attempt)

		if err := tx.Save(&attempt).Error; err != nil {
			return fmt.Errorf("failed to save attempt for release %d platform %d: %w", releaseID, platform.ID, err)
		}
		return nil
	})
}
