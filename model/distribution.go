package model

import "time"

// AttemptStatus represents the state of one release × platform submission.
type AttemptStatus string

const (
	AttemptStatusPending     AttemptStatus = "pending"
	AttemptStatusProcessing  AttemptStatus = "processing"
	AttemptStatusDistributed AttemptStatus = "distributed"
	AttemptStatusFailed      AttemptStatus = "failed"
)

// DistributionAttempt records one release's submission to one platform.
// A single row accumulates retries for the pair; it is never replaced.
type DistributionAttempt struct {
	ID         int64 `json:"id" gorm:"primaryKey"`
	ReleaseID  int64 `json:"releaseId" gorm:"index:idx_attempt_release_platform,unique;not null"`
	PlatformID int64 `json:"platformId" gorm:"index:idx_attempt_release_platform,unique;not null"`

	PlatformName string        `json:"platformName" gorm:"size:100"`
	Status       AttemptStatus `json:"status" gorm:"size:20;default:pending"`

	// Populated on success, always absent on failure.
	PlatformReleaseID string `json:"platformReleaseId,omitempty" gorm:"size:100"`
	PlatformURL       string `json:"platformUrl,omitempty" gorm:"size:500"`

	// Populated on failure. RetryCount is reserved for an external retry
	// policy; the machine only records outcomes.
	ErrorMessage string `json:"errorMessage,omitempty" gorm:"type:text"`
	RetryCount   int    `json:"retryCount"`

	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DistributedAt *time.Time `json:"distributedAt,omitempty"`
}

// TableName overrides the gorm default.
func (DistributionAttempt) TableName() string { return "distribution_attempts" }

// Succeeded reports whether the attempt reached the distributed state.
func (a *DistributionAttempt) Succeeded() bool {
	return a.Status == AttemptStatusDistributed
}
