package model

import "time"

// ReleaseStatus represents the lifecycle of a release.
type ReleaseStatus string

const (
	ReleaseStatusDraft       ReleaseStatus = "draft"
	ReleaseStatusProcessing  ReleaseStatus = "processing"
	ReleaseStatusDistributed ReleaseStatus = "distributed"
	ReleaseStatusFailed      ReleaseStatus = "failed"
)

// ParseReleaseStatus converts a string into a known ReleaseStatus.
func ParseReleaseStatus(value string) (ReleaseStatus, bool) {
	switch ReleaseStatus(value) {
	case ReleaseStatusDraft, ReleaseStatusProcessing, ReleaseStatusDistributed, ReleaseStatusFailed:
		return ReleaseStatus(value), true
	}
	return "", false
}

// IsTerminal reports whether no further automatic transition occurs
// without a new distribution run.
func (s ReleaseStatus) IsTerminal() bool {
	return s == ReleaseStatusDistributed || s == ReleaseStatusFailed
}

// Release is a user's submitted music work to be distributed. It owns its
// files; file rows are destroyed when the release is destroyed.
type Release struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"userId"`
	Title         string        `json:"title"`
	Artist        string        `json:"artist"`
	Album         string        `json:"album"`
	Genre         string        `json:"genre"`
	Description   string        `json:"description"`
	ReleaseDate   *time.Time    `json:"releaseDate,omitempty"`
	Status        ReleaseStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	DistributedAt *time.Time    `json:"distributedAt,omitempty"`

	// Files is populated on detail reads; not every query loads it.
	Files []*File `json:"files,omitempty"`
}
