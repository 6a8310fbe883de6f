package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobState is the lifecycle state of a background job.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
)

// JobStatus is the progress record clients poll while a background job
// runs. Stored as JSON under a per-job key with a 24h expiry.
type JobStatus struct {
	JobID      string   `json:"jobId"`
	Kind       string   `json:"kind"`
	State      JobState `json:"state"`
	Message    string   `json:"message,omitempty"`
	Error      string   `json:"error,omitempty"`
	EnqueuedAt int64    `json:"enqueuedAt,omitempty"`
	StartedAt  int64    `json:"startedAt,omitempty"`
	FinishedAt int64    `json:"finishedAt,omitempty"`
}

const jobStatusTTL = 24 * time.Hour

// GetJobKey generates the Redis key for a job's status record.
func GetJobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

// SetJobStatus writes the job's current status record.
func SetJobStatus(ctx context.Context, status *JobStatus) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}

	if err := RedisClient.Set(ctx, GetJobKey(status.JobID), data, jobStatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to set job status: %w", err)
	}

	return nil
}

// GetJobStatus reads a job's status record. Returns nil without error
// when the job is unknown or its record has expired.
func GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, GetJobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job status: %w", err)
	}

	var status JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job status: %w", err)
	}

	return &status, nil
}
