package task

import (
	"context"

	"veestributes/cache"
	"veestributes/logger"
)

// RedisReporter mirrors job status records into Redis. Write failures
// are logged, not propagated: losing a progress update must not fail
// the job itself.
type RedisReporter struct{}

func (RedisReporter) Report(ctx context.Context, status *cache.JobStatus) {
	if err := cache.SetJobStatus(ctx, status); err != nil {
		logger.Warn("Failed to record job status",
			logger.String("jobId", status.JobID),
			logger.String("state", string(status.State)),
			logger.ErrorField(err))
	}
}
