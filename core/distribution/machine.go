// Package distribution drives a release through its delivery lifecycle:
// draft -> processing -> distributed/failed, fanning out one submission
// attempt per active platform and aggregating the outcomes.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"veestributes/logger"
	"veestributes/model"
)

var (
	// ErrInvalidState means the release is not in draft; nothing is written.
	ErrInvalidState = errors.New("release is not in a distributable state")
	// ErrNotReady means the release has no processed audio files yet.
	ErrNotReady = errors.New("release has no processed audio files")
	// ErrReleaseNotFound means the release id resolved to nothing.
	ErrReleaseNotFound = errors.New("release not found")
)

// ReleaseStore is the persistence surface the machine needs for releases.
// GetReleaseByID must return the release with its files loaded.
type ReleaseStore interface {
	GetReleaseByID(ctx context.Context, id int64) (*model.Release, error)
	UpdateReleaseStatus(ctx context.Context, id int64, status model.ReleaseStatus) error
	MarkReleaseDistributed(ctx context.Context, id int64, at time.Time) error
}

// PlatformStore provides the read-only platform reference data.
type PlatformStore interface {
	GetActivePlatforms(ctx context.Context) ([]*model.Platform, error)
}

// AttemptStore records per-platform submission outcomes. Each call
// commits one attempt's state change atomically; a failure for an
// existing release/platform pair increments its retry count.
type AttemptStore interface {
	RecordSuccess(ctx context.Context, releaseID int64, platform *model.Platform, platformReleaseID, platformURL string, at time.Time) error
	RecordFailure(ctx context.Context, releaseID int64, platform *model.Platform, message string) error
}

// UserDirectory resolves the notification recipient for a release owner.
type UserDirectory interface {
	GetUserEmail(ctx context.Context, userID int64) (string, error)
}

// Outcome is one platform's result, as reported to the notifier.
type Outcome struct {
	Platform string
	Status   model.AttemptStatus
	URL      string
	Error    string
}

// Notifier emits the completion notice once the machine reaches a
// terminal state. Delivery is best-effort; errors never roll back the
// release state.
type Notifier interface {
	NotifyDistributionComplete(ctx context.Context, recipient, releaseTitle string, outcomes []Outcome) error
}

// Machine executes distribution runs.
type Machine struct {
	releases  ReleaseStore
	platforms PlatformStore
	attempts  AttemptStore
	users     UserDirectory
	submitter Submitter
	notifier  Notifier

	// AttemptTimeout bounds each platform submission. Zero means no bound.
	attemptTimeout time.Duration
}

// NewMachine constructs a distribution machine. All collaborators are
// injected so tests can substitute fakes per call.
func NewMachine(
	releases ReleaseStore,
	platforms PlatformStore,
	attempts AttemptStore,
	users UserDirectory,
	submitter Submitter,
	notifier Notifier,
	attemptTimeout time.Duration,
) *Machine {
	return &Machine{
		releases:       releases,
		platforms:      platforms,
		attempts:       attempts,
		users:          users,
		submitter:      submitter,
		notifier:       notifier,
		attemptTimeout: attemptTimeout,
	}
}

// Distribute runs one distribution pass for the release. The release
// must be in draft with at least one processed audio file. Per-platform
// failures are recorded, not propagated: the release still reaches
// distributed once every attempt has settled. Cancellation mid-run is
// not supported; callers observe state instead.
func (m *Machine) Distribute(ctx context.Context, releaseID int64) error {
	release, err := m.releases.GetReleaseByID(ctx, releaseID)
	if err != nil {
		return fmt.Errorf("failed to load release %d: %w", releaseID, err)
	}
	if release == nil {
		return fmt.Errorf("%w: %d", ErrReleaseNotFound, releaseID)
	}

	if release.Status != model.ReleaseStatusDraft {
		return fmt.Errorf("%w: release %d is %s", ErrInvalidState, releaseID, release.Status)
	}

	if !hasProcessedAudio(release) {
		if err := m.releases.UpdateReleaseStatus(ctx, releaseID, model.ReleaseStatusFailed); err != nil {
			return fmt.Errorf("failed to mark release %d failed: %w", releaseID, err)
		}
		return fmt.Errorf("%w: release %d", ErrNotReady, releaseID)
	}

	if err := m.releases.UpdateReleaseStatus(ctx, releaseID, model.ReleaseStatusProcessing); err != nil {
		return fmt.Errorf("failed to mark release %d processing: %w", releaseID, err)
	}

	platforms, err := m.platforms.GetActivePlatforms(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active platforms: %w", err)
	}

	logger.Info("starting distribution fan-out",
		logger.Int64("releaseId", releaseID),
		logger.Int("platforms", len(platforms)))

	outcomes := m.fanOut(ctx, release, platforms)

	// Join barrier has passed: partial platform failure is still a
	// distributed release. Failures live in the attempt records.
	now := time.Now().UTC()
	if err := m.releases.MarkReleaseDistributed(ctx, releaseID, now); err != nil {
		return fmt.Errorf("failed to mark release %d distributed: %w", releaseID, err)
	}

	m.notify(ctx, release, outcomes)
	return nil
}

// fanOut submits the release to every platform concurrently and waits
// for all attempts to settle. Each attempt is isolated: an error or
// panic in one never aborts its siblings.
func (m *Machine) fanOut(ctx context.Context, release *model.Release, platforms []*model.Platform) []Outcome {
	outcomes := make([]Outcome, len(platforms))

	var wg sync.WaitGroup
	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform *model.Platform) {
			defer wg.Done()
			outcomes[i] = m.attempt(ctx, release, platform)
		}(i, platform)
	}
	wg.Wait()

	return outcomes
}

// attempt performs one platform submission and records its outcome.
func (m *Machine) attempt(ctx context.Context, release *model.Release, platform *model.Platform) (outcome Outcome) {
	outcome = Outcome{Platform: platform.Name}

	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprintf("submission panicked: %v", r)
			outcome.Status = model.AttemptStatusFailed
			outcome.Error = message
			m.recordFailure(ctx, release, platform, message)
		}
	}()

	attemptCtx := ctx
	if m.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, m.attemptTimeout)
		defer cancel()
	}

	result, err := m.submitter.Submit(attemptCtx, release, platform)
	if err != nil {
		logger.Warn("platform submission failed",
			logger.Int64("releaseId", release.ID),
			logger.String("platform", platform.Name),
			logger.ErrorField(err))
		outcome.Status = model.AttemptStatusFailed
		outcome.Error = err.Error()
		m.recordFailure(ctx, release, platform, err.Error())
		return outcome
	}

	if err := m.attempts.RecordSuccess(ctx, release.ID, platform, result.PlatformReleaseID, result.PlatformURL, time.Now().UTC()); err != nil {
		logger.Error("failed to record successful attempt",
			logger.Int64("releaseId", release.ID),
			logger.String("platform", platform.Name),
			logger.ErrorField(err))
	}

	outcome.Status = model.AttemptStatusDistributed
	outcome.URL = result.PlatformURL
	return outcome
}

func (m *Machine) recordFailure(ctx context.Context, release *model.Release, platform *model.Platform, message string) {
	if err := m.attempts.RecordFailure(ctx, release.ID, platform, message); err != nil {
		logger.Error("failed to record failed attempt",
			logger.Int64("releaseId", release.ID),
			logger.String("platform", platform.Name),
			logger.ErrorField(err))
	}
}

// notify emits the single completion notice. Delivery failure is logged
// and dropped; the terminal release state is already committed.
func (m *Machine) notify(ctx context.Context, release *model.Release, outcomes []Outcome) {
	recipient, err := m.users.GetUserEmail(ctx, release.UserID)
	if err != nil {
		logger.Error("failed to resolve notification recipient",
			logger.Int64("releaseId", release.ID),
			logger.Int64("userId", release.UserID),
			logger.ErrorField(err))
		return
	}

	if err := m.notifier.NotifyDistributionComplete(ctx, recipient, release.Title, outcomes); err != nil {
		logger.Error("distribution notification failed",
			logger.Int64("releaseId", release.ID),
			logger.String("recipient", recipient),
			logger.ErrorField(err))
	}
}

func hasProcessedAudio(release *model.Release) bool {
	for _, file := range release.Files {
		if file.FileType == model.FileTypeAudio && file.ProcessingStatus == model.ProcessingStatusCompleted {
			return true
		}
	}
	return false
}
