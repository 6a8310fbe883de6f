package distribution_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"veestributes/core/distribution"
	"veestributes/model"
)

type fakeReleaseStore struct {
	mu       sync.Mutex
	release  *model.Release
	statuses []model.ReleaseStatus
	markedAt *time.Time
}

func (s *fakeReleaseStore) GetReleaseByID(ctx context.Context, id int64) (*model.Release, error) {
	if s.release == nil || s.release.ID != id {
		return nil, nil
	}
	return s.release, nil
}

func (s *fakeReleaseStore) UpdateReleaseStatus(ctx context.Context, id int64, status model.ReleaseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	s.release.Status = status
	return nil
}

func (s *fakeReleaseStore) MarkReleaseDistributed(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, model.ReleaseStatusDistributed)
	s.release.Status = model.ReleaseStatusDistributed
	s.markedAt = &at
	return nil
}

type fakePlatformStore struct {
	platforms []*model.Platform
}

func (s *fakePlatformStore) GetActivePlatforms(ctx context.Context) ([]*model.Platform, error) {
	return s.platforms, nil
}

type recordedAttempt struct {
	platform string
	success  bool
	url      string
	message  string
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	attempts []recordedAttempt
}

func (s *fakeAttemptStore) RecordSuccess(ctx context.Context, releaseID int64, platform *model.Platform, platformReleaseID, platformURL string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, recordedAttempt{platform: platform.Name, success: true, url: platformURL})
	return nil
}

func (s *fakeAttemptStore) RecordFailure(ctx context.Context, releaseID int64, platform *model.Platform, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, recordedAttempt{platform: platform.Name, message: message})
	return nil
}

func (s *fakeAttemptStore) counts() (succeeded, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

type fakeUsers struct{ email string }

func (u *fakeUsers) GetUserEmail(ctx context.Context, userID int64) (string, error) {
	return u.email, nil
}

type fakeSubmitter struct {
	submit func(platform *model.Platform) (*distribution.SubmissionResult, error)
}

func (f *fakeSubmitter) Submit(ctx context.Context, release *model.Release, platform *model.Platform) (*distribution.SubmissionResult, error) {
	return f.submit(platform)
}

type fakeNotifier struct {
	mu        sync.Mutex
	calls     int
	recipient string
	title     string
	outcomes  []distribution.Outcome
	err       error
}

func (n *fakeNotifier) NotifyDistributionComplete(ctx context.Context, recipient, releaseTitle string, outcomes []distribution.Outcome) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.recipient = recipient
	n.title = releaseTitle
	n.outcomes = outcomes
	return n.err
}

func draftRelease() *model.Release {
	return &model.Release{
		ID:     42,
		UserID: 7,
		Title:  "First Light",
		Status: model.ReleaseStatusDraft,
		Files: []*model.File{
			{
				ID:               1,
				ReleaseID:        42,
				Filename:         "track.mp3",
				FileType:         model.FileTypeAudio,
				FileSize:         5 << 20,
				ProcessingStatus: model.ProcessingStatusCompleted,
			},
		},
	}
}

func threePlatforms() []*model.Platform {
	return []*model.Platform{
		{ID: 1, Name: "spotify", IsActive: true},
		{ID: 2, Name: "apple music", IsActive: true},
		{ID: 3, Name: "bandlab", Domain: "bandlab.com", IsActive: true},
	}
}

func newTestMachine(releases *fakeReleaseStore, platforms []*model.Platform, attempts *fakeAttemptStore, submitter distribution.Submitter, notifier *fakeNotifier) *distribution.Machine {
	return distribution.NewMachine(
		releases,
		&fakePlatformStore{platforms: platforms},
		attempts,
		&fakeUsers{email: "artist@example.com"},
		submitter,
		notifier,
		time.Minute,
	)
}

func TestDistributeRejectsNonDraftRelease(t *testing.T) {
	releases := &fakeReleaseStore{release: draftRelease()}
	releases.release.Status = model.ReleaseStatusProcessing
	attempts := &fakeAttemptStore{}
	notifier := &fakeNotifier{}

	machine := newTestMachine(releases, threePlatforms(), attempts, distribution.NewTemplateSubmitter(), notifier)
	err := machine.Distribute(context.Background(), 42)
	if !errors.Is(err, distribution.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if len(releases.statuses) != 0 {
		t.Fatalf("expected no status writes, got %v", releases.statuses)
	}
	if len(attempts.attempts) != 0 {
		t.Fatalf("expected no attempt writes, got %v", attempts.attempts)
	}
	if notifier.calls != 0 {
		t.Fatal("expected no notification")
	}
}

func TestDistributePartialFailureStillDistributes(t *testing.T) {
	releases := &fakeReleaseStore{release: draftRelease()}
	attempts := &fakeAttemptStore{}
	notifier := &fakeNotifier{}
	submitter := &fakeSubmitter{
		submit: func(platform *model.Platform) (*distribution.SubmissionResult, error) {
			if platform.Name == "apple music" {
				return nil, fmt.Errorf("gateway timeout")
			}
			return &distribution.SubmissionResult{
				PlatformReleaseID: platform.Name + "_42",
				PlatformURL:       "https://" + platform.Name + "/42",
			}, nil
		},
	}

	machine := newTestMachine(releases, threePlatforms(), attempts, submitter, notifier)
	if err := machine.Distribute(context.Background(), 42); err != nil {
		t.Fatalf("Distribute failed: %v", err)
	}

	if releases.release.Status != model.ReleaseStatusDistributed {
		t.Fatalf("release status = %s, want distributed", releases.release.Status)
	}
	if releases.markedAt == nil {
		t.Fatal("expected distributed timestamp")
	}
	succeeded, failed := attempts.counts()
	if succeeded != 2 || failed != 1 {
		t.Fatalf("attempts = %d succeeded / %d failed, want 2/1", succeeded, failed)
	}

	if notifier.calls != 1 {
		t.Fatalf("notifier called %d times, want exactly 1", notifier.calls)
	}
	if notifier.recipient != "artist@example.com" || notifier.title != "First Light" {
		t.Fatalf("unexpected notification header: %s / %s", notifier.recipient, notifier.title)
	}
	if len(notifier.outcomes) != 3 {
		t.Fatalf("notification lists %d outcomes, want all 3", len(notifier.outcomes))
	}
	for _, outcome := range notifier.outcomes {
		if outcome.Platform == "apple music" {
			if outcome.Status != model.AttemptStatusFailed || outcome.Error == "" || outcome.URL != "" {
				t.Fatalf("unexpected failed outcome: %+v", outcome)
			}
		} else {
			if outcome.Status != model.AttemptStatusDistributed || outcome.URL == "" || outcome.Error != "" {
				t.Fatalf("unexpected success outcome: %+v", outcome)
			}
		}
	}
}

func TestDistributeIsolatesPanickingAttempt(t *testing.T) {
	releases := &fakeReleaseStore{release: draftRelease()}
	attempts := &fakeAttemptStore{}
	notifier := &fakeNotifier{}
	submitter := &fakeSubmitter{
		submit: func(platform *model.Platform) (*distribution.SubmissionResult, error) {
			if platform.Name == "spotify" {
				panic("connector bug")
			}
			return &distribution.SubmissionResult{PlatformReleaseID: "x", PlatformURL: "https://x"}, nil
		},
	}

	machine := newTestMachine(releases, threePlatforms(), attempts, submitter, notifier)
	if err := machine.Distribute(context.Background(), 42); err != nil {
		t.Fatalf("Distribute failed: %v", err)
	}
	if releases.release.Status != model.ReleaseStatusDistributed {
		t.Fatalf("release status = %s, want distributed", releases.release.Status)
	}
	succeeded, failed := attempts.counts()
	if succeeded != 2 || failed != 1 {
		t.Fatalf("attempts = %d/%d, want 2 succeeded and 1 failed", succeeded, failed)
	}
	for _, outcome := range notifier.outcomes {
		if outcome.Platform == "spotify" && !strings.Contains(outcome.Error, "panicked") {
			t.Fatalf("expected panic captured in outcome, got %+v", outcome)
		}
	}
}

func TestDistributeFailsReleaseWithoutProcessedAudio(t *testing.T) {
	release := draftRelease()
	release.Files[0].ProcessingStatus = model.ProcessingStatusPending
	releases := &fakeReleaseStore{release: release}
	attempts := &fakeAttemptStore{}
	notifier := &fakeNotifier{}

	machine := newTestMachine(releases, threePlatforms(), attempts, distribution.NewTemplateSubmitter(), notifier)
	err := machine.Distribute(context.Background(), 42)
	if !errors.Is(err, distribution.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if release.Status != model.ReleaseStatusFailed {
		t.Fatalf("release status = %s, want failed", release.Status)
	}
	if len(attempts.attempts) != 0 {
		t.Fatal("expected no attempts before the precondition check")
	}
}

func TestDistributeSurvivesNotificationFailure(t *testing.T) {
	releases := &fakeReleaseStore{release: draftRelease()}
	attempts := &fakeAttemptStore{}
	notifier := &fakeNotifier{err: errors.New("smtp unavailable")}

	machine := newTestMachine(releases, threePlatforms(), attempts, distribution.NewTemplateSubmitter(), notifier)
	if err := machine.Distribute(context.Background(), 42); err != nil {
		t.Fatalf("notification failure must not fail the run: %v", err)
	}
	if releases.release.Status != model.ReleaseStatusDistributed {
		t.Fatalf("release status = %s, want distributed", releases.release.Status)
	}
}

func TestDistributeUnknownRelease(t *testing.T) {
	releases := &fakeReleaseStore{}
	machine := newTestMachine(releases, nil, &fakeAttemptStore{}, distribution.NewTemplateSubmitter(), &fakeNotifier{})
	if err := machine.Distribute(context.Background(), 99); !errors.Is(err, distribution.ErrReleaseNotFound) {
		t.Fatalf("expected ErrReleaseNotFound, got %v", err)
	}
}

func TestTemplateSubmitterURLs(t *testing.T) {
	release := draftRelease()
	submitter := distribution.NewTemplateSubmitter()

	tests := []struct {
		platform model.Platform
		wantURL  string
		wantID   string
	}{
		{model.Platform{Name: "spotify"}, "https://open.spotify.com/album/42", "spotify_42"},
		{model.Platform{Name: "Apple Music"}, "https://music.apple.com/album/42", "apple_music_42"},
		{model.Platform{Name: "YouTube Music"}, "https://music.youtube.com/playlist?list=42", "youtube_music_42"},
		{model.Platform{Name: "BandLab", Domain: "bandlab.com"}, "https://bandlab.com/release/42", "bandlab_42"},
		{model.Platform{Name: "Sound Wave"}, "https://soundwave.com/release/42", "sound_wave_42"},
	}

	for _, tt := range tests {
		t.Run(tt.platform.Name, func(t *testing.T) {
			result, err := submitter.Submit(context.Background(), release, &tt.platform)
			if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			if result.PlatformURL != tt.wantURL {
				t.Fatalf("url = %s, want %s", result.PlatformURL, tt.wantURL)
			}
			if result.PlatformReleaseID != tt.wantID {
				t.Fatalf("id = %s, want %s", result.PlatformReleaseID, tt.wantID)
			}
		})
	}
}

func TestTemplateSubmitterEnforcesPlatformConstraints(t *testing.T) {
	release := draftRelease()
	submitter := distribution.NewTemplateSubmitter()

	if _, err := submitter.Submit(context.Background(), release, &model.Platform{
		Name:             "flaconly",
		SupportedFormats: "flac,wav",
	}); err == nil {
		t.Fatal("expected format rejection for mp3 upload")
	}

	if _, err := submitter.Submit(context.Background(), release, &model.Platform{
		Name:        "tiny",
		MaxFileSize: 1024,
	}); err == nil {
		t.Fatal("expected size rejection")
	}
}
