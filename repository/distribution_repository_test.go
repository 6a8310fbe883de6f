package repository

import (
	"testing"
	"time"

	"veestributes/model"
)

func TestMarkAttemptFailedCountsEveryFailure(t *testing.T) {
	attempt := &model.DistributionAttempt{
		ReleaseID:    42,
		PlatformID:   1,
		PlatformName: "spotify",
	}

	markAttemptFailed(attempt, "connection refused")
	if attempt.RetryCount != 1 {
		t.Fatalf("retry count after first failure = %d, want 1", attempt.RetryCount)
	}
	if attempt.Status != model.AttemptStatusFailed || attempt.ErrorMessage != "connection refused" {
		t.Fatalf("unexpected attempt state: %+v", attempt)
	}

	markAttemptFailed(attempt, "timeout")
	if attempt.RetryCount != 2 {
		t.Fatalf("retry count after second failure = %d, want 2", attempt.RetryCount)
	}
	if attempt.ErrorMessage != "timeout" {
		t.Fatalf("error message = %q, want latest failure", attempt.ErrorMessage)
	}
}

func TestMarkAttemptFailedClearsSuccessFields(t *testing.T) {
	at := time.Now().UTC()
	attempt := &model.DistributionAttempt{ReleaseID: 42, PlatformID: 1}

	markAttemptDistributed(attempt, "spotify_42", "https://open.spotify.com/album/42", at)
	if attempt.Status != model.AttemptStatusDistributed || attempt.DistributedAt == nil {
		t.Fatalf("unexpected attempt state after success: %+v", attempt)
	}

	markAttemptFailed(attempt, "revoked")
	if attempt.PlatformReleaseID != "" || attempt.PlatformURL != "" || attempt.DistributedAt != nil {
		t.Fatalf("success fields not cleared: %+v", attempt)
	}
}

func TestMarkAttemptDistributedClearsFailureFields(t *testing.T) {
	attempt := &model.DistributionAttempt{ReleaseID: 42, PlatformID: 1}
	markAttemptFailed(attempt, "connection refused")

	at := time.Now().UTC()
	markAttemptDistributed(attempt, "spotify_42", "https://open.spotify.com/album/42", at)
	if attempt.ErrorMessage != "" {
		t.Fatalf("error message not cleared: %q", attempt.ErrorMessage)
	}
	if attempt.RetryCount != 1 {
		t.Fatalf("retry count = %d, want the failure history retained", attempt.RetryCount)
	}
}
