package distribution

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"veestributes/model"
)

// SubmissionResult is returned by a successful platform submission.
// Both fields are always populated on success and never on failure.
type SubmissionResult struct {
	PlatformReleaseID string
	PlatformURL       string
}

// Submitter delivers a release to one platform target.
type Submitter interface {
	Submit(ctx context.Context, release *model.Release, platform *model.Platform) (*SubmissionResult, error)
}

// TemplateSubmitter produces deterministic platform URLs and ids.
// Real platform API integrations replace this per platform; the URL/id
// contract stays the same either way.
type TemplateSubmitter struct{}

// NewTemplateSubmitter returns the built-in deterministic submitter.
func NewTemplateSubmitter() *TemplateSubmitter {
	return &TemplateSubmitter{}
}

// Submit checks the release's audio files against the platform's
// constraints, then derives the platform URL and submission id.
func (s *TemplateSubmitter) Submit(ctx context.Context, release *model.Release, platform *model.Platform) (*SubmissionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkPlatformConstraints(release, platform); err != nil {
		return nil, err
	}

	name := strings.ToLower(platform.Name)
	var url string
	switch name {
	case "spotify":
		url = fmt.Sprintf("https://open.spotify.com/album/%d", release.ID)
	case "apple music":
		url = fmt.Sprintf("https://music.apple.com/album/%d", release.ID)
	case "youtube music":
		url = fmt.Sprintf("https://music.youtube.com/playlist?list=%d", release.ID)
	default:
		domain := platform.Domain
		if domain == "" {
			domain = strings.ReplaceAll(name, " ", "") + ".com"
		}
		url = fmt.Sprintf("https://%s/release/%d", domain, release.ID)
	}

	return &SubmissionResult{
		PlatformReleaseID: fmt.Sprintf("%s_%d", strings.ReplaceAll(name, " ", "_"), release.ID),
		PlatformURL:       url,
	}, nil
}

// checkPlatformConstraints rejects audio files the platform will not
// accept, by declared format set and maximum file size.
func checkPlatformConstraints(release *model.Release, platform *model.Platform) error {
	for _, file := range release.Files {
		if file.FileType != model.FileTypeAudio {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(file.Filename), ".")
		if !platform.SupportsFormat(ext) {
			return fmt.Errorf("platform %s does not accept %q files", platform.Name, ext)
		}
		if platform.MaxFileSize > 0 && file.FileSize > platform.MaxFileSize {
			return fmt.Errorf("file %s exceeds %s size limit of %d bytes", file.Filename, platform.Name, platform.MaxFileSize)
		}
	}
	return nil
}
