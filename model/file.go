package model

import "time"

// FileType distinguishes the kinds of assets a release owns.
type FileType string

const (
	FileTypeAudio   FileType = "audio"
	FileTypeArtwork FileType = "artwork"
)

// ProcessingStatus tracks the asynchronous processing state of a file.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// File belongs to exactly one release.
type File struct {
	ID               int64            `json:"id"`
	ReleaseID        int64            `json:"releaseId"`
	Filename         string           `json:"filename"`
	OriginalFilename string           `json:"originalFilename"`
	FileType         FileType         `json:"fileType"`
	FileSize         int64            `json:"fileSize"`
	MimeType         string           `json:"mimeType"`
	FilePath         string           `json:"-"` // Not exposed in API directly
	URLPath          string           `json:"urlPath"`

	// Audio metadata, populated once processing completes
	Duration   *int `json:"duration,omitempty"` // Seconds
	Bitrate    *int `json:"bitrate,omitempty"`
	SampleRate *int `json:"sampleRate,omitempty"`
	Channels   *int `json:"channels,omitempty"`

	// Artwork metadata
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`

	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	ProcessingError  string           `json:"processingError,omitempty"`

	UploadedAt  time.Time  `json:"uploadedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}
