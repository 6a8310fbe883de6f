package task

import (
	"context"
	"fmt"
	"os"
	"strings"

	"veestributes/core/metadata"
	"veestributes/logger"
	"veestributes/model"
)

// FileStore is the slice of the file repository the job handlers need.
type FileStore interface {
	GetFileByID(ctx context.Context, id int64) (*model.File, error)
	GetFileByPath(ctx context.Context, path string) (*model.File, error)
	UpdateFileProcessing(ctx context.Context, id int64, status model.ProcessingStatus, processingError string) error
	// SaveFileMetadata persists the file's metadata columns and marks it
	// completed with the current time.
	SaveFileMetadata(ctx context.Context, file *model.File) error
}

// Distributor starts a distribution run for a release.
type Distributor interface {
	Distribute(ctx context.Context, releaseID int64) error
}

// ObjectStore promotes processed files to object storage.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName, filePath, contentType string) error
}

// Processor owns the background job handlers and enqueues them.
type Processor struct {
	queue       *Queue
	files       FileStore
	extractor   *metadata.Extractor
	artwork     *metadata.ArtworkProcessor
	distributor Distributor
	uploads     ObjectStore
}

// NewProcessor wires the job handlers to their dependencies. uploads
// may be nil, in which case processed files stay on local disk only.
func NewProcessor(queue *Queue, files FileStore, extractor *metadata.Extractor, artwork *metadata.ArtworkProcessor, distributor Distributor, uploads ObjectStore) *Processor {
	return &Processor{
		queue:       queue,
		files:       files,
		extractor:   extractor,
		artwork:     artwork,
		distributor: distributor,
		uploads:     uploads,
	}
}

// EnqueueAudioProcessing schedules metadata extraction and validation
// for an uploaded audio file. Returns the job id for status polling.
func (p *Processor) EnqueueAudioProcessing(ctx context.Context, fileID int64) (string, error) {
	return p.queue.Enqueue(ctx, Job{
		Kind: JobKindProcessAudio,
		Run: func(ctx context.Context) error {
			return p.processAudioFile(ctx, fileID)
		},
	})
}

// EnqueueArtworkProcessing schedules artwork validation and
// normalization for an uploaded image file.
func (p *Processor) EnqueueArtworkProcessing(ctx context.Context, fileID int64) (string, error) {
	return p.queue.Enqueue(ctx, Job{
		Kind: JobKindProcessArtwork,
		Run: func(ctx context.Context) error {
			return p.processArtworkFile(ctx, fileID)
		},
	})
}

// EnqueuePendingAudioFile schedules processing for the registered audio
// file at path, if it is still pending. Files without a row, non-audio
// files, and files already picked up are skipped with an empty job id.
// This backs the drop-folder watcher, whose events may race the upload
// handler's own enqueue; the pending check narrows the overlap.
func (p *Processor) EnqueuePendingAudioFile(ctx context.Context, path string) (string, error) {
	file, err := p.files.GetFileByPath(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to look up file by path %s: %w", path, err)
	}
	if file == nil || file.FileType != model.FileTypeAudio || file.ProcessingStatus != model.ProcessingStatusPending {
		return "", nil
	}
	return p.EnqueueAudioProcessing(ctx, file.ID)
}

// EnqueueDistribution schedules a distribution run for a release.
func (p *Processor) EnqueueDistribution(ctx context.Context, releaseID int64) (string, error) {
	return p.queue.Enqueue(ctx, Job{
		Kind: JobKindDistribute,
		Run: func(ctx context.Context) error {
			return p.distributor.Distribute(ctx, releaseID)
		},
	})
}

// processAudioFile extracts metadata from the uploaded audio file,
// validates it against the distribution requirements, and persists the
// result. Validation errors fail the file; warnings are only logged.
func (p *Processor) processAudioFile(ctx context.Context, fileID int64) error {
	file, err := p.files.GetFileByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to load file %d: %w", fileID, err)
	}
	if file == nil {
		return fmt.Errorf("file %d not found", fileID)
	}

	if err := p.files.UpdateFileProcessing(ctx, fileID, model.ProcessingStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark file %d processing: %w", fileID, err)
	}

	meta, err := p.extractor.Extract(file.FilePath)
	if err != nil {
		return p.failFile(ctx, fileID, fmt.Errorf("metadata extraction failed: %w", err))
	}

	result := metadata.ValidateAudio(meta, file.FileSize)
	for _, warning := range result.Warnings {
		logger.Warn("Audio validation warning",
			logger.Int64("fileId", fileID),
			logger.String("warning", warning))
	}
	if !result.IsValid {
		return p.failFile(ctx, fileID, fmt.Errorf("audio validation failed: %s", strings.Join(result.Errors, "; ")))
	}

	file.Duration = &meta.DurationSeconds
	if meta.Bitrate > 0 {
		file.Bitrate = &meta.Bitrate
	}
	if meta.SampleRate > 0 {
		file.SampleRate = &meta.SampleRate
	}
	if meta.Channels > 0 {
		file.Channels = &meta.Channels
	}

	if err := p.files.SaveFileMetadata(ctx, file); err != nil {
		return fmt.Errorf("failed to save metadata for file %d: %w", fileID, err)
	}
	p.promote(ctx, file)

	logger.Info("Audio file processed",
		logger.Int64("fileId", fileID),
		logger.Int("duration", meta.DurationSeconds),
		logger.String("title", meta.Title))
	return nil
}

// processArtworkFile validates the uploaded cover and rewrites it in
// place as normalized JPEG.
func (p *Processor) processArtworkFile(ctx context.Context, fileID int64) error {
	file, err := p.files.GetFileByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to load file %d: %w", fileID, err)
	}
	if file == nil {
		return fmt.Errorf("file %d not found", fileID)
	}

	if err := p.files.UpdateFileProcessing(ctx, fileID, model.ProcessingStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark file %d processing: %w", fileID, err)
	}

	data, err := os.ReadFile(file.FilePath)
	if err != nil {
		return p.failFile(ctx, fileID, fmt.Errorf("failed to read artwork file: %w", err))
	}

	processed, err := p.artwork.Process(data)
	if err != nil {
		return p.failFile(ctx, fileID, fmt.Errorf("artwork processing failed: %w", err))
	}

	if err := os.WriteFile(file.FilePath, processed.Data, 0644); err != nil {
		return p.failFile(ctx, fileID, fmt.Errorf("failed to write processed artwork: %w", err))
	}

	file.Width = &processed.Width
	file.Height = &processed.Height
	file.FileSize = int64(processed.SizeBytes)
	file.MimeType = "image/jpeg"

	if err := p.files.SaveFileMetadata(ctx, file); err != nil {
		return fmt.Errorf("failed to save metadata for file %d: %w", fileID, err)
	}
	p.promote(ctx, file)

	logger.Info("Artwork file processed",
		logger.Int64("fileId", fileID),
		logger.Int("width", processed.Width),
		logger.Int("height", processed.Height))
	return nil
}

// promote copies the processed file into object storage. Best effort:
// the local copy remains canonical and a failed upload only logs.
func (p *Processor) promote(ctx context.Context, file *model.File) {
	if p.uploads == nil {
		return
	}
	objectName := fmt.Sprintf("%s/%s", file.FileType, file.Filename)
	if err := p.uploads.UploadFile(ctx, objectName, file.FilePath, file.MimeType); err != nil {
		logger.Warn("Failed to promote file to object storage",
			logger.Int64("fileId", file.ID),
			logger.String("object", objectName),
			logger.ErrorField(err))
	}
}

// failFile marks the file failed with the error message, then returns
// the original error so the job status carries it too.
func (p *Processor) failFile(ctx context.Context, fileID int64, cause error) error {
	if err := p.files.UpdateFileProcessing(ctx, fileID, model.ProcessingStatusFailed, cause.Error()); err != nil {
		logger.Error("Failed to mark file failed",
			logger.Int64("fileId", fileID),
			logger.ErrorField(err))
	}
	return cause
}
