package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"veestributes/model"
)

// FileRepository defines the interface for file data operations.
type FileRepository interface {
	CreateFile(ctx context.Context, file *model.File) (int64, error)
	GetFileByID(ctx context.Context, id int64) (*model.File, error)
	GetFileByPath(ctx context.Context, path string) (*model.File, error)
	GetFilesByReleaseID(ctx context.Context, releaseID int64) ([]*model.File, error)
	UpdateFileProcessing(ctx context.Context, id int64, status model.ProcessingStatus, processingError string) error
	SaveFileMetadata(ctx context.Context, file *model.File) error
	DeleteFile(ctx context.Context, id int64) error
}

// mysqlFileRepository implements FileRepository for MySQL.
type mysqlFileRepository struct {
	db *sql.DB
}

// NewMySQLFileRepository creates a new mysqlFileRepository.
func NewMySQLFileRepository(db *sql.DB) FileRepository {
	return &mysqlFileRepository{db: db}
}

const fileColumns = "id, release_id, filename, original_filename, file_type, file_size, mime_type, file_path, url_path, duration, bitrate, sample_rate, channels, width, height, processing_status, processing_error, uploaded_at, processed_at"

// CreateFile registers an uploaded file in pending state.
func (r *mysqlFileRepository) CreateFile(ctx context.Context, file *model.File) (int64, error) {
	query := `INSERT INTO files
		(release_id, filename, original_filename, file_type, file_size, mime_type, file_path, url_path, processing_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	status := file.ProcessingStatus
	if status == "" {
		status = model.ProcessingStatusPending
	}

	res, err := r.db.ExecContext(ctx, query,
		file.ReleaseID, file.Filename, file.OriginalFilename, file.FileType,
		file.FileSize, file.MimeType, file.FilePath, file.URLPath, status)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create file statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for file: %w", err)
	}
	return id, nil
}

// GetFileByID retrieves a file by its ID.
func (r *mysqlFileRepository) GetFileByID(ctx context.Context, id int64) (*model.File, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE id = ?"
	file, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return file, nil
}

// GetFilesByReleaseID lists a release's files in upload order.
func (r *mysqlFileRepository) GetFileByPath(ctx context.Context, path string) (*model.File, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE file_path = ?"
	file, err := scanFile(r.db.QueryRowContext(ctx, query, path))
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (r *mysqlFileRepository) GetFilesByReleaseID(ctx context.Context, releaseID int64) ([]*model.File, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE release_id = ? ORDER BY uploaded_at, id"
	rows, err := r.db.QueryContext(ctx, query, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files for release %d: %w", releaseID, err)
	}
	defer rows.Close()

	var files []*model.File
	for rows.Next() {
		file, err := scanFileRows(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file rows: %w", err)
	}
	return files, nil
}

// UpdateFileProcessing sets the file's processing status and error.
func (r *mysqlFileRepository) UpdateFileProcessing(ctx context.Context, id int64, status model.ProcessingStatus, processingError string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE files SET processing_status = ?, processing_error = ? WHERE id = ?",
		status, processingError, id)
	if err != nil {
		return fmt.Errorf("failed to update processing status for file %d: %w", id, err)
	}
	return nil
}

// SaveFileMetadata persists the extracted metadata columns and marks
// the file completed with the current time.
func (r *mysqlFileRepository) SaveFileMetadata(ctx context.Context, file *model.File) error {
	now := time.Now().UTC()
	query := `UPDATE files SET
		file_size = ?, mime_type = ?,
		duration = ?, bitrate = ?, sample_rate = ?, channels = ?,
		width = ?, height = ?,
		processing_status = ?, processing_error = '', processed_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		file.FileSize, file.MimeType,
		file.Duration, file.Bitrate, file.SampleRate, file.Channels,
		file.Width, file.Height,
		model.ProcessingStatusCompleted, now, file.ID)
	if err != nil {
		return fmt.Errorf("failed to save metadata for file %d: %w", file.ID, err)
	}

	file.ProcessingStatus = model.ProcessingStatusCompleted
	file.ProcessedAt = &now
	return nil
}

// DeleteFile removes a file row.
func (r *mysqlFileRepository) DeleteFile(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete file %d: %w", id, err)
	}
	return nil
}

func scanFileInto(s rowScanner) (*model.File, error) {
	file := &model.File{}
	var fileType, status string
	var processingError sql.NullString
	err := s.Scan(&file.ID, &file.ReleaseID, &file.Filename, &file.OriginalFilename,
		&fileType, &file.FileSize, &file.MimeType, &file.FilePath, &file.URLPath,
		&file.Duration, &file.Bitrate, &file.SampleRate, &file.Channels,
		&file.Width, &file.Height, &status, &processingError,
		&file.UploadedAt, &file.ProcessedAt)
	if err != nil {
		return nil, err
	}
	file.FileType = model.FileType(fileType)
	file.ProcessingStatus = model.ProcessingStatus(status)
	file.ProcessingError = processingError.String
	return file, nil
}

func scanFile(row *sql.Row) (*model.File, error) {
	file, err := scanFileInto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // File not found
		}
		return nil, fmt.Errorf("failed to scan file row: %w", err)
	}
	return file, nil
}

func scanFileRows(rows *sql.Rows) (*model.File, error) {
	file, err := scanFileInto(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan file row: %w", err)
	}
	return file, nil
}
