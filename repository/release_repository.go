package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"veestributes/model"
)

// ReleaseRepository defines the interface for release data operations.
// Detail reads load the release's files; list reads do not.
type ReleaseRepository interface {
	CreateRelease(ctx context.Context, release *model.Release) (int64, error)
	GetReleaseByID(ctx context.Context, id int64) (*model.Release, error)
	GetReleasesByUserID(ctx context.Context, userID int64) ([]*model.Release, error)
	UpdateRelease(ctx context.Context, release *model.Release) error
	UpdateReleaseStatus(ctx context.Context, id int64, status model.ReleaseStatus) error
	MarkReleaseDistributed(ctx context.Context, id int64, at time.Time) error
	DeleteRelease(ctx context.Context, id int64) error
}

// mysqlReleaseRepository implements ReleaseRepository for MySQL.
type mysqlReleaseRepository struct {
	db    *sql.DB
	files FileRepository
}

// NewMySQLReleaseRepository creates a new mysqlReleaseRepository.
func NewMySQLReleaseRepository(db *sql.DB, files FileRepository) ReleaseRepository {
	return &mysqlReleaseRepository{db: db, files: files}
}

const releaseColumns = "id, user_id, title, artist, album, genre, description, release_date, status, distributed_at, created_at, updated_at"

// CreateRelease adds a new release in draft status.
func (r *mysqlReleaseRepository) CreateRelease(ctx context.Context, release *model.Release) (int64, error) {
	query := "INSERT INTO releases (user_id, title, artist, album, genre, description, release_date, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	status := release.Status
	if status == "" {
		status = model.ReleaseStatusDraft
	}

	res, err := r.db.ExecContext(ctx, query,
		release.UserID, release.Title, release.Artist, release.Album,
		release.Genre, release.Description, release.ReleaseDate, status)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create release statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for release: %w", err)
	}
	return id, nil
}

// GetReleaseByID retrieves a release and its files.
func (r *mysqlReleaseRepository) GetReleaseByID(ctx context.Context, id int64) (*model.Release, error) {
	query := "SELECT " + releaseColumns + " FROM releases WHERE id = ?"
	release, err := scanRelease(r.db.QueryRowContext(ctx, query, id))
	if err != nil || release == nil {
		return release, err
	}

	files, err := r.files.GetFilesByReleaseID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load files for release %d: %w", id, err)
	}
	release.Files = files
	return release, nil
}

// GetReleasesByUserID lists a user's releases, newest first, without
// loading files.
func (r *mysqlReleaseRepository) GetReleasesByUserID(ctx context.Context, userID int64) ([]*model.Release, error) {
	query := "SELECT " + releaseColumns + " FROM releases WHERE user_id = ? ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases for user %d: %w", userID, err)
	}
	defer rows.Close()

	var releases []*model.Release
	for rows.Next() {
		release, err := scanReleaseRows(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, release)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate release rows: %w", err)
	}
	return releases, nil
}

// UpdateRelease updates the editable metadata fields of a release.
func (r *mysqlReleaseRepository) UpdateRelease(ctx context.Context, release *model.Release) error {
	query := "UPDATE releases SET title = ?, artist = ?, album = ?, genre = ?, description = ?, release_date = ?, updated_at = NOW() WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query,
		release.Title, release.Artist, release.Album, release.Genre,
		release.Description, release.ReleaseDate, release.ID)
	if err != nil {
		return fmt.Errorf("failed to execute update release statement: %w", err)
	}
	return nil
}

// UpdateReleaseStatus sets the release's lifecycle status.
func (r *mysqlReleaseRepository) UpdateReleaseStatus(ctx context.Context, id int64, status model.ReleaseStatus) error {
	_, err := r.db.ExecContext(ctx, "UPDATE releases SET status = ?, updated_at = NOW() WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for release %d: %w", id, err)
	}
	return nil
}

// MarkReleaseDistributed records the end of a distribution run.
func (r *mysqlReleaseRepository) MarkReleaseDistributed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE releases SET status = ?, distributed_at = ?, updated_at = NOW() WHERE id = ?",
		model.ReleaseStatusDistributed, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark release %d distributed: %w", id, err)
	}
	return nil
}

// DeleteRelease removes a release; file rows cascade.
func (r *mysqlReleaseRepository) DeleteRelease(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM releases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete release %d: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReleaseInto(s rowScanner) (*model.Release, error) {
	release := &model.Release{}
	var status string
	err := s.Scan(&release.ID, &release.UserID, &release.Title, &release.Artist,
		&release.Album, &release.Genre, &release.Description, &release.ReleaseDate,
		&status, &release.DistributedAt, &release.CreatedAt, &release.UpdatedAt)
	if err != nil {
		return nil, err
	}
	release.Status = model.ReleaseStatus(status)
	return release, nil
}

func scanRelease(row *sql.Row) (*model.Release, error) {
	release, err := scanReleaseInto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Release not found
		}
		return nil, fmt.Errorf("failed to scan release row: %w", err)
	}
	return release, nil
}

func scanReleaseRows(rows *sql.Rows) (*model.Release, error) {
	release, err := scanReleaseInto(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan release row: %w", err)
	}
	return release, nil
}
