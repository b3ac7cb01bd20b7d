package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/tally-dashboard/internal/database"
	"github.com/tally-dashboard/internal/models"
)

// archiveRepo is the concrete implementation of ArchiveRepository
type archiveRepo struct {
	db *database.DB
}

// NewArchiveRepo creates a new export archive repository
func NewArchiveRepo(db *database.DB) ArchiveRepository {
	return &archiveRepo{db: db}
}

// Save inserts an archive, assigning an ID when it has none
func (r *archiveRepo) Save(ctx context.Context, archive *models.ExportArchive) error {
	if archive.ID == "" {
		archive.ID = uuid.New().String()
	}
	query := `
		INSERT INTO export_archives (id, collection, format, filename, row_count, username, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		archive.ID, archive.Collection, archive.Format, archive.Filename,
		archive.RowCount, archive.Username, archive.Content, archive.CreatedAt,
	)
	return err
}

// Recent lists archive metadata, newest first. Content is not loaded.
func (r *archiveRepo) Recent(ctx context.Context, limit int) ([]*models.ExportArchive, error) {
	query := `
		SELECT id, collection, format, filename, row_count, username, created_at
		FROM export_archives
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	archives := make([]*models.ExportArchive, 0)
	for rows.Next() {
		var a models.ExportArchive
		if err := rows.Scan(&a.ID, &a.Collection, &a.Format, &a.Filename, &a.RowCount, &a.Username, &a.CreatedAt); err != nil {
			return nil, err
		}
		archives = append(archives, &a)
	}
	return archives, rows.Err()
}

// GetByID retrieves one archive with its content
func (r *archiveRepo) GetByID(ctx context.Context, id string) (*models.ExportArchive, error) {
	query := `
		SELECT id, collection, format, filename, row_count, username, content, created_at
		FROM export_archives WHERE id = $1
	`
	var a models.ExportArchive
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Collection, &a.Format, &a.Filename, &a.RowCount, &a.Username, &a.Content, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
