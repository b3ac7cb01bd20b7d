package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/repository"
	"github.com/tally-dashboard/internal/spreadsheet"
	"github.com/tally-dashboard/internal/state"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	archive repository.ArchiveRepository
	formats map[string]string
	log     zerolog.Logger
	now     func() time.Time
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *exportService {
	s := &exportService{
		formats: cfg.Export.Formats,
		log:     log.With().Str("service", "export").Logger(),
		now:     time.Now,
	}
	if repos != nil {
		s.archive = repos.Archive
	}
	return s
}

// FormatFor returns the configured export format of a collection
func (s *exportService) FormatFor(schema *models.Schema) string {
	if f, ok := s.formats[schema.Collection]; ok {
		return f
	}
	return schema.ExportFormat
}

// Export serialises one collection. Columns follow schema declaration order.
// When archiving is enabled a copy is stored; archive failures are logged
// and do not affect the download.
func (s *exportService) Export(ctx context.Context, store *state.Store, collection string) (*ExportFile, error) {
	session, schema, err := requireCollection(store, collection)
	if err != nil {
		return nil, err
	}
	records, err := store.List(collection)
	if err != nil {
		return nil, err
	}

	columns := schema.Columns()
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		row := make([]interface{}, len(columns))
		for j, c := range columns {
			row[j] = r.Fields[c]
		}
		rows[i] = row
	}

	format := s.FormatFor(schema)
	content, err := spreadsheet.Encode(format, columns, rows)
	if err != nil {
		return nil, err
	}

	file := &ExportFile{
		Filename:    spreadsheet.Filename(collection, format),
		Format:      format,
		ContentType: spreadsheet.ContentType(format),
		Content:     content,
		Rows:        len(rows),
	}

	s.log.Info().
		Str("collection", collection).
		Str("format", format).
		Int("rows", file.Rows).
		Str("username", session.Username).
		Msg("Export generated")

	if s.archive != nil {
		archive := &models.ExportArchive{
			Collection: collection,
			Format:     format,
			Filename:   file.Filename,
			RowCount:   file.Rows,
			Username:   session.Username,
			Content:    content,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.archive.Save(ctx, archive); err != nil {
			s.log.Error().Err(err).Str("collection", collection).Msg("Failed to archive export")
		}
	}
	return file, nil
}

// requireArchive admits admins to the export archive
func (s *exportService) requireArchive(store *state.Store) (models.Session, error) {
	session, err := requireSession(store)
	if err != nil {
		return session, err
	}
	if !session.IsAdmin() {
		return session, ErrAccessDenied
	}
	if s.archive == nil {
		return session, ErrArchiveDisabled
	}
	return session, nil
}

// RecentExports lists archived exports for admins
func (s *exportService) RecentExports(ctx context.Context, store *state.Store, limit int) ([]*models.ExportArchive, error) {
	if _, err := s.requireArchive(store); err != nil {
		return nil, err
	}
	return s.archive.Recent(ctx, limit)
}

// Archived returns a stored export exactly as it was downloaded
func (s *exportService) Archived(ctx context.Context, store *state.Store, id string) (*ExportFile, error) {
	session, err := s.requireArchive(store)
	if err != nil {
		return nil, err
	}
	archive, err := s.archive.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive %s: %w", id, err)
	}
	if archive == nil {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, id)
	}

	s.log.Info().
		Str("archive_id", id).
		Str("collection", archive.Collection).
		Str("username", session.Username).
		Msg("Archived export downloaded")
	return &ExportFile{
		Filename:    archive.Filename,
		Format:      archive.Format,
		ContentType: spreadsheet.ContentType(archive.Format),
		Content:     archive.Content,
		Rows:        archive.RowCount,
	}, nil
}
