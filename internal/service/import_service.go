package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/predict"
	"github.com/tally-dashboard/internal/spreadsheet"
	"github.com/tally-dashboard/internal/state"
	"github.com/tally-dashboard/internal/water"
)

// importService is the concrete implementation of ImportService
type importService struct {
	model       predict.Predictor
	previewRows int
	log         zerolog.Logger
}

// newImportService creates a new ImportService. model may be nil.
func newImportService(model predict.Predictor, cfg *config.Config, log zerolog.Logger) *importService {
	return &importService{
		model:       model,
		previewRows: cfg.Import.PreviewRows,
		log:         log.With().Str("service", "import").Logger(),
	}
}

// Preview decodes an upload and reports its first rows and column check.
// Nothing is merged.
func (s *importService) Preview(ctx context.Context, store *state.Store, collection, filename string, data []byte) (*ImportPreview, error) {
	_, schema, err := requireImportable(store, collection)
	if err != nil {
		return nil, err
	}
	table, err := spreadsheet.Decode(filename, data)
	if err != nil {
		return nil, err
	}

	preview := &ImportPreview{
		Collection: collection,
		Preview:    table.Preview(s.previewRows),
		TotalRows:  len(table.Rows),
		Valid:      true,
	}
	if err := spreadsheet.CheckColumns(schema, table); err != nil {
		var mismatch *spreadsheet.MismatchError
		if !errors.As(err, &mismatch) {
			return nil, err
		}
		preview.Valid = false
		preview.Mismatch = mismatch
	}
	return preview, nil
}

// Import checks the upload's columns against the collection schema, then
// appends every row or none of them.
func (s *importService) Import(ctx context.Context, store *state.Store, collection, filename string, data []byte) (*ImportResult, error) {
	session, schema, err := requireImportable(store, collection)
	if err != nil {
		return nil, err
	}
	table, err := spreadsheet.Decode(filename, data)
	if err != nil {
		return nil, err
	}
	if err := spreadsheet.CheckColumns(schema, table); err != nil {
		return nil, err
	}

	ids, err := store.AppendBatch(collection, table.Maps())
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("collection", collection).
		Str("filename", filename).
		Int("rows", len(ids)).
		Str("username", session.Username).
		Msg("Import merged")
	return &ImportResult{Collection: collection, Imported: len(ids), RecordIDs: ids}, nil
}

// AnalyzeWater runs uploaded household data through the usage model and
// keeps the report as the session's water report.
func (s *importService) AnalyzeWater(ctx context.Context, store *state.Store, filename string, data []byte) (*water.Report, error) {
	session, err := requireSession(store)
	if err != nil {
		return nil, err
	}
	if !models.CanAccess(session, "water") {
		return nil, ErrAccessDenied
	}
	if s.model == nil {
		return nil, fmt.Errorf("%w: no model configured", predict.ErrModelUnavailable)
	}

	table, err := spreadsheet.Decode(filename, data)
	if err != nil {
		return nil, err
	}
	households, err := water.FromTable(table)
	if err != nil {
		return nil, err
	}
	report, err := water.Analyze(ctx, s.model, households, filename)
	if err != nil {
		return nil, err
	}
	if err := store.Set(state.KeyWaterReport, report); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("filename", filename).
		Int("households", report.Records).
		Float64("mae", report.MAE).
		Msg("Water usage analyzed")
	return report, nil
}
