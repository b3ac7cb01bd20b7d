package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/auth"
	"github.com/tally-dashboard/internal/config"
	"github.com/tally-dashboard/internal/forms"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/predict"
	"github.com/tally-dashboard/internal/repository"
	"github.com/tally-dashboard/internal/spreadsheet"
	"github.com/tally-dashboard/internal/state"
	"github.com/tally-dashboard/internal/view"
	"github.com/tally-dashboard/internal/water"
)

var (
	ErrNotAuthenticated   = forms.ErrNotAuthenticated
	ErrAccessDenied       = forms.ErrAccessDenied
	ErrArchiveDisabled    = errors.New("export archive is not enabled")
	ErrArchiveNotFound    = errors.New("archived export not found")
	ErrModelNotConfigured = errors.New("model adapter is not configured")
)

// SessionService defines the interface for session lifecycle operations
type SessionService interface {
	Start() (string, *state.Store)
	Get(id string) (*state.Store, bool)
	Anonymous() *state.Store
	Register(store *state.Store) string
	Login(ctx context.Context, store *state.Store, username, password string) (models.Session, error)
	Logout(ctx context.Context, id string, store *state.Store) error
	RunExpiry(ctx context.Context)
	LoadSeeds(ctx context.Context) (int, error)
	Users(store *state.Store) ([]auth.UserInfo, error)
	ActiveSessions() int
}

// DashboardService defines the interface for rendering and form submission
type DashboardService interface {
	Render(store *state.Store, req view.Request) (view.Display, error)
	Forms(store *state.Store) ([]forms.Form, error)
	Submit(ctx context.Context, store *state.Store, formID string, fields map[string]interface{}) (*forms.Action, error)
	Records(store *state.Store, collection string, filter view.Filter) ([]models.Record, error)
	UpdateRecord(store *state.Store, collection, id, field string, value interface{}) (models.Record, error)
}

// ExportService defines the interface for spreadsheet downloads
type ExportService interface {
	Export(ctx context.Context, store *state.Store, collection string) (*ExportFile, error)
	RecentExports(ctx context.Context, store *state.Store, limit int) ([]*models.ExportArchive, error)
	Archived(ctx context.Context, store *state.Store, id string) (*ExportFile, error)
}

// ImportService defines the interface for spreadsheet uploads
type ImportService interface {
	Preview(ctx context.Context, store *state.Store, collection, filename string, data []byte) (*ImportPreview, error)
	Import(ctx context.Context, store *state.Store, collection, filename string, data []byte) (*ImportResult, error)
	AnalyzeWater(ctx context.Context, store *state.Store, filename string, data []byte) (*water.Report, error)
}

// ModelService defines the interface for model adapter management
type ModelService interface {
	Status() predict.Status
	Replace(ctx context.Context, store *state.Store, modelData, transformerData []byte) (predict.Status, error)
}

// ExportFile is a generated download
type ExportFile struct {
	Filename    string
	Format      string
	ContentType string
	Content     []byte
	Rows        int
}

// ImportPreview is the first rows of an upload and its column check
type ImportPreview struct {
	Collection string                     `json:"collection"`
	Preview    *spreadsheet.Table         `json:"preview"`
	TotalRows  int                        `json:"total_rows"`
	Valid      bool                       `json:"valid"`
	Mismatch   *spreadsheet.MismatchError `json:"mismatch,omitempty"`
}

// ImportResult reports a completed merge
type ImportResult struct {
	Collection string   `json:"collection"`
	Imported   int      `json:"imported"`
	RecordIDs  []string `json:"record_ids"`
}

// Services holds all service interfaces
type Services struct {
	Session   SessionService
	Dashboard DashboardService
	Export    ExportService
	Import    ImportService
	Model     ModelService
}

// NewServices creates all services. repos is nil when the database is disabled.
func NewServices(repos *repository.Repositories, credentials *auth.Table, model *predict.Adapter, cfg *config.Config, log zerolog.Logger) *Services {
	var predictor predict.Predictor
	if model != nil {
		predictor = model
	}
	formHandler := forms.NewHandler(credentials, predictor, log)

	return &Services{
		Session:   newSessionService(repos, credentials, cfg.Auth.IdleTimeout, log),
		Dashboard: newDashboardService(formHandler, credentials, log),
		Export:    newExportService(repos, cfg, log),
		Import:    newImportService(predictor, cfg, log),
		Model:     newModelService(model, log),
	}
}

// requireSession returns the session of an initialised, logged-in store
func requireSession(store *state.Store) (models.Session, error) {
	session, err := store.Session()
	if err != nil {
		return models.Session{}, err
	}
	if !session.LoggedIn {
		return models.Session{}, ErrNotAuthenticated
	}
	return session, nil
}

// requireCollection checks that the session may use a collection
func requireCollection(store *state.Store, collection string) (models.Session, *models.Schema, error) {
	session, err := requireSession(store)
	if err != nil {
		return session, nil, err
	}
	schema, ok := models.LookupSchema(collection)
	if !ok {
		return session, nil, state.ErrUnknownCollection
	}
	if !models.CanAccessCollection(session, collection) {
		return session, nil, ErrAccessDenied
	}
	return session, schema, nil
}

// requireImportable is requireCollection for bulk merges, which append-only
// collections refuse
func requireImportable(store *state.Store, collection string) (models.Session, *models.Schema, error) {
	session, schema, err := requireCollection(store, collection)
	if err != nil {
		return session, nil, err
	}
	if schema.AppendOnly {
		return session, nil, fmt.Errorf("%w: %s", state.ErrAppendOnly, collection)
	}
	return session, schema, nil
}
