package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/auth"
	"github.com/tally-dashboard/internal/forms"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/state"
	"github.com/tally-dashboard/internal/view"
)

// dashboardService is the concrete implementation of DashboardService
type dashboardService struct {
	forms       *forms.Handler
	credentials *auth.Table
	log         zerolog.Logger
}

// newDashboardService creates a new DashboardService
func newDashboardService(handler *forms.Handler, credentials *auth.Table, log zerolog.Logger) *dashboardService {
	return &dashboardService{
		forms:       handler,
		credentials: credentials,
		log:         log.With().Str("service", "dashboard").Logger(),
	}
}

// Render snapshots the store and renders one module
func (s *dashboardService) Render(store *state.Store, req view.Request) (view.Display, error) {
	snap, err := store.Snapshot()
	if err != nil {
		return view.Display{}, err
	}
	if req.Module == "users" && snap.Session.IsAdmin() {
		req.Users = s.credentials.Users()
	}
	return view.Render(snap, req), nil
}

// Forms lists the forms the session may submit
func (s *dashboardService) Forms(store *state.Store) ([]forms.Form, error) {
	session, err := requireSession(store)
	if err != nil {
		return nil, err
	}
	return forms.For(session), nil
}

// Submit hands a submission to the form handler
func (s *dashboardService) Submit(ctx context.Context, store *state.Store, formID string, fields map[string]interface{}) (*forms.Action, error) {
	action, err := s.forms.Submit(ctx, store, formID, fields)
	if err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			s.log.Debug().Str("form", formID).Int("errors", len(verr.Errors)).Msg("Submission rejected")
		} else {
			s.log.Warn().Err(err).Str("form", formID).Msg("Submission failed")
		}
		return nil, err
	}
	return action, nil
}

// Records returns a collection in stored order, filtered on a copy
func (s *dashboardService) Records(store *state.Store, collection string, filter view.Filter) ([]models.Record, error) {
	_, schema, err := requireCollection(store, collection)
	if err != nil {
		return nil, err
	}
	records, err := store.List(collection)
	if err != nil {
		return nil, err
	}
	return view.Apply(schema, records, filter), nil
}

// UpdateRecord changes one field of one record and returns the updated record
func (s *dashboardService) UpdateRecord(store *state.Store, collection, id, field string, value interface{}) (models.Record, error) {
	session, _, err := requireCollection(store, collection)
	if err != nil {
		return models.Record{}, err
	}
	if err := store.UpdateField(collection, id, field, value); err != nil {
		return models.Record{}, err
	}

	records, err := store.List(collection)
	if err != nil {
		return models.Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			s.log.Info().
				Str("collection", collection).
				Str("record_id", id).
				Str("field", field).
				Str("username", session.Username).
				Msg("Record updated")
			return r, nil
		}
	}
	return models.Record{}, fmt.Errorf("%w: %s/%s", state.ErrRecordNotFound, collection, id)
}
