package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tally-dashboard/internal/predict"
	"github.com/tally-dashboard/internal/state"
)

// modelService is the concrete implementation of ModelService
type modelService struct {
	adapter *predict.Adapter
	log     zerolog.Logger
}

// newModelService creates a new ModelService. adapter may be nil.
func newModelService(adapter *predict.Adapter, log zerolog.Logger) *modelService {
	return &modelService{
		adapter: adapter,
		log:     log.With().Str("service", "model").Logger(),
	}
}

// Status reports the loaded artifacts
func (s *modelService) Status() predict.Status {
	if s.adapter == nil {
		return predict.Status{Error: ErrModelNotConfigured.Error()}
	}
	return s.adapter.Status()
}

// Replace swaps in uploaded artifacts. Only admins may replace the model;
// a rejected upload keeps the current model.
func (s *modelService) Replace(ctx context.Context, store *state.Store, modelData, transformerData []byte) (predict.Status, error) {
	session, err := requireSession(store)
	if err != nil {
		return predict.Status{}, err
	}
	if !session.IsAdmin() {
		return predict.Status{}, ErrAccessDenied
	}
	if s.adapter == nil {
		return predict.Status{}, ErrModelNotConfigured
	}

	if err := s.adapter.Load(modelData, transformerData, "upload:"+session.Username); err != nil {
		return s.adapter.Status(), err
	}
	s.log.Info().Str("username", session.Username).Msg("Model artifacts replaced")
	return s.adapter.Status(), nil
}
