// Package predict is the Model Adapter: it loads a trained regression network
// and its fitted feature transformer and applies them to feature rows.
package predict

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrFeatureMismatch  = errors.New("feature mismatch")
)

// Predictor is what callers need from the adapter
type Predictor interface {
	Predict(ctx context.Context, row []float64) (float64, error)
	PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error)
	FeatureNames() []string
}

// Status describes the loaded artifacts
type Status struct {
	Loaded   bool       `json:"loaded"`
	Source   string     `json:"source,omitempty"`
	Model    string     `json:"model,omitempty"`
	Features []string   `json:"features,omitempty"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Adapter holds the current model and transformer. Both are swapped together.
type Adapter struct {
	mu       sync.RWMutex
	network  *Network
	tf       *Transformer
	source   string
	loadedAt time.Time
	lastErr  error
	timeout  time.Duration
	log      zerolog.Logger
}

var _ Predictor = (*Adapter)(nil)

// NewAdapter creates an adapter with no model loaded
func NewAdapter(timeout time.Duration, log zerolog.Logger) *Adapter {
	return &Adapter{
		timeout: timeout,
		log:     log.With().Str("component", "model").Logger(),
	}
}

// LoadFiles reads both artifacts from disk. Missing files leave the adapter
// unloaded and return ErrModelUnavailable.
func (a *Adapter) LoadFiles(modelPath, transformerPath string) error {
	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return a.fail(fmt.Errorf("%w: read model %s: %v", ErrModelUnavailable, modelPath, err))
	}
	tfData, err := os.ReadFile(transformerPath)
	if err != nil {
		return a.fail(fmt.Errorf("%w: read transformer %s: %v", ErrModelUnavailable, transformerPath, err))
	}
	return a.Load(modelData, tfData, modelPath)
}

// Load parses both artifacts and replaces the current ones on success
func (a *Adapter) Load(modelData, transformerData []byte, source string) error {
	network, err := ParseNetwork(modelData)
	if err != nil {
		return a.fail(fmt.Errorf("%w: %v", ErrModelUnavailable, err))
	}
	tf, err := ParseTransformer(transformerData)
	if err != nil {
		return a.fail(fmt.Errorf("%w: %v", ErrModelUnavailable, err))
	}
	if network.InputWidth() != tf.Width() {
		return a.fail(fmt.Errorf("%w: model expects %d features, transformer provides %d",
			ErrFeatureMismatch, network.InputWidth(), tf.Width()))
	}

	a.mu.Lock()
	a.network = network
	a.tf = tf
	a.source = source
	a.loadedAt = time.Now()
	a.lastErr = nil
	a.mu.Unlock()

	a.log.Info().
		Str("source", source).
		Str("model", network.Name).
		Int("features", tf.Width()).
		Int("layers", len(network.Layers)).
		Msg("Model artifacts loaded")
	return nil
}

func (a *Adapter) fail(err error) error {
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
	a.log.Warn().Err(err).Msg("Model artifacts not loaded")
	return err
}

// Status reports whether a model is loaded
func (a *Adapter) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Status{Loaded: a.network != nil}
	if a.lastErr != nil {
		st.Error = a.lastErr.Error()
	}
	if a.network == nil {
		return st
	}
	loadedAt := a.loadedAt
	st.Source = a.source
	st.Model = a.network.Name
	st.Features = append([]string(nil), a.tf.FeatureNames...)
	st.LoadedAt = &loadedAt
	return st
}

// FeatureNames returns the feature order the transformer was fitted on
func (a *Adapter) FeatureNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.tf == nil {
		return nil
	}
	return append([]string(nil), a.tf.FeatureNames...)
}

// Predict applies the transformer and the network to one row
func (a *Adapter) Predict(ctx context.Context, row []float64) (float64, error) {
	out, err := a.PredictBatch(ctx, [][]float64{row})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// PredictBatch predicts every row. The call is bounded by the adapter timeout.
func (a *Adapter) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	a.mu.RLock()
	network, tf := a.network, a.tf
	a.mu.RUnlock()

	if network == nil || tf == nil {
		return nil, fmt.Errorf("%w: no model loaded", ErrModelUnavailable)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	out := make([]float64, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: prediction interrupted after %d rows: %v", ErrModelUnavailable, i, err)
		}
		if len(row) != tf.Width() {
			return nil, fmt.Errorf("%w: row %d has %d features, transformer expects %d",
				ErrFeatureMismatch, i+1, len(row), tf.Width())
		}
		out[i] = network.forward(tf.transform(row))
	}
	return out, nil
}
