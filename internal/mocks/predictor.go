package mocks

import (
	"context"

	"github.com/tally-dashboard/internal/predict"
)

// MockPredictor is a mock implementation of predict.Predictor
type MockPredictor struct {
	Names       []string
	Value       float64
	Err         error
	PredictFunc func(row []float64) float64
	Calls       int
}

var _ predict.Predictor = (*MockPredictor)(nil)

func NewMockPredictor(names []string, value float64) *MockPredictor {
	return &MockPredictor{Names: names, Value: value}
}

func (m *MockPredictor) Predict(ctx context.Context, row []float64) (float64, error) {
	out, err := m.PredictBatch(ctx, [][]float64{row})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

func (m *MockPredictor) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if m.PredictFunc != nil {
			out[i] = m.PredictFunc(r)
		} else {
			out[i] = m.Value
		}
	}
	return out, nil
}

func (m *MockPredictor) FeatureNames() []string {
	return m.Names
}
