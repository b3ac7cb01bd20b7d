// Package water generates household water-usage data, runs it through the
// usage model and summarises the predictions into a report.
package water

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/tally-dashboard/internal/predict"
)

// Limits of the water_forecast form
const (
	MinRecords = 100
	MaxRecords = 10000
)

// FeatureNames is the column order the usage model was trained on
var FeatureNames = []string{"ward", "area", "leakage_detected", "disparity_in_supply", "income_level", "household_size"}

// Household is one monthly usage observation
type Household struct {
	ID            int64     `json:"household_id"`
	Ward          int       `json:"ward"`
	Area          int       `json:"area"`
	Leakage       int       `json:"leakage_detected"`
	Disparity     int       `json:"disparity_in_supply"`
	IncomeLevel   int       `json:"income_level"`
	HouseholdSize int       `json:"household_size"`
	MonthlyUsage  float64   `json:"monthly_usage"`
	Date          time.Time `json:"date"`
}

// Features returns the model input row in FeatureNames order
func (h Household) Features() []float64 {
	return []float64{
		float64(h.Ward),
		float64(h.Area),
		float64(h.Leakage),
		float64(h.Disparity),
		float64(h.IncomeLevel),
		float64(h.HouseholdSize),
	}
}

// Generate returns n synthetic households dated one day apart going back from now
func Generate(rng *rand.Rand, n int, now time.Time) []Household {
	day := now.UTC().Truncate(24 * time.Hour)
	out := make([]Household, n)
	for i := range out {
		out[i] = Household{
			ID:            1 + rng.Int63n(999999),
			Ward:          1 + rng.Intn(49),
			Area:          1 + rng.Intn(99),
			Leakage:       choose(rng, 0.9, 0.1),
			Disparity:     choose(rng, 0.95, 0.05),
			IncomeLevel:   choose(rng, 0.3, 0.5, 0.2),
			HouseholdSize: 1 + rng.Intn(9),
			MonthlyUsage:  float64(1000 + rng.Intn(2000)),
			Date:          day.AddDate(0, 0, -i),
		}
	}
	return out
}

// choose returns an index drawn with the given probabilities
func choose(rng *rand.Rand, p ...float64) int {
	r := rng.Float64()
	for i, w := range p {
		if r < w {
			return i
		}
		r -= w
	}
	return len(p) - 1
}

// WardSummary averages actual and predicted usage for one ward
type WardSummary struct {
	Ward             int     `json:"ward"`
	Households       int     `json:"households"`
	ActualAverage    float64 `json:"actual_average"`
	PredictedAverage float64 `json:"predicted_average"`
	Leaks            int     `json:"leaks"`
}

// Point is one day of the usage-over-time series
type Point struct {
	Date      string  `json:"date"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// Report summarises a prediction run
type Report struct {
	Source           string        `json:"source"`
	Records          int           `json:"records"`
	MSE              float64       `json:"mse"`
	MAE              float64       `json:"mae"`
	R2               float64       `json:"r2"`
	LeakCount        int           `json:"leak_count"`
	DisparityCount   int           `json:"disparity_count"`
	AverageUsage     float64       `json:"average_usage"`
	AveragePredicted float64       `json:"average_predicted"`
	Wards            []WardSummary `json:"wards"`
	Series           []Point       `json:"series"`
	Predictions      []float64     `json:"-"`
	GeneratedAt      time.Time     `json:"generated_at"`
}

// Analyze predicts usage for every household and compares it with the
// recorded usage.
func Analyze(ctx context.Context, p predict.Predictor, households []Household, source string) (*Report, error) {
	if len(households) == 0 {
		return nil, fmt.Errorf("no households to analyze")
	}
	if names := p.FeatureNames(); len(names) > 0 && !equal(names, FeatureNames) {
		return nil, fmt.Errorf("%w: model features %v, data features %v", predict.ErrFeatureMismatch, names, FeatureNames)
	}

	rows := make([][]float64, len(households))
	for i, h := range households {
		rows[i] = h.Features()
	}
	predicted, err := p.PredictBatch(ctx, rows)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Source:      source,
		Records:     len(households),
		Predictions: predicted,
		GeneratedAt: time.Now().UTC(),
	}

	var sumActual, sumPred, sumSq, sumAbs float64
	for i, h := range households {
		diff := h.MonthlyUsage - predicted[i]
		sumActual += h.MonthlyUsage
		sumPred += predicted[i]
		sumSq += diff * diff
		sumAbs += math.Abs(diff)
		r.LeakCount += h.Leakage
		r.DisparityCount += h.Disparity
	}
	n := float64(len(households))
	r.MSE = round2(sumSq / n)
	r.MAE = round2(sumAbs / n)
	r.AverageUsage = round2(sumActual / n)
	r.AveragePredicted = round2(sumPred / n)

	mean := sumActual / n
	var ssTot float64
	for _, h := range households {
		ssTot += (h.MonthlyUsage - mean) * (h.MonthlyUsage - mean)
	}
	if ssTot > 0 {
		r.R2 = round4(1 - sumSq/ssTot)
	}

	r.Wards = summarizeWards(households, predicted)
	r.Series = series(households, predicted)
	return r, nil
}

func summarizeWards(households []Household, predicted []float64) []WardSummary {
	byWard := make(map[int]*WardSummary)
	for i, h := range households {
		w, ok := byWard[h.Ward]
		if !ok {
			w = &WardSummary{Ward: h.Ward}
			byWard[h.Ward] = w
		}
		w.Households++
		w.ActualAverage += h.MonthlyUsage
		w.PredictedAverage += predicted[i]
		w.Leaks += h.Leakage
	}

	out := make([]WardSummary, 0, len(byWard))
	for _, w := range byWard {
		w.ActualAverage = round2(w.ActualAverage / float64(w.Households))
		w.PredictedAverage = round2(w.PredictedAverage / float64(w.Households))
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ward < out[j].Ward })
	return out
}

// series averages actual and predicted usage per day, oldest first
func series(households []Household, predicted []float64) []Point {
	type acc struct {
		actual, predicted float64
		n                 int
	}
	byDay := make(map[string]*acc)
	for i, h := range households {
		key := h.Date.Format("2006-01-02")
		a, ok := byDay[key]
		if !ok {
			a = &acc{}
			byDay[key] = a
		}
		a.actual += h.MonthlyUsage
		a.predicted += predicted[i]
		a.n++
	}

	out := make([]Point, 0, len(byDay))
	for day, a := range byDay {
		out = append(out, Point{
			Date:      day,
			Actual:    round2(a.actual / float64(a.n)),
			Predicted: round2(a.predicted / float64(a.n)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
