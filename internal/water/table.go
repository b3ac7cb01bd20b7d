package water

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tally-dashboard/internal/spreadsheet"
	"github.com/tally-dashboard/internal/validation"
)

// ErrInvalidRow is returned for an upload row that cannot be read as a household
var ErrInvalidRow = errors.New("invalid household row")

// Upload columns. Headers written by spreadsheet tools in title case
// ("Household ID", "Monthly Water Usage (Liters)") are accepted too.
var (
	requiredColumns = []string{"ward", "area", "leakage_detected", "disparity_in_supply", "income_level", "household_size", "monthly_usage"}
	optionalColumns = []string{"household_id", "date"}

	headerAliases = map[string]string{
		"household id":                 "household_id",
		"ward":                         "ward",
		"area":                         "area",
		"leakage detected (yes/no)":    "leakage_detected",
		"leakage detected":             "leakage_detected",
		"disparity in supply (yes/no)": "disparity_in_supply",
		"disparity in supply":          "disparity_in_supply",
		"income level":                 "income_level",
		"household size":               "household_size",
		"monthly water usage (liters)": "monthly_usage",
		"monthly usage":                "monthly_usage",
		"date":                         "date",
	}
)

// FromTable converts an uploaded table into households
func FromTable(t *spreadsheet.Table) ([]Household, error) {
	normalized := &spreadsheet.Table{Columns: make([]string, len(t.Columns)), Rows: t.Rows}
	for i, c := range t.Columns {
		normalized.Columns[i] = normalizeHeader(c)
	}
	allowed := append(append([]string{}, requiredColumns...), optionalColumns...)
	if err := spreadsheet.RequireColumns(normalized, requiredColumns, allowed); err != nil {
		return nil, err
	}

	idx := normalized.Index()
	out := make([]Household, 0, len(t.Rows))
	for i, row := range t.Rows {
		h, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrInvalidRow, i+1, err)
		}
		out = append(out, h)
	}
	return out, nil
}

func normalizeHeader(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

func parseRow(row []string, idx map[string]int) (Household, error) {
	var (
		h   Household
		err error
	)
	ints := []struct {
		col    string
		dst    *int
		lo, hi int
	}{
		{"ward", &h.Ward, 1, 1000},
		{"area", &h.Area, 1, 1000},
		{"leakage_detected", &h.Leakage, 0, 1},
		{"disparity_in_supply", &h.Disparity, 0, 1},
		{"income_level", &h.IncomeLevel, 0, 2},
		{"household_size", &h.HouseholdSize, 1, 100},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(row[idx[f.col]], f.col, f.lo, f.hi); err != nil {
			return h, err
		}
	}

	usage, err := strconv.ParseFloat(row[idx["monthly_usage"]], 64)
	if err != nil || usage < 0 {
		return h, fmt.Errorf("monthly_usage must be a non-negative number, got %q", row[idx["monthly_usage"]])
	}
	h.MonthlyUsage = usage

	if i, ok := idx["household_id"]; ok && row[i] != "" {
		if h.ID, err = strconv.ParseInt(row[i], 10, 64); err != nil {
			return h, fmt.Errorf("household_id must be a whole number, got %q", row[i])
		}
	}
	if i, ok := idx["date"]; ok && row[i] != "" {
		if h.Date, err = validation.ParseDate(row[i]); err != nil {
			return h, fmt.Errorf("date: %w", err)
		}
	}
	return h, nil
}

// parseInt accepts whole numbers and Yes/No flags
func parseInt(s, col string, lo, hi int) (int, error) {
	switch strings.ToLower(s) {
	case "yes", "true":
		s = "1"
	case "no", "false":
		s = "0"
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%s must be a whole number, got %q", col, s)
	}
	v := int(f)
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", col, lo, hi, v)
	}
	return v, nil
}
