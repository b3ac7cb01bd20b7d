package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/tally-dashboard/internal/models"
)

// MismatchError names the columns that kept an upload from matching
type MismatchError struct {
	Missing   []string `json:"missing,omitempty"`
	Unknown   []string `json:"unknown,omitempty"`
	Duplicate []string `json:"duplicate,omitempty"`
}

func (e *MismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown columns: "+strings.Join(e.Unknown, ", "))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate columns: "+strings.Join(e.Duplicate, ", "))
	}
	return fmt.Sprintf("%s (%s)", ErrImportSchemaMismatch, strings.Join(parts, "; "))
}

func (e *MismatchError) Unwrap() error {
	return ErrImportSchemaMismatch
}

// CheckColumns verifies that an upload carries every non-generated field of
// the schema and nothing else. Generated and derived columns may be present;
// their values are replaced on merge.
func CheckColumns(schema *models.Schema, t *Table) error {
	var required, allowed []string
	for _, f := range schema.Fields {
		allowed = append(allowed, f.Name)
		if !f.ReadOnly() {
			required = append(required, f.Name)
		}
	}
	return RequireColumns(t, required, allowed)
}

// RequireColumns checks the header of t. Every required column must appear
// once; any column outside allowed is unknown. A nil allowed list accepts
// extra columns.
func RequireColumns(t *Table, required, allowed []string) error {
	seen := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		seen[c]++
	}

	mismatch := &MismatchError{}
	for _, c := range required {
		if seen[c] == 0 {
			mismatch.Missing = append(mismatch.Missing, c)
		}
	}
	if allowed != nil {
		known := make(map[string]bool, len(allowed))
		for _, c := range allowed {
			known[c] = true
		}
		for _, c := range t.Columns {
			if !known[c] {
				mismatch.Unknown = append(mismatch.Unknown, c)
			}
		}
	}
	for _, c := range t.Columns {
		if seen[c] > 1 {
			mismatch.Duplicate = append(mismatch.Duplicate, c)
			seen[c] = 1
		}
	}

	if len(mismatch.Missing)+len(mismatch.Unknown)+len(mismatch.Duplicate) > 0 {
		return mismatch
	}
	return nil
}
