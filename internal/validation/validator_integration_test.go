package validation

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/tally-dashboard/internal/models"
)

func testdataPath(t *testing.T, filename string) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(currentFile)))
	path := filepath.Join(projectRoot, "testdata", filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("testdata file not found: %s", path)
	}
	return path
}

func TestValidateRecord_InventorySampleCSV(t *testing.T) {
	file, err := os.Open(testdataPath(t, "inventory_sample.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		t.Fatal(err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	schema, ok := models.LookupSchema(models.CollectionInventory)
	if !ok {
		t.Fatal("inventory schema not registered")
	}

	failedLines := make(map[int][]ValidationError)
	totalRecords := 0
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("line %d: %v", lineNum+1, err)
		}
		lineNum++
		totalRecords++

		raw := make(map[string]interface{}, len(header))
		for i, col := range header {
			raw[col] = record[i]
		}
		if _, errs := ValidateRecord(schema, raw); len(errs) > 0 {
			failedLines[lineNum] = errs
		}
	}

	if totalRecords != 13 {
		t.Errorf("Expected 13 records, got %d", totalRecords)
	}

	expected := map[int]string{
		7:  "quantity",
		9:  "unit_price",
		11: "item_name",
		14: "reorder_level",
	}
	if len(failedLines) != len(expected) {
		t.Errorf("Expected %d invalid lines, got %d: %v", len(expected), len(failedLines), failedLines)
	}
	for line, field := range expected {
		errs, ok := failedLines[line]
		if !ok {
			t.Errorf("Line %d should fail validation", line)
			continue
		}
		if errs[0].Field != field {
			t.Errorf("Line %d: expected error on %s, got %s", line, field, errs[0].Field)
		}
	}

	t.Logf("Validated %d records, %d invalid", totalRecords, len(failedLines))
}

func TestValidateRecord_EverySchemaRejectsEmptyRecord(t *testing.T) {
	for _, schema := range models.Schemas() {
		t.Run(schema.Collection, func(t *testing.T) {
			_, errs := ValidateRecord(schema, map[string]interface{}{})
			if len(errs) == 0 {
				t.Error("Empty record should fail validation")
			}
			for _, e := range errs {
				f, ok := schema.Field(e.Field)
				if !ok || !f.Required {
					t.Errorf("Unexpected error on %s: %s", e.Field, e.Message)
				}
			}
		})
	}
}
