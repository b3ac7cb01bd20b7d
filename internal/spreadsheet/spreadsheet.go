// Package spreadsheet encodes collections for download and decodes uploaded
// CSV and XLSX files into tables.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Supported formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const sheetName = "Data"

var (
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrEmptyFile            = errors.New("file has no header row")
	ErrImportSchemaMismatch = errors.New("import columns do not match")
)

// Table is a decoded upload: a header row and string cells
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ContentType returns the MIME type of a format
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename returns "<topic>.<ext>"
func Filename(topic, format string) string {
	return topic + "." + format
}

// Encode writes a header row followed by rows. Cell values are written as
// literals: numbers as numbers, dates as text, everything else as text.
func Encode(format string, columns []string, rows [][]interface{}) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return encodeXLSX(columns, rows)
	case FormatCSV:
		return encodeCSV(columns, rows)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func encodeXLSX(columns []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = xlsxValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case float64, int64, int, string:
		return val
	}
	return FormatCell(v)
}

// literalText keeps spreadsheet programs from reading text as a formula
func literalText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func encodeCSV(columns []string, rows [][]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = FormatCell(v)
			if _, ok := v.(string); ok {
				cells[i] = literalText(cells[i])
			}
		}
		if err := w.Write(cells); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatCell renders a record value as spreadsheet text. Dates at midnight
// UTC are written as YYYY-MM-DD, other times as RFC 3339.
func FormatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		if val.Equal(val.Truncate(24*time.Hour)) && val.Location() == time.UTC {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// Decode reads a fully buffered .csv or .xlsx upload. The first row is the
// header; blank rows are skipped and short rows are padded.
func Decode(filename string, data []byte) (*Table, error) {
	var (
		raw [][]string
		err error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		raw, err = decodeCSV(data)
	case ".xlsx":
		raw, err = decodeXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return newTable(raw)
}

func decodeCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

func decodeXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func newTable(raw [][]string) (*Table, error) {
	var rows [][]string
	for _, r := range raw {
		if !blankRow(r) {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	t := &Table{Columns: make([]string, len(rows[0])), Rows: make([][]string, 0, len(rows)-1)}
	for i, c := range rows[0] {
		t.Columns[i] = strings.TrimSpace(c)
	}
	for _, r := range rows[1:] {
		row := make([]string, len(t.Columns))
		for i := range row {
			if i < len(r) {
				row[i] = strings.TrimSpace(r[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Preview returns a table holding at most the first n rows
func (t *Table) Preview(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Maps returns each row keyed by column name. Blank cells are omitted.
func (t *Table) Maps() []map[string]interface{} {
	out := make([]map[string]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			if row[j] != "" {
				m[col] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// Index returns the position of each column
func (t *Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[c] = i
	}
	return idx
}
