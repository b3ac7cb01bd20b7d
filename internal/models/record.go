package models

import (
	"time"
)

// Record is one entry of a record collection. Field values are normalised
// to string, float64, int64 or time.Time.
type Record struct {
	ID        string                 `json:"id"`
	Fields    map[string]interface{} `json:"fields"`
	CreatedAt time.Time              `json:"created_at"`
}

// Clone returns a copy whose field map can be modified independently
func (r Record) Clone() Record {
	fields := make(map[string]interface{}, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{ID: r.ID, Fields: fields, CreatedAt: r.CreatedAt}
}

// String returns a string field or ""
func (r Record) String(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}

// Number returns a numeric field as float64 or 0
func (r Record) Number(name string) float64 {
	switch v := r.Fields[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Time returns a date field or the zero time
func (r Record) Time(name string) time.Time {
	t, _ := r.Fields[name].(time.Time)
	return t
}
