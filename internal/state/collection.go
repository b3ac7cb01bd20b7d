package state

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/validation"
)

// collection is an ordered, append-mostly record sequence with one schema
type collection struct {
	schema  *models.Schema
	records []models.Record
	index   map[string]int // record id -> position
}

func newCollection(schema *models.Schema) *collection {
	return &collection{
		schema:  schema,
		records: []models.Record{},
		index:   make(map[string]int),
	}
}

func (c *collection) list() []models.Record {
	out := make([]models.Record, len(c.records))
	for i, r := range c.records {
		out[i] = r.Clone()
	}
	return out
}

func (c *collection) push(r models.Record) {
	c.index[r.ID] = len(c.records)
	c.records = append(c.records, r)
}

// collection returns the named collection. Caller holds mu.
func (s *Store) collection(name string) (*collection, error) {
	if !s.initialized {
		return nil, ErrUninitialized
	}
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, nil
}

// derive recomputes the derived fields of values in place
func derive(schema *models.Schema, values map[string]interface{}) *validation.ValidationError {
	if schema.Derive == nil {
		return nil
	}
	if field, err := schema.Derive(values); err != nil {
		return &validation.ValidationError{Field: field, Message: err.Error(), Value: values[field]}
	}
	return nil
}

// build fills generated fields for a record appended at position length and
// validates it against the schema.
func (s *Store) build(c *collection, fields map[string]interface{}, length int) (models.Record, []validation.ValidationError) {
	raw := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		raw[k] = v
	}
	for _, f := range c.schema.Fields {
		if f.Generated() {
			raw[f.Name] = f.Generate(length)
		}
	}

	values, errs := validation.ValidateRecord(c.schema, raw)
	if len(errs) > 0 {
		return models.Record{}, errs
	}
	if verr := derive(c.schema, values); verr != nil {
		return models.Record{}, []validation.ValidationError{*verr}
	}
	return models.Record{
		ID:        uuid.New().String(),
		Fields:    values,
		CreatedAt: s.now(),
	}, nil
}

// Append validates fields against the collection schema and appends the
// record. Generated identifiers are derived from the current length.
func (s *Store) Append(name string, fields map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return "", err
	}
	record, errs := s.build(c, fields, len(c.records))
	if errs != nil {
		return "", &SchemaError{Collection: name, Errors: errs}
	}
	c.push(record)
	return record.ID, nil
}

// AppendBatch appends all rows or none of them. Append-only collections
// take single appends only.
func (s *Store) AppendBatch(name string, rows []map[string]interface{}) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	if c.schema.AppendOnly {
		return nil, fmt.Errorf("%w: %s", ErrAppendOnly, name)
	}

	built := make([]models.Record, 0, len(rows))
	for i, fields := range rows {
		record, errs := s.build(c, fields, len(c.records)+i)
		if errs != nil {
			return nil, &SchemaError{Collection: name, Row: i + 1, Errors: errs}
		}
		built = append(built, record)
	}

	ids := make([]string, len(built))
	for i, r := range built {
		c.push(r)
		ids[i] = r.ID
	}
	return ids, nil
}

// List returns the records of a collection in insertion order
func (s *Store) List(name string) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	return c.list(), nil
}

// Len returns the number of records in a collection
func (s *Store) Len(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return 0, err
	}
	return len(c.records), nil
}

// UpdateField sets one field of an existing record in place.
// Generated and derived fields are read-only, derived fields are recomputed
// after the change and append-only collections reject every update. A blank
// value clears an optional field.
func (s *Store) UpdateField(name, id, field string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(name)
	if err != nil {
		return err
	}
	pos, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, name, id)
	}

	f, ok := c.schema.Field(field)
	if !ok {
		return &SchemaError{Collection: name, Errors: []validation.ValidationError{
			{Field: field, Message: "unknown field"},
		}}
	}
	if c.schema.AppendOnly {
		return fmt.Errorf("%w: %s", ErrAppendOnly, name)
	}
	if f.ReadOnly() {
		return &SchemaError{Collection: name, Errors: []validation.ValidationError{
			{Field: field, Message: field + " is computed and cannot be changed", Value: value},
		}}
	}
	v, verr := validation.ValidateValue(f, value)
	if verr != nil {
		return &SchemaError{Collection: name, Errors: []validation.ValidationError{*verr}}
	}

	record := c.records[pos].Clone()
	if v == nil {
		delete(record.Fields, field)
	} else {
		record.Fields[field] = v
	}
	if verr := derive(c.schema, record.Fields); verr != nil {
		return &SchemaError{Collection: name, Errors: []validation.ValidationError{*verr}}
	}
	c.records[pos] = record
	return nil
}
