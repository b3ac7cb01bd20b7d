package models

import (
	"fmt"

	"github.com/google/uuid"
)

// FieldType is the value type of a schema field
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldDate    FieldType = "date"
	FieldEnum    FieldType = "enum"
)

// Generator produces the value of a generated field from the collection
// length at append time.
type Generator func(length int) string

// Field declares one named, typed value of a record or form
type Field struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	NonNegative bool      `json:"non_negative,omitempty"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Derived     bool      `json:"derived,omitempty"`
	Generate    Generator `json:"-"`
}

// Generated reports whether the field value is produced at append time
func (f Field) Generated() bool {
	return f.Generate != nil
}

// ReadOnly reports whether the field is filled by the store rather than
// by the caller
func (f Field) ReadOnly() bool {
	return f.Generated() || f.Derived
}

// Deriver recomputes the Derived fields of a validated record in place.
// On inconsistent inputs it names the offending input field.
type Deriver func(values map[string]interface{}) (field string, err error)

// Schema is the fixed, ordered field list of a record collection
type Schema struct {
	Collection   string  `json:"collection"`
	Name         string  `json:"name"`   // singular display name
	Module       string  `json:"module"` // module that owns the collection
	Fields       []Field `json:"fields"`
	ExportFormat string  `json:"export_format"` // "xlsx" or "csv"
	AppendOnly   bool    `json:"append_only,omitempty"`
	Derive       Deriver `json:"-"`
}

// Field returns the named field
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns field names in declaration order
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// DateField returns the first date field, used for date-range filters
func (s *Schema) DateField() (string, bool) {
	for _, f := range s.Fields {
		if f.Type == FieldDate {
			return f.Name, true
		}
	}
	return "", false
}

// Collection names
const (
	CollectionLedger       = "ledger"
	CollectionInvoices     = "invoices"
	CollectionGSTEntries   = "gst_entries"
	CollectionInventory    = "inventory"
	CollectionTransactions = "transactions"
	CollectionPayrollRuns  = "payroll_runs"
	CollectionAPIKeys      = "api_keys"
	CollectionAuditLog     = "audit_log"
)

// SequenceID returns a generator of "<prefix><1000+length>" identifiers.
// Uniqueness relies on a single writer per collection.
func SequenceID(prefix string) Generator {
	return func(length int) string {
		return fmt.Sprintf("%s%d", prefix, 1000+length)
	}
}

func randomKey(int) string {
	return uuid.New().String()
}

// Float returns a pointer to v, for Field.Min / Field.Max literals
func Float(v float64) *float64 {
	return &v
}

var schemas = []*Schema{
	{
		Collection: CollectionLedger, Name: "Ledger Entry", Module: "ledger", ExportFormat: "xlsx",
		Fields: []Field{
			{Name: "date", Label: "Date", Type: FieldDate, Required: true},
			{Name: "account", Label: "Account", Type: FieldString, Required: true},
			{Name: "description", Label: "Description", Type: FieldString},
			{Name: "debit", Label: "Debit", Type: FieldNumber, Required: true, NonNegative: true},
			{Name: "credit", Label: "Credit", Type: FieldNumber, Required: true, NonNegative: true},
		},
	},
	{
		Collection: CollectionInvoices, Name: "Invoice", Module: "invoices", ExportFormat: "xlsx",
		Fields: []Field{
			{Name: "invoice_no", Label: "Invoice No", Type: FieldString, Required: true, Generate: SequenceID("INV")},
			{Name: "date", Label: "Date", Type: FieldDate, Required: true},
			{Name: "customer", Label: "Customer", Type: FieldString, Required: true},
			{Name: "amount", Label: "Amount", Type: FieldNumber, Required: true, NonNegative: true},
			{Name: "gst_rate", Label: "GST Rate (%)", Type: FieldNumber, Required: true, NonNegative: true, Max: Float(100)},
			{Name: "status", Label: "Status", Type: FieldEnum, Required: true, Options: []string{"unpaid", "paid", "cancelled"}},
		},
	},
	{
		Collection: CollectionGSTEntries, Name: "GST Entry", Module: "gst", ExportFormat: "xlsx", Derive: deriveGST,
		Fields: []Field{
			{Name: "date", Label: "Date", Type: FieldDate, Required: true},
			{Name: "description", Label: "Description", Type: FieldString, Required: true},
			{Name: "base_price", Label: "Base Price", Type: FieldNumber, Required: true, NonNegative: true},
			{Name: "gst_rate", Label: "GST Rate (%)", Type: FieldNumber, Required: true, NonNegative: true, Max: Float(100)},
			{Name: "gst_amount", Label: "GST Amount", Type: FieldNumber, Required: true, NonNegative: true, Derived: true},
			{Name: "total", Label: "Total", Type: FieldNumber, Required: true, NonNegative: true, Derived: true},
		},
	},
	{
		Collection: CollectionInventory, Name: "Inventory Item", Module: "inventory", ExportFormat: "xlsx",
		Fields: []Field{
			{Name: "item_name", Label: "Item Name", Type: FieldString, Required: true},
			{Name: "category", Label: "Category", Type: FieldString, Required: true},
			{Name: "quantity", Label: "Quantity", Type: FieldInteger, Required: true, NonNegative: true},
			{Name: "unit_price", Label: "Unit Price", Type: FieldNumber, Required: true, NonNegative: true},
			{Name: "reorder_level", Label: "Reorder Level", Type: FieldInteger, Required: true, NonNegative: true},
		},
	},
	{
		Collection: CollectionTransactions, Name: "Transaction", Module: "transactions", ExportFormat: "xlsx",
		Fields: []Field{
			{Name: "date", Label: "Date", Type: FieldDate, Required: true},
			{Name: "type", Label: "Type", Type: FieldEnum, Required: true, Options: []string{"sale", "purchase", "receipt", "payment"}},
			{Name: "party", Label: "Party", Type: FieldString, Required: true},
			{Name: "amount", Label: "Amount", Type: FieldNumber, Required: true, NonNegative: true},
			{Name: "mode", Label: "Mode", Type: FieldEnum, Required: true, Options: []string{"cash", "bank", "upi", "card"}},
		},
	},
	{
		Collection: CollectionPayrollRuns, Name: "Payroll Run", Module: "payroll", ExportFormat: "xlsx", Derive: deriveNetSalary,
		Fields: []Field{
			{Name: "run_id", Label: "Run ID", Type: FieldString, Required: true, Generate: SequenceID("RUN")},
			{Name: "employee", Label: "Employee", Type: FieldString, Required: true},
			{Name: "period", Label: "Period", Type: FieldString, Required: true},
			{Name: "gross", Label: "Gross Salary", Type: FieldNumber, Required: true, NonNegative: true},
			{Name: "deductions", Label: "Deductions", Type: FieldNumber, Required: true, NonNegative: true},
			{Name: "net", Label: "Net Salary", Type: FieldNumber, Required: true, NonNegative: true, Derived: true},
		},
	},
	{
		Collection: CollectionAPIKeys, Name: "API Key", Module: "api_keys", ExportFormat: "xlsx",
		Fields: []Field{
			{Name: "name", Label: "Name", Type: FieldString, Required: true},
			{Name: "key", Label: "Key", Type: FieldString, Required: true, Generate: randomKey},
			{Name: "created_by", Label: "Created By", Type: FieldString, Required: true},
		},
	},
	{
		Collection: CollectionAuditLog, Name: "Audit Log Entry", Module: "audit", ExportFormat: "csv", AppendOnly: true,
		Fields: []Field{
			{Name: "timestamp", Label: "Timestamp", Type: FieldDate, Required: true},
			{Name: "username", Label: "Username", Type: FieldString, Required: true},
			{Name: "action", Label: "Action", Type: FieldString, Required: true},
			{Name: "details", Label: "Details", Type: FieldString},
		},
	},
}

var schemaIndex = func() map[string]*Schema {
	idx := make(map[string]*Schema, len(schemas))
	for _, s := range schemas {
		idx[s.Collection] = s
	}
	return idx
}()

// Schemas returns every collection schema in registry order
func Schemas() []*Schema {
	return schemas
}

// LookupSchema returns the schema of a collection
func LookupSchema(collection string) (*Schema, bool) {
	s, ok := schemaIndex[collection]
	return s, ok
}
