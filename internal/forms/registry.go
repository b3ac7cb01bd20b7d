// Package forms implements the Form Handler: declared form schemas and the
// all-or-nothing submission of one form into one state mutation.
package forms

import (
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/water"
)

// Kind is the action a form triggers
type Kind string

const (
	KindAppend     Kind = "append"
	KindCompute    Kind = "compute"
	KindSave       Kind = "save"
	KindCredential Kind = "credential"
)

// Form IDs
const (
	FormLedgerEntry      = "ledger_entry"
	FormInvoice          = "invoice"
	FormGSTEntry         = "gst_entry"
	FormInventoryItem    = "inventory_item"
	FormTransaction      = "transaction"
	FormPayrollRun       = "payroll_run"
	FormAPIKey           = "api_key"
	FormSettings         = "settings"
	FormGSTCalculator    = "gst_calculator"
	FormTDSCalculator    = "tds_calculator"
	FormVATCalculator    = "vat_calculator"
	FormSalaryCalculator = "salary_calculator"
	FormWaterForecast    = "water_forecast"
	FormUser             = "user"
)

// Form is a declared form schema
type Form struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Module     string         `json:"module"`
	Kind       Kind           `json:"kind"`
	Collection string         `json:"collection,omitempty"`
	Fields     []models.Field `json:"fields"`
}

// collectionFields returns the user-entered fields of a collection schema,
// leaving out generated and derived ones and those listed in skip.
func collectionFields(collection string, skip ...string) []models.Field {
	schema, _ := models.LookupSchema(collection)
	omit := make(map[string]bool, len(skip))
	for _, s := range skip {
		omit[s] = true
	}
	var out []models.Field
	for _, f := range schema.Fields {
		if f.ReadOnly() || omit[f.Name] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func number(name, label string) models.Field {
	return models.Field{Name: name, Label: label, Type: models.FieldNumber, Required: true, NonNegative: true}
}

func rate(name, label string) models.Field {
	return models.Field{Name: name, Label: label, Type: models.FieldNumber, Required: true, NonNegative: true, Max: models.Float(100)}
}

var registry = []Form{
	{
		ID: FormLedgerEntry, Title: "New Ledger Entry", Module: "ledger", Kind: KindAppend,
		Collection: models.CollectionLedger, Fields: collectionFields(models.CollectionLedger),
	},
	{
		ID: FormInvoice, Title: "New Invoice", Module: "invoices", Kind: KindAppend,
		Collection: models.CollectionInvoices, Fields: collectionFields(models.CollectionInvoices),
	},
	{
		ID: FormGSTEntry, Title: "New GST Entry", Module: "gst", Kind: KindAppend,
		Collection: models.CollectionGSTEntries, Fields: collectionFields(models.CollectionGSTEntries),
	},
	{
		ID: FormInventoryItem, Title: "Add Inventory Item", Module: "inventory", Kind: KindAppend,
		Collection: models.CollectionInventory, Fields: collectionFields(models.CollectionInventory),
	},
	{
		ID: FormTransaction, Title: "Record Transaction", Module: "transactions", Kind: KindAppend,
		Collection: models.CollectionTransactions, Fields: collectionFields(models.CollectionTransactions),
	},
	{
		ID: FormPayrollRun, Title: "Run Payroll", Module: "payroll", Kind: KindAppend,
		Collection: models.CollectionPayrollRuns, Fields: collectionFields(models.CollectionPayrollRuns),
	},
	{
		ID: FormAPIKey, Title: "Generate API Key", Module: "api_keys", Kind: KindAppend,
		Collection: models.CollectionAPIKeys, Fields: collectionFields(models.CollectionAPIKeys, "created_by"),
	},
	{
		ID: FormSettings, Title: "Settings", Module: "settings", Kind: KindSave,
		Fields: []models.Field{
			{Name: models.SettingTheme, Label: "Theme", Type: models.FieldEnum, Options: []string{"light", "dark"}},
			{Name: models.SettingDateFormat, Label: "Date Format", Type: models.FieldEnum, Options: []string{"YYYY-MM-DD", "DD-MM-YYYY", "MM/DD/YYYY"}},
			{Name: models.SettingTitle, Label: "Dashboard Title", Type: models.FieldString},
		},
	},
	{
		ID: FormGSTCalculator, Title: "GST Calculator", Module: "gst", Kind: KindCompute,
		Fields: []models.Field{number("base_price", "Base Price"), rate("gst_rate", "GST Rate (%)")},
	},
	{
		ID: FormTDSCalculator, Title: "TDS Calculator", Module: "reports", Kind: KindCompute,
		Fields: []models.Field{number("amount", "Amount"), rate("rate", "TDS Rate (%)")},
	},
	{
		ID: FormVATCalculator, Title: "VAT Calculator", Module: "reports", Kind: KindCompute,
		Fields: []models.Field{number("amount", "Amount"), rate("rate", "VAT Rate (%)")},
	},
	{
		ID: FormSalaryCalculator, Title: "Salary Calculator", Module: "reports", Kind: KindCompute,
		Fields: []models.Field{number("gross", "Gross Salary"), number("deductions", "Deductions")},
	},
	{
		ID: FormWaterForecast, Title: "Generate Water Usage Forecast", Module: "water", Kind: KindCompute,
		Fields: []models.Field{
			{
				Name: "num_records", Label: "Number of Records", Type: models.FieldInteger, Required: true,
				Min: models.Float(water.MinRecords), Max: models.Float(water.MaxRecords),
			},
			{Name: "seed", Label: "Random Seed", Type: models.FieldInteger},
		},
	},
	{
		ID: FormUser, Title: "Add User", Module: "users", Kind: KindCredential,
		Fields: []models.Field{
			{Name: "username", Label: "Username", Type: models.FieldString, Required: true},
			{Name: "password", Label: "Password", Type: models.FieldString, Required: true},
			{Name: "role", Label: "Role", Type: models.FieldEnum, Required: true, Options: []string{string(models.RoleAdmin), string(models.RoleUser)}},
		},
	},
}

// All returns every declared form in registry order
func All() []Form {
	return registry
}

// Lookup returns a form by ID
func Lookup(id string) (Form, bool) {
	for _, f := range registry {
		if f.ID == id {
			return f, true
		}
	}
	return Form{}, false
}

// For returns the forms a session may submit
func For(s models.Session) []Form {
	var out []Form
	for _, f := range registry {
		if models.CanAccess(s, f.Module) {
			out = append(out, f)
		}
	}
	return out
}

// ForModule returns the forms shown on one module page
func ForModule(module string) []Form {
	var out []Form
	for _, f := range registry {
		if f.Module == module {
			out = append(out, f)
		}
	}
	return out
}
