package models

// Module is a named section of the dashboard
type Module struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	AdminOnly  bool   `json:"admin_only"`
	Collection string `json:"collection,omitempty"`
}

var modules = []Module{
	{Name: "dashboard", Title: "Dashboard"},
	{Name: "ledger", Title: "Ledger", Collection: CollectionLedger},
	{Name: "invoices", Title: "Invoices", Collection: CollectionInvoices},
	{Name: "gst", Title: "GST", Collection: CollectionGSTEntries},
	{Name: "inventory", Title: "Inventory", Collection: CollectionInventory},
	{Name: "transactions", Title: "Transactions", Collection: CollectionTransactions},
	{Name: "reports", Title: "Reports"},
	{Name: "water", Title: "Water Usage"},
	{Name: "settings", Title: "Settings"},
	{Name: "payroll", Title: "Payroll", AdminOnly: true, Collection: CollectionPayrollRuns},
	{Name: "users", Title: "User Management", AdminOnly: true},
	{Name: "api_keys", Title: "API Keys", AdminOnly: true, Collection: CollectionAPIKeys},
	{Name: "audit", Title: "Audit Log", AdminOnly: true, Collection: CollectionAuditLog},
}

// Modules returns the module registry in navigation order
func Modules() []Module {
	return modules
}

// LookupModule returns a module by name
func LookupModule(name string) (Module, bool) {
	for _, m := range modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}

// ModulesFor returns the modules a session may open. Anonymous sessions get none.
func ModulesFor(s Session) []Module {
	if !s.LoggedIn {
		return nil
	}
	var out []Module
	for _, m := range modules {
		if m.AdminOnly && !s.IsAdmin() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// CanAccess reports whether the session may open the module
func CanAccess(s Session, module string) bool {
	m, ok := LookupModule(module)
	if !ok || !s.LoggedIn {
		return false
	}
	return !m.AdminOnly || s.IsAdmin()
}

// CanAccessCollection reports whether the session may read or write a collection
func CanAccessCollection(s Session, collection string) bool {
	schema, ok := LookupSchema(collection)
	if !ok {
		return false
	}
	return CanAccess(s, schema.Module)
}
