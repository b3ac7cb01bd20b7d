package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/state"
	"github.com/tally-dashboard/internal/water"
)

var (
	admin = models.Session{LoggedIn: true, Username: "admin", Role: models.RoleAdmin}
	user  = models.Session{LoggedIn: true, Username: "user", Role: models.RoleUser}
)

func seededStore(t *testing.T, session models.Session) *state.Store {
	t.Helper()
	s := state.NewStore()
	s.Init(nil)
	if session.LoggedIn {
		require.NoError(t, s.Login(session))
	}

	inventory := []map[string]interface{}{
		{"item_name": "Pen", "category": "Office", "quantity": 100, "unit_price": 1.5, "reorder_level": 20},
		{"item_name": "Paper", "category": "Office", "quantity": 5, "unit_price": 4.0, "reorder_level": 10},
		{"item_name": "Drill", "category": "Tools", "quantity": 2, "unit_price": 50.0, "reorder_level": 2},
	}
	_, err := s.AppendBatch(models.CollectionInventory, inventory)
	require.NoError(t, err)

	transactions := []map[string]interface{}{
		{"date": "2024-01-05", "type": "sale", "party": "Acme", "amount": 300.0, "mode": "cash"},
		{"date": "2024-02-10", "type": "purchase", "party": "Supplies Co", "amount": 120.0, "mode": "bank"},
		{"date": "2024-03-15", "type": "sale", "party": "Globex", "amount": 200.0, "mode": "upi"},
	}
	_, err = s.AppendBatch(models.CollectionTransactions, transactions)
	require.NoError(t, err)

	_, err = s.Append(models.CollectionPayrollRuns, map[string]interface{}{
		"employee": "Ann", "period": "2024-01", "gross": 50000.0, "deductions": 5000.0, "net": 45000.0,
	})
	require.NoError(t, err)
	return s
}

func snapshot(t *testing.T, s *state.Store) state.Snapshot {
	t.Helper()
	snap, err := s.Snapshot()
	require.NoError(t, err)
	return snap
}

func TestRender_Login(t *testing.T) {
	d := Render(snapshot(t, seededStore(t, models.Session{})), Request{Module: "inventory"})

	assert.Equal(t, KindLogin, d.Kind)
	assert.Equal(t, models.DefaultTitle, d.Title)
	assert.Equal(t, models.DefaultTheme, d.Theme)
	assert.Nil(t, d.User)
	assert.Empty(t, d.Navigation)
	assert.Empty(t, d.Tables)
	assert.Empty(t, d.Metrics)
}

func TestRender_RoleGating(t *testing.T) {
	tests := []struct {
		name    string
		session models.Session
		module  string
		want    Kind
	}{
		{name: "user on payroll", session: user, module: "payroll", want: KindAccessDenied},
		{name: "user on users", session: user, module: "users", want: KindAccessDenied},
		{name: "user on api keys", session: user, module: "api_keys", want: KindAccessDenied},
		{name: "user on audit", session: user, module: "audit", want: KindAccessDenied},
		{name: "unknown module", session: admin, module: "casino", want: KindAccessDenied},
		{name: "admin on payroll", session: admin, module: "payroll", want: KindModule},
		{name: "user on inventory", session: user, module: "inventory", want: KindModule},
		{name: "default module", session: user, module: "", want: KindModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Render(snapshot(t, seededStore(t, tt.session)), Request{Module: tt.module})
			assert.Equal(t, tt.want, d.Kind)
			if tt.want == KindAccessDenied {
				assert.Empty(t, d.Tables)
				assert.Empty(t, d.Metrics)
				assert.Empty(t, d.Forms)
				require.NotEmpty(t, d.Messages)
				assert.Equal(t, LevelError, d.Messages[len(d.Messages)-1].Level)
			}
		})
	}
}

func TestRender_Navigation(t *testing.T) {
	names := func(nav []NavItem) []string {
		var out []string
		for _, n := range nav {
			out = append(out, n.Name)
		}
		return out
	}

	userNav := names(Render(snapshot(t, seededStore(t, user)), Request{}).Navigation)
	assert.Equal(t, []string{"dashboard", "ledger", "invoices", "gst", "inventory", "transactions", "reports", "water", "settings"}, userNav)

	adminDisplay := Render(snapshot(t, seededStore(t, admin)), Request{Module: "audit"})
	assert.Len(t, adminDisplay.Navigation, len(models.Modules()))
	for _, n := range adminDisplay.Navigation {
		assert.Equal(t, n.Name == "audit", n.Active, n.Name)
	}
}

func TestRender_TableInStoredOrder(t *testing.T) {
	d := Render(snapshot(t, seededStore(t, user)), Request{Module: "inventory"})

	require.Len(t, d.Tables, 1)
	table := d.Tables[0]
	assert.Equal(t, "Inventory Items", table.Title)
	assert.Equal(t, 3, table.Total)
	assert.False(t, table.Filtered)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Pen", "Office", "100", "1.50", "20"}, table.Rows[0].Cells)
	assert.Equal(t, "Paper", table.Rows[1].Cells[0])
	assert.Equal(t, "Drill", table.Rows[2].Cells[0])
	assert.Equal(t, "item_name", table.Columns[0].Name)

	assert.Contains(t, d.Metrics, Metric{Name: "inventory_value", Label: "Inventory Value", Value: 270})
	assert.NotEmpty(t, d.Forms)
}

func TestRender_Dashboard(t *testing.T) {
	d := Render(snapshot(t, seededStore(t, user)), Request{})

	metric := func(name string) float64 {
		for _, m := range d.Metrics {
			if m.Name == name {
				return m.Value
			}
		}
		t.Fatalf("metric %s missing", name)
		return 0
	}
	assert.Equal(t, 500.0, metric("sales_total"))
	assert.Equal(t, 270.0, metric("inventory_value"))
	assert.Equal(t, 2.0, metric("low_stock_items"))
	assert.Equal(t, 3.0, metric("inventory_count"))

	for _, m := range d.Metrics {
		assert.NotEqual(t, "payroll_runs_count", m.Name, "user dashboard must not count admin collections")
	}

	require.Len(t, d.Tables, 1)
	assert.Equal(t, "Low Stock Items", d.Tables[0].Title)
	assert.Len(t, d.Tables[0].Rows, 2)

	require.Len(t, d.Charts, 1)
	assert.Equal(t, []string{"Office", "Tools"}, d.Charts[0].Labels)
	assert.Equal(t, []float64{170, 100}, d.Charts[0].Series[0].Values)
}

func TestRender_Reports(t *testing.T) {
	userDisplay := Render(snapshot(t, seededStore(t, user)), Request{Module: "reports"})
	adminDisplay := Render(snapshot(t, seededStore(t, admin)), Request{Module: "reports"})

	has := func(d Display, name string) bool {
		for _, m := range d.Metrics {
			if m.Name == name {
				return true
			}
		}
		return false
	}
	assert.False(t, has(userDisplay, "payroll_net"))
	assert.True(t, has(adminDisplay, "payroll_net"))

	require.NotEmpty(t, userDisplay.Charts)
	byType := userDisplay.Charts[0]
	assert.Equal(t, []string{"purchase", "sale"}, byType.Labels)
	assert.Equal(t, []float64{120, 500}, byType.Series[0].Values)
}

func TestRender_FilterDoesNotMutate(t *testing.T) {
	store := seededStore(t, user)
	snap := snapshot(t, store)
	before := snapshot(t, store)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	d := Render(snap, Request{Module: "transactions", Filter: Filter{From: &from}})
	require.Len(t, d.Tables, 1)
	assert.True(t, d.Tables[0].Filtered)
	assert.Equal(t, 3, d.Tables[0].Total)
	assert.Len(t, d.Tables[0].Rows, 2)

	d = Render(snap, Request{Module: "transactions", Filter: Filter{Search: "ACME"}})
	require.Len(t, d.Tables[0].Rows, 1)
	assert.Equal(t, "Acme", d.Tables[0].Rows[0].Cells[2])

	assert.Equal(t, before, snap)
	assert.Equal(t, before, snapshot(t, store))
}

func TestApply(t *testing.T) {
	schema, _ := models.LookupSchema(models.CollectionTransactions)
	snap := snapshot(t, seededStore(t, user))
	records := snap.Collections[models.CollectionTransactions]

	from := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "empty", filter: Filter{}, want: []string{"Acme", "Supplies Co", "Globex"}},
		{name: "inclusive range", filter: Filter{From: &from, To: &to}, want: []string{"Acme", "Supplies Co"}},
		{name: "enum search", filter: Filter{Search: "upi"}, want: []string{"Globex"}},
		{name: "search and range", filter: Filter{Search: "sale", To: &to}, want: []string{"Acme"}},
		{name: "no match", filter: Filter{Search: "zzz"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range Apply(schema, records, tt.filter) {
				got = append(got, r.String("party"))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Settings(t *testing.T) {
	store := seededStore(t, user)
	require.NoError(t, store.Set(state.KeySettings, models.Settings{
		models.SettingDateFormat: "DD-MM-YYYY",
		models.SettingTheme:      "dark",
		models.SettingTitle:      "Books",
	}))

	d := Render(snapshot(t, store), Request{Module: "transactions"})
	assert.Equal(t, "Books", d.Title)
	assert.Equal(t, "dark", d.Theme)
	assert.Equal(t, "05-01-2024", d.Tables[0].Rows[0].Cells[0])

	d = Render(snapshot(t, store), Request{Module: "settings"})
	assert.Equal(t, "DD-MM-YYYY", d.Settings[models.SettingDateFormat])
}

func TestRender_LastResultShownOnOwningModule(t *testing.T) {
	store := seededStore(t, user)
	require.NoError(t, store.Set(state.KeyLastResult, &models.Computation{Form: "gst_calculator"}))
	snap := snapshot(t, store)

	assert.NotNil(t, Render(snap, Request{Module: "gst"}).LastResult)
	assert.Nil(t, Render(snap, Request{Module: "ledger"}).LastResult)
}

func TestRender_Water(t *testing.T) {
	store := seededStore(t, user)

	d := Render(snapshot(t, store), Request{Module: "water"})
	assert.Nil(t, d.WaterReport)
	require.NotEmpty(t, d.Messages)

	require.NoError(t, store.Set(state.KeyWaterReport, &water.Report{
		Records: 2,
		Wards:   []water.WardSummary{{Ward: 3, ActualAverage: 1500, PredictedAverage: 1400}},
		Series:  []water.Point{{Date: "2024-01-01", Actual: 1500, Predicted: 1400}},
	}))
	d = Render(snapshot(t, store), Request{Module: "water"})
	require.NotNil(t, d.WaterReport)
	require.Len(t, d.Charts, 2)
	assert.Equal(t, []string{"3"}, d.Charts[0].Labels)
	assert.Equal(t, []Series{{Name: "actual", Values: []float64{1500}}, {Name: "predicted", Values: []float64{1400}}}, d.Charts[1].Series)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Ledger Entries", Title(models.CollectionLedger))
	assert.Equal(t, "Invoices", Title(models.CollectionInvoices))
	assert.Equal(t, "API Keys", Title(models.CollectionAPIKeys))
	assert.Equal(t, "Audit Log Entries", Title(models.CollectionAuditLog))
}
