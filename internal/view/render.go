package view

import (
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"github.com/tally-dashboard/internal/forms"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/state"
	"github.com/tally-dashboard/internal/water"
)

// DefaultModule is opened after login
const DefaultModule = "dashboard"

// Render builds the display for one request
func Render(snap state.Snapshot, req Request) Display {
	d := Display{
		Title:      snap.Settings.Get(models.SettingTitle, models.DefaultTitle),
		Theme:      snap.Settings.Get(models.SettingTheme, models.DefaultTheme),
		DateFormat: snap.Settings.Get(models.SettingDateFormat, models.DefaultDateFormat),
		Messages:   req.Messages,
	}

	if !snap.Session.LoggedIn {
		d.Kind = KindLogin
		return d
	}

	module := req.Module
	if module == "" {
		module = DefaultModule
	}

	d.User = &User{Username: snap.Session.Username, Role: snap.Session.Role}
	d.Navigation = navigation(snap.Session, module)
	d.Module = module

	if !models.CanAccess(snap.Session, module) {
		d.Kind = KindAccessDenied
		d.Messages = append(d.Messages, Message{Level: LevelError, Text: "You do not have access to " + module})
		return d
	}

	m, _ := models.LookupModule(module)
	d.Kind = KindModule
	d.ModuleTitle = m.Title
	d.Forms = forms.ForModule(module)

	r := renderer{snap: snap, req: req, layout: dateLayout(d.DateFormat)}
	switch module {
	case "dashboard":
		r.dashboard(&d)
	case "reports":
		r.reports(&d)
	case "water":
		r.waterUsage(&d)
	case "settings":
		d.Settings = models.Settings{
			models.SettingTheme:      d.Theme,
			models.SettingDateFormat: d.DateFormat,
			models.SettingTitle:      d.Title,
		}
	case "users":
		d.Users = req.Users
	}
	if m.Collection != "" {
		d.Tables = append(d.Tables, r.table(m.Collection))
		d.Metrics = append(d.Metrics, r.collectionMetrics(m.Collection)...)
	}

	if lr := snap.LastResult; lr != nil {
		if f, ok := forms.Lookup(lr.Form); ok && f.Module == module {
			d.LastResult = lr
		}
	}
	return d
}

func navigation(s models.Session, active string) []NavItem {
	var nav []NavItem
	for _, m := range models.ModulesFor(s) {
		nav = append(nav, NavItem{Name: m.Name, Title: m.Title, Active: m.Name == active})
	}
	return nav
}

func dateLayout(format string) string {
	if layout, ok := models.DateLayouts[format]; ok {
		return layout
	}
	return models.DateLayouts[models.DefaultDateFormat]
}

type renderer struct {
	snap   state.Snapshot
	req    Request
	layout string
}

// Title returns the plural display title of a collection
func Title(collection string) string {
	schema, ok := models.LookupSchema(collection)
	if !ok {
		return collection
	}
	return inflection.Plural(schema.Name)
}

func (r renderer) table(collection string) Table {
	schema, _ := models.LookupSchema(collection)
	all := r.snap.Collections[collection]
	shown := Apply(schema, all, r.req.Filter)
	return r.buildTable(schema, Title(collection), shown, len(all), !r.req.Filter.Empty())
}

func (r renderer) buildTable(schema *models.Schema, title string, records []models.Record, total int, filtered bool) Table {
	t := Table{
		Collection: schema.Collection,
		Title:      title,
		Columns:    make([]Column, len(schema.Fields)),
		Rows:       make([]Row, len(records)),
		Total:      total,
		Filtered:   filtered,
	}
	for i, f := range schema.Fields {
		t.Columns[i] = Column{Name: f.Name, Label: f.Label}
	}
	for i, rec := range records {
		cells := make([]string, len(schema.Fields))
		for j, f := range schema.Fields {
			cells[j] = r.cell(rec.Fields[f.Name])
		}
		t.Rows[i] = Row{ID: rec.ID, Cells: cells}
	}
	return t
}

func (r renderer) cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', 2, 64)
	case time.Time:
		if val.Equal(val.Truncate(24 * time.Hour)) {
			return val.Format(r.layout)
		}
		return val.Format(r.layout + " 15:04:05")
	}
	return ""
}

// Apply returns the records matching the filter, in stored order. The input
// slice is not modified.
func Apply(schema *models.Schema, records []models.Record, f Filter) []models.Record {
	if f.Empty() {
		out := make([]models.Record, len(records))
		copy(out, records)
		return out
	}

	dateField, hasDate := schema.DateField()
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []models.Record
	for _, rec := range records {
		if search != "" && !matches(schema, rec, search) {
			continue
		}
		if hasDate && (f.From != nil || f.To != nil) {
			d := rec.Time(dateField).Truncate(24 * time.Hour)
			if f.From != nil && d.Before(f.From.Truncate(24*time.Hour)) {
				continue
			}
			if f.To != nil && d.After(f.To.Truncate(24*time.Hour)) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func matches(schema *models.Schema, rec models.Record, search string) bool {
	for _, f := range schema.Fields {
		if f.Type != models.FieldString && f.Type != models.FieldEnum {
			continue
		}
		if strings.Contains(strings.ToLower(rec.String(f.Name)), search) {
			return true
		}
	}
	return false
}

func (r renderer) waterUsage(d *Display) {
	report, ok := r.snap.WaterReport.(*water.Report)
	if !ok || report == nil {
		d.Messages = append(d.Messages, Message{Level: LevelInfo, Text: "No water usage report yet. Generate a forecast or upload household data."})
		return
	}
	d.WaterReport = report
	d.Metrics = append(d.Metrics,
		Metric{Name: "records", Label: "Households", Value: float64(report.Records)},
		Metric{Name: "average_usage", Label: "Average Usage (L)", Value: report.AverageUsage},
		Metric{Name: "average_predicted", Label: "Average Predicted (L)", Value: report.AveragePredicted},
		Metric{Name: "mse", Label: "Mean Squared Error", Value: report.MSE},
		Metric{Name: "mae", Label: "Mean Absolute Error", Value: report.MAE},
		Metric{Name: "r2", Label: "R²", Value: report.R2},
		Metric{Name: "leaks", Label: "Leaks Detected", Value: float64(report.LeakCount)},
	)

	wards := Chart{Name: "ward_usage", Title: "Average Usage by Ward", Type: "bar"}
	actual := Series{Name: "actual"}
	predicted := Series{Name: "predicted"}
	for _, w := range report.Wards {
		wards.Labels = append(wards.Labels, strconv.Itoa(w.Ward))
		actual.Values = append(actual.Values, w.ActualAverage)
		predicted.Values = append(predicted.Values, w.PredictedAverage)
	}
	wards.Series = []Series{actual, predicted}

	overTime := Chart{Name: "usage_over_time", Title: "Usage Over Time", Type: "line"}
	actual = Series{Name: "actual"}
	predicted = Series{Name: "predicted"}
	for _, p := range report.Series {
		overTime.Labels = append(overTime.Labels, p.Date)
		actual.Values = append(actual.Values, p.Actual)
		predicted.Values = append(predicted.Values, p.Predicted)
	}
	overTime.Series = []Series{actual, predicted}

	d.Charts = append(d.Charts, wards, overTime)
}
