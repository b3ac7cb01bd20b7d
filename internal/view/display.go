// Package view is the View Renderer. Render is a pure function from a state
// snapshot and a module request to a Display; it never mutates the snapshot.
package view

import (
	"time"

	"github.com/tally-dashboard/internal/auth"
	"github.com/tally-dashboard/internal/forms"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/water"
)

// Kind is the type of display produced
type Kind string

const (
	KindLogin        Kind = "login"
	KindAccessDenied Kind = "access_denied"
	KindModule       Kind = "module"
)

// Message levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Filter narrows the rows shown in tables
type Filter struct {
	Search string     `json:"search,omitempty"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}

// Empty reports whether the filter selects every row
func (f Filter) Empty() bool {
	return f.Search == "" && f.From == nil && f.To == nil
}

// Message is a notice shown above the module content
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Request selects what to render
type Request struct {
	Module   string
	Filter   Filter
	Messages []Message
	// Users is shown on the user management page
	Users []auth.UserInfo
}

// NavItem is one navigation entry
type NavItem struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// Column is a table header cell
type Column struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Row is one rendered record
type Row struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// Table is a rendered record collection
type Table struct {
	Collection string   `json:"collection"`
	Title      string   `json:"title"`
	Columns    []Column `json:"columns"`
	Rows       []Row    `json:"rows"`
	Total      int      `json:"total"`
	Filtered   bool     `json:"filtered"`
}

// Metric is a summary figure
type Metric struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is one line or bar group of a chart
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart is chart data; drawing it is left to the client
type Chart struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Type   string   `json:"type"` // "bar" or "line"
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// User is the signed-in user shown in the header
type User struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Display is everything a client needs to draw one page
type Display struct {
	Kind        Kind                `json:"kind"`
	Title       string              `json:"title"`
	Theme       string              `json:"theme"`
	DateFormat  string              `json:"date_format"`
	User        *User               `json:"user,omitempty"`
	Navigation  []NavItem           `json:"navigation,omitempty"`
	Module      string              `json:"module,omitempty"`
	ModuleTitle string              `json:"module_title,omitempty"`
	Forms       []forms.Form        `json:"forms,omitempty"`
	Tables      []Table             `json:"tables,omitempty"`
	Metrics     []Metric            `json:"metrics,omitempty"`
	Charts      []Chart             `json:"charts,omitempty"`
	LastResult  *models.Computation `json:"last_result,omitempty"`
	WaterReport *water.Report       `json:"water_report,omitempty"`
	Settings    models.Settings     `json:"settings,omitempty"`
	Users       []auth.UserInfo     `json:"users,omitempty"`
	Messages    []Message           `json:"messages,omitempty"`
}
