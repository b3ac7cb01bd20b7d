package models

// Settings maps an option name to its chosen value
type Settings map[string]string

// Recognised settings and their display fallbacks
const (
	SettingTheme      = "theme"
	SettingDateFormat = "date_format"
	SettingTitle      = "title"

	DefaultTheme      = "light"
	DefaultDateFormat = "YYYY-MM-DD"
	DefaultTitle      = "Tally Dashboard"
)

// DateLayouts maps the user-facing date format to a Go layout
var DateLayouts = map[string]string{
	"YYYY-MM-DD": "2006-01-02",
	"DD-MM-YYYY": "02-01-2006",
	"MM/DD/YYYY": "01/02/2006",
}

// Get returns the setting or the fallback when unset
func (s Settings) Get(name, fallback string) string {
	if v, ok := s[name]; ok && v != "" {
		return v
	}
	return fallback
}

// Clone returns an independent copy
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
