package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Computation is the result of a compute form, kept as the session's last result
type Computation struct {
	Form       string                     `json:"form"`
	Title      string                     `json:"title"`
	Inputs     map[string]interface{}     `json:"inputs"`
	Outputs    map[string]decimal.Decimal `json:"outputs"`
	ComputedAt time.Time                  `json:"computed_at"`
}
