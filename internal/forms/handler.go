package forms

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tally-dashboard/internal/auth"
	"github.com/tally-dashboard/internal/models"
	"github.com/tally-dashboard/internal/predict"
	"github.com/tally-dashboard/internal/state"
	"github.com/tally-dashboard/internal/tax"
	"github.com/tally-dashboard/internal/validation"
	"github.com/tally-dashboard/internal/water"
)

var (
	ErrUnknownForm      = errors.New("unknown form")
	ErrNotAuthenticated = errors.New("login required")
	ErrAccessDenied     = errors.New("access denied")
	ErrValidation       = errors.New("form validation failed")
)

// ValidationError lists the field errors of a rejected submission
type ValidationError struct {
	Form   string                       `json:"form"`
	Errors []validation.ValidationError `json:"errors"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Form, validation.Summary(e.Errors))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(form string, errs ...validation.ValidationError) *ValidationError {
	return &ValidationError{Form: form, Errors: errs}
}

// Action describes the single mutation a submission performed
type Action struct {
	Kind       Kind        `json:"kind"`
	Form       string      `json:"form"`
	Collection string      `json:"collection,omitempty"`
	RecordID   string      `json:"record_id,omitempty"`
	Key        state.Key   `json:"key,omitempty"`
	Result     interface{} `json:"result,omitempty"`
}

// Handler validates submissions and applies them to a session store
type Handler struct {
	credentials *auth.Table
	model       predict.Predictor
	logger      zerolog.Logger

	// now and seed are swapped in tests
	now  func() time.Time
	seed func() int64
}

// NewHandler creates a form handler. model may be nil when no model is configured.
func NewHandler(credentials *auth.Table, model predict.Predictor, logger zerolog.Logger) *Handler {
	return &Handler{
		credentials: credentials,
		model:       model,
		logger:      logger.With().Str("component", "forms").Logger(),
		now:         time.Now,
		seed:        func() int64 { return time.Now().UnixNano() },
	}
}

// Submit validates fields against the form declaration and, only if every
// field passes, performs the form's action.
func (h *Handler) Submit(ctx context.Context, store *state.Store, formID string, raw map[string]interface{}) (*Action, error) {
	form, ok := Lookup(formID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownForm, formID)
	}

	session, err := store.Session()
	if err != nil {
		return nil, err
	}
	if !session.LoggedIn {
		return nil, ErrNotAuthenticated
	}
	if !models.CanAccess(session, form.Module) {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, form.ID)
	}

	values, errs := validation.ValidateForm(form.Fields, raw)
	if len(errs) > 0 {
		return nil, invalid(form.ID, errs...)
	}

	var action *Action
	switch form.Kind {
	case KindAppend:
		action, err = h.appendRecord(store, session, form, values)
	case KindCompute:
		action, err = h.compute(ctx, store, form, values)
	case KindSave:
		action, err = h.saveSettings(store, form, values)
	case KindCredential:
		action, err = h.addCredential(session, form, values)
	default:
		err = fmt.Errorf("form %s has unsupported kind %q", form.ID, form.Kind)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Debug().
		Str("form", form.ID).
		Str("kind", string(form.Kind)).
		Str("username", session.Username).
		Msg("Form submitted")
	return action, nil
}

func (h *Handler) appendRecord(store *state.Store, session models.Session, form Form, values map[string]interface{}) (*Action, error) {
	if form.ID == FormAPIKey {
		values["created_by"] = session.Username
	}

	id, err := store.Append(form.Collection, values)
	if err != nil {
		var schemaErr *state.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, invalid(form.ID, schemaErr.Errors...)
		}
		return nil, err
	}
	return &Action{Kind: KindAppend, Form: form.ID, Collection: form.Collection, RecordID: id}, nil
}

func (h *Handler) compute(ctx context.Context, store *state.Store, form Form, values map[string]interface{}) (*Action, error) {
	if form.ID == FormWaterForecast {
		return h.forecast(ctx, store, form, values)
	}

	outputs := make(map[string]decimal.Decimal)
	switch form.ID {
	case FormGSTCalculator:
		gst := tax.ComputeGST(dec(values["base_price"]), dec(values["gst_rate"]))
		outputs["gst_amount"] = gst.Amount
		outputs["cgst"] = gst.CGST
		outputs["sgst"] = gst.SGST
		outputs["total"] = gst.Total
	case FormTDSCalculator:
		tds := tax.ComputeTDS(dec(values["amount"]), dec(values["rate"]))
		outputs["tds"] = tds.Deducted
		outputs["net_payable"] = tds.NetPayable
	case FormVATCalculator:
		vat := tax.ComputeVAT(dec(values["amount"]), dec(values["rate"]))
		outputs["vat"] = vat.Tax
		outputs["total"] = vat.Total
	case FormSalaryCalculator:
		net, err := tax.NetSalary(dec(values["gross"]), dec(values["deductions"]))
		if err != nil {
			return nil, invalid(form.ID, validation.ValidationError{Field: "deductions", Message: err.Error(), Value: values["deductions"]})
		}
		outputs["net"] = net
	default:
		return nil, fmt.Errorf("form %s has no computation", form.ID)
	}

	result := &models.Computation{
		Form:       form.ID,
		Title:      form.Title,
		Inputs:     values,
		Outputs:    outputs,
		ComputedAt: h.now(),
	}
	if err := store.Set(state.KeyLastResult, result); err != nil {
		return nil, err
	}
	return &Action{Kind: KindCompute, Form: form.ID, Key: state.KeyLastResult, Result: result}, nil
}

func (h *Handler) forecast(ctx context.Context, store *state.Store, form Form, values map[string]interface{}) (*Action, error) {
	if h.model == nil {
		return nil, fmt.Errorf("%w: no model configured", predict.ErrModelUnavailable)
	}

	seed := h.seed()
	if s, ok := values["seed"].(int64); ok {
		seed = s
	}
	n := int(values["num_records"].(int64))
	households := water.Generate(rand.New(rand.NewSource(seed)), n, h.now())

	report, err := water.Analyze(ctx, h.model, households, "synthetic")
	if err != nil {
		return nil, err
	}
	if err := store.Set(state.KeyWaterReport, report); err != nil {
		return nil, err
	}
	return &Action{Kind: KindCompute, Form: form.ID, Key: state.KeyWaterReport, Result: report}, nil
}

func (h *Handler) saveSettings(store *state.Store, form Form, values map[string]interface{}) (*Action, error) {
	settings, err := store.Settings()
	if err != nil {
		return nil, err
	}
	for name, v := range values {
		settings[name] = v.(string)
	}
	if err := store.Set(state.KeySettings, settings); err != nil {
		return nil, err
	}
	return &Action{Kind: KindSave, Form: form.ID, Key: state.KeySettings, Result: settings}, nil
}

func (h *Handler) addCredential(session models.Session, form Form, values map[string]interface{}) (*Action, error) {
	username := values["username"].(string)
	role := models.Role(values["role"].(string))

	err := h.credentials.Add(session, username, values["password"].(string), role)
	switch {
	case errors.Is(err, auth.ErrAccessDenied):
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, form.ID)
	case errors.Is(err, auth.ErrUserExists):
		return nil, invalid(form.ID, validation.ValidationError{Field: "username", Message: "username already exists", Value: username})
	case err != nil:
		return nil, err
	}

	h.logger.Info().
		Str("username", username).
		Str("role", string(role)).
		Str("created_by", session.Username).
		Msg("User added")
	return &Action{Kind: KindCredential, Form: form.ID, Result: auth.UserInfo{Username: username, Role: role}}, nil
}

// dec converts a validated number to a decimal
func dec(v interface{}) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case int64:
		return decimal.NewFromInt(n)
	}
	return decimal.Zero
}
