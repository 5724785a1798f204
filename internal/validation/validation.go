// Package validation decides whether a proposal form is complete enough to
// generate a document and reports the labels of the fields that are not.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"proposal-generator/internal/model"
)

// Target selects which document's required-field set applies.
type Target int

const (
	// TargetPDF is the project summary PDF.
	TargetPDF Target = iota
	// TargetProposal is the full DOCX proposal.
	TargetProposal
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail is a deliberately permissive check, not RFC 5322.
func ValidateEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// Error lists missing or invalid field labels in form order.
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return e.Message()
}

// Message is the single user-facing sentence for the failure.
func (e *Error) Message() string {
	return "Missing required fields: " + strings.Join(e.Fields, ", ")
}

// AsError returns the *Error wrapped by err, if any.
func AsError(err error) (*Error, bool) {
	var verr *Error
	ok := errors.As(err, &verr)
	return verr, ok
}

type pdfForm struct {
	ProjectName      string                  `label:"Project Name" validate:"nonblank"`
	BillingEntity    string                  `label:"Billing Entity" validate:"nonblank"`
	Date             string                  `label:"Date" validate:"omitempty,isodate"`
	ClientEmail      string                  `label:"Client Email" validate:"omitempty,looseemail"`
	ProposedMandates []model.ProposedMandate `label:"Proposed Mandates" validate:"omitempty,dive,mandate"`
	Address          string                  `label:"Address" validate:"nonblank"`
	Fee              *model.FeeSummary       `label:"Fee" validate:"required"`
	FeeHours         []float64               `label:"Fee Hours" validate:"dive,gte=0"`
	FeeRates         []float64               `label:"Fee Rate" validate:"dive,gte=0"`
}

type proposalForm struct {
	ProjectName          string                  `label:"Project Name" validate:"nonblank"`
	BillingEntity        string                  `label:"Billing Entity" validate:"nonblank"`
	Date                 string                  `label:"Date" validate:"omitempty,isodate"`
	ClientEmail          string                  `label:"Client Email" validate:"nonblank,looseemail"`
	ClientName           string                  `label:"Client Name" validate:"nonblank"`
	ClientCompanyAddress string                  `label:"Client Company Address" validate:"nonblank"`
	AssetClass           string                  `label:"Asset Class" validate:"nonblank"`
	ProjectDescription   string                  `label:"Project Description" validate:"nonblank"`
	ProposedMandates     []model.ProposedMandate `label:"Proposed Mandates" validate:"min=1,dive,mandate"`
	ListOfServices       []string                `label:"List of Services" validate:"min=1,dive,nonblank"`
	Address              string                  `label:"Address" validate:"nonblank"`
	Bios                 []model.Bio             `label:"Bios" validate:"min=1"`
	FeeHours             []float64               `label:"Fee Hours" validate:"dive,gte=0"`
	FeeRates             []float64               `label:"Fee Rate" validate:"dive,gte=0"`
}

// Validator checks forms. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("label")
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return ValidateEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("mandate", func(fl validator.FieldLevel) bool {
		return model.ProposedMandate(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

var defaultValidator = New()

// Validate returns the labels of missing or invalid fields for target, using
// resolvedAddress as the project address. It never fails; an empty result
// means the form may be submitted.
func Validate(form model.FormState, resolvedAddress string, target Target) []string {
	return defaultValidator.Validate(form, resolvedAddress, target)
}

func (v *Validator) Validate(form model.FormState, resolvedAddress string, target Target) []string {
	hours, rates := feeInputs(form.Fee)

	var subject any
	switch target {
	case TargetProposal:
		subject = &proposalForm{
			ProjectName:          form.ProjectName,
			BillingEntity:        form.BillingEntity,
			Date:                 form.Date,
			ClientEmail:          form.ClientEmail,
			ClientName:           form.ClientName,
			ClientCompanyAddress: form.ClientCompanyAddress,
			AssetClass:           form.AssetClass,
			ProjectDescription:   form.ProjectDescription,
			ProposedMandates:     form.ProposedMandates,
			ListOfServices:       form.ListOfServices,
			Address:              resolvedAddress,
			Bios:                 form.Bios,
			FeeHours:             hours,
			FeeRates:             rates,
		}
	default:
		subject = &pdfForm{
			ProjectName:      form.ProjectName,
			BillingEntity:    form.BillingEntity,
			Date:             form.Date,
			ClientEmail:      form.ClientEmail,
			ProposedMandates: form.ProposedMandates,
			Address:          resolvedAddress,
			Fee:              form.Fee,
			FeeHours:         hours,
			FeeRates:         rates,
		}
	}

	err := v.v.Struct(subject)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	var labels []string
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		label := fieldLabel(fe)
		if seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// Check wraps Validate into an *Error, or nil when the form is complete.
func Check(form model.FormState, resolvedAddress string, target Target) error {
	if missing := Validate(form, resolvedAddress, target); len(missing) > 0 {
		return &Error{Fields: missing}
	}
	return nil
}

// fieldLabel drops the "[i]" suffix validator adds for dive errors.
func fieldLabel(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func feeInputs(s *model.FeeSummary) (hours, rates []float64) {
	if s == nil {
		return nil, nil
	}
	for _, l := range s.Lines {
		hours = append(hours, l.Hours)
		rates = append(rates, l.Rate)
	}
	return hours, rates
}

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano, time.RFC3339}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
