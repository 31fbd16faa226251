package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Custom validators
	_ = v.RegisterValidation("printable", validatePrintable)
	_ = v.RegisterValidation("username", validateUsername)

	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return humanize(err)
	}
	return nil
}

type LoginRequest struct {
	Username string `form:"username" json:"username" validate:"required,max=64,username"`
	Password string `form:"password" json:"password" validate:"required,max=128"`
}

type UsersQuery struct {
	Search string `query:"q" validate:"max=100,printable"`
	Page   int    `query:"page" validate:"gte=0"`
}

// DateRangeRequest is the analytics filter form. Start may equal End;
// a Start after End is rejected.
type DateRangeRequest struct {
	Start  time.Time `validate:"required"`
	End    time.Time `validate:"required,gtefield=Start"`
	Region string    `validate:"max=64,printable"`
}

// ParseDateRange parses the YYYY-MM-DD form values. Empty values fall back
// to the given defaults.
func ParseDateRange(start, end string, defaults [2]time.Time) (time.Time, time.Time, error) {
	s, err := parseDate("start", start, defaults[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parseDate("end", end, defaults[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}

func parseDate(field, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: fmt.Sprintf("%s must be a date like 2024-01-31", field)}
	}
	return t, nil
}

// ValidationError is a single rejected field with a message fit for display.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func humanize(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gtefield":
		msg = fmt.Sprintf("%s date must not be before the %s date", field, strings.ToLower(fe.Param()))
	case "printable":
		msg = fmt.Sprintf("%s contains invalid characters", field)
	case "username":
		msg = fmt.Sprintf("%s may only contain letters, digits, dots, dashes and underscores", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return &ValidationError{Field: field, Message: msg}
}

func validatePrintable(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func validateUsername(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
