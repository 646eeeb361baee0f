package dto

import (
	"bytes"
	"errors"
	"fmt"
	"microfinance-backend/internal/pkg/apperrors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and reports the first failing field
// as an apperrors.ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.NewValidationError(fe.Field(), fe.Field()+" is required")
	case "oneof":
		return apperrors.NewValidationError(fe.Field(), fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
	case "gte", "lte":
		return apperrors.NewValidationError(fe.Field(), fmt.Sprintf("%s is out of range", fe.Field()))
	default:
		return apperrors.NewValidationError(fe.Field(), fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
}

// FlexDecimal accepts a JSON number, a numeric string or an empty value.
// Form clients send all of them.
type FlexDecimal struct {
	decimal.NullDecimal
}

func (f *FlexDecimal) UnmarshalJSON(b []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(raw) == 0 || string(raw) == "null" {
		f.Valid = false
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(string(raw)))
	if err != nil {
		// An unparsable value is treated like an absent one.
		f.Valid = false
		return nil
	}
	f.Decimal, f.Valid = d, true
	return nil
}

// ParseDay reads YYYY-MM-DD or RFC 3339 into loc.
func ParseDay(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", value)
	}
	t = t.In(loc)
	return &t, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}
