package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// FilterFormValidator checks the raw filter form using its struct tags
type FilterFormValidator struct {
	validate *validator.Validate
}

// NewFilterFormValidator creates a validator that reports fields by their
// JSON names
func NewFilterFormValidator() *FilterFormValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("price", isPrice)

	return &FilterFormValidator{validate: v}
}

// isPrice accepts finite decimal floats: "5.", ".5" and "1e3" pass, while
// "NaN", "Inf", hex floats and digit separators do not
func isPrice(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.ContainsAny(s, "xX_") {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Validate trims the form and checks it. The returned form is the trimmed
// copy; the first failing field is reported as a filter validation error.
func (v *FilterFormValidator) Validate(form domain.FilterForm) (domain.FilterForm, error) {
	clean := domain.FilterForm{
		StartDate: strings.TrimSpace(form.StartDate),
		EndDate:   strings.TrimSpace(form.EndDate),
		MinPrice:  strings.TrimSpace(form.MinPrice),
		MaxPrice:  strings.TrimSpace(form.MaxPrice),
	}
	for _, p := range form.Profiles {
		if p = strings.TrimSpace(p); p != "" {
			clean.Profiles = append(clean.Profiles, p)
		}
	}

	err := v.validate.Struct(clean)
	if err == nil {
		return clean, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.FilterForm{}, apierrors.NewFilterValidationError("", "invalid filter", err)
	}

	fe := fieldErrs[0]
	return domain.FilterForm{}, apierrors.NewFilterValidationError(fe.Field(), formatFieldError(fe), nil)
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format, got %q", field, fe.Value())
	case "price":
		return fmt.Sprintf("%s must be numeric, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
