package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// Validator checks decoded request parameters against their struct tags and
// reports failures as a VALIDATION_FAILED APIError.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the custom tags and names fields after their
// query or json tag.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("yyyymmdd", isYYYYMMDD)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return &Validator{validate: v}
}

// Struct validates s. It returns nil or an *apierrors.APIError.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "yyyymmdd":
		return fmt.Sprintf("%s must be a date in YYYYMMDD form", field)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isYYYYMMDD accepts exactly eight digits forming a real calendar date.
func isYYYYMMDD(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != len(domain.DateLayout) {
		return false
	}
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}
