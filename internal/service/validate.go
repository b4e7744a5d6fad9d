package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/event-checkin/internal/apperr"
)

// Validator checks request payloads against their `validate` struct tags and
// reports failures by JSON field name.
type Validator struct {
	engine *validator.Validate
}

// NewValidator builds a Validator whose field names follow the json tags.
func NewValidator() *Validator {
	engine := validator.New()
	engine.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{engine: engine}
}

// Struct validates v and returns an apperr validation error listing every
// failing field.
func (v *Validator) Struct(s any) error {
	err := v.engine.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err, "validate request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

// nonBlank rejects a supplied-but-empty optional string field.
func nonBlank(field string, v *string) error {
	if v == nil {
		return nil
	}
	*v = strings.TrimSpace(*v)
	if *v == "" {
		return apperr.Validation("%s cannot be empty", field)
	}
	return nil
}

// positive rejects a supplied non-positive optional integer field.
func positive(field string, v *int) error {
	if v != nil && *v <= 0 {
		return apperr.Validation("%s must be greater than 0", field)
	}
	return nil
}
