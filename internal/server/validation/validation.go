// Package validation checks request and domain structs with
// go-playground/validator and reports failures as common field violations.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// NoteField is the tag alias for a note title or content: at least
// common.MinNoteFieldLength characters.
const NoteField = "notefield"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterAlias(NoteField, fmt.Sprintf("min=%d", common.MinNoteFieldLength))
	return v
}

// Struct validates s. On failure it returns a common validation error listing
// every violated field; any other validator error is returned unchanged.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	return common.NewValidationError("validation failed", Violations(verrs)...)
}

// Violations converts validator errors into field violations. Aliased tags
// are reported by the tag they expand to.
func Violations(verrs validator.ValidationErrors) []common.FieldViolation {
	out := make([]common.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, common.FieldViolation{
			Field:   fe.Field(),
			Tag:     fe.ActualTag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "email":
		return "please enter a valid email"
	case "alphanum":
		return fmt.Sprintf("%s must contain only letters and digits", fe.Field())
	case "eqfield":
		return "passwords have to match"
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	default:
		return fmt.Sprintf("%s is not valid", fe.Field())
	}
}
