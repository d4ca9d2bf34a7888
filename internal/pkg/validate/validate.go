// Package validate wraps a shared validator instance and rewrites its
// failures into messages that can go straight into an error envelope.
package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v *validator.Validate

func init() {
	v = validator.New()
	// Report fields by their json name so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct checks s against its validate tags and returns a single
// client-facing error listing every failed field, or nil.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", fe.Field())
	case "gt":
		return fmt.Sprintf("'%s' must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("'%s' must be at least %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("'%s' is too short", fe.Field())
	case "max":
		return fmt.Sprintf("'%s' is too long", fe.Field())
	default:
		return fmt.Sprintf("'%s' failed '%s'", fe.Field(), fe.Tag())
	}
}
