package types

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldErrors maps a JSON field name to a human readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := FieldErrors{}
	for _, fe := range ve {
		field := fe.Field()
		if _, exists := out[field]; exists {
			continue
		}
		out[field] = messageFor(field, fe.Tag(), fe.Param())
	}
	return out
}

var fieldLabels = map[string]string{
	"letter_text":    "Letter text",
	"recipient_name": "Recipient name",
	"prison_name":    "Prison name",
	"city":           "City",
	"address_line":   "Address",
	"sender_name":    "Sender name",
	"sender_city":    "Sender city",
	"order_id":       "Order id",
	"tracking_code":  "Tracking code",
	"to_status":      "Target status",
	"display_name":   "Display name",
	"email":          "Email",
}

func messageFor(field, tag, param string) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}

	switch tag {
	case "required":
		return label + " is required"
	case "min":
		if field == "prison_name" || field == "city" || field == "address_line" {
			return label + " is required (at least " + param + " characters)"
		}
		return label + " is too short (at least " + param + " characters)"
	case "max":
		return label + " is too long (at most " + param + " characters)"
	case "email":
		return label + " must be a valid email address"
	case "oneof":
		return label + " must be one of: " + param
	default:
		return label + " is invalid"
	}
}
