package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator. Field names in errors
// are the config file keys.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("hex_color", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || IsColor(s)
		})

		validateInst = v
	})

	return validateInst
}

// ParseHex parses a 3 or 6 digit hex color, with or without the leading
// '#'.
func ParseHex(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return colorful.Color{}, fmt.Errorf("color: %q is not a hex color", s)
	}
	return colorful.Hex(s)
}

// IsColor reports whether s parses with ParseHex
func IsColor(s string) bool {
	_, err := ParseHex(s)
	return err == nil
}

// validate runs struct validation and converts the first failure into a
// ValidationError. prefix qualifies field names, e.g. "cpu.left".
func validate(prefix string, s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return newValidationError(prefix, s, err.Error())
	}

	fe := ves[0]
	field := fe.Field()
	if prefix != "" {
		field = prefix + "." + field
	}

	return newValidationError(field, fe.Value(), reason(fe))
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "hex_color":
		return "is not a hex color"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}
