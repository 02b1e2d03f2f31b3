// Package validation evaluates the declarative rules carried in `validate`
// struct tags. For each field, rules run in tag order and stop at the first
// failure; failures accumulate across fields.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vinocellar/account-service/internal/apperr"
)

// PasswordSymbols is the fixed set of symbols the complexity policy accepts.
const PasswordSymbols = "@$!%*?&"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration with a valid tag and function never fails.
	_ = v.RegisterValidation("nobrackets", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "<>")
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsComplexPassword(fl.Field().String())
	})
	return v
}

// IsComplexPassword reports whether s has at least one lowercase letter, one
// uppercase letter, one digit and one symbol from PasswordSymbols, and
// contains nothing else. Length is checked separately by the min rule.
func IsComplexPassword(s string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return lower && upper && digit && symbol
}

// Struct runs the rules declared on obj. It returns nil when every rule
// passes, and a *apperr.ValidationError otherwise.
func Struct(obj any) *apperr.ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Field("request", "invalid", "Invalid request data")
	}

	result := &apperr.ValidationError{}
	for _, fe := range fieldErrs {
		result.Fields = append(result.Fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Type:    fe.Tag(),
		})
	}
	return result
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := messages[fe.Namespace()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return getErrorMsg(fe)
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "eqfield":
		return "Value does not match " + err.Param()
	case "nefield":
		return "Value must differ from " + err.Param()
	default:
		return "Invalid value"
	}
}
