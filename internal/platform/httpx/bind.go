package httpx

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stallbook/stallbook/internal/shared"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Bind decodes the JSON body into target and validates its struct tags.
func Bind(r *http.Request, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return shared.NewError(shared.ErrValidation, "INVALID_JSON", "request body must be valid JSON")
	}
	return Validate(target)
}

// Validate runs struct tag validation and converts failures into a coded error.
func Validate(target any) error {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return shared.NewError(shared.ErrValidation, CodeValidation, "invalid request")
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:], rule))
	}
	return shared.NewError(shared.ErrValidation, CodeValidation, "invalid fields: %s", strings.Join(parts, ", "))
}
