// Package validation checks product candidates against the field constraints
// of the inventory and reports every violation by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iyhunko/inventory-service/internal/model"
)

// FieldErrors maps a JSON field name to a human-readable violation message.
type FieldErrors map[string]string

// Validator validates product candidates.
type Validator struct {
	validate *validator.Validate
}

var messages = map[string]map[string]string{
	model.FieldName: {
		"required": "O nome não pode ser nulo!",
		"min":      "O nome deve ter no mínimo 2 caracteres!",
		"max":      "O nome deve ter no máximo 255 caracteres!",
	},
	model.FieldPrice: {
		"required": "O preço não pode ser nulo!",
		"gte":      "O preço deve ser pelo menos 0!",
	},
	model.FieldStockQuantity: {
		"required": "O estoque não pode ser nulo!",
		"gte":      "O estoque deve ser pelo menos 0!",
		"lte":      "O estoque deve ser no máximo 2147483647!",
	},
}

// New creates a Validator reporting fields by their JSON names.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: validate}
}

// Validate returns one entry per violated field. An empty result means the candidate is valid.
func (v *Validator) Validate(in model.ProductInput) FieldErrors {
	errs := FieldErrors{}

	err := v.validate.Struct(in)
	if err == nil {
		return errs
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		slog.Error("unexpected validation failure", slog.Any("err", err))
		errs["_"] = err.Error()
		return errs
	}

	for _, e := range validationErrors {
		errs[e.Field()] = message(e.Field(), e.Tag())
	}
	return errs
}

func message(field, tag string) string {
	if msg, ok := messages[field][tag]; ok {
		return msg
	}
	return fmt.Sprintf("Field '%s' failed on the '%s' tag", field, tag)
}
