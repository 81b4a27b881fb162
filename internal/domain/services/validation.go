package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their stored names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// tags are index keys, a whitespace-only tag would have no entry
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("birthdate", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseBirthDate(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	return v
}

// validateStruct runs tag validation and converts failures to a Validation error
func validateStruct(entity string, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation(entity, nil, "%v", err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return apperr.Validation(entity, fields, "invalid fields: %s", strings.Join(fields, ", "))
}
