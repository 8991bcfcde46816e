package rest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/tictactoe-backend/internal/apperror"
)

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json names
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &requestValidator{validate: validate}
}

func (that *requestValidator) Validate(i any) error {
	err := that.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("could not validate request: %w", err)
	}

	first := fieldErrs[0]
	if first.Tag() == "required" {
		return apperror.New(apperror.ErrInvalidOperation, fmt.Sprintf("Field %s is required.", first.Field()))
	}

	return apperror.New(apperror.ErrInvalidOperation, fmt.Sprintf("Field %s is invalid.", first.Field()))
}
