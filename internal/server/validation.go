package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rezonia/ubl-invoice-engine/internal/qr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// tlv: the value must fit a single QR record
	if err := v.RegisterValidation("tlv", func(fl validator.FieldLevel) bool {
		return qr.FitsLength(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// validateStruct returns a 422 AppError listing every failed field
func validateStruct(s interface{}) *AppError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return NewAppError(http.StatusUnprocessableEntity, err.Error())
	}

	appErr := &AppError{Code: http.StatusUnprocessableEntity, Message: "Validation failed"}
	for _, fe := range ve {
		appErr.Errors = append(appErr.Errors, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return appErr
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "tlv":
		return fmt.Sprintf("must be at most %d bytes to fit the QR payload", qr.MaxValueLength)
	case "iso4217":
		return "must be an ISO 4217 currency code"
	case "max":
		return fmt.Sprintf("must contain at most %s entries", fe.Param())
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed '%s' validation", fe.Tag())
	}
}
