package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

// Messages for the first failing field, keyed by its json name.
var requestFieldMessages = map[string]string{
	"amount":               "Missing or invalid amount",
	"currency":             "Missing currency",
	"connected_account_id": "Missing connected_account_id",
}

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names.
	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := vld.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return nil, fmt.Errorf("register 'notblank': %w", err)
	}

	return vld, nil
}

func getValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	return validate, errValidate
}

// ValidateRequest checks a request struct against its validate tags. Go field
// names listed in except are skipped. Only the first failing field is reported, as
// BAD_REQUEST; fields are checked in declaration order.
func ValidateRequest(payload any, except ...string) error {
	vld, err := getValidator()
	if err != nil {
		return NewError(KindInternal, "Request validation unavailable").WithCause(err)
	}

	if len(except) > 0 {
		err = vld.StructExcept(payload, except...)
	} else {
		err = vld.Struct(payload)
	}
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldError(fieldErrs[0])
	}
	return NewError(KindInternal, "Request validation failed").WithCause(err)
}

func fieldError(fe validator.FieldError) *BusinessError {
	if msg, ok := requestFieldMessages[fe.Field()]; ok {
		return BadRequest("%s", msg)
	}
	return BadRequest("Invalid %s", fe.Field())
}
