package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"slotkeeper/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

// Details flattens the errors for an AppError payload.
func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for _, e := range v {
		fields[e.Field] = e.Message
	}
	return map[string]any{"fields": fields}
}

type BookingValidator struct {
	validate *validator.Validate
	template model.SlotTemplate
}

// NewBookingValidator checks slot labels against the configured template.
func NewBookingValidator(template model.SlotTemplate) *BookingValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("booking_type", func(fl validator.FieldLevel) bool {
		return model.BookingType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("slot_label", func(fl validator.FieldLevel) bool {
		_, ok := template.Find(fl.Field().String())
		return ok
	})

	return &BookingValidator{validate: v, template: template}
}

func (v *BookingValidator) Validate(req any) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		out = append(out, ValidationError{
			Field:   err.Field(),
			Message: v.message(err),
		})
	}
	return out
}

func (v *BookingValidator) message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + err.Param() + " characters"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "booking_type":
		return fmt.Sprintf("must be one of: %s, %s", model.BookingTraining, model.BookingInstallation)
	case "slot_label":
		return "must be one of: " + strings.Join(v.template.Labels(), ", ")
	default:
		return fmt.Sprintf("failed %s check", err.Tag())
	}
}
