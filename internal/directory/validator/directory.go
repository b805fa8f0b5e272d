package validator

import (
	"errors"
	"fmt"
	"regexp"

	"slotkeeper/pkg/locale"
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

type DirectoryValidator struct {
	validate *validator.Validate
}

func NewDirectoryValidator() *DirectoryValidator {
	v := validator.New()
	_ = v.RegisterValidation("location_category", func(fl validator.FieldLevel) bool {
		return locale.IsKnownCategory(model.LocationCategory(fl.Field().String()))
	})
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	return &DirectoryValidator{validate: v}
}

func (v *DirectoryValidator) ValidateCandidate(c *model.Candidate) error {
	return v.translate(v.validate.Struct(c))
}

func (v *DirectoryValidator) ValidateMutation(m *model.DirectoryMutation) error {
	if err := v.translate(v.validate.Struct(m)); err != nil {
		return err
	}
	if m.Kind == model.MutationUpsertCandidate {
		return v.ValidateCandidate(m.Candidate)
	}
	return nil
}

// ValidateRules checks each rule and that every rule targets a known person.
func (v *DirectoryValidator) ValidateRules(rules []model.MappingRule, snapshot *model.DirectorySnapshot) error {
	var errs ValidationErrors
	for i := range rules {
		if err := v.validate.Struct(&rules[i]); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return err
			}
			for _, fe := range verrs {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("rules[%d].%s", i, fe.Field()),
					Message: message(fe),
				})
			}
			continue
		}
		if _, ok := snapshot.Find(rules[i].PersonID); !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("rules[%d].PersonID", i),
				Message: fmt.Sprintf("unknown person %q", rules[i].PersonID),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *DirectoryValidator) translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_without_all":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "location_category":
		return fmt.Sprintf("%v is not a served region", fe.Value())
	case "regexp":
		return "must be a valid regular expression"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
