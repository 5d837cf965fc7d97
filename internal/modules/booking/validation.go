// README: Passenger validation (struct tags via go-playground/validator plus custom rules).
package booking

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const minPassengerAge = 18

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-ZáéíóöőúüűÁÉÍÓÖŐÚÜŰ\s-]+$`)
	phonePattern      = regexp.MustCompile(`^(\+36|06)?[0-9]{8,11}$`)
	phoneSeparators   = strings.NewReplacer(" ", "", "-", "")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(phoneSeparators.Replace(fl.Field().String()))
	})
	return v
}

// ValidationError lists every rejected field with a human readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid passenger: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}

// ValidatePassenger checks p as of now. Age is the plain difference of calendar years.
func ValidatePassenger(p Passenger, now time.Time) error {
	fields := map[string]string{}

	if err := validate.Struct(p); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}

	if _, done := fields["dateOfBirth"]; !done && !p.BirthDate.IsZero() {
		switch {
		case p.BirthDate.After(now):
			fields["dateOfBirth"] = "cannot be in the future"
		case now.Year()-p.BirthDate.Year() < minPassengerAge:
			fields["dateOfBirth"] = fmt.Sprintf("passenger must be at least %d", minPassengerAge)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "personname":
		return "may only contain letters, spaces and hyphens"
	case "phone":
		return "must be a valid phone number"
	default:
		return "is invalid"
	}
}
