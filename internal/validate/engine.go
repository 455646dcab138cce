package validate

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/makeplus/makeplus-api/internal/youtube"
)

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s'-]+$`)
	phonePattern      = regexp.MustCompile(`^[\d\s+()-]+$`)
)

// engine evaluates the tag expressions of every rule. Besides the built-in
// validator tags it knows personname, phone and youtube.
var engine = newEngine()

func newEngine() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("youtube", func(fl validator.FieldLevel) bool {
		return youtube.IsValidURL(fl.Field().String())
	})
	return v
}
