package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// session_id accepts the path segment that keys a session: uuids, slugs and the like.
	if err := validate.RegisterValidation("session_id", func(fl validator.FieldLevel) bool {
		return sessionIDPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}

// SessionID validates a session identifier taken from a connection path.
func SessionID(id string) error {
	return validate.Var(id, "required,session_id")
}
