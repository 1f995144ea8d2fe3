package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorMessages maps validation tags to friendly messages.
var errorMessages = map[string]string{
	"required":    "the field '%s' is required",
	"required_if": "the field '%s' is required when %s",
	"url":         "the field '%s' must be a valid URL",
	"oneof":       "the field '%s' must be one of [%s]",
	"gt":          "the field '%s' must be greater than %s",
	"gte":         "the field '%s' must be greater than or equal to %s",
	"lte":         "the field '%s' must be less than or equal to %s",
}

func parseMessage(e validator.FieldError) string {
	msg, ok := errorMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("the field '%s' is invalid: %s", e.Namespace(), e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Namespace(), e.Param())
	}
	return fmt.Sprintf(msg, e.Namespace())
}

// Validate checks the configuration, reporting every invalid field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, parseMessage(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
