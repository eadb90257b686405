package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report config keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// errorMessages maps validation tags to messages.
var errorMessages = map[string]string{
	"required":      "%s is required",
	"gte":           "%s must be greater than or equal to %s",
	"lte":           "%s must be less than or equal to %s",
	"oneof":         "%s must be one of [%s]",
	"hostname_port": "%s must be a host:port address",
}

// Validate checks cfg and reports every invalid key in one error.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, parseMessage(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func parseMessage(e validator.FieldError) string {
	// Namespace is "config.cache.capacity"; drop the root.
	key := e.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	msg, ok := errorMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid: %s", key, e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, key, e.Param())
	}
	return fmt.Sprintf(msg, key)
}
