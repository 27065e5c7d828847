package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/elee1766/finchat/src/aisdk"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	// Register custom validation functions
	v.RegisterValidation("log_level", validateLogLevel)
	v.RegisterValidation("log_format", validateLogFormat)
	v.RegisterValidation("listen_addr", validateListenAddr)
	v.RegisterValidation("model_id", validateModelID)

	return &Validator{validate: v}
}

// Validate validates a complete configuration. The first failing field is
// reported.
func (v *Validator) Validate(config *Config) error {
	err := v.validate.Struct(config)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return ValidationError{
			Field:   e.Namespace(),
			Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
			Value:   e.Value(),
		}
	}
	return err
}

// validateLogLevel validates log level values
func validateLogLevel(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"debug", "info", "warn", "error"}, value)
}

// validateLogFormat validates log format values
func validateLogFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"json", "text"}, value)
}

// validateListenAddr accepts host:port with an optional host.
func validateListenAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 0 && n <= 65535
}

// validateModelID checks the id against the model catalogue.
func validateModelID(fl validator.FieldLevel) bool {
	_, err := aisdk.LookupModel(fl.Field().String())
	return err == nil
}
