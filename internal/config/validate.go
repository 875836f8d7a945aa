package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return describeValidationError(err)
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.BackoffMaxMS > 0 && c.Upload.BackoffMaxMS < c.Upload.BackoffBaseMS {
		return fmt.Errorf("upload.backoff_max_ms (%d) must be zero or at least upload.backoff_base_ms (%d)", c.Upload.BackoffMaxMS, c.Upload.BackoffBaseMS)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.TokenPath == c.Paths.ClientSecretPath {
		return errors.New("paths.token_path must differ from paths.client_secret_path")
	}
	return nil
}

// describeValidationError turns validator output into the first failing
// "section.key" message.
func describeValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := fieldErrs[0]
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", key, strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	case "required":
		return fmt.Errorf("%s must be set", key)
	case "url":
		return fmt.Errorf("%s must be an absolute URL, got %q", key, fmt.Sprint(fe.Value()))
	case "numeric":
		return fmt.Errorf("%s must be numeric, got %q", key, fmt.Sprint(fe.Value()))
	case "gte", "min":
		return fmt.Errorf("%s must be at least %s, got %v", key, fe.Param(), fe.Value())
	case "lte", "max":
		return fmt.Errorf("%s must be at most %s, got %v", key, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %s validation", key, fe.Tag())
	}
}
