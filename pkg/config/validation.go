package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration using struct tags plus custom rules that
// cannot be expressed in tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	// Repository display names must be unique: they key the per-repository
	// result maps.
	names := make(map[string]bool)
	for i, repo := range cfg.Repositories {
		if repo.Name == "" {
			continue
		}
		if names[repo.Name] {
			return fmt.Errorf("repositories[%d]: duplicate repository name %q", i, repo.Name)
		}
		names[repo.Name] = true
	}

	// Legacy upload repositories ride the server session.
	for i, repo := range cfg.Repositories {
		if repo.Kind == KindLegacyUpload && cfg.Server.BaseURL == "" {
			return fmt.Errorf("repositories[%d]: legacy_upload requires server.base_url", i)
		}
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, fieldErr := range validationErrs {
		return fmt.Errorf("config validation failed on %s: %s rule violated (value: %v)",
			fieldErr.Namespace(), fieldErr.Tag(), fieldErr.Value())
	}
	return err
}
