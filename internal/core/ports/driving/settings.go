package driving

import "github.com/custodia-labs/ragcore/internal/core/domain"

// Setting is one configuration key with its effective value.
type Setting struct {
	Key   string
	Value string

	// Secret marks masked values such as API keys.
	Secret bool

	// Default is true when the value is not set in the config file.
	Default bool
}

// SettingsService manages application settings.
type SettingsService interface {
	// Config returns the validated configuration.
	Config() (domain.Config, error)

	// List returns every setting with its effective value.
	List() ([]Setting, error)

	// Set parses and persists a single setting.
	// Returns domain.ErrInvalidInput for unknown keys or malformed values,
	// and domain.ErrInvalidConfig if the result would not validate.
	Set(key, value string) error

	// Check validates the providers in cfg by pinging them.
	Check(cfg domain.Config) error

	// Path returns the configuration file path.
	Path() string
}
