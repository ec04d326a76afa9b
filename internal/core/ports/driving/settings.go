package driving

import "github.com/custodia-labs/vcf-ingest/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves settings from configuration over defaults.
	Get() (*domain.Settings, error)

	// Set stores one configuration value, parsed by the key's type.
	Set(key, value string) error

	// Keys lists every supported configuration key.
	Keys() []string

	// Path returns where settings are persisted.
	Path() string
}
