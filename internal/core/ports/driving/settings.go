package driving

import "github.com/custodia-labs/recall/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings *domain.AppSettings) error

	// SetValue parses and stores a single dotted key such as "search.bm25_weight".
	SetValue(key, value string) error

	// Keys lists every supported settings key.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
