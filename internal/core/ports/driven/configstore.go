package driven

// ConfigStore holds the settings file. Keys use dot notation matching the
// TOML tables (e.g. "transfer.batch_size"). Typed getters return the zero
// value when a key is missing or holds another type.
type ConfigStore interface {
	// Get reports the raw value of key and whether it is set.
	Get(key string) (any, bool)

	GetString(key string) string

	// GetInt accepts whole numbers only.
	GetInt(key string) int

	// GetFloat accepts integers as well, so "initial_backoff_seconds = 2"
	// and "= 2.5" both read.
	GetFloat(key string) float64

	GetBool(key string) bool

	// GetStringSlice drops elements that are not strings.
	GetStringSlice(key string) []string

	// Set stores value and persists it before returning.
	Set(key string, value any) error

	// Path names where the settings live.
	Path() string
}
