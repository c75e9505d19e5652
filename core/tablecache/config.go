package tablecache

// DefaultMaxBytes is the default cache budget (512 MiB).
const DefaultMaxBytes int64 = 512 * 1024 * 1024

// Config holds cache settings.
type Config struct {
	// Enabled turns caching of decoded tables on or off.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// MaxBytes bounds the estimated size of all cached tables.
	MaxBytes int64 `mapstructure:"max_bytes" default:"536870912"`
	// Persist keeps decoded tables in the database between restarts.
	Persist bool `mapstructure:"persist" default:"true"`
}
