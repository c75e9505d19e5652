package reconcile

import "time"

const (
	// DefaultBatchSize is the number of rows processed per batch.
	DefaultBatchSize = 10000
	// DefaultRunHistory is the number of finished runs kept for status queries.
	DefaultRunHistory = 16
)

// Config holds comparison settings.
type Config struct {
	BatchSize      int `mapstructure:"batch_size" default:"10000"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"600"`
	RunHistory     int `mapstructure:"run_history" default:"16"`
}

// Timeout returns the wall-clock ceiling for a run. Zero disables it.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
