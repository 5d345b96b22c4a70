// internal/workers/matching/rank-mentors/config.go
package rankmentors

import (
	"time"

	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/pkg/registry"
)

type Config struct {
	Enabled bool
	Timeout time.Duration
	// PersistByDefault applies when a job does not set "persist".
	PersistByDefault bool
}

func LoadConfig() *Config {
	return &Config{
		Enabled:          true,
		Timeout:          15 * time.Second,
		PersistByDefault: true,
	}
}

// ConfigFromApp reads the worker section for TaskType, falling back to the
// registry timeout.
func ConfigFromApp(cfg *config.Config) *Config {
	c := LoadConfig()
	if a, ok := registry.Default().Find(TaskType); ok {
		c.Timeout = a.TimeoutDuration(c.Timeout)
	}
	if w, ok := cfg.Workers[TaskType]; ok {
		c.Enabled = w.Enabled
		if w.Timeout > 0 {
			c.Timeout = config.GetDuration(w.Timeout)
		}
	}
	return c
}
