// internal/workers/matching/explain-match-score/config.go
package explainmatchscore

import (
	"time"

	"mentor-match-workers/internal/common/config"
	"mentor-match-workers/pkg/registry"
)

type Config struct {
	Enabled bool
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Enabled: true, Timeout: 5 * time.Second}
}

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
