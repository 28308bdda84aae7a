package scheduler

import (
	"time"

	"github.com/smallbiznis/corpsledger/internal/config"
)

// Config controls when the scheduler runs and how long a job may take.
type Config struct {
	RunInterval  time.Duration
	RunOnStartup bool
	JobTimeout   time.Duration
	EnabledJobs  []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:  24 * time.Hour,
		RunOnStartup: true,
		JobTimeout:   10 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:  cfg.Sched.Interval,
		RunOnStartup: cfg.Sched.RunOnStartup,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
