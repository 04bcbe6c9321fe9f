package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig marks configuration validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if c.Batch.EligibilityWindowSeconds < 0 {
		problems = append(problems, "batch.eligibility_window_seconds must not be negative")
	}
	if c.Batch.RetentionDays < 1 {
		problems = append(problems, "batch.retention_days must be at least 1")
	}
	if c.Quota.MaxQueries < 0 || c.Quota.MaxQueryRows < 0 || c.Quota.MaxMutationRows < 0 {
		problems = append(problems, "quota ceilings must not be negative")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}

	for name, job := range c.Jobs {
		if strings.TrimSpace(name) == "" {
			problems = append(problems, "jobs table contains an empty job name")
			continue
		}
		if job.ScopeSize != nil && *job.ScopeSize < 1 {
			problems = append(problems, fmt.Sprintf("jobs.%s.scope_size must be at least 1", name))
		}
		if job.DelaySeconds != nil && *job.DelaySeconds < 1 {
			problems = append(problems, fmt.Sprintf("jobs.%s.delay_seconds must be at least 1", name))
		}
		if job.EligibilityWait != nil && *job.EligibilityWait < 0 {
			problems = append(problems, fmt.Sprintf("jobs.%s.eligibility_window_seconds must not be negative", name))
		}
		if job.InitialDelaySecs != nil && *job.InitialDelaySecs < 0 {
			problems = append(problems, fmt.Sprintf("jobs.%s.initial_delay_seconds must not be negative", name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
