package robox

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Options configures a Browser. Every field can also come from the
// environment under the ROBOX prefix (ROBOX_USER_AGENT, ROBOX_RETRY, ...).
type Options struct {
	UserAgent     string        `envconfig:"USER_AGENT" default:"robox/1.0"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"30s"`
	RaiseOnStatus bool          `envconfig:"RAISE_ON_STATUS" default:"false"`
	ObeyRobots    bool          `envconfig:"OBEY_ROBOTSTXT" default:"false"`

	// Cache keeps RFC 7234 cacheable responses in memory and serves
	// fresh ones without hitting the network again.
	Cache bool `envconfig:"CACHE" default:"false"`

	// RequestsPerSecond throttles outgoing requests; zero means unlimited.
	RequestsPerSecond float64 `envconfig:"RPS" default:"0"`

	History    bool `envconfig:"HISTORY" default:"true"`
	MaxBack    int  `envconfig:"MAX_BACK" default:"0"`
	MaxForward int  `envconfig:"MAX_FORWARD" default:"0"`

	Retry            bool          `envconfig:"RETRY" default:"false"`
	RetryMaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryMultiplier  time.Duration `envconfig:"RETRY_MULTIPLIER" default:"1s"`
	RetryMaxDelay    time.Duration `envconfig:"RETRY_MAX_DELAY" default:"100s"`
	RetryForcelist   []int         `envconfig:"RETRY_FORCELIST" default:"429,500,502,503,504"`

	GuardThreshold int           `envconfig:"GUARD_THRESHOLD" default:"5"`
	GuardCooldown  time.Duration `envconfig:"GUARD_COOLDOWN" default:"30s"`

	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEV" default:"false"`
}

// DefaultOptions returns the options a fresh Browser uses.
func DefaultOptions() Options {
	return Options{
		UserAgent:        "robox/1.0",
		Timeout:          30 * time.Second,
		History:          true,
		RetryMaxAttempts: 3,
		RetryMultiplier:  time.Second,
		RetryMaxDelay:    100 * time.Second,
		RetryForcelist:   []int{429, 500, 502, 503, 504},
		GuardThreshold:   5,
		GuardCooldown:    30 * time.Second,
		LogLevel:         "info",
	}
}

// OptionsFromEnv loads options from ROBOX_* environment variables,
// falling back to defaults for anything unset.
func OptionsFromEnv() (Options, error) {
	var opts Options
	if err := envconfig.Process("robox", &opts); err != nil {
		return Options{}, fmt.Errorf("loading options: %w", err)
	}
	return opts, nil
}
