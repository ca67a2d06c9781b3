// Package config loads drover settings from flags, environment and an
// optional drover.yaml file, in viper's usual precedence order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the tunables shared by the engines.
type Config struct {
	// Workers bounds concurrent per-issue adapter calls in a batch.
	Workers int

	// PreviewThreshold is the plan size above which a commit requires a
	// prior preview (or an explicit force).
	PreviewThreshold int

	// RetryMaxAttempts bounds retries of transient adapter errors.
	RetryMaxAttempts int

	// CallTimeout bounds each per-issue adapter call.
	CallTimeout time.Duration

	// EscalationAge is how long a relation may stay unresolved before the
	// periodic check escalates it.
	EscalationAge time.Duration

	// EscalationLabel is the label applied to escalated issues.
	EscalationLabel string

	// TreatReopenedAsNew controls whether the stale sweep restarts the
	// clock for issues that were reopened and went stale again.
	TreatReopenedAsNew bool

	// QueryLimit caps query result sets.
	QueryLimit int

	// QuerySort is the default sort order for query results.
	QuerySort string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Workers:            4,
		PreviewThreshold:   10,
		RetryMaxAttempts:   4,
		CallTimeout:        30 * time.Second,
		EscalationAge:      72 * time.Hour,
		EscalationLabel:    "escalated",
		TreatReopenedAsNew: true,
		QueryLimit:         50,
		QuerySort:          "updated:desc",
	}
}

// Load reads configuration from drover.yaml (searched in the working
// directory and $HOME/.config/drover) and DROVER_* environment variables.
// Missing files are fine; defaults fill everything.
func Load() (Config, error) {
	v := viper.New()

	def := Defaults()
	v.SetDefault("workers", def.Workers)
	v.SetDefault("preview.threshold", def.PreviewThreshold)
	v.SetDefault("retry.max_attempts", def.RetryMaxAttempts)
	v.SetDefault("call.timeout", def.CallTimeout)
	v.SetDefault("escalation.age", def.EscalationAge)
	v.SetDefault("escalation.label", def.EscalationLabel)
	v.SetDefault("stale.treat_reopened_as_new", def.TreatReopenedAsNew)
	v.SetDefault("query.limit", def.QueryLimit)
	v.SetDefault("query.sort", def.QuerySort)

	v.SetConfigName("drover")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/drover")

	v.SetEnvPrefix("DROVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Config{
		Workers:            v.GetInt("workers"),
		PreviewThreshold:   v.GetInt("preview.threshold"),
		RetryMaxAttempts:   v.GetInt("retry.max_attempts"),
		CallTimeout:        v.GetDuration("call.timeout"),
		EscalationAge:      v.GetDuration("escalation.age"),
		EscalationLabel:    v.GetString("escalation.label"),
		TreatReopenedAsNew: v.GetBool("stale.treat_reopened_as_new"),
		QueryLimit:         v.GetInt("query.limit"),
		QuerySort:          v.GetString("query.sort"),
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the engines cannot run with.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1 (got %d)", c.Workers)
	}
	if c.PreviewThreshold < 1 {
		return fmt.Errorf("preview.threshold must be at least 1 (got %d)", c.PreviewThreshold)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1 (got %d)", c.RetryMaxAttempts)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call.timeout must be positive (got %s)", c.CallTimeout)
	}
	if c.EscalationAge <= 0 {
		return fmt.Errorf("escalation.age must be positive (got %s)", c.EscalationAge)
	}
	return nil
}
