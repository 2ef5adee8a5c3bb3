package model

import "time"

// Config holds all runtime tunables. Values come from defaults, the
// config file and flags, in ascending precedence.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Checks   ChecksConfig   `yaml:"checks" mapstructure:"checks"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Merge    MergeConfig    `yaml:"merge" mapstructure:"merge"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// AnalysisConfig configures the document analysis collaborator.
type AnalysisConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"`
	Model             string        `yaml:"model" mapstructure:"model"`
	APIKey            string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	Workers           int           `yaml:"workers" mapstructure:"workers"`
}

// ChecksConfig holds the severity and tolerance thresholds used by the
// quality checks.
type ChecksConfig struct {
	ReportToleranceDays  int     `yaml:"report_tolerance_days" mapstructure:"report_tolerance_days"`
	MediumGapDays        int     `yaml:"medium_gap_days" mapstructure:"medium_gap_days"`
	HighGapDays          int     `yaml:"high_gap_days" mapstructure:"high_gap_days"`
	TariffPriceTolerance float64 `yaml:"tariff_price_tolerance" mapstructure:"tariff_price_tolerance"`
}

// ScoringConfig holds category weights and the pass threshold.
type ScoringConfig struct {
	Weights       map[string]float64 `yaml:"weights" mapstructure:"weights"`
	PassThreshold float64            `yaml:"pass_threshold" mapstructure:"pass_threshold"`
}

// MergeConfig tunes the merge policy. Fields listed in OverrideFields
// (dotted paths) take the last non-empty value instead of the first.
type MergeConfig struct {
	OverrideFields []string `yaml:"override_fields" mapstructure:"override_fields"`
}

// PipelineConfig bounds a processing run.
type PipelineConfig struct {
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	ProgressBuffer int           `yaml:"progress_buffer" mapstructure:"progress_buffer"`
	StoreTTL       time.Duration `yaml:"store_ttl" mapstructure:"store_ttl"`
}

// LoggingConfig selects the log environment.
type LoggingConfig struct {
	Environment string `yaml:"environment" mapstructure:"environment"`
	Level       string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			MaxRetries:        3,
			RetryBaseDelay:    2 * time.Second,
			RequestsPerSecond: 2.0,
			Burst:             5,
			Workers:           5,
		},
		Checks: ChecksConfig{
			ReportToleranceDays:  3,
			MediumGapDays:        3,
			HighGapDays:          14,
			TariffPriceTolerance: 0.01,
		},
		Scoring: ScoringConfig{
			Weights: map[string]float64{
				CheckPatientDetails: 0.25,
				CheckDates:          0.20,
				CheckReports:        0.15,
				CheckLineItems:      0.30,
				CheckTariffs:        0.10,
			},
			PassThreshold: 80.0,
		},
		Merge: MergeConfig{},
		Pipeline: PipelineConfig{
			Timeout:        2 * time.Minute,
			ProgressBuffer: 64,
			StoreTTL:       24 * time.Hour,
		},
		Logging: LoggingConfig{
			Environment: "development",
			Level:       "info",
		},
	}
}
