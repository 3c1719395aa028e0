package types

import "time"

// Backend identifies the completion service implementation.
type Backend string

const (
	BackendOpenAI Backend = "openai"
	BackendGemini Backend = "gemini"
)

// GenerationConfig holds shared settings for calling the completion
// service. Zero values mean "use the documented default"; consumers
// apply defaults rather than mutating the struct.
type GenerationConfig struct {
	// Backend selects the completion service: openai or gemini.
	Backend Backend `json:"backend" yaml:"backend"`

	// Model is the completion model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the completion service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts after the first failed
	// call (default 3, so 4 total attempts).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BaseDelay is the wait before the first retry (default 1s). Each
	// subsequent wait is scaled by BackoffMultiplier.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// BackoffMultiplier scales the wait between consecutive retries
	// (default 2.0).
	BackoffMultiplier float64 `json:"backoff_multiplier" yaml:"backoff_multiplier"`

	// Timeout bounds each individual completion attempt (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ResearchConfig holds settings for the link generation pipeline.
type ResearchConfig struct {
	GenerationConfig `yaml:",inline"`

	// LinksPerObjective is the exact number of links the service must
	// return per sub-objective (default 20). Exposed as configuration so
	// tests can use smaller fixtures; production runs use the default.
	LinksPerObjective int `json:"links_per_objective" yaml:"links_per_objective"`

	// SubObjectiveCount is the exact number of sub-objectives a batch
	// must contain (default 4, the fixed input contract).
	SubObjectiveCount int `json:"sub_objective_count" yaml:"sub_objective_count"`

	// Workers is the number of sub-objectives processed concurrently
	// (default 1, i.e. sequential).
	Workers int `json:"workers" yaml:"workers"`

	// RateLimitRPS is a global request rate limit shared across workers.
	// Zero or negative disables limiting.
	RateLimitRPS float64 `json:"rate_limit_rps" yaml:"rate_limit_rps"`
}

// StoreConfig holds settings for batch persistence.
type StoreConfig struct {
	// OutputDir is the directory for timestamped batch files
	// (default "outputs").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ArchiveDir is the directory for the SQLite batch archive
	// (default "outputs/archive").
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default maximum number of archive listing rows
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
