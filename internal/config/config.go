package config

// Config holds all application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Study   StudyConfig   `mapstructure:"study"`
	Report  ReportConfig  `mapstructure:"report"`
	History HistoryConfig `mapstructure:"history"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// GatewayConfig configures the LLM backend.
type GatewayConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
	MaxRetries  int     `mapstructure:"max_retries"`
}

// StudyConfig configures the Q&A orchestration.
type StudyConfig struct {
	Turns             int      `mapstructure:"turns"`
	Concurrency       int      `mapstructure:"concurrency"`
	EnableFollowup    bool     `mapstructure:"enable_followup"`
	FollowupThreshold float64  `mapstructure:"followup_threshold"`
	MaxFollowups      int      `mapstructure:"max_followups"`
	Keywords          []string `mapstructure:"keywords"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// HistoryConfig configures run-history persistence.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
