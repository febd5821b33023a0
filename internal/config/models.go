package config

import (
	"os"
	"time"
)

// APIConfig is the analysis backend connection
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI or a compatible endpoint
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// LedgerConfig is the local escalation ledger
type LedgerConfig struct {
	Enabled          bool
	Type             string
	Retention        time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// IntakeConfig is the SMTP report mailbox
type IntakeConfig struct {
	ListenAddress   string
	Domain          string
	MaxMessageBytes int64
	MaxBodySize     int
	MaxLinks        int
	AutoEscalate    bool
	TrustedDomains  []string
	AnalysisTimeout time.Duration
}

// OutputConfig controls console rendering
type OutputConfig struct {
	Format string
	Color  bool
}

// GetAPI returns the analysis backend configuration
func (c *Config) GetAPI() (APIConfig, error) {
	timeout, err := c.GetDuration("api.timeout")
	if err != nil {
		return APIConfig{}, err
	}
	return APIConfig{
		BaseURL:   c.GetString("api.base_url"),
		Timeout:   timeout,
		UserAgent: c.GetString("api.user_agent"),
	}, nil
}

// GetAnalyzerBackend returns which Analyzer Service implementation to use
func (c *Config) GetAnalyzerBackend() string {
	return c.GetString("analyzer.backend")
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetLedger returns the ledger configuration with $HOME style paths expanded
func (c *Config) GetLedger() (LedgerConfig, error) {
	retention, err := c.GetDuration("ledger.retention")
	if err != nil {
		return LedgerConfig{}, err
	}
	cleanup, err := c.GetDuration("ledger.cleanup_frequency")
	if err != nil {
		return LedgerConfig{}, err
	}
	return LedgerConfig{
		Enabled:          c.GetBool("ledger.enabled"),
		Type:             c.GetString("ledger.type"),
		Retention:        retention,
		CleanupFrequency: cleanup,
		SQLitePath:       os.ExpandEnv(c.GetString("ledger.sqlite_path")),
		MySQLDSN:         c.GetString("ledger.mysql_dsn"),
	}, nil
}

// GetIntake returns the report mailbox configuration
func (c *Config) GetIntake() (IntakeConfig, error) {
	timeout, err := c.GetDuration("intake.analysis_timeout")
	if err != nil {
		return IntakeConfig{}, err
	}
	return IntakeConfig{
		ListenAddress:   c.GetString("intake.listen_address"),
		Domain:          c.GetString("intake.domain"),
		MaxMessageBytes: c.GetInt64("intake.max_message_bytes"),
		MaxBodySize:     c.GetInt("intake.max_body_size"),
		MaxLinks:        c.GetInt("intake.max_links"),
		AutoEscalate:    c.GetBool("intake.auto_escalate"),
		TrustedDomains:  c.GetStringSlice("intake.trusted_domains"),
		AnalysisTimeout: timeout,
	}, nil
}

// GetOutput returns the console rendering configuration
func (c *Config) GetOutput() OutputConfig {
	return OutputConfig{
		Format: c.GetString("output.format"),
		Color:  c.GetBool("output.color"),
	}
}
