// Package config loads and validates the process-wide, immutable-after-load
// settings bundle: HTTP address, log level/format, the LLM provider
// credential and tuning knobs, and the orchestrator's iteration/timeout
// constants. Structure and defaulting style follow the teacher's
// config.types pattern (SetDefaults + Validate per section).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joho/godotenv"
)

// LLMConfig configures the chat-completion provider the LLM Adapter (C7)
// talks to.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai" (OpenAI-compatible wire format)
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_seconds"`
}

func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 60
	}
}

func (c *LLMConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("llm: api_key is required")
	}
	if c.Model == "" {
		return fmt.Errorf("llm: model is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("llm: base_url is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm: temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("llm: max_tokens must be positive")
	}
	if c.TimeoutSecs < 1 {
		return fmt.Errorf("llm: timeout_seconds must be positive")
	}
	return nil
}

// OrchestratorConfig holds the Chat Orchestrator's (C8) bounds.
type OrchestratorConfig struct {
	MaxToolIterations int `yaml:"max_tool_iterations"`
	MaxWorkflowTimeMS int `yaml:"max_workflow_time_ms"`
	StorageMessageCap int `yaml:"storage_message_limit"`
	MaxMessageLen     int `yaml:"max_message_length"`
	MaxChatHistoryLen int `yaml:"max_chat_history_length"`
	// TokenBudget bounds token-based history trimming (internal/tokens),
	// applied after the message-count cap (StorageMessageCap). An unset
	// or 0 value defaults to 8000 and negative values are rejected, so
	// the config always leaves token trimming on.
	TokenBudget int `yaml:"token_budget"`
}

func (c *OrchestratorConfig) SetDefaults() {
	if c.MaxToolIterations == 0 {
		c.MaxToolIterations = 10
	}
	if c.MaxWorkflowTimeMS == 0 {
		c.MaxWorkflowTimeMS = 5 * 60 * 1000
	}
	if c.StorageMessageCap == 0 {
		c.StorageMessageCap = 200
	}
	if c.MaxMessageLen == 0 {
		c.MaxMessageLen = 4000
	}
	if c.MaxChatHistoryLen == 0 {
		c.MaxChatHistoryLen = 300
	}
	if c.TokenBudget == 0 {
		c.TokenBudget = 8000
	}
}

func (c *OrchestratorConfig) Validate() error {
	if c.MaxToolIterations < 1 {
		return fmt.Errorf("orchestrator: max_tool_iterations must be positive")
	}
	if c.MaxWorkflowTimeMS < 1 {
		return fmt.Errorf("orchestrator: max_workflow_time_ms must be positive")
	}
	if c.StorageMessageCap < 1 {
		return fmt.Errorf("orchestrator: storage_message_limit must be positive")
	}
	if c.MaxMessageLen < 1 {
		return fmt.Errorf("orchestrator: max_message_length must be positive")
	}
	if c.MaxChatHistoryLen < c.StorageMessageCap {
		return fmt.Errorf("orchestrator: max_chat_history_length must be >= storage_message_limit")
	}
	if c.TokenBudget < 1 {
		return fmt.Errorf("orchestrator: token_budget must be positive")
	}
	return nil
}

func (c *OrchestratorConfig) WorkflowTimeout() time.Duration {
	return time.Duration(c.MaxWorkflowTimeMS) * time.Millisecond
}

// ObservabilityConfig toggles tracing/metrics (A5). Both are off unless
// metrics_enabled / tracing_enabled are set; SetDefaults only fills in
// the service name and sampling rate.
type ObservabilityConfig struct {
	MetricsEnabled bool    `yaml:"metrics_enabled"`
	TracingEnabled bool    `yaml:"tracing_enabled"`
	ServiceName    string  `yaml:"service_name"`
	SamplingRate   float64 `yaml:"sampling_rate"`
}

func (c *ObservabilityConfig) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "dataloom"
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = 1.0
	}
}

// Config is the full process-wide settings bundle.
type Config struct {
	HTTPAddr      string              `yaml:"http_addr"`
	UploadsDir    string              `yaml:"uploads_dir"`
	LogLevel      string              `yaml:"log_level"`
	LogFormat     string              `yaml:"log_format"`
	LLM           LLMConfig           `yaml:"llm"`
	Orchestrator  OrchestratorConfig  `yaml:"orchestrator"`
	Observability ObservabilityConfig `yaml:"observability"`
}

func (c *Config) SetDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "./uploads"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "simple"
	}
	c.LLM.SetDefaults()
	c.Orchestrator.SetDefaults()
	c.Observability.SetDefaults()
}

func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Orchestrator.Validate(); err != nil {
		return err
	}
	return nil
}

// Load reads a YAML config file (if path is non-empty and exists),
// applies environment overrides (a .env file is loaded first, so local
// development does not require exporting variables by hand), then
// defaults and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATALOOM_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("DATALOOM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATALOOM_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("DATALOOM_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("DATALOOM_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DATALOOM_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
}
