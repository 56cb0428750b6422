package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig                `yaml:"server"`
	Database     DatabaseConfig              `yaml:"database"`
	Oracle       OracleConfig                `yaml:"oracle"`
	Harness      HarnessConfig               `yaml:"harness"`
	Capabilities map[string]CapabilityConfig `yaml:"capabilities" validate:"dive"`
	Log          LogConfig                   `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
}

type DatabaseConfig struct {
	// mysql / sqlite
	Driver   string `yaml:"driver" validate:"oneof=mysql sqlite"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Charset  string `yaml:"charset"`
	// sqlite 文件路径（driver=sqlite 时使用）
	Path string `yaml:"path"`
}

type OracleConfig struct {
	// dify / openai / gemini
	Provider      string       `yaml:"provider" validate:"oneof=dify openai gemini"`
	RatePerSecond float64      `yaml:"rate_per_second" validate:"gte=0"`
	Burst         int          `yaml:"burst" validate:"gte=0"`
	Dify          DifyConfig   `yaml:"dify"`
	OpenAI        OpenAIConfig `yaml:"openai"`
	Gemini        GeminiConfig `yaml:"gemini"`
}

type DifyConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// 应用类型：workflow/chat/completion
	AppType string `yaml:"app_type"`
	// response_mode: blocking/streaming（建议 blocking）
	ResponseMode      string `yaml:"response_mode"`
	WorkflowSystemKey string `yaml:"workflow_system_key"`
	WorkflowQueryKey  string `yaml:"workflow_query_key"`
	WorkflowOutputKey string `yaml:"workflow_output_key"`
}

type OpenAIConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type HarnessConfig struct {
	BaseDir     string `yaml:"base_dir"`
	PatternsDir string `yaml:"patterns_dir"`
	// 模板导出的最低置信度
	MinConfidence float64 `yaml:"min_confidence" validate:"gte=0,lte=1"`
	// 覆盖默认的多样性提示与人设（为空则使用内置默认值）
	DiversityHints []string        `yaml:"diversity_hints"`
	Personas       []PersonaConfig `yaml:"personas" validate:"dive"`
}

type PersonaConfig struct {
	Key         string `yaml:"key" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	InputStyle  string `yaml:"input_style"`
}

// CapabilityConfig 被测能力的两个实现端点（AI 版 / 规则版）
type CapabilityConfig struct {
	OracleURL string `yaml:"oracle_url" validate:"required,url"`
	RuleURL   string `yaml:"rule_url" validate:"required,url"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default 返回不依赖配置文件即可运行的配置（sqlite + 本地目录）
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8001
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "seed_eval.db"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = "dify"
	}
	if c.Harness.BaseDir == "" {
		c.Harness.BaseDir = "."
	}
	if c.Harness.PatternsDir == "" {
		c.Harness.PatternsDir = "patterns"
	}
	if c.Harness.MinConfidence == 0 {
		c.Harness.MinConfidence = 0.7
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}
