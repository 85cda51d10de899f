package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"` // debug, release, test
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// RedisConfig for the optional async stats queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProvidersConfig holds the platform-level API keys. A key left empty here
// may still be supplied per organization through the org_configs table.
type ProvidersConfig struct {
	ReplicateAPIToken string `yaml:"replicate_api_token"`
	IdeogramAPIKey    string `yaml:"ideogram_api_key"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	OpenAIBaseURL     string `yaml:"openai_base_url"`
	RemoveBgAPIKey    string `yaml:"removebg_api_key"`
	VectorizerAPIKey  string `yaml:"vectorizer_api_key"`
}

// Lookup returns the platform-level value for a credential name.
func (p *ProvidersConfig) Lookup(name string) (string, bool) {
	var v string
	switch name {
	case "replicate_api_token":
		v = p.ReplicateAPIToken
	case "ideogram_api_key":
		v = p.IdeogramAPIKey
	case "anthropic_api_key":
		v = p.AnthropicAPIKey
	case "openai_api_key":
		v = p.OpenAIAPIKey
	case "removebg_api_key":
		v = p.RemoveBgAPIKey
	case "vectorizer_api_key":
		v = p.VectorizerAPIKey
	}
	return v, v != ""
}

// PipelineConfig tunes the dispatch core.
type PipelineConfig struct {
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"` // replicate status poll spacing
	PollMaxAttempts     int    `yaml:"poll_max_attempts"`     // hard ceiling per adapter call
	PromptPreviewLen    int    `yaml:"prompt_preview_len"`    // usage log input preview bound
	RetentionDays       int    `yaml:"retention_days"`        // usage log retention
	DefaultTokenBudget  int    `yaml:"default_token_budget"`  // token pricing fallback
	DefaultNumOutputs   int    `yaml:"default_num_outputs"`   // per-unit pricing fallback
	MediaDir            string `yaml:"media_dir"`             // where binary provider results land
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.applyDefaults()
	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "8080",
			Mode:     "debug",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "wrapforge.db",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in zero-valued pipeline tuning fields.
func (c *Config) applyDefaults() {
	if c.Pipeline.PollIntervalSeconds == 0 {
		c.Pipeline.PollIntervalSeconds = 2
	}
	if c.Pipeline.PollMaxAttempts == 0 {
		c.Pipeline.PollMaxAttempts = 30
	}
	if c.Pipeline.PromptPreviewLen == 0 {
		c.Pipeline.PromptPreviewLen = 200
	}
	if c.Pipeline.RetentionDays == 0 {
		c.Pipeline.RetentionDays = 90
	}
	if c.Pipeline.DefaultTokenBudget == 0 {
		c.Pipeline.DefaultTokenBudget = 2000
	}
	if c.Pipeline.DefaultNumOutputs == 0 {
		c.Pipeline.DefaultNumOutputs = 1
	}
	if c.Pipeline.MediaDir == "" {
		c.Pipeline.MediaDir = os.TempDir()
	}
}

// overrideFromEnv applies environment variable overrides on top of the file.
func (c *Config) overrideFromEnv() {
	setStr(&c.Server.Host, "SERVER_HOST")
	setStr(&c.Server.Port, "SERVER_PORT")
	setStr(&c.Server.Mode, "SERVER_MODE")
	setStr(&c.Server.LogLevel, "LOG_LEVEL")

	setStr(&c.Database.Driver, "DB_DRIVER")
	setStr(&c.Database.DSN, "DB_DSN")

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		c.Redis.Enabled = v == "true" || v == "1"
	}
	setStr(&c.Redis.Addr, "REDIS_ADDR")
	setStr(&c.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}

	setStr(&c.Providers.ReplicateAPIToken, "REPLICATE_API_TOKEN")
	setStr(&c.Providers.IdeogramAPIKey, "IDEOGRAM_API_KEY")
	setStr(&c.Providers.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setStr(&c.Providers.OpenAIAPIKey, "OPENAI_API_KEY")
	setStr(&c.Providers.OpenAIBaseURL, "OPENAI_BASE_URL")
	setStr(&c.Providers.RemoveBgAPIKey, "REMOVEBG_API_KEY")
	setStr(&c.Providers.VectorizerAPIKey, "VECTORIZER_API_KEY")
}

func setStr(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
