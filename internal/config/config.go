// Package config 从文件或环境变量加载农历接口、AI 接口、HTTP 服务等配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// 配置路径
const (
	defaultConfigPath = "config.yaml"
	envConfigPath     = "YIJING_CONFIG"
)

// 默认值
const (
	DefaultLunarBaseURL = "https://apis.tianapi.com"
	DefaultAIBaseURL    = "https://api.siliconflow.cn/v1"
	DefaultAIModel      = "Pro/deepseek-ai/DeepSeek-R1"
	DefaultMindmapModel = "Pro/deepseek-ai/DeepSeek-V3"
	DefaultListenAddr   = ":8080"

	defaultHTTPTimeout = 5 * time.Second
	defaultAITimeout   = 2 * time.Minute
	defaultCacheTTL    = 24 * time.Hour
	defaultTemperature = 0.7
	defaultTopP        = 0.95
	defaultMaxTokens   = 2000
	defaultConcurrency = 6
)

type Config struct {
	Lunar  Lunar  `yaml:"lunar" json:"lunar" envPrefix:"YIJING_LUNAR_"`
	AI     AI     `yaml:"ai" json:"ai" envPrefix:"YIJING_AI_"`
	Server Server `yaml:"server" json:"server" envPrefix:"YIJING_SERVER_"`
	Worker Worker `yaml:"worker" json:"worker" envPrefix:"YIJING_WORKER_"`
}

// Lunar 农历查询接口（天行数据）与查询缓存。RedisAddr 为空时用进程内缓存。
type Lunar struct {
	BaseURL       string        `yaml:"base_url" json:"base_url" env:"BASE_URL"`
	APIKey        string        `yaml:"api_key" json:"api_key" env:"API_KEY"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" env:"TIMEOUT"`
	CacheTTL      time.Duration `yaml:"cache_ttl" json:"cache_ttl" env:"CACHE_TTL"`
	RedisAddr     string        `yaml:"redis_addr" json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" json:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" json:"redis_db" env:"REDIS_DB"`
}

// AI 兼容 OpenAI chat/completions 的流式接口。
type AI struct {
	BaseURL      string        `yaml:"base_url" json:"base_url" env:"BASE_URL"`
	APIKey       string        `yaml:"api_key" json:"api_key" env:"API_KEY"`
	Model        string        `yaml:"model" json:"model" env:"MODEL"`
	MindmapModel string        `yaml:"mindmap_model" json:"mindmap_model" env:"MINDMAP_MODEL"`
	Temperature  float64       `yaml:"temperature" json:"temperature" env:"TEMPERATURE"`
	TopP         float64       `yaml:"top_p" json:"top_p" env:"TOP_P"`
	MaxTokens    int           `yaml:"max_tokens" json:"max_tokens" env:"MAX_TOKENS"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" env:"TIMEOUT"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr" env:"ADDR"`
}

// Worker 六爻并发推演的 worker 数。
type Worker struct {
	Concurrency int `yaml:"concurrency" json:"concurrency" env:"CONCURRENCY"`
}

// Default 返回全部默认值（不含任何密钥）。
func Default() *Config {
	return &Config{
		Lunar: Lunar{
			BaseURL:  DefaultLunarBaseURL,
			Timeout:  defaultHTTPTimeout,
			CacheTTL: defaultCacheTTL,
		},
		AI: AI{
			BaseURL:      DefaultAIBaseURL,
			Model:        DefaultAIModel,
			MindmapModel: DefaultMindmapModel,
			Temperature:  defaultTemperature,
			TopP:         defaultTopP,
			MaxTokens:    defaultMaxTokens,
			Timeout:      defaultAITimeout,
		},
		Server: Server{Addr: DefaultListenAddr},
		Worker: Worker{Concurrency: defaultConcurrency},
	}
}

// Load 先读 envConfigPath 指定文件（默认 config.yaml，也可以是 JSON），再被环境变量覆盖。
// 文件不存在不算错误。
func Load() (*Config, error) {
	path := os.Getenv(envConfigPath)
	if path == "" {
		path = defaultConfigPath
	}
	return LoadFile(path)
}

// LoadFile 同 Load，但显式指定文件路径。
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if b, err := os.ReadFile(path); err == nil {
		if err := decode(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// decode JSON 是 YAML 的子集，.json 文件同样交给 yaml.v3，时长可写成 "5s"。
func decode(b []byte, cfg *Config) error {
	return yaml.Unmarshal(b, cfg)
}

// normalize 去掉首尾空白与 URL 末尾的斜杠，非法数值回落到默认值。
func (c *Config) normalize() {
	def := Default()
	c.Lunar.BaseURL = strings.TrimRight(strings.TrimSpace(c.Lunar.BaseURL), "/")
	c.Lunar.APIKey = strings.TrimSpace(c.Lunar.APIKey)
	c.AI.BaseURL = strings.TrimRight(strings.TrimSpace(c.AI.BaseURL), "/")
	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	if c.Lunar.BaseURL == "" {
		c.Lunar.BaseURL = def.Lunar.BaseURL
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = def.AI.BaseURL
	}
	if c.AI.Model == "" {
		c.AI.Model = def.AI.Model
	}
	if c.AI.MindmapModel == "" {
		c.AI.MindmapModel = c.AI.Model
	}
	if c.Lunar.Timeout <= 0 {
		c.Lunar.Timeout = def.Lunar.Timeout
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = def.AI.Timeout
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = def.AI.MaxTokens
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = def.Worker.Concurrency
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
}

// Enabled 配置了密钥才调用农历接口。
func (l *Lunar) Enabled() bool {
	return strings.TrimSpace(l.BaseURL) != "" && strings.TrimSpace(l.APIKey) != ""
}

// UseRedis 是否用 Redis 缓存农历查询结果。
func (l *Lunar) UseRedis() bool {
	return strings.TrimSpace(l.RedisAddr) != ""
}

// Enabled 配置了密钥才调用 AI 接口。
func (a *AI) Enabled() bool {
	return strings.TrimSpace(a.BaseURL) != "" && strings.TrimSpace(a.APIKey) != ""
}
