package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jengzang/vehicle-tracker-go/internal/congestion"
	"github.com/jengzang/vehicle-tracker-go/internal/history"
	"github.com/jengzang/vehicle-tracker-go/internal/live"
	"github.com/jengzang/vehicle-tracker-go/internal/trace"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Database   DatabaseConfig    `yaml:"database"`
	UDP        UDPConfig         `yaml:"udp"`
	Live       LiveConfig        `yaml:"live"`
	Trace      TraceConfig       `yaml:"trace"`
	History    HistoryConfig     `yaml:"history"`
	RateLimit  RateLimitConfig   `yaml:"rate_limit"`
	Congestion congestion.Policy `yaml:"congestion"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port      string `yaml:"port" validate:"required"`
	StaticDir string `yaml:"static_dir"` // served at / when set
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path          string `yaml:"path" validate:"required"`
	MaxOpenConns  int    `yaml:"max_open_conns" validate:"gte=0"`
	BusyTimeoutMs int    `yaml:"busy_timeout_ms" validate:"gte=0"`
	AutoMigrate   bool   `yaml:"auto_migrate"`
}

// UDPConfig 遥测接收配置
type UDPConfig struct {
	Enabled     bool          `yaml:"enabled"` // run the listener inside serve
	Address     string        `yaml:"address" validate:"required"`
	ReadBuffer  int           `yaml:"read_buffer" validate:"gte=0"`
	LogInterval time.Duration `yaml:"log_interval" validate:"gte=0"`
	Verbose     bool          `yaml:"verbose"`
}

// LiveConfig 实时推送配置
type LiveConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
}

// TraceConfig 轨迹查询配置
type TraceConfig struct {
	DefaultRadiusMeters float64 `yaml:"default_radius_meters" validate:"gt=0"`
}

// HistoryConfig 历史查询配置
type HistoryConfig struct {
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches" validate:"gt=0"`
}

// RateLimitConfig 限流配置, Requests 为 0 时关闭
type RateLimitConfig struct {
	Requests int           `yaml:"requests" validate:"gte=0"`
	Window   time.Duration `yaml:"window" validate:"required_with=Requests"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: ":3000",
		},
		Database: DatabaseConfig{
			Path:          "./data/telemetry.db",
			MaxOpenConns:  8,
			BusyTimeoutMs: 5000,
			AutoMigrate:   true,
		},
		UDP: UDPConfig{
			Address:     ":5000",
			ReadBuffer:  4 << 20,
			LogInterval: time.Minute,
		},
		Live: LiveConfig{
			PollInterval: live.DefaultPollInterval,
		},
		Trace: TraceConfig{
			DefaultRadiusMeters: trace.DefaultRadiusMeters,
		},
		History: HistoryConfig{
			MaxConcurrentFetches: history.DefaultMaxConcurrent,
		},
		RateLimit: RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
		},
		Congestion: congestion.DefaultPolicy(),
	}
}

// Load 加载配置: 默认值, 可选的 YAML 文件, 然后是环境变量
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Port = normalizePort(v)
	}
	if v, ok := lookup("DB_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup("UDP_ADDR"); ok && v != "" {
		c.UDP.Address = v
	}
	if v, ok := lookup("STATIC_DIR"); ok {
		c.Server.StaticDir = v
	}
	if v, ok := lookup("POLL_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL %q: %w", v, err)
		}
		c.Live.PollInterval = d
	}
	return nil
}

// normalizePort accepts both "3000" and ":3000"
func normalizePort(p string) string {
	for _, r := range p {
		if r < '0' || r > '9' {
			return p
		}
	}
	return ":" + p
}

// Validate 校验配置
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Congestion.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// InitLogging 设置日志输出
func InitLogging() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
