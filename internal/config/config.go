package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EndpointEnvKey 要約エンドポイントURLを渡す環境変数
const EndpointEnvKey = "SUMMARIZER_API_URL"

// Config アプリケーション全体の設定
type Config struct {
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Log        LogConfig        `yaml:"log"`
}

// SummarizerConfig 外部要約エンドポイントの設定
type SummarizerConfig struct {
	EndpointURL string        `yaml:"endpoint_url"`
	Timeout     time.Duration `yaml:"timeout"`
	// Sanitize trueの場合、送信前に旧来の文字置換を適用する
	Sanitize bool `yaml:"sanitize"`
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SessionConfig 画面セッションの設定
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepSchedule string        `yaml:"sweep_schedule"`
	CopiedReset   time.Duration `yaml:"copied_reset"`
	// SecureCookie HTTPS配信時はtrueにしてCookieにSecure属性を付ける
	SecureCookie bool `yaml:"secure_cookie"`
}

// RateLimitConfig エンドポイント呼び出しのレート制限
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LogConfig ログ出力の設定
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// .envがあれば環境変数に取り込む（既存の値は上書きしない）
	_ = godotenv.Load()

	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	// 未指定の項目はデフォルト値のまま残す
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(dataStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	redisHost := "redis"
	if os.Getenv("GO_ENV") == "test" {
		redisHost = "localhost"
	}

	return &Config{
		Summarizer: SummarizerConfig{
			EndpointURL: os.Getenv(EndpointEnvKey),
			Timeout:     60 * time.Second,
			Sanitize:    false,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Host:     redisHost,
			Port:     6379,
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			SweepSchedule: "@every 1m",
			CopiedReset:   2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate 設定値を検証する
func (c *Config) Validate() error {
	var errs []error

	if c.Summarizer.EndpointURL == "" {
		errs = append(errs, fmt.Errorf("summarizer.endpoint_url is required (set %s)", EndpointEnvKey))
	} else if u, err := url.Parse(c.Summarizer.EndpointURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("summarizer.endpoint_url must be an absolute http(s) URL: %q", c.Summarizer.EndpointURL))
	}
	if c.Summarizer.Timeout <= 0 {
		errs = append(errs, errors.New("summarizer.timeout must be positive"))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, errors.New("session.idle_timeout must be positive"))
	}
	if c.Session.CopiedReset <= 0 {
		errs = append(errs, errors.New("session.copied_reset must be positive"))
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit values must not be negative"))
	}
	if c.Redis.Enabled && c.Redis.Port <= 0 {
		errs = append(errs, errors.New("redis.port must be positive"))
	}

	return errors.Join(errs...)
}

// Save 設定をファイルに保存する
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
