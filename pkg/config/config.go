// Package config 提供 TOML 配置加载、.env 预加载、环境变量覆盖与校验
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 服务配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// gRPC 服务配置
	GRPC GRPCConfig `mapstructure:"grpc"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 限流配置
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// 鉴权配置
	Auth AuthConfig `mapstructure:"auth"`
	// 模拟参数
	Simulation SimulationConfig `mapstructure:"simulation"`
	// 日历
	Calendar CalendarConfig `mapstructure:"calendar"`
	// 曲线缓存
	CurveCache CurveCacheConfig `mapstructure:"curve_cache"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // 秒
	WriteTimeout int    `mapstructure:"write_timeout"` // 秒
	// 允许的跨域来源，空表示不启用 CORS
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GRPCConfig gRPC 服务配置
type GRPCConfig struct {
	Host                 string `mapstructure:"host"`
	Port                 int    `mapstructure:"port"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：mysql, postgres
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    int    `mapstructure:"conn_max_lifetime"` // 秒
	LogEnabled         bool   `mapstructure:"log_enabled"`
	SlowQueryThreshold int    `mapstructure:"slow_query_threshold"` // 毫秒
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ConnTimeout  int    `mapstructure:"conn_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	SessionTimeout  int      `mapstructure:"session_timeout"`
	MaxRetries      int      `mapstructure:"max_retries"`
	RetryBackoff    int      `mapstructure:"retry_backoff"` // 毫秒
	TopicPrefix     string   `mapstructure:"topic_prefix"`
	CurveTopic      string   `mapstructure:"curve_topic"`
	DeadLetterTopic string   `mapstructure:"dead_letter_topic"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig 限流配置（每个客户端 IP）
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	QPS     int  `mapstructure:"qps"`
	Burst   int  `mapstructure:"burst"`
}

// AuthConfig 曲线导入接口的 JWT 鉴权
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// TaxBracketConfig 税率档，max_calendar_days 为 0 表示无上限
type TaxBracketConfig struct {
	MaxCalendarDays int     `mapstructure:"max_calendar_days"`
	Rate            float64 `mapstructure:"rate"`
}

// SimulationConfig 模拟参数
type SimulationConfig struct {
	AnnualizationBase int                `mapstructure:"annualization_base"`
	DefaultIndex      string             `mapstructure:"default_index"`
	TaxBrackets       []TaxBracketConfig `mapstructure:"tax_brackets"`
	MaxHorizonYears   int                `mapstructure:"max_horizon_years"`
}

// CalendarConfig 日历配置，holidays 为 YYYY-MM-DD
type CalendarConfig struct {
	Holidays []string `mapstructure:"holidays"`
}

// CurveCacheConfig 曲线缓存
type CurveCacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
}

// TTL 缓存有效期
func (c CurveCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// HolidayDates 解析配置的节假日
func (c CalendarConfig) HolidayDates() ([]time.Time, error) {
	days := make([]time.Time, 0, len(c.Holidays))
	for _, raw := range c.Holidays {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", raw, err)
		}
		days = append(days, d)
	}
	return days, nil
}

// Load 预加载 .env，再读取 TOML 文件（configPath 为空时只用默认值），最后由 APP_ 前缀的环境变量覆盖
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// APP_HTTP_PORT 覆盖 http.port
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required for %s driver", c.Database.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Auth.Enabled && len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 bytes")
	}
	if c.RateLimit.Enabled && (c.RateLimit.QPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit.qps and rate_limit.burst must be positive")
	}
	if c.Simulation.AnnualizationBase <= 0 {
		return fmt.Errorf("simulation.annualization_base must be positive, got %d", c.Simulation.AnnualizationBase)
	}
	if c.Simulation.MaxHorizonYears <= 0 {
		return fmt.Errorf("simulation.max_horizon_years must be positive, got %d", c.Simulation.MaxHorizonYears)
	}
	if len(c.Simulation.TaxBrackets) == 0 {
		return fmt.Errorf("simulation.tax_brackets must not be empty")
	}
	for _, b := range c.Simulation.TaxBrackets {
		if b.Rate < 0 || b.Rate > 1 {
			return fmt.Errorf("tax rate %v out of [0, 1]", b.Rate)
		}
	}
	if _, err := c.Calendar.HolidayDates(); err != nil {
		return err
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "simulator")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15)
	v.SetDefault("http.write_timeout", 15)

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 9090)
	v.SetDefault("grpc.max_concurrent_streams", 1000)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 200)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.group_id", "simulator")
	v.SetDefault("kafka.session_timeout", 10)
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)
	v.SetDefault("kafka.topic_prefix", "")
	v.SetDefault("kafka.curve_topic", "ettj.curves")
	v.SetDefault("kafka.dead_letter_topic", "ettj.curves.dlq")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/simulator.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9100)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.qps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "simulator")

	v.SetDefault("simulation.annualization_base", 252)
	v.SetDefault("simulation.default_index", "CDI")
	v.SetDefault("simulation.max_horizon_years", 50)
	v.SetDefault("simulation.tax_brackets", []map[string]any{
		{"max_calendar_days": 180, "rate": 0.225},
		{"max_calendar_days": 360, "rate": 0.20},
		{"max_calendar_days": 720, "rate": 0.175},
		{"max_calendar_days": 0, "rate": 0.15},
	})

	v.SetDefault("calendar.holidays", []string{})

	v.SetDefault("curve_cache.enabled", true)
	v.SetDefault("curve_cache.ttl_seconds", 300)
}
