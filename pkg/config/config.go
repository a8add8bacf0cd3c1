// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wyfcoding/optionstrategy/pkg/logger"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// Redis 行情快照配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger logger.Config `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 定价参数
	Pricing PricingConfig `mapstructure:"pricing"`
	// 策略计算参数
	Strategy StrategyConfig `mapstructure:"strategy"`
	// 行情源熔断配置
	Breaker BreakerConfig `mapstructure:"breaker"`
	// 限流配置
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr 监听地址
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig Redis 配置，Enabled 为 false 时使用内存行情源
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	MaxPoolSize  int           `mapstructure:"max_pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	QuotePrefix  string        `mapstructure:"quote_prefix"`
	QuoteMaxAge  time.Duration `mapstructure:"quote_max_age"` // 超过该时长的快照视为无报价，0 表示不检查
}

// KafkaConfig Kafka 配置，Brokers 为空时不发布事件
type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff"` // 毫秒
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// PricingConfig Black-Scholes 参数
type PricingConfig struct {
	RiskFreeRate       float64 `mapstructure:"risk_free_rate"`
	DividendYield      float64 `mapstructure:"dividend_yield"`
	DefaultVolatility  float64 `mapstructure:"default_volatility"`
	ContractMultiplier int     `mapstructure:"contract_multiplier"`
}

// StrategyConfig 策略计算器参数
type StrategyConfig struct {
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	QuoteTimeout      time.Duration `mapstructure:"quote_timeout"`
	MaxCacheEntries   int           `mapstructure:"max_cache_entries"`
	MaxConcurrentLegs int           `mapstructure:"max_concurrent_legs"`
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

// RateLimitConfig HTTP 限流配置（令牌桶）
type RateLimitConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults 从 TOML 文件加载配置，文件不存在时仅使用默认值
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		// 读取配置文件（如果不存在则忽略）
		_ = v.ReadInConfig()
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	// 设置环境变量前缀，使用 _ 替代 .
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
	if c.Pricing.DefaultVolatility <= 0 {
		return fmt.Errorf("pricing.default_volatility must be positive, got %v", c.Pricing.DefaultVolatility)
	}
	if c.Pricing.ContractMultiplier <= 0 {
		return fmt.Errorf("pricing.contract_multiplier must be positive, got %d", c.Pricing.ContractMultiplier)
	}
	if c.Strategy.CacheTTL <= 0 {
		return fmt.Errorf("strategy.cache_ttl must be positive, got %s", c.Strategy.CacheTTL)
	}
	if c.Strategy.QuoteTimeout <= 0 {
		return fmt.Errorf("strategy.quote_timeout must be positive, got %s", c.Strategy.QuoteTimeout)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "strategy")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 1*time.Second)
	v.SetDefault("redis.write_timeout", 1*time.Second)
	v.SetDefault("redis.quote_prefix", "")
	v.SetDefault("redis.quote_max_age", 10*time.Second)

	v.SetDefault("kafka.topic", "strategy.calculated")
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/strategy.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("pricing.risk_free_rate", 0.05)
	v.SetDefault("pricing.dividend_yield", 0.0)
	v.SetDefault("pricing.default_volatility", 0.25)
	v.SetDefault("pricing.contract_multiplier", 100)

	v.SetDefault("strategy.cache_ttl", 5*time.Second)
	v.SetDefault("strategy.quote_timeout", 1500*time.Millisecond)
	v.SetDefault("strategy.max_cache_entries", 10000)
	v.SetDefault("strategy.max_concurrent_legs", 4)

	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", 60*time.Second)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("breaker.failure_ratio", 0.6)
	v.SetDefault("breaker.min_requests", 10)

	v.SetDefault("ratelimit.rate", 50.0)
	v.SetDefault("ratelimit.burst", 100)
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
