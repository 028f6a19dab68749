// Package config 提供服务配置加载
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务配置
type Config struct {
	Service    ServiceConfig    `yaml:"service" json:"service"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Auth       AuthConfig       `yaml:"auth" json:"auth"`
	Waste      WasteConfig      `yaml:"waste" json:"waste"`
	Outbox     OutboxConfig     `yaml:"outbox" json:"outbox"`
	Settlement SettlementConfig `yaml:"settlement" json:"settlement"`
	Jobs       JobsConfig       `yaml:"jobs" json:"jobs"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// ServiceConfig 服务配置
type ServiceConfig struct {
	Name     string `yaml:"name" json:"name"`
	HTTPPort int    `yaml:"http_port" json:"http_port"`
	Env      string `yaml:"env" json:"env"` // dev, production
}

// IsDev 是否开发环境
func (c *ServiceConfig) IsDev() bool {
	return c.Env != "production"
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host                   string `yaml:"host" json:"host"`
	Port                   int    `yaml:"port" json:"port"`
	User                   string `yaml:"user" json:"user"`
	Password               string `yaml:"password" json:"password"`
	Database               string `yaml:"database" json:"database"`
	MaxIdleConns           int    `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns           int    `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" json:"conn_max_lifetime_minutes"`
}

// DSN 构建连接串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	PoolSize int    `yaml:"pool_size" json:"pool_size"`
}

// Addr 返回 host:port
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret" json:"jwt_secret"`
	JWTExpireHours int    `yaml:"jwt_expire_hours" json:"jwt_expire_hours"`
}

// WasteConfig 投递记录配置
type WasteConfig struct {
	// NonceMode 幂等 nonce 策略: required / best_effort
	NonceMode string `yaml:"nonce_mode" json:"nonce_mode"`
	// TxMaxAttempts 事务最大尝试次数
	TxMaxAttempts int `yaml:"tx_max_attempts" json:"tx_max_attempts"`
	// TxBackoffMs 重试退避基数 (毫秒)，第 n 次重试等待 TxBackoffMs*2^n
	TxBackoffMs int `yaml:"tx_backoff_ms" json:"tx_backoff_ms"`
	// TxTimeoutSec 单次事务超时 (秒)
	TxTimeoutSec int `yaml:"tx_timeout_sec" json:"tx_timeout_sec"`
}

// OutboxConfig Outbox 处理配置
type OutboxConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	BatchSize      int `yaml:"batch_size" json:"batch_size"`
	// EventTimeoutSec 单事件结算调用超时 (秒)
	EventTimeoutSec int `yaml:"event_timeout_sec" json:"event_timeout_sec"`
}

// PollInterval 轮询间隔
func (c *OutboxConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// EventTimeout 单事件超时
func (c *OutboxConfig) EventTimeout() time.Duration {
	return time.Duration(c.EventTimeoutSec) * time.Second
}

// SettlementConfig 结算网关配置
type SettlementConfig struct {
	// Mode 网关模式: simulated / ethereum
	Mode    string `yaml:"mode" json:"mode"`
	Network string `yaml:"network" json:"network"`
	// RPCURL 以太坊节点地址 (mode=ethereum 时必填)
	RPCURL string `yaml:"rpc_url" json:"rpc_url"`
	// PrivateKey 结算账户私钥 (hex)
	PrivateKey string `yaml:"private_key" json:"private_key"`
	// ContractAddr 结算合约地址
	ContractAddr string `yaml:"contract_addr" json:"contract_addr"`
}

// JobsConfig 定时任务配置
type JobsConfig struct {
	SessionCleanupCron string `yaml:"session_cleanup_cron" json:"session_cleanup_cron"`
	HealthMonitorCron  string `yaml:"health_monitor_cron" json:"health_monitor_cron"`
	// DeviceOfflineAfterMin 设备心跳静默判定下线阈值 (分钟)
	DeviceOfflineAfterMin int `yaml:"device_offline_after_min" json:"device_offline_after_min"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Load 加载配置: 默认值 <- 配置文件 <- 环境变量
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Service.HTTPPort <= 0 || c.Service.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.Service.HTTPPort)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Waste.NonceMode != "required" && c.Waste.NonceMode != "best_effort" {
		return fmt.Errorf("invalid waste.nonce_mode: %s", c.Waste.NonceMode)
	}
	if c.Settlement.Mode != "simulated" && c.Settlement.Mode != "ethereum" {
		return fmt.Errorf("invalid settlement.mode: %s", c.Settlement.Mode)
	}
	if c.Settlement.Mode == "ethereum" && c.Settlement.RPCURL == "" {
		return fmt.Errorf("settlement.rpc_url is required in ethereum mode")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be positive")
	}
	return nil
}

// defaultConfig 返回默认配置
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "cleannft-core",
			HTTPPort: 8080,
			Env:      "dev",
		},
		Database: DatabaseConfig{
			Host:                   "localhost",
			Port:                   5432,
			User:                   "postgres",
			Password:               "postgres",
			Database:               "cleannft",
			MaxIdleConns:           10,
			MaxOpenConns:           100,
			ConnMaxLifetimeMinutes: 30,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			DB:       0,
			PoolSize: 100,
		},
		Auth: AuthConfig{
			JWTSecret:      "dev-secret-do-not-use-in-production",
			JWTExpireHours: 24,
		},
		Waste: WasteConfig{
			NonceMode:     "best_effort",
			TxMaxAttempts: 3,
			TxBackoffMs:   100,
			TxTimeoutSec:  5,
		},
		Outbox: OutboxConfig{
			PollIntervalMs:  2000,
			BatchSize:       10,
			EventTimeoutSec: 10,
		},
		Settlement: SettlementConfig{
			Mode:    "simulated",
			Network: "polygon-amoy",
		},
		Jobs: JobsConfig{
			SessionCleanupCron:    "0 0 * * * *",  // 每小时
			HealthMonitorCron:     "*/30 * * * * *", // 每 30 秒
			DeviceOfflineAfterMin: 15,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadFromEnv 从环境变量覆盖
func loadFromEnv(cfg *Config) {
	if env := os.Getenv("SERVICE_ENV"); env != "" {
		cfg.Service.Env = env
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Service.HTTPPort = p
		}
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if database := os.Getenv("DB_DATABASE"); database != "" {
		cfg.Database.Database = database
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis.Host = host
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	if mode := os.Getenv("SETTLEMENT_MODE"); mode != "" {
		cfg.Settlement.Mode = mode
	}
	if url := os.Getenv("SETTLEMENT_RPC_URL"); url != "" {
		cfg.Settlement.RPCURL = url
	}
	if key := os.Getenv("SETTLEMENT_PRIVATE_KEY"); key != "" {
		cfg.Settlement.PrivateKey = key
	}
}
