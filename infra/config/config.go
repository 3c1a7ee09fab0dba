package config

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	MySql     MySqlConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	NodeId string `mapstructure:"node_id"`
}

type MySqlConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type SchedulerConfig struct {
	SchedulerKeyPrefix string        `mapstructure:"scheduler_key_prefix"`
	EnableTaskQueue    bool          `mapstructure:"enable_task_queue"` // 到期触发走 redis 队列异步执行
	EnableRunLock      bool          `mapstructure:"enable_run_lock"`   // 同一任务重叠触发时跳过（默认允许并发）
	LockerExpiry       time.Duration `mapstructure:"locker_expiry"`
	PopTimeout         time.Duration `mapstructure:"pop_timeout"`
	MaxWorkers         int           `mapstructure:"max_workers"` // 最大并发执行协程数
}

// NeedRedis 当前调度配置是否依赖 redis
func (c SchedulerConfig) NeedRedis() bool {
	return c.EnableTaskQueue || c.EnableRunLock
}

var globalConfig *Config

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 转换时间单位
	cfg.Scheduler.LockerExpiry *= time.Second
	cfg.Scheduler.PopTimeout *= time.Second

	// 设置默认值
	if cfg.Scheduler.MaxWorkers <= 0 {
		cfg.Scheduler.MaxWorkers = 50
	}
	if cfg.Scheduler.PopTimeout <= 0 {
		cfg.Scheduler.PopTimeout = 5 * time.Second
	}
	if cfg.Scheduler.LockerExpiry <= 0 {
		cfg.Scheduler.LockerExpiry = 30 * time.Second
	}
	if cfg.Scheduler.SchedulerKeyPrefix == "" {
		cfg.Scheduler.SchedulerKeyPrefix = "datafactory"
	}
	if cfg.Redis.PoolSize <= 0 {
		cfg.Redis.PoolSize = 100
	}
	if cfg.Redis.MinIdleConns <= 0 {
		cfg.Redis.MinIdleConns = 10
	}

	// 自动生成 NodeID
	if cfg.Server.NodeId == "" {
		hostname, _ := os.Hostname()
		cfg.Server.NodeId = hostname + "-" + uuid.New().String()[:8]
	}

	globalConfig = &cfg
	return &cfg, nil
}

func Get() *Config {
	return globalConfig
}

// SetConfig sets the global config (used for testing)
func SetConfig(cfg *Config) {
	globalConfig = cfg
}
