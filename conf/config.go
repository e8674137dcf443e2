package conf

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

// 配置加载（行情源、数据库、监控周期等）

type Db struct {
	DbName   string `yaml:"dbname"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	TimeFormat string `yaml:"time-format"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	LocalTime  bool   `yaml:"local-time"`
	Console    bool   `yaml:"console"`
}

// RedisConfig is used to configure redis
type RedisConfig struct {
	Addr         string `yaml:"address"`
	Password     string `yaml:"password"`
	Db           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool-size"`
	MinIdleConns int    `yaml:"min-idle-conns"`
	IdleTimeout  int    `yaml:"idle-timeout"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
}

// MonitorConfig 信号监控循环的配置
type MonitorConfig struct {
	Interval      time.Duration `yaml:"interval"`       // 每轮监控间隔，例如 5s
	FeedTimeout   time.Duration `yaml:"feed-timeout"`   // 单次行情请求超时
	ExpireMaxAge  time.Duration `yaml:"expire-max-age"` // 已完结信号的最长保留时间
	CleanInterval time.Duration `yaml:"clean-interval"` // 过期清理周期
	SimulateOnly  bool          `yaml:"simulate-only"`  // 不请求真实行情，仅用随机游走模拟
}

// CategoryConfig 每个信号分类的自动生成配置
type CategoryConfig struct {
	Interval      time.Duration `yaml:"interval"`       // 自动生成周期
	Universe      []string      `yaml:"universe"`       // 该分类扫描的交易对
	MarketKind    string        `yaml:"market-kind"`    // spot / swap
	MinConfidence float64       `yaml:"min-confidence"` // 最低置信度门槛
	Enabled       bool          `yaml:"enabled"`        // 启动时是否开启自动生成
}

type OkxConfig struct {
	Simulated bool `yaml:"simulated"` // 使用模拟盘行情头
}

type Config struct {
	AppName      string `yaml:"app_name"`
	Listen       string `yaml:"listen"`
	Mode         string `yaml:"mode"`
	Language     string `yaml:"language"`
	MaxPingCount int    `yaml:"max-ping-count"`

	Okx        OkxConfig `yaml:"okx"`
	Db         `yaml:"database"`
	Log        LogConfig                 `yaml:"log"`
	Redis      RedisConfig               `yaml:"redis"`
	Kafka      KafkaConfig               `yaml:"kafka"`
	Monitor    MonitorConfig             `yaml:"monitor"`
	Categories map[string]CategoryConfig `yaml:"categories"`
}

var AppConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Read config file error %w", err)
	}
	if err := yaml.Unmarshal(data, &AppConfig); err != nil {
		return fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	return nil
}
