// Package config wisefido-directory 配置：默认值 < 配置文件(YAML) < 环境变量
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
	MaxIdle  int    `mapstructure:"max_idle"`
	Table    string `mapstructure:"table"`
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// MQTTConfig MQTT 配置（数据集变更通知，默认禁用）
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
	QoS      byte   `mapstructure:"qos"`
}

// DirectoryConfig 目录核心参数
type DirectoryConfig struct {
	AbbrevOverridesFile string `mapstructure:"abbrev_overrides_file"`
	AutocompleteLimit   int    `mapstructure:"autocomplete_limit"`
	ResultsPerPage      int    `mapstructure:"results_per_page"`
	LinkTemplate        string `mapstructure:"link_template"`
}

// RemoteConfig 远程文件拉取
type RemoteConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	MaxBytes   int64         `mapstructure:"max_bytes"`
}

// Config wisefido-directory（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	DBEnabled bool           `mapstructure:"db_enabled"`
	Database  DatabaseConfig `mapstructure:"db"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Log       struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Remote    RemoteConfig    `mapstructure:"remote"`
}

// 配置键 -> 环境变量（与其它 wisefido 服务保持同名）
var envBindings = map[string]string{
	"http.addr":                       "HTTP_ADDR",
	"db_enabled":                      "DB_ENABLED",
	"db.host":                         "DB_HOST",
	"db.port":                         "DB_PORT",
	"db.user":                         "DB_USER",
	"db.password":                     "DB_PASSWORD",
	"db.name":                         "DB_NAME",
	"db.sslmode":                      "DB_SSLMODE",
	"db.table":                        "DB_SESSION_TABLE",
	"redis.enabled":                   "REDIS_ENABLED",
	"redis.addr":                      "REDIS_ADDR",
	"redis.password":                  "REDIS_PASSWORD",
	"redis.db":                        "REDIS_DB",
	"redis.session_ttl":               "SESSION_TTL",
	"log.level":                       "LOG_LEVEL",
	"log.format":                      "LOG_FORMAT",
	"mqtt.enabled":                    "MQTT_ENABLED",
	"mqtt.broker":                     "MQTT_BROKER",
	"mqtt.client_id":                  "MQTT_CLIENT_ID",
	"mqtt.username":                   "MQTT_USERNAME",
	"mqtt.password":                   "MQTT_PASSWORD",
	"mqtt.topic":                      "MQTT_TOPIC",
	"directory.abbrev_overrides_file": "ABBREV_OVERRIDES_FILE",
	"directory.autocomplete_limit":    "AUTOCOMPLETE_LIMIT",
	"directory.results_per_page":      "RESULTS_PER_PAGE",
	"directory.link_template":         "ROOM_LINK_TEMPLATE",
	"remote.timeout":                  "REMOTE_TIMEOUT",
	"remote.retry_count":              "REMOTE_RETRY_COUNT",
	"remote.max_bytes":                "REMOTE_MAX_BYTES",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db_enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "owlrd")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.table", "directory_sessions")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", "168h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "wisefido-directory")
	v.SetDefault("mqtt.topic", "wisefido/directory/events")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("directory.autocomplete_limit", 5000)
	v.SetDefault("directory.results_per_page", 50)
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("remote.retry_count", 2)
	v.SetDefault("remote.max_bytes", 32<<20)
}

// Load 读取配置；path 为空时只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	var problems []string
	if c.HTTP.Addr == "" {
		problems = append(problems, "http.addr is required")
	}
	if c.Directory.AutocompleteLimit <= 0 {
		problems = append(problems, "directory.autocomplete_limit must be positive")
	}
	if c.Directory.ResultsPerPage <= 0 {
		problems = append(problems, "directory.results_per_page must be positive")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		problems = append(problems, "mqtt.broker is required when mqtt is enabled")
	}
	if c.MQTT.QoS > 2 {
		problems = append(problems, "mqtt.qos must be 0, 1 or 2")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be json or console", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
