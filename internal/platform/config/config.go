package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"

	SinkCloudWatch = "cloudwatch"
	SinkRedis      = "redis"
	SinkLog        = "log"
	SinkNone       = "none"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig 定义了HTTP服务相关的配置
type ServerConfig struct {
	Mode            string          `mapstructure:"mode"`
	Port            int             `mapstructure:"port"`
	Cors            CorsConfig      `mapstructure:"cors"`
	RateLimit       RateLimitConfig `mapstructure:"rateLimit"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdownTimeout"`
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// RateLimitConfig 限制单个IP提交联系表单的频率
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	PerSec  float64 `mapstructure:"perSecond"`
	Burst   int     `mapstructure:"burst"`
}

// DatabaseConfig 定义了关系型数据库的连接配置
type DatabaseConfig struct {
	Driver       string        `mapstructure:"driver"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	SSLMode      string        `mapstructure:"sslMode"`
	SqlitePath   string        `mapstructure:"sqlitePath"`
	MaxOpenConns int           `mapstructure:"maxOpenConns"`
	MaxIdleConns int           `mapstructure:"maxIdleConns"`
	ConnLifetime time.Duration `mapstructure:"connLifetime"`
	AutoMigrate  bool          `mapstructure:"autoMigrate"`
	// ProbeInterval 是后台连通性检查的间隔，0 表示只在启动时探测一次
	ProbeInterval time.Duration `mapstructure:"probeInterval"`
}

// DSN 返回 postgres 驱动使用的连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// StorageConfig 定义了对象存储（S3）的配置
type StorageConfig struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	// Endpoint 和 PublicBaseURL 用于 MinIO 等 S3 兼容服务
	Endpoint      string `mapstructure:"endpoint"`
	PublicBaseURL string `mapstructure:"publicBaseUrl"`
	MaxImageBytes int64  `mapstructure:"maxImageBytes"`
}

// TelemetryConfig 定义了指标上报的配置
type TelemetryConfig struct {
	Sink            string        `mapstructure:"sink"`
	Namespace       string        `mapstructure:"namespace"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"accessKeyId"`
	SecretAccessKey string        `mapstructure:"secretAccessKey"`
	QueueSize       int           `mapstructure:"queueSize"`
	FlushTimeout    time.Duration `mapstructure:"flushTimeout"`
	Redis           RedisConfig   `mapstructure:"redis"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// envBindings 把约定俗成的环境变量名映射到配置键上。
// 除此之外，任何配置键都可以用 SECTION_KEY 的形式覆盖（例如 SERVER_PORT）。
var envBindings = map[string][]string{
	"server.port":               {"PORT"},
	"storage.region":            {"AWS_REGION"},
	"storage.bucket":            {"S3_BUCKET_NAME"},
	"storage.accessKeyId":       {"AWS_ACCESS_KEY_ID"},
	"storage.secretAccessKey":   {"AWS_SECRET_ACCESS_KEY"},
	"storage.endpoint":          {"S3_ENDPOINT"},
	"telemetry.region":          {"CLOUDWATCH_REGION", "AWS_REGION"},
	"telemetry.accessKeyId":     {"AWS_ACCESS_KEY_ID"},
	"telemetry.secretAccessKey": {"AWS_SECRET_ACCESS_KEY"},
	"telemetry.sink":            {"METRICS_SINK"},
	"telemetry.redis.address":   {"REDIS_ADDR"},
	"telemetry.redis.password":  {"REDIS_PASSWORD"},
	"database.driver":           {"DB_DRIVER"},
	"database.host":             {"DB_HOST"},
	"database.port":             {"DB_PORT"},
	"database.user":             {"DB_USER"},
	"database.password":         {"DB_PASSWORD"},
	"database.name":             {"DB_NAME"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.perSecond", 1.0)
	v.SetDefault("server.rateLimit.burst", 5)
	v.SetDefault("server.shutdownTimeout", "15s")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.sqlitePath", "contact.db")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connLifetime", "30m")
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("database.probeInterval", "30s")

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.maxImageBytes", 5<<20)

	v.SetDefault("telemetry.sink", SinkCloudWatch)
	v.SetDefault("telemetry.namespace", "ContactFormApp")
	v.SetDefault("telemetry.region", "us-east-1")
	v.SetDefault("telemetry.queueSize", 1024)
	v.SetDefault("telemetry.flushTimeout", "5s")
	v.SetDefault("telemetry.redis.address", "localhost:6379")
}

// LoadConfig 负责加载 .env、config.yaml 和环境变量，并解析为 Config。
// 配置文件是可选的；找不到时只使用默认值和环境变量。
func LoadConfig(searchPaths ...string) (*Config, error) {
	// .env 不存在是正常情况
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{"./config", "."}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查各组件所需的配置项是否齐全。
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 无效: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			return errors.New("postgres 需要配置 database.host / database.name / database.user (DB_HOST / DB_NAME / DB_USER)")
		}
	case DriverSqlite:
		if c.Database.SqlitePath == "" {
			return errors.New("sqlite 需要配置 database.sqlitePath")
		}
	default:
		return fmt.Errorf("未知的数据库驱动: %q", c.Database.Driver)
	}

	if c.Storage.Bucket == "" {
		return errors.New("需要配置 storage.bucket (S3_BUCKET_NAME)")
	}
	if c.Storage.Region == "" {
		return errors.New("需要配置 storage.region (AWS_REGION)")
	}
	if c.Storage.MaxImageBytes <= 0 {
		return fmt.Errorf("storage.maxImageBytes 无效: %d", c.Storage.MaxImageBytes)
	}

	switch c.Telemetry.Sink {
	case SinkCloudWatch:
		if c.Telemetry.Region == "" {
			return errors.New("cloudwatch 需要配置 telemetry.region (CLOUDWATCH_REGION)")
		}
	case SinkRedis:
		if c.Telemetry.Redis.Address == "" {
			return errors.New("redis 需要配置 telemetry.redis.address (REDIS_ADDR)")
		}
	case SinkLog, SinkNone:
	default:
		return fmt.Errorf("未知的指标输出: %q", c.Telemetry.Sink)
	}
	if c.Telemetry.QueueSize <= 0 {
		return fmt.Errorf("telemetry.queueSize 无效: %d", c.Telemetry.QueueSize)
	}

	return nil
}
