package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量覆盖前缀：CANTEEN_DATABASE_DSN -> database.dsn
const EnvPrefix = "CANTEEN"

type Config struct {
	HTTP struct {
		Addr           string   `mapstructure:"addr"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
		Debug          bool     `mapstructure:"debug"`
	} `mapstructure:"http"`
	Database struct {
		Driver                string `mapstructure:"driver"`
		DSN                   string `mapstructure:"dsn"`
		Host                  string `mapstructure:"host"`
		Port                  int    `mapstructure:"port"`
		User                  string `mapstructure:"user"`
		Password              string `mapstructure:"password"`
		Name                  string `mapstructure:"name"`
		MaxOpen               int    `mapstructure:"max_open"`
		MaxIdle               int    `mapstructure:"max_idle"`
		ConnMaxLifetimeSecond int    `mapstructure:"conn_max_lifetime_seconds"`
		OpTimeoutMS           int    `mapstructure:"op_timeout_ms"`
		LogLevel              string `mapstructure:"log_level"`
		AutoMigrate           bool   `mapstructure:"auto_migrate"`
	} `mapstructure:"database"`
	Redis struct {
		Enable   bool   `mapstructure:"enable"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers       []string `mapstructure:"brokers"`
		OpLogTopic    string   `mapstructure:"op_log_topic"`
		EventTopic    string   `mapstructure:"event_topic"`
		ConsumerGroup string   `mapstructure:"consumer_group"`
		OpLogWorkers  int      `mapstructure:"op_log_workers"`
	} `mapstructure:"kafka"`
	Etcd struct {
		Endpoints   []string `mapstructure:"endpoints"`
		TTL         int      `mapstructure:"ttl"`
		ServiceName string   `mapstructure:"service_name"`
	} `mapstructure:"etcd"`
	JWT struct {
		Secret string `mapstructure:"secret"`
		Issuer string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	AppMeta struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
	} `mapstructure:"app_meta"`
	OTel struct {
		Endpoint     string  `mapstructure:"endpoint"`
		Insecure     bool    `mapstructure:"insecure"`
		SamplerRatio float64 `mapstructure:"sampler_ratio"`
		Enable       bool    `mapstructure:"enable"`
	} `mapstructure:"otel"`
}

// OpTimeout 单次数据库操作上限
func (c *Config) OpTimeout() time.Duration {
	return time.Duration(c.Database.OpTimeoutMS) * time.Millisecond
}

func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.Database.ConnMaxLifetimeSecond) * time.Second
}

// 没有默认值、只可能来自文件或环境变量的键，需要显式绑定才能被 AutomaticEnv 覆盖
var envOnlyKeys = []string{
	"database.dsn", "database.host", "database.user", "database.password", "database.name",
	"redis.addr", "redis.password", "kafka.brokers", "etcd.endpoints",
	"jwt.secret", "otel.endpoint",
}

// Load path 为空时只读默认值与环境变量；工作目录下存在 .env 时先行加载
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envOnlyKeys {
		_ = v.BindEnv(k)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	// 默认值
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.conn_max_lifetime_seconds", 7200)
	v.SetDefault("database.op_timeout_ms", 5000)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("kafka.op_log_topic", "canteen.oplog")
	v.SetDefault("kafka.event_topic", "canteen.events")
	v.SetDefault("kafka.consumer_group", "canteen-oplog")
	v.SetDefault("kafka.op_log_workers", 2)
	v.SetDefault("etcd.ttl", 10)
	v.SetDefault("etcd.service_name", "canteen-admin")
	v.SetDefault("jwt.issuer", "canteen")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("app_meta.name", "CanteenAdmin")
	v.SetDefault("app_meta.version", "v1")
	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.sampler_ratio", 1.0)
	v.SetDefault("otel.insecure", true)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ===== 逻辑校验 =====
func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr required")
	}
	switch c.Database.Driver {
	case "mysql":
		if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.Name == "") {
			return errors.New("database.dsn or database.host + database.name required")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn required for postgres")
		}
	default:
		return fmt.Errorf("database.driver %q not supported (mysql|postgres)", c.Database.Driver)
	}
	if c.Database.OpTimeoutMS <= 0 {
		return errors.New("database.op_timeout_ms must >0")
	}
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("jwt.secret too short (>=16)")
	}
	if c.Redis.Enable && c.Redis.Addr == "" {
		return errors.New("redis.addr required when redis.enable=true")
	}
	if c.OTel.Enable {
		if c.OTel.Endpoint == "" {
			return errors.New("otel.endpoint required when otel.enable=true")
		}
		if c.OTel.SamplerRatio < 0 || c.OTel.SamplerRatio > 1 {
			return errors.New("otel.sampler_ratio must be in [0,1]")
		}
	}
	return nil
}
