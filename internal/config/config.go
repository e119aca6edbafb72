package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for ScholarIQ.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

type AppConfig struct {
	Name      string `mapstructure:"name"`
	Env       string `mapstructure:"env"` // development, staging, production, test
	Debug     bool   `mapstructure:"debug"`
	SecretKey string `mapstructure:"secret_key"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Workers         int           `mapstructure:"workers"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// URL selects the backend by scheme: sqlite:// (default) or postgres://.
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // DEBUG, INFO, WARN, ERROR
	Format string `mapstructure:"format"` // json, text
	File   string `mapstructure:"file"`   // empty disables the file sink
}

type UploadConfig struct {
	Dir     string `mapstructure:"dir"`
	MaxSize int64  `mapstructure:"max_size"` // bytes
}

// RedisConfig configures the optional analysis result cache.
// An empty Host disables caching entirely.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
}

// BootstrapConfig holds the filesystem layout the setup orchestrator manages.
type BootstrapConfig struct {
	EnvDir       string   `mapstructure:"env_dir"`
	Manifest     string   `mapstructure:"manifest"`
	DevManifest  string   `mapstructure:"dev_manifest"`
	EnvTemplate  string   `mapstructure:"env_template"`
	EnvFile      string   `mapstructure:"env_file"`
	MinGoVersion string   `mapstructure:"min_go_version"`
	WatchDirs    []string `mapstructure:"watch_dirs"`
}

// envBindings maps viper keys to the flat environment variable names the
// original .env file uses. Bound explicitly so DATABASE_URL works without a
// SCHOLARIQ_ prefix.
var envBindings = map[string]string{
	"app.name":                 "APP_NAME",
	"app.env":                  "APP_ENV",
	"app.debug":                "DEBUG",
	"app.secret_key":           "SECRET_KEY",
	"server.host":              "HOST",
	"server.port":              "PORT",
	"server.workers":           "WORKERS",
	"database.url":             "DATABASE_URL",
	"log.level":                "LOG_LEVEL",
	"log.format":               "LOG_FORMAT",
	"log.file":                 "LOG_FILE",
	"upload.dir":               "UPLOAD_DIR",
	"upload.max_size":          "MAX_UPLOAD_SIZE",
	"redis.host":               "REDIS_HOST",
	"redis.port":               "REDIS_PORT",
	"redis.password":           "REDIS_PASSWORD",
	"redis.db":                 "REDIS_DB",
	"telemetry.otlp_endpoint":  "OTLP_ENDPOINT",
	"telemetry.otlp_insecure":  "OTLP_INSECURE",
	"telemetry.service_name":   "OTEL_SERVICE_NAME",
	"bootstrap.env_dir":        "DEVENV_DIR",
	"bootstrap.min_go_version": "MIN_GO_VERSION",
}

// Load reads config from the optional .env file at path, then overlays real
// environment variables. Pass an empty path to load defaults plus the
// process environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	for key, env := range envBindings {
		// BindEnv only errors on empty input.
		_ = v.BindEnv(key, env)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", path, err)
		}
		// Keys in a dotenv file arrive flat (DATABASE_URL); fold them into
		// the structured keys through the same binding table. Real process
		// environment variables win over file entries.
		for key, env := range envBindings {
			if v.IsSet(env) && !isEnvSet(env) {
				v.Set(key, v.Get(env))
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

func isEnvSet(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ScholarIQ")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.secret_key", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.workers", 1)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.url", "sqlite://scholariq.db")

	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("upload.dir", "data/uploads")
	v.SetDefault("upload.max_size", int64(10*1024*1024))

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "scholariq")

	v.SetDefault("bootstrap.env_dir", ".devenv")
	v.SetDefault("bootstrap.manifest", "tools.txt")
	v.SetDefault("bootstrap.dev_manifest", "tools-dev.txt")
	v.SetDefault("bootstrap.env_template", ".env.example")
	v.SetDefault("bootstrap.env_file", ".env")
	v.SetDefault("bootstrap.min_go_version", "1.22")
	v.SetDefault("bootstrap.watch_dirs", []string{"cmd", "internal", "static"})
}

// IsProduction reports whether the app runs with APP_ENV=production.
// Destructive database operations are refused in that mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}
