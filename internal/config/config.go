// Package config holds the runtime configuration of the IOU ledger server.
// Values come from command line flags, IOU_* environment variables and an
// optional .env file, in that order of precedence.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Default configuration values.
const (
	DefaultLogLevel   = "info"
	DefaultHTTPAddr   = ":8080"
	DefaultStore      = StoreMemory
	DefaultKafkaTopic = "iou_recorded"
	EnvPrefix         = "IOU"
)

type Config struct {
	// LogLevel is one of debug, info, warn, error, fatal, panic.
	LogLevel string `mapstructure:"log-level"`

	// HTTPAddr is the listen address of the HTTP API.
	HTTPAddr string `mapstructure:"http-addr"`

	// Store selects the IOU log backend: memory or postgres.
	Store string `mapstructure:"store"`

	// DatabaseURL is the Postgres connection string, required when Store is
	// postgres.
	DatabaseURL string `mapstructure:"database-url"`

	// KafkaBrokers is a comma separated broker list. Event publishing is
	// disabled when empty.
	KafkaBrokers string `mapstructure:"kafka-brokers"`

	KafkaTopic string `mapstructure:"kafka-topic"`

	logger *logrus.Logger
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:   DefaultLogLevel,
		HTTPAddr:   DefaultHTTPAddr,
		Store:      DefaultStore,
		KafkaTopic: DefaultKafkaTopic,
	}
}

// Load reads envFile (if it exists) into the process environment, then
// unmarshals v on top of the defaults. v should already have its flags bound.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	def := NewDefaultConfig()
	v.SetDefault("log-level", def.LogLevel)
	v.SetDefault("http-addr", def.HTTPAddr)
	v.SetDefault("store", def.Store)
	v.SetDefault("database-url", def.DatabaseURL)
	v.SetDefault("kafka-brokers", def.KafkaBrokers)
	v.SetDefault("kafka-topic", def.KafkaTopic)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	conf := def
	if err := v.Unmarshal(conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database-url is required for the postgres store")
		}
	default:
		return errors.New("store must be memory or postgres")
	}
	return nil
}

// Brokers splits KafkaBrokers, dropping empty entries.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Logger returns the process logger, creating it on first use.
func (c *Config) Logger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger
}

func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}
