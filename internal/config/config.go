package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config represents the application configuration.
type Config struct {
	GRPCAddr         string   `mapstructure:"grpc_addr"`
	MetricsPort      int      `mapstructure:"metrics_port"`
	KafkaBrokers     []string `mapstructure:"kafka_brokers"`
	KafkaTopic       string   `mapstructure:"kafka_topic"`
	SnapshotInterval uint64   `mapstructure:"snapshot_interval"`
	SnapshotPath     string   `mapstructure:"snapshot_path"`
	LogLevel         string   `mapstructure:"log_level"`
}

var (
	config *Config
	once   sync.Once
)

// LoadConfig loads the configuration from the specified directory,
// falling back to defaults and environment variables if no config
// file is present.
func LoadConfig(configPath string) (*Config, error) {
	var err error

	once.Do(func() {
		config = &Config{}
		setDefaults()

		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if configPath != "" {
			v.AddConfigPath(configPath)
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
			v.AddConfigPath("/etc/matchcore")
		}

		v.AutomaticEnv()
		v.SetEnvPrefix("MATCHCORE")
		for _, key := range []string{"grpc_addr", "metrics_port", "kafka_brokers", "kafka_topic", "snapshot_interval", "snapshot_path", "log_level"} {
			_ = v.BindEnv(key)
		}

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config file: %w", readErr)
				return
			}
			// Config file not found; defaults and environment variables stand.
		}

		if unmarshalErr := v.Unmarshal(config); unmarshalErr != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
			return
		}
	})

	return config, err
}

// GetConfig returns the process-wide configuration, loading it with
// defaults on first access if LoadConfig has not yet run.
func GetConfig() *Config {
	if config == nil {
		_, err := LoadConfig("")
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	}
	return config
}

// setDefaults sets the documented defaults.
func setDefaults() {
	config.GRPCAddr = "0.0.0.0:9090"
	config.MetricsPort = 9091
	config.KafkaBrokers = []string{"localhost:9092"}
	config.KafkaTopic = "trades"
	config.SnapshotInterval = 10000
	config.SnapshotPath = "./snapshots"
	config.LogLevel = "info"
}

// InitLogger builds a *zap.Logger per cfg.LogLevel.
func InitLogger(cfg *Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch cfg.LogLevel {
	case "debug":
		logger, err = zap.NewDevelopment()
	case "info", "warn", "error":
		zcfg := zap.NewProductionConfig()
		zcfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
		if err == nil {
			logger, err = zcfg.Build()
		}
	default:
		logger, err = zap.NewProduction()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
