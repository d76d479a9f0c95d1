package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the application configuration: the ambient stack (logging,
// metrics, telemetry store, status server) plus one ModuleConfig per
// module slot the driver registry binds at startup.
type Config struct {
	Logging   LoggingConfig           `mapstructure:"logging"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
	Telemetry TelemetryStoreConfig    `mapstructure:"telemetry"`
	Status    StatusConfig            `mapstructure:"status"`
	Modules   map[string]ModuleConfig `mapstructure:"modules"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig holds Prometheus metrics configuration.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// TelemetryStoreConfig configures the SQLite-backed telemetry sink.
type TelemetryStoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// StatusConfig configures the live WebSocket status server.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// ModuleConfig is one module slot's static configuration: PHY mode,
// channel mapping and failsafe policy, the pieces C6/C7 need to build
// outbound frames. Live RC channel values are not part of this
// file-loaded shape; NewModuleModel wraps a ModuleConfig into the
// concurrency-safe driver.Model the driver actually consults on tick.
type ModuleConfig struct {
	Slot             int     `mapstructure:"slot"`
	Enabled          bool    `mapstructure:"enabled"`
	Device           string  `mapstructure:"device"` // serial device path; empty selects the loopback transport
	PhyMode          string  `mapstructure:"phy_mode"`
	EMIStandard      int     `mapstructure:"emi_standard"`
	TwoWay           bool    `mapstructure:"two_way"`
	TelemetryEnabled bool    `mapstructure:"telemetry_enabled"`
	FailsafeMode     string  `mapstructure:"failsafe_mode"`
	ChannelsStart    int     `mapstructure:"channels_start"`
	ChannelsCount    int     `mapstructure:"channels_count"`
	FailsafeValues   []int16 `mapstructure:"failsafe_values"`
}

// Load reads configuration from file and environment variables, applies
// defaults, and validates the result.
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/afhds3d")
	}

	viper.SetEnvPrefix("AFHDS3")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no config file on disk, defaults stand
		} else if os.IsNotExist(err) {
			// explicitly named file missing, defaults stand
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.port", 9090)
	viper.SetDefault("metrics.prometheus.path", "/metrics")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "afhds3d.db")

	viper.SetDefault("status.enabled", false)
	viper.SetDefault("status.host", "0.0.0.0")
	viper.SetDefault("status.port", 8090)

	viper.SetDefault("modules.internal.slot", 0)
	viper.SetDefault("modules.internal.enabled", true)
	viper.SetDefault("modules.internal.phy_mode", "classic_flcr1_18ch")
	viper.SetDefault("modules.internal.failsafe_mode", "hold")
	viper.SetDefault("modules.internal.channels_start", 0)
	viper.SetDefault("modules.internal.channels_count", 8)
}
