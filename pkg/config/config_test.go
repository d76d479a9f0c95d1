package config

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/dbehnke/afhds3d/pkg/driver"
	"github.com/dbehnke/afhds3d/pkg/protocol"
)

func TestLoad_UsesDefaults_WhenNoFile(t *testing.T) {
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Logging.Level == "" {
		t.Errorf("expected Logging.Level to be set (default info)")
	}
	if cfg.Metrics.Prometheus.Port != 9090 {
		t.Errorf("expected Prometheus.Port default 9090, got %d", cfg.Metrics.Prometheus.Port)
	}
	mod, ok := cfg.Modules["internal"]
	if !ok {
		t.Fatalf("expected default modules.internal entry")
	}
	if !mod.Enabled {
		t.Errorf("expected modules.internal.enabled default true")
	}
	if mod.ChannelsCount != 8 {
		t.Errorf("expected modules.internal.channels_count default 8, got %d", mod.ChannelsCount)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Run("invalid prometheus port when enabled", func(t *testing.T) {
		cfg := &Config{Metrics: MetricsConfig{Enabled: true, Prometheus: PrometheusConfig{Enabled: true, Port: 70000}}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for prometheus.port out of range")
		}
	})

	t.Run("telemetry enabled without dsn", func(t *testing.T) {
		cfg := &Config{Telemetry: TelemetryStoreConfig{Enabled: true}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for missing telemetry.dsn")
		}
	})

	t.Run("unknown phy_mode", func(t *testing.T) {
		cfg := &Config{Modules: map[string]ModuleConfig{
			"internal": {Enabled: true, Slot: driver.SlotInternal, PhyMode: "bogus", FailsafeMode: "hold", ChannelsCount: 8},
		}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for unknown phy_mode")
		}
	})

	t.Run("external slot missing device", func(t *testing.T) {
		cfg := &Config{Modules: map[string]ModuleConfig{
			"external": {Enabled: true, Slot: driver.SlotExternal, PhyMode: "classic_flcr1_18ch", FailsafeMode: "hold", ChannelsCount: 8},
		}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for external module without a device")
		}
	})

	t.Run("channels window exceeds MaxChannels", func(t *testing.T) {
		cfg := &Config{Modules: map[string]ModuleConfig{
			"internal": {
				Enabled: true, Slot: driver.SlotInternal, PhyMode: "classic_flcr1_18ch", FailsafeMode: "hold",
				ChannelsStart: 10, ChannelsCount: protocol.MaxChannels,
			},
		}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for channels_start+channels_count exceeding MaxChannels")
		}
	})
}
