package config

import (
	"fmt"
	"strings"

	"github.com/dbehnke/afhds3d/pkg/driver"
	"github.com/dbehnke/afhds3d/pkg/protocol"
)

// validate validates the configuration.
func validate(cfg *Config) error {
	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		if cfg.Metrics.Prometheus.Port <= 0 || cfg.Metrics.Prometheus.Port > 65535 {
			return fmt.Errorf("metrics.prometheus.port must be between 1 and 65535")
		}
	}

	if cfg.Status.Enabled {
		if cfg.Status.Port <= 0 || cfg.Status.Port > 65535 {
			return fmt.Errorf("status.port must be between 1 and 65535")
		}
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DSN == "" {
		return fmt.Errorf("telemetry.dsn is required when telemetry is enabled")
	}

	for name, mod := range cfg.Modules {
		if !mod.Enabled {
			continue
		}

		if mod.Slot != driver.SlotInternal && mod.Slot != driver.SlotExternal {
			return fmt.Errorf("module %s: slot must be 0 (internal) or 1 (external)", name)
		}
		if mod.Slot == driver.SlotExternal && mod.Device == "" {
			return fmt.Errorf("module %s: device is required for the external module slot", name)
		}

		if _, err := parsePhyMode(mod.PhyMode); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
		if _, err := parseFailsafeMode(mod.FailsafeMode); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}

		if mod.ChannelsCount <= 0 || mod.ChannelsCount > protocol.MaxChannels {
			return fmt.Errorf("module %s: channels_count must be between 1 and %d", name, protocol.MaxChannels)
		}
		if mod.ChannelsStart < 0 || mod.ChannelsStart+mod.ChannelsCount > protocol.MaxChannels {
			return fmt.Errorf("module %s: channels_start+channels_count must not exceed %d", name, protocol.MaxChannels)
		}
		if len(mod.FailsafeValues) > protocol.MaxChannels {
			return fmt.Errorf("module %s: failsafe_values has more than %d entries", name, protocol.MaxChannels)
		}
	}

	return nil
}

// parsePhyMode maps a config file's phy_mode string onto its wire enum.
func parsePhyMode(s string) (protocol.PhyMode, error) {
	switch strings.ToLower(s) {
	case "classic_flcr1_18ch":
		return protocol.ClassicFLCR1_18CH, nil
	case "classic_flcr6_10ch":
		return protocol.ClassicFLCR6_10CH, nil
	case "routine_flcr1_18ch":
		return protocol.RoutineFLCR1_18CH, nil
	case "routine_flcr6_8ch":
		return protocol.RoutineFLCR6_8CH, nil
	case "routine_lora_12ch":
		return protocol.RoutineLORA_12CH, nil
	default:
		return 0, fmt.Errorf("unknown phy_mode %q", s)
	}
}

// parseFailsafeMode maps a config file's failsafe_mode string onto its
// wire enum. An empty string defaults to NO_PULSES.
func parseFailsafeMode(s string) (protocol.FailsafeMode, error) {
	switch strings.ToLower(s) {
	case "", "no_pulses":
		return protocol.FailsafeNoPulses, nil
	case "hold":
		return protocol.FailsafeHold, nil
	case "custom":
		return protocol.FailsafeCustom, nil
	default:
		return 0, fmt.Errorf("unknown failsafe_mode %q", s)
	}
}
