package config

import (
	"sync"
	"testing"

	"github.com/dbehnke/afhds3d/pkg/protocol"
)

func TestNewModuleModelFromConfig(t *testing.T) {
	cfg := ModuleConfig{
		PhyMode:          "routine_flcr6_8ch",
		EMIStandard:      2,
		TwoWay:           true,
		TelemetryEnabled: true,
		FailsafeMode:     "custom",
		ChannelsStart:    0,
		ChannelsCount:    8,
		FailsafeValues:   []int16{10, -10, 0},
	}

	m, err := NewModuleModel(cfg)
	if err != nil {
		t.Fatalf("NewModuleModel: %v", err)
	}
	if m.PhyMode() != protocol.RoutineFLCR6_8CH {
		t.Errorf("PhyMode = %v, want RoutineFLCR6_8CH", m.PhyMode())
	}
	if m.EMIStandard() != 2 {
		t.Errorf("EMIStandard = %d, want 2", m.EMIStandard())
	}
	if !m.IsTwoWay() || !m.TelemetryEnabled() {
		t.Errorf("expected IsTwoWay and TelemetryEnabled true")
	}
	if m.FailsafeMode() != protocol.FailsafeCustom {
		t.Errorf("FailsafeMode = %v, want FailsafeCustom", m.FailsafeMode())
	}
	if m.FailsafeValue(0) != 10 || m.FailsafeValue(1) != -10 {
		t.Errorf("failsafe values not loaded correctly: %d %d", m.FailsafeValue(0), m.FailsafeValue(1))
	}
	if m.FailsafeValue(5) != 0 {
		t.Errorf("expected zero value for unconfigured failsafe channel")
	}
}

func TestNewModuleModelRejectsUnknownEnums(t *testing.T) {
	if _, err := NewModuleModel(ModuleConfig{PhyMode: "nonsense"}); err == nil {
		t.Fatal("expected error for unknown phy_mode")
	}
	if _, err := NewModuleModel(ModuleConfig{PhyMode: "classic_flcr1_18ch", FailsafeMode: "nonsense"}); err == nil {
		t.Fatal("expected error for unknown failsafe_mode")
	}
}

func TestModuleModelChannelValueOutOfRange(t *testing.T) {
	m, err := NewModuleModel(ModuleConfig{PhyMode: "classic_flcr1_18ch"})
	if err != nil {
		t.Fatalf("NewModuleModel: %v", err)
	}
	if got := m.ChannelValue(-1); got != 0 {
		t.Errorf("ChannelValue(-1) = %d, want 0", got)
	}
	if got := m.ChannelValue(protocol.MaxChannels); got != 0 {
		t.Errorf("ChannelValue(out of range) = %d, want 0", got)
	}
}

func TestModuleModelSetChannelValueConcurrent(t *testing.T) {
	m, err := NewModuleModel(ModuleConfig{PhyMode: "classic_flcr1_18ch"})
	if err != nil {
		t.Fatalf("NewModuleModel: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int16) {
			defer wg.Done()
			m.SetChannelValue(0, v)
			_ = m.ChannelValue(0)
		}(int16(i))
	}
	wg.Wait()
}

func TestModuleModelRequestedMode(t *testing.T) {
	m, err := NewModuleModel(ModuleConfig{PhyMode: "classic_flcr1_18ch"})
	if err != nil {
		t.Fatalf("NewModuleModel: %v", err)
	}
	if m.RequestedMode() != 0 {
		t.Errorf("expected UserModeNormal default")
	}
	m.SetRequestedMode(1)
	if m.RequestedMode() != 1 {
		t.Errorf("expected requested mode update to stick")
	}
}
