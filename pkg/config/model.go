package config

import (
	"sync"

	"github.com/dbehnke/afhds3d/pkg/driver"
	"github.com/dbehnke/afhds3d/pkg/protocol"
)

// ModuleModel is the concurrency-safe driver.Model the driver consults
// every tick. PHY mode, failsafe policy and channel mapping are fixed at
// load time from a validated ModuleConfig; live channel values and the
// requested user mode are mutated at runtime by whatever feeds the
// mixer and bind button, guarded by mu.
type ModuleModel struct {
	mu sync.RWMutex

	phyMode          protocol.PhyMode
	emiStandard      byte
	twoWay           bool
	telemetryEnabled bool
	failsafeMode     protocol.FailsafeMode
	channelsStart    int
	channelsCount    int

	requestedMode  driver.UserMode
	channels       [protocol.MaxChannels]int16
	failsafeValues [protocol.MaxChannels]int16
}

// NewModuleModel builds a ModuleModel from a validated ModuleConfig.
func NewModuleModel(cfg ModuleConfig) (*ModuleModel, error) {
	phyMode, err := parsePhyMode(cfg.PhyMode)
	if err != nil {
		return nil, err
	}
	failsafeMode, err := parseFailsafeMode(cfg.FailsafeMode)
	if err != nil {
		return nil, err
	}

	m := &ModuleModel{
		phyMode:          phyMode,
		emiStandard:      byte(cfg.EMIStandard),
		twoWay:           cfg.TwoWay,
		telemetryEnabled: cfg.TelemetryEnabled,
		failsafeMode:     failsafeMode,
		channelsStart:    cfg.ChannelsStart,
		channelsCount:    cfg.ChannelsCount,
	}
	for i, v := range cfg.FailsafeValues {
		if i >= len(m.failsafeValues) {
			break
		}
		m.failsafeValues[i] = v
	}
	return m, nil
}

func (m *ModuleModel) PhyMode() protocol.PhyMode           { return m.phyMode }
func (m *ModuleModel) EMIStandard() byte                   { return m.emiStandard }
func (m *ModuleModel) IsTwoWay() bool                       { return m.twoWay }
func (m *ModuleModel) TelemetryEnabled() bool                { return m.telemetryEnabled }
func (m *ModuleModel) FailsafeMode() protocol.FailsafeMode  { return m.failsafeMode }
func (m *ModuleModel) ChannelsStart() int                   { return m.channelsStart }
func (m *ModuleModel) ChannelsCount() int                   { return m.channelsCount }

// RequestedMode returns the host-requested operating mode.
func (m *ModuleModel) RequestedMode() driver.UserMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestedMode
}

// SetRequestedMode changes the host-requested operating mode (normal run
// vs bind), read by the driver's state machine on the next tick.
func (m *ModuleModel) SetRequestedMode(mode driver.UserMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestedMode = mode
}

// ChannelValue returns the live mixer value for a channel, or 0 if the
// channel index is out of range.
func (m *ModuleModel) ChannelValue(channel int) int16 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if channel < 0 || channel >= len(m.channels) {
		return 0
	}
	return m.channels[channel]
}

// SetChannelValue updates one live RC channel value, as fed by the
// mixer/input layer outside this package's scope.
func (m *ModuleModel) SetChannelValue(channel int, value int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if channel < 0 || channel >= len(m.channels) {
		return
	}
	m.channels[channel] = value
}

// FailsafeValue returns the configured CUSTOM failsafe value for a
// channel, or 0 if the channel index is out of range.
func (m *ModuleModel) FailsafeValue(channel int) int16 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if channel < 0 || channel >= len(m.failsafeValues) {
		return 0
	}
	return m.failsafeValues[channel]
}

// SetFailsafeValue updates one channel's CUSTOM failsafe value.
func (m *ModuleModel) SetFailsafeValue(channel int, value int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if channel < 0 || channel >= len(m.failsafeValues) {
		return
	}
	m.failsafeValues[channel] = value
}
