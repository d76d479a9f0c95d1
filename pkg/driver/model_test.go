package driver

import "github.com/dbehnke/afhds3d/pkg/protocol"

// fakeModel is a minimal, mutable Model implementation for tests.
type fakeModel struct {
	phyMode        protocol.PhyMode
	emiStandard    byte
	isTwoWay       bool
	telemetryOn    bool
	failsafeMode   protocol.FailsafeMode
	channelsStart  int
	channelsCount  int
	requestedMode  UserMode
	channels       [protocol.MaxChannels]int16
	failsafeValues [protocol.MaxChannels]int16
}

func newFakeModel() *fakeModel {
	return &fakeModel{phyMode: protocol.ClassicFLCR1_18CH, channelsCount: 8}
}

func (m *fakeModel) PhyMode() protocol.PhyMode            { return m.phyMode }
func (m *fakeModel) EMIStandard() byte                    { return m.emiStandard }
func (m *fakeModel) IsTwoWay() bool                       { return m.isTwoWay }
func (m *fakeModel) TelemetryEnabled() bool                { return m.telemetryOn }
func (m *fakeModel) FailsafeMode() protocol.FailsafeMode  { return m.failsafeMode }
func (m *fakeModel) ChannelsStart() int                   { return m.channelsStart }
func (m *fakeModel) ChannelsCount() int                   { return m.channelsCount }
func (m *fakeModel) RequestedMode() UserMode              { return m.requestedMode }
func (m *fakeModel) SetRequestedMode(mode UserMode)        { m.requestedMode = mode }
func (m *fakeModel) ChannelValue(ch int) int16 {
	if ch < 0 || ch >= len(m.channels) {
		return 0
	}
	return m.channels[ch]
}
func (m *fakeModel) FailsafeValue(ch int) int16 {
	if ch < 0 || ch >= len(m.failsafeValues) {
		return 0
	}
	return m.failsafeValues[ch]
}
