package driver

import "github.com/dbehnke/afhds3d/pkg/protocol"

// scaleChannel converts a mixer channel value (-1024..1024) to its wire
// representation, clamped to the protocol's failsafe/channel bounds.
// Monotonic non-decreasing in x, as required by §8.
func scaleChannel(x int16) int16 {
	wire := int32(x) * 10
	if wire < int32(protocol.FailsafeMin) {
		return protocol.FailsafeMin
	}
	if wire > int32(protocol.FailsafeMax) {
		return protocol.FailsafeMax
	}
	return int16(wire)
}

// channelWindow returns the [start, last) range of absolute channel indices
// this module feeds live values for: channels_start through
// channels_start+8+channels_count, clamped to the protocol's channel cap.
func (d *Driver) channelWindow() (start, last int) {
	start = d.model.ChannelsStart()
	last = start + 8 + d.model.ChannelsCount()
	if last > protocol.MaxChannels {
		last = protocol.MaxChannels
	}
	return start, last
}

// liveChannelSamples builds a count-sample wire array, populating only the
// channel window (channels_start..channels_start+8+channels_count) from the
// model and leaving every other sample zero, matching sendChannelsData's
// buffer being pre-zeroed before the windowed fill loop.
func (d *Driver) liveChannelSamples(count int) []int16 {
	samples := make([]int16, count)
	start, last := d.channelWindow()
	if last > start+count {
		last = start + count
	}
	for ch := start; ch < last; ch++ {
		samples[ch-start] = scaleChannel(d.model.ChannelValue(ch))
	}
	return samples
}

// failsafeSamples builds a count-sample failsafe table, populating only the
// channel window per the per-channel policy in §4.6: CUSTOM scales the
// model's stored failsafe value, HOLD writes the keep-last sentinel,
// anything else scales the live channel value. Samples outside the window
// stay zero.
func (d *Driver) failsafeSamples(count int) []int16 {
	samples := make([]int16, count)
	mode := d.model.FailsafeMode()
	start, last := d.channelWindow()
	if last > start+count {
		last = start + count
	}
	for ch := start; ch < last; ch++ {
		switch mode {
		case protocol.FailsafeCustom:
			samples[ch-start] = scaleChannel(d.model.FailsafeValue(ch))
		case protocol.FailsafeHold:
			samples[ch-start] = protocol.FailsafeKeepLast
		default:
			samples[ch-start] = scaleChannel(d.model.ChannelValue(ch))
		}
	}
	return samples
}

// sendChannels emits the periodic channels frame (§4.7): REQ_SET_NO_RESP,
// header {CHANNELS, phyChannels}, followed by phyChannels LE samples.
func (d *Driver) sendChannels() {
	count := int(d.model.PhyMode().ChannelCount())
	payload := protocol.BuildChannelsPayload(protocol.ChannelsDataChannels, uint8(count), d.liveChannelSamples(count))
	d.sendRequest(protocol.ReqSetNoResp, protocol.CmdChannelsFailsafeData, payload)
}

// sendFailsafe emits the failsafe frame, choosing the unicast (two-way) or
// multicast (one-way) variant per §4.7. The multicast branch is taken
// whenever the model reports IsTwoWay()==false while the module is
// connected (SYNC_DONE); there is no separate one-way connected predicate.
func (d *Driver) sendFailsafe() {
	if d.model.IsTwoWay() {
		samples := d.failsafeSamples(MaxFailsafeChannels)
		payload := make([]byte, 0, 3+2*MaxFailsafeChannels)
		payload = append(payload, 0x11, 0x60, byte(2*MaxFailsafeChannels))
		for _, s := range samples {
			payload = append(payload, byte(uint16(s)), byte(uint16(s)>>8))
		}
		d.sendRequest(protocol.ReqSetExpectData, protocol.CmdSendCommand, payload)
		return
	}

	samples := d.failsafeSamples(protocol.MaxChannels)
	payload := protocol.BuildChannelsPayload(protocol.ChannelsDataFailsafe, uint8(protocol.MaxChannels), samples)
	d.sendRequest(protocol.ReqSetNoResp, protocol.CmdChannelsFailsafeData, payload)
}

// MaxFailsafeChannels is the fixed channel count carried by the unicast
// (two-way) SEND_COMMAND failsafe payload: 36 bytes of samples / 2 = 18.
const MaxFailsafeChannels = protocol.MaxChannels
