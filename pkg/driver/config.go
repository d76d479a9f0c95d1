package driver

import "github.com/dbehnke/afhds3d/pkg/protocol"

// FailsafeTimeoutMs is the fixed failsafe timeout written into outbound
// configuration, in milliseconds.
const FailsafeTimeoutMs = 500

// IBUS1 is the V0 layout's fixed external bus type.
const IBUS1 = 0x00

// DefaultPWMFrequencyHz is the PWM frequency written for both config
// layouts absent any per-channel override.
const DefaultPWMFrequencyHz = 50

// buildConfig marshals the current model settings into the wire
// configuration union, selecting V0 or V1 by PhyMode threshold (§4.6).
func (d *Driver) buildConfig() protocol.Config {
	mode := d.model.PhyMode()
	channelsStart := d.model.ChannelsStart()
	channelsCount := d.model.ChannelsCount()
	failsafeOutputMode := byte(0)
	if d.model.FailsafeMode() != protocol.FailsafeNoPulses {
		failsafeOutputMode = 1
	}

	var failsafe [protocol.MaxChannels]int16
	lo := channelsStart
	hi := channelsStart + 8 + channelsCount
	if hi > protocol.MaxChannels {
		hi = protocol.MaxChannels
	}
	for ch := lo; ch < hi && ch >= 0; ch++ {
		switch d.model.FailsafeMode() {
		case protocol.FailsafeCustom:
			failsafe[ch-lo] = scaleChannel(d.model.FailsafeValue(ch))
		case protocol.FailsafeHold:
			failsafe[ch-lo] = protocol.FailsafeKeepLast
		default:
			failsafe[ch-lo] = scaleChannel(d.model.ChannelValue(ch))
		}
	}

	if !mode.UsesConfigV1() {
		return protocol.Config{
			Version: 0,
			V0: protocol.ConfigV0{
				EMIStandard:               d.model.EMIStandard(),
				IsTwoWay:                  boolByte(d.model.IsTwoWay()),
				PhyMode:                   mode,
				SignalStrengthRCChannelNb: 0xFF,
				FailsafeTimeout:           FailsafeTimeoutMs,
				FailSafe:                  failsafe,
				FailsafeOutputMode:        failsafeOutputMode,
				PWMFrequency:              protocol.PWMFrequencyV0{Frequency: DefaultPWMFrequencyHz},
				AnalogOutput:              0,
				ExternalBusType:           IBUS1,
			},
		}
	}

	var pwm [protocol.SESMaxChannels]uint16
	for i := range pwm {
		pwm[i] = DefaultPWMFrequencyHz
	}

	return protocol.Config{
		Version: 1,
		V1: protocol.ConfigV1{
			EMIStandard:               d.model.EMIStandard(),
			IsTwoWay:                  boolByte(d.model.IsTwoWay()),
			PhyMode:                   mode,
			SignalStrengthRCChannelNb: 0xFF,
			FailsafeTimeout:           FailsafeTimeoutMs,
			FailSafe:                  failsafe,
			FailsafeOutputMode:        failsafeOutputMode,
			NewPortTypes:              [protocol.SESMaxPorts]byte{},
			PWMFrequencies:            pwm,
			Synchronized:              0,
		},
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
