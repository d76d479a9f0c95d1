package protocol

import "encoding/binary"

// SESMaxChannels and SESMaxPorts bound the V1 configuration's PWM and
// serial-port tables.
const (
	SESMaxChannels = 32
	SESMaxPorts    = 4
)

// PWMFrequencyV0 packs a 15-bit frequency and a 1-bit sync flag into the
// V0 configuration's single uint16 field.
type PWMFrequencyV0 struct {
	Frequency    uint16 // 50..400 Hz
	Synchronized bool
}

func (p PWMFrequencyV0) pack() uint16 {
	v := p.Frequency & 0x7FFF
	if p.Synchronized {
		v |= 0x8000
	}
	return v
}

// ConfigV0Size is the wire size of ConfigV0 in bytes (including the
// leading version byte).
const ConfigV0Size = 48

// ConfigV0 is the legacy (PhyMode < RoutineFLCR1_18CH) configuration
// layout.
type ConfigV0 struct {
	EMIStandard               byte
	IsTwoWay                  byte
	PhyMode                   PhyMode
	SignalStrengthRCChannelNb byte
	FailsafeTimeout           uint16
	FailSafe                  [MaxChannels]int16
	FailsafeOutputMode        byte
	PWMFrequency              PWMFrequencyV0
	AnalogOutput              byte
	ExternalBusType           byte
}

// Marshal writes the V0 layout to its fixed 48-byte wire representation.
func (c ConfigV0) Marshal() []byte {
	buf := make([]byte, ConfigV0Size)
	buf[0] = 0
	buf[1] = c.EMIStandard
	buf[2] = c.IsTwoWay
	buf[3] = byte(c.PhyMode)
	buf[4] = c.SignalStrengthRCChannelNb
	binary.LittleEndian.PutUint16(buf[5:7], c.FailsafeTimeout)
	off := 7
	for i := 0; i < MaxChannels; i++ {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(c.FailSafe[i]))
		off += 2
	}
	buf[off] = c.FailsafeOutputMode
	off++
	binary.LittleEndian.PutUint16(buf[off:off+2], c.PWMFrequency.pack())
	off += 2
	buf[off] = c.AnalogOutput
	off++
	buf[off] = c.ExternalBusType
	return buf
}

// ConfigV1Size is the wire size of ConfigV1 in bytes (including the
// leading version byte).
const ConfigV1Size = 116

// ConfigV1 is the expanded (PhyMode >= RoutineFLCR1_18CH) configuration
// layout, adding per-port types and per-channel PWM frequencies.
type ConfigV1 struct {
	EMIStandard               byte
	IsTwoWay                  byte
	PhyMode                   PhyMode
	SignalStrengthRCChannelNb byte
	FailsafeTimeout           uint16
	FailSafe                  [MaxChannels]int16
	FailsafeOutputMode        byte
	NewPortTypes              [SESMaxPorts]byte
	PWMFrequencies            [SESMaxChannels]uint16
	Synchronized              uint32 // bitmap, 1 bit per channel
}

// Marshal writes the V1 layout to its fixed 116-byte wire representation.
func (c ConfigV1) Marshal() []byte {
	buf := make([]byte, ConfigV1Size)
	buf[0] = 1
	buf[1] = c.EMIStandard
	buf[2] = c.IsTwoWay
	buf[3] = byte(c.PhyMode)
	buf[4] = c.SignalStrengthRCChannelNb
	binary.LittleEndian.PutUint16(buf[5:7], c.FailsafeTimeout)
	off := 7
	for i := 0; i < MaxChannels; i++ {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(c.FailSafe[i]))
		off += 2
	}
	buf[off] = c.FailsafeOutputMode
	off++
	copy(buf[off:off+SESMaxPorts], c.NewPortTypes[:])
	off += SESMaxPorts
	for i := 0; i < SESMaxChannels; i++ {
		binary.LittleEndian.PutUint16(buf[off:off+2], c.PWMFrequencies[i])
		off += 2
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], c.Synchronized)
	return buf
}

// Config is the tagged union of the two on-wire configuration layouts;
// exactly one of V0/V1 is populated, selected by Version.
type Config struct {
	Version byte
	V0      ConfigV0
	V1      ConfigV1
}

// Marshal serializes the active layout to its wire bytes.
func (c Config) Marshal() []byte {
	if c.Version == 1 {
		return c.V1.Marshal()
	}
	return c.V0.Marshal()
}

// NewConfig builds the tagged union for the given PHY mode, selecting
// V0 or V1 per the PhyMode < RoutineFLCR1_18CH rule.
func NewConfig(mode PhyMode) Config {
	if mode.UsesConfigV1() {
		return Config{Version: 1}
	}
	return Config{Version: 0}
}

// RawConfig is the module's last MODULE_GET_CONFIG response payload,
// cached verbatim (the parser only needs to read back the version byte
// and the raw bytes; it never needs to reinterpret the full layout).
type RawConfig struct {
	bytes []byte
}

// SetRaw replaces the cached configuration bytes.
func (r *RawConfig) SetRaw(payload []byte) {
	r.bytes = append(r.bytes[:0], payload...)
}

// Version returns the cached configuration's version byte, or 0xFF if
// nothing has been cached yet.
func (r *RawConfig) Version() byte {
	if len(r.bytes) == 0 {
		return 0xFF
	}
	return r.bytes[0]
}

// Bytes returns the cached raw configuration payload.
func (r *RawConfig) Bytes() []byte {
	return r.bytes
}

// ModuleVersion is the module's observability-only identification
// record, captured from a MODULE_VERSION response.
type ModuleVersion struct {
	ProductNumber      uint32
	HardwareVersion    uint32
	BootloaderVersion  uint32
	FirmwareVersion    uint32
	RFVersion          uint32
}

// ModuleVersionSize is the wire size of a ModuleVersion payload.
const ModuleVersionSize = 20

// ParseModuleVersion decodes a MODULE_VERSION payload.
func ParseModuleVersion(payload []byte) (ModuleVersion, bool) {
	if len(payload) < ModuleVersionSize {
		return ModuleVersion{}, false
	}
	return ModuleVersion{
		ProductNumber:     binary.LittleEndian.Uint32(payload[0:4]),
		HardwareVersion:   binary.LittleEndian.Uint32(payload[4:8]),
		BootloaderVersion: binary.LittleEndian.Uint32(payload[8:12]),
		FirmwareVersion:   binary.LittleEndian.Uint32(payload[12:16]),
		RFVersion:         binary.LittleEndian.Uint32(payload[16:20]),
	}, true
}

// BuildChannelsPayload packs a ChannelsData wire payload: a 2-byte
// {mode, count} header followed by count little-endian signed 16-bit
// samples. It is shared by the CHANNELS frame and the multicast
// FAIL_SAFE frame, which differ only in mode/command.
func BuildChannelsPayload(mode ChannelsDataMode, count uint8, samples []int16) []byte {
	buf := make([]byte, 2+2*len(samples))
	buf[0] = byte(mode)
	buf[1] = count
	off := 2
	for _, s := range samples {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(s))
		off += 2
	}
	return buf
}
