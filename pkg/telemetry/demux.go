package telemetry

const (
	sensorGeneral  byte = 0xAA
	sensorExtended byte = 0xAC

	idRemapFE byte = 0xFE
	idRemapTo byte = 0xF7

	idFRM302SNR byte = 0xFA
	idFRM302To  byte = 0xF8

	idFRM302Status byte = 0x56

	telemetryMarker byte = 0x22
)

// Demux walks a TELEMETRY_DATA payload and dispatches each decoded record
// to sink. The payload's first byte must be the telemetry marker (0x22);
// anything else is ignored. Record lengths not matching a known shape are
// skipped by advancing past them; a zero length or a record that would
// overrun the buffer stops parsing, matching the module's own framing
// discipline (it never back-fills a short trailing record).
func Demux(payload []byte, sink Sink) {
	if len(payload) == 0 || payload[0] != telemetryMarker {
		return
	}
	stream := payload[1:]

	for i := 0; i < len(stream); {
		length := stream[i]
		if length == 0 {
			return
		}
		if i+int(length) > len(stream) || i+1 >= len(stream) {
			return
		}

		id := stream[i+1]
		if id == idRemapFE {
			id = idRemapTo
		}

		switch length {
		case 4:
			sink.Dispatch(Record{Type: sensorGeneral, ID: id, Data: []byte{stream[i+2], stream[i+3], 0}})
		case 5:
			if id == idFRM302SNR {
				id = idFRM302To
			}
			sink.Dispatch(Record{Type: sensorGeneral, ID: id, Data: []byte{stream[i+2], stream[i+3], stream[i+4]}})
		case 6:
			if id == idFRM302Status {
				temp := uint16(stream[i+3])*10 + 400
				sink.Dispatch(Record{Type: sensorGeneral, ID: id + 1, Data: []byte{byte(temp), byte(temp >> 8), 0}})
				sink.Dispatch(Record{Type: sensorGeneral, ID: id + 2, Data: []byte{stream[i+4], stream[i+5], 0}})
			}
		case 7:
			data := make([]byte, 5)
			copy(data, stream[i+2:i+7])
			sink.Dispatch(Record{Type: sensorExtended, ID: id, Data: data})
		}

		i += int(length)
	}
}
