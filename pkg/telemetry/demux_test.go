package telemetry

import (
	"reflect"
	"testing"
)

func TestDemuxSplitScenario(t *testing.T) {
	payload := []byte{
		0x22,
		0x04, 0xA0, 0x11, 0x22,
		0x05, 0xFA, 0x00, 0x08, 0x00,
		0x06, 0x56, 0x00, 0x05, 0xAA, 0xBB,
		0x00,
	}

	var got []Record
	Demux(payload, SinkFunc(func(rec Record) { got = append(got, rec) }))

	want := []Record{
		{Type: sensorGeneral, ID: 0xA0, Data: []byte{0x11, 0x22, 0}},
		{Type: sensorGeneral, ID: 0xF8, Data: []byte{0x00, 0x08, 0x00}},
		{Type: sensorGeneral, ID: 0x57, Data: []byte{0xC2, 0x01, 0}},
		{Type: sensorGeneral, ID: 0x58, Data: []byte{0xAA, 0xBB, 0}},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDemuxStopsOnZeroLength(t *testing.T) {
	payload := []byte{0x22, 0x00, 0xFF, 0xFF}
	var count int
	Demux(payload, SinkFunc(func(Record) { count++ }))
	if count != 0 {
		t.Errorf("expected no records dispatched after a zero-length record, got %d", count)
	}
}

func TestDemuxStopsOnOverrun(t *testing.T) {
	payload := []byte{0x22, 0x07, 0xA0, 0x01, 0x02}
	var count int
	Demux(payload, SinkFunc(func(Record) { count++ }))
	if count != 0 {
		t.Errorf("expected overrunning record to be dropped, got %d records", count)
	}
}

func TestDemuxIgnoresNonTelemetryMarker(t *testing.T) {
	payload := []byte{0x01, 0x04, 0xA0, 0x11, 0x22}
	var count int
	Demux(payload, SinkFunc(func(Record) { count++ }))
	if count != 0 {
		t.Errorf("expected payload without the 0x22 marker to be ignored, got %d records", count)
	}
}

func TestDemuxSevenByteRecord(t *testing.T) {
	payload := []byte{0x22, 0x07, 0xB1, 1, 2, 3, 4, 5}
	var got []Record
	Demux(payload, SinkFunc(func(rec Record) { got = append(got, rec) }))
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	want := Record{Type: sensorExtended, ID: 0xB1, Data: []byte{1, 2, 3, 4, 5}}
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("record = %+v, want %+v", got[0], want)
	}
}

func TestDemuxRemapsFE(t *testing.T) {
	payload := []byte{0x22, 0x04, 0xFE, 0x01, 0x02}
	var got []Record
	Demux(payload, SinkFunc(func(rec Record) { got = append(got, rec) }))
	if len(got) != 1 || got[0].ID != 0xF7 {
		t.Fatalf("expected id 0xFE remapped to 0xF7, got %+v", got)
	}
}
