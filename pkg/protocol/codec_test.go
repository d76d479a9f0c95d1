package protocol

import "testing"

func TestEncodeByteEscaping(t *testing.T) {
	cases := []struct {
		in   byte
		want []byte
	}{
		{End, []byte{Esc, EscEnd}},
		{Esc, []byte{Esc, EscEsc}},
		{0x51, []byte{0x51}},
		{0x00, []byte{0x00}},
	}
	for _, c := range cases {
		got := EncodeByte(nil, c.in)
		if string(got) != string(c.want) {
			t.Errorf("EncodeByte(%#x) = % x, want % x", c.in, got, c.want)
		}
	}
}

func TestByteDecoderRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		raw := EncodeByte(nil, byte(b))
		var dec ByteDecoder
		var got byte
		gotByte := false
		for _, wb := range raw {
			ev, val := dec.Decode(wb)
			if ev == EventByte {
				got = val
				gotByte = true
			}
			if ev == EventBoundary {
				t.Fatalf("byte %#x produced an unexpected frame boundary", b)
			}
		}
		if !gotByte {
			t.Fatalf("byte %#x never decoded to a value", b)
		}
		if got != byte(b) {
			t.Errorf("decode(encode(%#x)) = %#x, want %#x", b, got, b)
		}
	}
}

func TestByteDecoderTolerantEscape(t *testing.T) {
	var dec ByteDecoder
	ev, _ := dec.Decode(Esc)
	if ev != EventNone {
		t.Fatalf("expected EventNone after ESC, got %v", ev)
	}
	ev, val := dec.Decode(0x42)
	if ev != EventByte || val != 0x42 {
		t.Fatalf("expected tolerant pass-through of 0x42, got ev=%v val=%#x", ev, val)
	}
}

func TestByteDecoderBoundary(t *testing.T) {
	var dec ByteDecoder
	ev, _ := dec.Decode(End)
	if ev != EventBoundary {
		t.Fatalf("expected EventBoundary for bare END, got %v", ev)
	}
}
