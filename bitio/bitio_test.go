package bitio

import "testing"

func TestGetBits(t *testing.T) {
	// 1011 0110 1010 0101
	buf := []byte{0xB6, 0xA5}
	r := NewReader(buf)

	if v, err := r.Get(4); err != nil || v != 0xB {
		t.Fatalf("Get(4) = %#x, %v; want 0xB, nil", v, err)
	}
	if v, err := r.Get(4); err != nil || v != 0x6 {
		t.Fatalf("Get(4) = %#x, %v; want 0x6, nil", v, err)
	}
	if v, err := r.Get(8); err != nil || v != 0xA5 {
		t.Fatalf("Get(8) = %#x, %v; want 0xA5, nil", v, err)
	}
	if r.BitsRemaining() != 0 {
		t.Fatalf("BitsRemaining() = %d; want 0", r.BitsRemaining())
	}
	if _, err := r.Get(1); err != ErrShortRead {
		t.Fatalf("Get(1) past end: err = %v; want ErrShortRead", err)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	r := NewReader([]byte{0xFF, 0x00})
	if v, err := r.Peek(8); err != nil || v != 0xFF {
		t.Fatalf("Peek(8) = %#x, %v; want 0xFF, nil", v, err)
	}
	if v, err := r.Get(8); err != nil || v != 0xFF {
		t.Fatalf("Get(8) after Peek = %#x, %v; want 0xFF, nil", v, err)
	}
}

func TestByteAlign(t *testing.T) {
	r := NewReader([]byte{0xF0, 0xAA})
	if _, err := r.Get(4); err != nil {
		t.Fatal(err)
	}
	r.ByteAlign()
	if v, err := r.Get(8); err != nil || v != 0xAA {
		t.Fatalf("Get(8) after align = %#x, %v; want 0xAA, nil", v, err)
	}
}

func TestExpGolombRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 2, 3, 4, 10, 100, 1000}
	w := NewWriter()
	for _, v := range values {
		w.PutUE(v)
	}
	buf := w.Bytes()

	r := NewReader(buf)
	for _, want := range values {
		got, err := r.GetUE()
		if err != nil {
			t.Fatalf("GetUE(): %v", err)
		}
		if got != want {
			t.Fatalf("GetUE() = %d; want %d", got, want)
		}
	}
}

func TestSignedExpGolombRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 2, -2, 100, -100}
	w := NewWriter()
	for _, v := range values {
		w.PutSE(v)
	}
	buf := w.Bytes()

	r := NewReader(buf)
	for _, want := range values {
		got, err := r.GetSE()
		if err != nil {
			t.Fatalf("GetSE(): %v", err)
		}
		if got != want {
			t.Fatalf("GetSE() = %d; want %d", got, want)
		}
	}
}

func TestPutBitsCarriesAcrossBytes(t *testing.T) {
	w := NewWriter()
	w.PutBits(0b101, 3)
	w.PutBits(0b11111, 5)
	w.PutBits(0b1, 1)
	got := w.Bytes()
	want := []byte{0b10111111, 0b10000000}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Bytes() = %08b; want %08b", got, want)
	}
}
