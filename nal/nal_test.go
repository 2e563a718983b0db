package nal

import "bytes"

import "testing"

func TestAnnexBToLengthPrefixedAndBack(t *testing.T) {
	annexB := []byte{
		0, 0, 0, 1, 0x67, 0xAA, 0xBB, // SPS-ish
		0, 0, 1, 0x68, 0xCC, // PPS-ish, 3-byte start code
	}
	lp, err := AnnexBToLengthPrefixed(annexB)
	if err != nil {
		t.Fatalf("AnnexBToLengthPrefixed: %v", err)
	}

	units, err := SplitLengthPrefixed(lp)
	if err != nil {
		t.Fatalf("SplitLengthPrefixed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("len(units) = %d; want 2", len(units))
	}
	if !bytes.Equal(units[0], []byte{0x67, 0xAA, 0xBB}) {
		t.Fatalf("units[0] = %x; want 67aabb", units[0])
	}
	if !bytes.Equal(units[1], []byte{0x68, 0xCC}) {
		t.Fatalf("units[1] = %x; want 68cc", units[1])
	}

	back, err := LengthPrefixedToAnnexB(append([]byte(nil), lp...))
	if err != nil {
		t.Fatalf("LengthPrefixedToAnnexB: %v", err)
	}
	want := []byte{
		0, 0, 0, 1, 0x67, 0xAA, 0xBB,
		0, 0, 0, 1, 0x68, 0xCC,
	}
	if !bytes.Equal(back, want) {
		t.Fatalf("LengthPrefixedToAnnexB = %x; want %x", back, want)
	}
}

func TestAnnexBToLengthPrefixedRejectsNonZeroFiller(t *testing.T) {
	bad := []byte{0x01, 0, 0, 0, 1, 0x67}
	if _, err := AnnexBToLengthPrefixed(bad); err != ErrNonZeroFiller {
		t.Fatalf("err = %v; want ErrNonZeroFiller", err)
	}
}

func TestSplitLengthPrefixedRejectsTruncated(t *testing.T) {
	bad := []byte{0, 0, 0, 10, 1, 2}
	if _, err := SplitLengthPrefixed(bad); err != ErrTruncated {
		t.Fatalf("err = %v; want ErrTruncated", err)
	}
}
