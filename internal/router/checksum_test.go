package router

import "testing"

func TestChecksum16KnownVector(t *testing.T) {
	// RFC 1071 Section 3's worked example.
	buf := []byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7}
	got := checksum16(buf)
	want := uint16(0x220d)
	if got != want {
		t.Fatalf("checksum16() = %#04x, want %#04x", got, want)
	}
}

func TestChecksum16OddLength(t *testing.T) {
	even := checksum16([]byte{0x01, 0x02, 0x03, 0x00})
	odd := checksum16([]byte{0x01, 0x02, 0x03})
	if even != odd {
		t.Fatalf("odd-length checksum %#04x should equal zero-padded even checksum %#04x", odd, even)
	}
}

func TestWriteAndVerifyChecksum(t *testing.T) {
	region := make([]byte, 20)
	for i := range region {
		region[i] = byte(i + 1)
	}

	writeChecksum(region, 10)

	if !verifyChecksum(region) {
		t.Fatal("verifyChecksum() = false after writeChecksum")
	}

	region[0] ^= 0xff
	if verifyChecksum(region) {
		t.Fatal("verifyChecksum() = true after corrupting the region")
	}
}
