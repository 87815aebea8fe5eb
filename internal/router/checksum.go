package router

import "encoding/binary"

// checksum16 computes the RFC 1071 Internet checksum (the one's-complement
// of the one's-complement sum of 16-bit words) over buf. If len(buf) is
// odd, the final byte is treated as the high byte of a zero-padded word.
func checksum16(buf []byte) uint16 {
	var sum uint32

	n := len(buf)
	i := 0
	for ; i+1 < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(buf[i : i+2]))
	}
	if i < n {
		sum += uint32(buf[i]) << 8
	}

	for sum>>16 != 0 {
		sum = (sum & 0xffff) + sum>>16
	}

	return ^uint16(sum)
}

// writeChecksum zeroes the 2-byte checksum field at checksumOff within
// region, computes checksum16 over the whole region, and writes the
// result back into the field. Callers use this for both the IPv4 header
// checksum (region = header bytes only) and the ICMP checksum (region =
// header + payload).
func writeChecksum(region []byte, checksumOff int) {
	region[checksumOff] = 0
	region[checksumOff+1] = 0
	binary.BigEndian.PutUint16(region[checksumOff:checksumOff+2], checksum16(region))
}

// verifyChecksum reports whether the checksum currently stored within
// region is correct. It does not mutate region: per RFC 1071, the
// one's-complement sum of a region that already contains a correct
// checksum is 0xffff (all one-bits), so checksum16 (its complement) is
// zero and no zero-and-recompute round trip is needed to verify.
func verifyChecksum(region []byte) bool {
	return checksum16(region) == 0
}
