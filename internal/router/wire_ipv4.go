package router

import (
	"encoding/binary"
	"fmt"
)

// IPv4 header layout (RFC 791), no options assumed by default but
// ip_hl is honored if larger than 5, relative to the start of the IPv4
// payload (i.e. frame[EthernetHeaderSize:]):
//
//	offset 0:  version(4 bits) | IHL(4 bits)
//	offset 1:  DSCP(6 bits) | ECN(2 bits)
//	offset 2:  total length (2 bytes)
//	offset 4:  identification (2 bytes)
//	offset 6:  flags(3 bits) | fragment offset(13 bits)
//	offset 8:  TTL (1 byte)
//	offset 9:  protocol (1 byte)
//	offset 10: header checksum (2 bytes)
//	offset 12: source address (4 bytes)
//	offset 16: destination address (4 bytes)
//	offset 20: options, if IHL > 5
const (
	IPv4MinHeaderSize = 20

	ipv4VerIHLOff     = 0
	ipv4TotalLenOff   = 2
	ipv4IdentOff      = 4
	ipv4FlagsFragOff  = 6
	ipv4TTLOff        = 8
	ipv4ProtocolOff   = 9
	ipv4ChecksumOff   = 10
	ipv4SrcOff        = 12
	ipv4DstOff        = 16
	ipv4Version       = 4
	ipv4MinIHLWords   = 5
)

// IP protocol numbers this router acts on.
const (
	IPProtocolICMP uint8 = 1
	IPProtocolTCP  uint8 = 6
	IPProtocolUDP  uint8 = 17
)

// DefaultTTL is the TTL written into every IPv4 packet the router
// itself originates (ICMP errors and echo replies).
const DefaultTTL uint8 = 64

// IPv4Addr is a 4-byte IPv4 address in network byte order.
type IPv4Addr [4]byte

// Uint32 returns a as a big-endian-valued uint32, suitable for prefix
// arithmetic (`addr & mask`).
func (a IPv4Addr) Uint32() uint32 {
	return binary.BigEndian.Uint32(a[:])
}

// IPv4AddrFromUint32 builds an IPv4Addr from a host-order uint32 value.
func IPv4AddrFromUint32(v uint32) IPv4Addr {
	var a IPv4Addr
	binary.BigEndian.PutUint32(a[:], v)
	return a
}

func (a IPv4Addr) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// IsBroadcastOrMulticast reports whether a is the limited broadcast
// address or falls in the multicast range (224.0.0.0/4) — addresses
// ICMP errors must never be sent to or "about" as a source.
func (a IPv4Addr) IsBroadcastOrMulticast() bool {
	if a == (IPv4Addr{0xff, 0xff, 0xff, 0xff}) {
		return true
	}
	return a[0]&0xf0 == 0xe0
}

// IPv4Header is a parsed view over an IPv4 header. HeaderLen is the
// actual header length in bytes (ip_hl * 4), which may exceed
// IPv4MinHeaderSize.
type IPv4Header struct {
	HeaderLen      int
	TotalLen       int
	Identification uint16
	TTL            uint8
	Protocol       uint8
	Src            IPv4Addr
	Dst            IPv4Addr
}

// ParseIPv4Header validates and parses the IPv4 header at the start of
// payload. It checks the declared header length against len(payload)
// and verifies the header checksum; it does not check TotalLen against
// len(payload) beyond what's needed to read the header itself, since
// link-layer padding can make a frame longer than TotalLen.
func ParseIPv4Header(payload []byte) (IPv4Header, error) {
	if len(payload) < IPv4MinHeaderSize {
		return IPv4Header{}, fmt.Errorf("parse ipv4: %w", ErrIPv4TooShort)
	}

	verIHL := payload[ipv4VerIHLOff]
	version := verIHL >> 4
	ihlWords := verIHL & 0x0f

	if version != ipv4Version {
		return IPv4Header{}, fmt.Errorf("parse ipv4: %w", ErrIPv4BadVersion)
	}

	headerLen := int(ihlWords) * 4
	if headerLen < IPv4MinHeaderSize || len(payload) < headerLen {
		return IPv4Header{}, fmt.Errorf("parse ipv4: %w", ErrIPv4TooShort)
	}

	if !verifyChecksum(payload[:headerLen]) {
		return IPv4Header{}, fmt.Errorf("parse ipv4: %w", ErrIPv4BadChecksum)
	}

	var hdr IPv4Header
	hdr.HeaderLen = headerLen
	hdr.TotalLen = int(binary.BigEndian.Uint16(payload[ipv4TotalLenOff : ipv4TotalLenOff+2]))
	hdr.Identification = binary.BigEndian.Uint16(payload[ipv4IdentOff : ipv4IdentOff+2])
	hdr.TTL = payload[ipv4TTLOff]
	hdr.Protocol = payload[ipv4ProtocolOff]
	copy(hdr.Src[:], payload[ipv4SrcOff:ipv4SrcOff+4])
	copy(hdr.Dst[:], payload[ipv4DstOff:ipv4DstOff+4])

	return hdr, nil
}

// DecrementTTLAndRecheck decrements the TTL field in place and rewrites
// the header checksum over payload[:headerLen]. The caller must have
// already confirmed TTL > 1.
func DecrementTTLAndRecheck(payload []byte, headerLen int) {
	payload[ipv4TTLOff]--
	writeChecksum(payload[:headerLen], ipv4ChecksumOff)
}

// PutIPv4Header renders a fresh, option-free (IHL=5) IPv4 header into
// the first IPv4MinHeaderSize bytes of buf and computes its checksum.
// Used only for router-originated packets (ICMP errors, echo replies),
// which never carry options.
func PutIPv4Header(buf []byte, src, dst IPv4Addr, protocol uint8, ttl uint8, ident uint16, totalLen int) {
	buf[ipv4VerIHLOff] = (ipv4Version << 4) | ipv4MinIHLWords
	buf[1] = 0 // DSCP/ECN
	binary.BigEndian.PutUint16(buf[ipv4TotalLenOff:ipv4TotalLenOff+2], uint16(totalLen))
	binary.BigEndian.PutUint16(buf[ipv4IdentOff:ipv4IdentOff+2], ident)
	binary.BigEndian.PutUint16(buf[ipv4FlagsFragOff:ipv4FlagsFragOff+2], 0)
	buf[ipv4TTLOff] = ttl
	buf[ipv4ProtocolOff] = protocol
	copy(buf[ipv4SrcOff:ipv4SrcOff+4], src[:])
	copy(buf[ipv4DstOff:ipv4DstOff+4], dst[:])
	writeChecksum(buf[:IPv4MinHeaderSize], ipv4ChecksumOff)
}
