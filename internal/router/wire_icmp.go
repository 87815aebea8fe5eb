package router

import (
	"encoding/binary"
	"fmt"
)

// ICMP header layout (RFC 792), relative to the start of the ICMP
// payload (i.e. the byte following the IPv4 header):
//
//	offset 0: type (1 byte)
//	offset 1: code (1 byte)
//	offset 2: checksum (2 bytes)
//	offset 4: rest-of-header, meaning depends on type
//
// For echo request/reply, the rest-of-header is identifier(2)+sequence(2)
// followed by an arbitrary-length payload. For the error types this
// router emits, it is 4 unused bytes followed by exactly 28 bytes of
// quoted original packet (the original IP header plus its first 8
// payload bytes).
const (
	ICMPHeaderSize = 8

	icmpTypeOff     = 0
	icmpCodeOff     = 1
	icmpChecksumOff = 2
	icmpIdentOff    = 4
	icmpSeqOff      = 6

	// ICMPQuoteLen is the number of bytes of the original packet quoted
	// in an ICMP error: the IP header (20 bytes, no options on traffic
	// this router originates errors about) plus the first 8 bytes past
	// it, per RFC 792.
	ICMPQuoteLen = 28

	// ICMPErrorBodyLen is the quoted packet length; the 4 unused bytes
	// ahead of it are already counted in ICMPHeaderSize.
	ICMPErrorBodyLen = ICMPQuoteLen
)

// ICMP types and codes this router generates or reacts to.
const (
	ICMPTypeEchoReply   uint8 = 0
	ICMPTypeUnreachable uint8 = 3
	ICMPTypeEchoRequest uint8 = 8
	ICMPTypeTimeExceeded uint8 = 11

	ICMPCodeNetUnreachable  uint8 = 0
	ICMPCodeHostUnreachable uint8 = 1
	ICMPCodePortUnreachable uint8 = 3

	ICMPCodeTTLExceededInTransit uint8 = 0
)

// ICMPHeader is the type/code/identifier/sequence prefix of an ICMP
// message. For error types Identifier/Sequence are meaningless (the
// rest-of-header there is 4 unused bytes) and left zero.
type ICMPHeader struct {
	Type       uint8
	Code       uint8
	Identifier uint16
	Sequence   uint16
}

// ParseICMPHeader validates and parses the fixed 8-byte ICMP header at
// the start of icmp, and verifies its checksum over the full icmp
// region (header plus whatever payload follows, per RFC 792: the
// checksum covers the entire ICMP message).
func ParseICMPHeader(icmp []byte) (ICMPHeader, error) {
	if len(icmp) < ICMPHeaderSize {
		return ICMPHeader{}, fmt.Errorf("parse icmp: %w", ErrICMPTooShort)
	}
	if !verifyChecksum(icmp) {
		return ICMPHeader{}, fmt.Errorf("parse icmp: %w", ErrIPv4BadChecksum)
	}

	return ICMPHeader{
		Type:       icmp[icmpTypeOff],
		Code:       icmp[icmpCodeOff],
		Identifier: binary.BigEndian.Uint16(icmp[icmpIdentOff : icmpIdentOff+2]),
		Sequence:   binary.BigEndian.Uint16(icmp[icmpSeqOff : icmpSeqOff+2]),
	}, nil
}

// PutICMPEchoReply renders an echo-reply ICMP message into icmp, which
// must be exactly ICMPHeaderSize+len(payload) bytes, copying identifier,
// sequence, and payload from the original request and computing the
// checksum last.
func PutICMPEchoReply(icmp []byte, ident, seq uint16, payload []byte) {
	icmp[icmpTypeOff] = ICMPTypeEchoReply
	icmp[icmpCodeOff] = 0
	binary.BigEndian.PutUint16(icmp[icmpIdentOff:icmpIdentOff+2], ident)
	binary.BigEndian.PutUint16(icmp[icmpSeqOff:icmpSeqOff+2], seq)
	copy(icmp[ICMPHeaderSize:], payload)
	writeChecksum(icmp, icmpChecksumOff)
}

// PutICMPError renders an ICMP error message (type 3 or 11) into icmp,
// which must be exactly ICMPHeaderSize+ICMPErrorBodyLen bytes. quoted
// is the ICMPQuoteLen bytes of the original packet to embed; the 4
// bytes ahead of it are left zero (unused) per RFC 792.
func PutICMPError(icmp []byte, icmpType, code uint8, quoted []byte) {
	icmp[icmpTypeOff] = icmpType
	icmp[icmpCodeOff] = code
	binary.BigEndian.PutUint32(icmp[4:8], 0)
	copy(icmp[8:8+ICMPQuoteLen], quoted)
	writeChecksum(icmp, icmpChecksumOff)
}
