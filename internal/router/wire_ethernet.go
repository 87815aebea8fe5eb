package router

import (
	"encoding/binary"
	"fmt"
)

// Ethernet II header layout (IEEE 802.3):
//
//	offset 0:  dst MAC  (6 bytes)
//	offset 6:  src MAC  (6 bytes)
//	offset 12: ethertype (2 bytes, big-endian)
const (
	EthernetHeaderSize = 14

	ethDstOff  = 0
	ethSrcOff  = 6
	ethTypeOff = 12
)

// EtherType values this router classifies on.
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeARP  uint16 = 0x0806
)

// MACAddr is a 6-byte Ethernet hardware address.
type MACAddr [6]byte

// BroadcastMAC is the all-ones Ethernet broadcast address.
var BroadcastMAC = MACAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// IsZero reports whether m is the unset all-zero address.
func (m MACAddr) IsZero() bool {
	return m == MACAddr{}
}

// String renders m in standard colon-separated hex notation.
func (m MACAddr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// EthernetDst reads the destination MAC from an Ethernet frame. The
// caller must have already checked len(frame) >= EthernetHeaderSize.
func EthernetDst(frame []byte) MACAddr {
	var mac MACAddr
	copy(mac[:], frame[ethDstOff:ethDstOff+6])
	return mac
}

// EthernetSrc reads the source MAC from an Ethernet frame.
func EthernetSrc(frame []byte) MACAddr {
	var mac MACAddr
	copy(mac[:], frame[ethSrcOff:ethSrcOff+6])
	return mac
}

// EthernetType reads the EtherType field from an Ethernet frame.
func EthernetType(frame []byte) uint16 {
	return binary.BigEndian.Uint16(frame[ethTypeOff : ethTypeOff+2])
}

// SetEthernetDst overwrites the destination MAC in place.
func SetEthernetDst(frame []byte, mac MACAddr) {
	copy(frame[ethDstOff:ethDstOff+6], mac[:])
}

// SetEthernetSrc overwrites the source MAC in place.
func SetEthernetSrc(frame []byte, mac MACAddr) {
	copy(frame[ethSrcOff:ethSrcOff+6], mac[:])
}

// SetEthernetType overwrites the EtherType field in place.
func SetEthernetType(frame []byte, etherType uint16) {
	binary.BigEndian.PutUint16(frame[ethTypeOff:ethTypeOff+2], etherType)
}

// PutEthernetHeader renders a complete Ethernet header into the first
// EthernetHeaderSize bytes of buf, which must be at least that long.
func PutEthernetHeader(buf []byte, dst, src MACAddr, etherType uint16) {
	SetEthernetDst(buf, dst)
	SetEthernetSrc(buf, src)
	SetEthernetType(buf, etherType)
}
