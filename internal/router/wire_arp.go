package router

import (
	"encoding/binary"
	"fmt"
)

// ARP for IPv4-over-Ethernet, fixed layout (RFC 826 / RFC 5227), relative
// to the start of the ARP payload (i.e. frame[EthernetHeaderSize:]):
//
//	offset 0:  hrd (hardware type, 2 bytes) — 1 for Ethernet
//	offset 2:  pro (protocol type, 2 bytes) — 0x0800 for IPv4
//	offset 4:  hln (hardware address length, 1 byte) — 6
//	offset 5:  pln (protocol address length, 1 byte) — 4
//	offset 6:  op  (operation, 2 bytes) — 1 request, 2 reply
//	offset 8:  sha (sender hardware address, 6 bytes)
//	offset 14: sip (sender protocol address, 4 bytes)
//	offset 18: tha (target hardware address, 6 bytes)
//	offset 24: tip (target protocol address, 4 bytes)
const (
	ARPHeaderSize = 28

	arpHrdOff = 0
	arpProOff = 2
	arpHlnOff = 4
	arpPlnOff = 5
	arpOpOff  = 6
	arpShaOff = 8
	arpSipOff = 14
	arpThaOff = 18
	arpTipOff = 24
)

// ARP constants fixed by the Ethernet/IPv4 combination this router
// speaks exclusively.
const (
	ARPHardwareEthernet uint16 = 1
	ARPProtocolIPv4     uint16 = 0x0800
	arpHwLenEthernet    uint8  = 6
	arpProtoLenIPv4     uint8  = 4
)

// ARP operation codes.
const (
	ARPOpRequest uint16 = 1
	ARPOpReply   uint16 = 2
)

// ARPPacket is a parsed view over an ARP-for-IPv4-over-Ethernet payload.
// Its fields are copies; mutating an ARPPacket does not affect the
// underlying buffer (use the Set* accessors on the raw slice for that).
type ARPPacket struct {
	Operation  uint16
	SenderMAC  MACAddr
	SenderIPv4 IPv4Addr
	TargetMAC  MACAddr
	TargetIPv4 IPv4Addr
}

// ParseARP validates and parses an ARP-for-IPv4-over-Ethernet payload.
// payload is frame[EthernetHeaderSize:]; it must already be known to be
// at least ARPHeaderSize long by the caller's length check, but
// ParseARP re-checks defensively since it may be called on arbitrary
// slices in tests.
func ParseARP(payload []byte) (ARPPacket, error) {
	if len(payload) < ARPHeaderSize {
		return ARPPacket{}, fmt.Errorf("parse arp: %w", ErrARPTooShort)
	}

	hrd := binary.BigEndian.Uint16(payload[arpHrdOff : arpHrdOff+2])
	pro := binary.BigEndian.Uint16(payload[arpProOff : arpProOff+2])
	hln := payload[arpHlnOff]
	pln := payload[arpPlnOff]

	if hrd != ARPHardwareEthernet || pro != ARPProtocolIPv4 ||
		hln != arpHwLenEthernet || pln != arpProtoLenIPv4 {
		return ARPPacket{}, fmt.Errorf("parse arp: %w", ErrARPUnsupported)
	}

	var pkt ARPPacket
	pkt.Operation = binary.BigEndian.Uint16(payload[arpOpOff : arpOpOff+2])
	copy(pkt.SenderMAC[:], payload[arpShaOff:arpShaOff+6])
	copy(pkt.SenderIPv4[:], payload[arpSipOff:arpSipOff+4])
	copy(pkt.TargetMAC[:], payload[arpThaOff:arpThaOff+6])
	copy(pkt.TargetIPv4[:], payload[arpTipOff:arpTipOff+4])

	return pkt, nil
}

// PutARP renders pkt into payload, which must be at least ARPHeaderSize
// bytes. It always writes the fixed Ethernet/IPv4 hrd/pro/hln/pln fields.
func PutARP(payload []byte, pkt ARPPacket) {
	binary.BigEndian.PutUint16(payload[arpHrdOff:arpHrdOff+2], ARPHardwareEthernet)
	binary.BigEndian.PutUint16(payload[arpProOff:arpProOff+2], ARPProtocolIPv4)
	payload[arpHlnOff] = arpHwLenEthernet
	payload[arpPlnOff] = arpProtoLenIPv4
	binary.BigEndian.PutUint16(payload[arpOpOff:arpOpOff+2], pkt.Operation)
	copy(payload[arpShaOff:arpShaOff+6], pkt.SenderMAC[:])
	copy(payload[arpSipOff:arpSipOff+4], pkt.SenderIPv4[:])
	copy(payload[arpThaOff:arpThaOff+6], pkt.TargetMAC[:])
	copy(payload[arpTipOff:arpTipOff+4], pkt.TargetIPv4[:])
}
