package router

import "errors"

// Sentinel errors returned by the wire codecs and pipeline. Callers
// distinguish them with errors.Is; none of them are constructed with
// dynamic text so comparison never drifts from the message.
var (
	// ErrARPTooShort indicates an ARP payload shorter than the fixed
	// IPv4-over-Ethernet ARP layout.
	ErrARPTooShort = errors.New("arp payload too short")

	// ErrARPUnsupported indicates an ARP header whose hardware/protocol
	// type or address lengths do not match Ethernet/IPv4.
	ErrARPUnsupported = errors.New("arp header does not describe ethernet/ipv4")

	// ErrIPv4TooShort indicates a buffer shorter than the declared IPv4
	// header length, or shorter than the minimum 20-byte header.
	ErrIPv4TooShort = errors.New("ipv4 payload too short")

	// ErrIPv4BadVersion indicates an IP version field other than 4.
	ErrIPv4BadVersion = errors.New("ipv4 version field is not 4")

	// ErrIPv4BadChecksum indicates an IPv4 header checksum mismatch.
	// ParseICMPHeader also returns it when an ICMP checksum does not
	// verify.
	ErrIPv4BadChecksum = errors.New("ipv4 header checksum mismatch")

	// ErrICMPTooShort indicates a buffer shorter than an ICMP header.
	ErrICMPTooShort = errors.New("icmp payload too short")

	// ErrUnknownInterface indicates a lookup by name found no configured
	// interface.
	ErrUnknownInterface = errors.New("unknown interface")

	// ErrDuplicateInterface indicates two interfaces configured with the
	// same name.
	ErrDuplicateInterface = errors.New("duplicate interface name")

	// ErrInvalidRoute indicates a route whose dest does not already lie
	// on the mask boundary (dest & mask != dest).
	ErrInvalidRoute = errors.New("route destination not aligned to mask")
)
