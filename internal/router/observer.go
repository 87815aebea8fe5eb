package router

// DropReason classifies a silently-dropped frame (§7: silent drops).
type DropReason int

const (
	DropFrameTooShort DropReason = iota
	DropUnknownEtherType
	DropARPMalformed
	DropARPNotLocalTarget
	DropIPv4Malformed
	DropIPv4BadChecksum
	DropIPv4UnhandledLocalProtocol
	DropICMPToICMPError
)

func (r DropReason) String() string {
	switch r {
	case DropFrameTooShort:
		return "frame_too_short"
	case DropUnknownEtherType:
		return "unknown_ethertype"
	case DropARPMalformed:
		return "arp_malformed"
	case DropARPNotLocalTarget:
		return "arp_not_local_target"
	case DropIPv4Malformed:
		return "ipv4_malformed"
	case DropIPv4BadChecksum:
		return "ipv4_bad_checksum"
	case DropIPv4UnhandledLocalProtocol:
		return "ipv4_unhandled_local_protocol"
	case DropICMPToICMPError:
		return "icmp_to_icmp_error_suppressed"
	default:
		return "unknown"
	}
}

// Observer receives notifications of pipeline and sweeper events. It
// exists so internal/metrics can count router activity without this
// package importing a metrics library — the same decoupling the
// teacher achieves between its BFD session core and its prometheus
// collector via a narrow reporter interface.
type Observer interface {
	FrameDropped(reason DropReason)
	ICMPSent(icmpType uint8)
	ARPRequestSent()
	ARPReplySent()
	ARPResolved()
	ARPExpired(bufferedFrames int)
	CacheEvicted(count int)
	Forwarded()
}

// NopObserver implements Observer with no-op methods. It is the default
// when a Router is constructed without WithObserver.
type NopObserver struct{}

func (NopObserver) FrameDropped(DropReason)   {}
func (NopObserver) ICMPSent(uint8)            {}
func (NopObserver) ARPRequestSent()           {}
func (NopObserver) ARPReplySent()             {}
func (NopObserver) ARPResolved()              {}
func (NopObserver) ARPExpired(int)            {}
func (NopObserver) CacheEvicted(int)          {}
func (NopObserver) Forwarded()                {}
