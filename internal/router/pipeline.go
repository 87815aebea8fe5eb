package router

import (
	"errors"
	"fmt"
	"log/slog"
)

// FrameSender is the router's only transport collaborator: emitting a
// fully-formed Ethernet frame on a named interface. Implementations
// (internal/netio, or an in-memory fake in tests) own the actual
// socket; this package never touches one.
type FrameSender interface {
	SendFrame(ifaceName string, frame []byte) error
}

// Router ties the wire codecs, interface table, routing table, and ARP
// subsystem together into the forwarding pipeline described by the
// component design. It has no goroutines of its own beyond the one
// started by RunSweeper; HandleFrame runs to completion synchronously and may
// be called concurrently for different frames.
type Router struct {
	ifaces  *InterfaceTable
	routes  *RoutingTable
	arp     *ARPTable
	idents  *IdentAllocator
	sender  FrameSender
	obs     Observer
	logger  *slog.Logger
	pool    *framePool
}

// RouterOption configures optional Router parameters.
type RouterOption func(*Router)

// WithObserver installs an Observer for metrics/event notification.
func WithObserver(obs Observer) RouterOption {
	return func(r *Router) { r.obs = obs }
}

// WithLogger installs a *slog.Logger; if omitted, slog.Default() is used.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = logger }
}

// WithARPTable installs a pre-configured ARPTable (e.g. with overridden
// tunables or a fake clock for tests) instead of the package defaults.
func WithARPTable(arp *ARPTable) RouterOption {
	return func(r *Router) { r.arp = arp }
}

// NewRouter constructs a Router. ifaces and routes are immutable for
// the life of the Router, per the data model.
func NewRouter(ifaces *InterfaceTable, routes *RoutingTable, sender FrameSender, opts ...RouterOption) *Router {
	r := &Router{
		ifaces: ifaces,
		routes: routes,
		arp:    NewARPTable(),
		idents: NewIdentAllocator(),
		sender: sender,
		obs:    NopObserver{},
		logger: slog.Default(),
		pool:   newFramePool(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleFrame is the receive_frame entry point (§6). frame is borrowed
// for the duration of this call; HandleFrame copies anything it needs
// to retain (e.g. into a pending ARP request) before returning.
//
// HandleFrame panics if it observes a corrupted internal invariant
// (§7): this is a fatal-bug path, not a recoverable per-frame fault,
// and callers must not swallow it frame-by-frame.
func (r *Router) HandleFrame(ingressIface string, frame []byte) {
	if len(frame) < EthernetHeaderSize {
		r.obs.FrameDropped(DropFrameTooShort)
		return
	}

	switch EthernetType(frame) {
	case EtherTypeARP:
		r.handleARP(ingressIface, frame)
	case EtherTypeIPv4:
		r.handleIPv4(ingressIface, frame)
	default:
		r.obs.FrameDropped(DropUnknownEtherType)
	}
}

func (r *Router) handleARP(ingressIface string, frame []byte) {
	pkt, err := ParseARP(frame[EthernetHeaderSize:])
	if err != nil {
		r.obs.FrameDropped(DropARPMalformed)
		return
	}

	local, ok := r.ifaces.LookupByIP(pkt.TargetIPv4)
	if !ok {
		r.obs.FrameDropped(DropARPNotLocalTarget)
		return
	}

	switch pkt.Operation {
	case ARPOpRequest:
		r.replyToARPRequest(ingressIface, local, pkt)
	case ARPOpReply:
		r.learnFromARPReply(pkt)
	default:
		r.obs.FrameDropped(DropARPMalformed)
	}
}

// replyToARPRequest builds an ARP reply in a pooled buffer from the
// parsed request's sender fields and the local interface's addresses;
// the received request frame itself is left unmodified.
func (r *Router) replyToARPRequest(ingressIface string, local Interface, req ARPPacket) {
	buf := r.pool.get(EthernetHeaderSize + ARPHeaderSize)
	defer r.pool.put(buf)

	PutEthernetHeader(buf, req.SenderMAC, local.MAC, EtherTypeARP)
	PutARP(buf[EthernetHeaderSize:], ARPPacket{
		Operation:  ARPOpReply,
		SenderMAC:  local.MAC,
		SenderIPv4: local.IPv4,
		TargetMAC:  req.SenderMAC,
		TargetIPv4: req.SenderIPv4,
	})

	if err := r.sender.SendFrame(ingressIface, buf); err != nil {
		r.logger.Warn("send arp reply failed", slog.String("iface", ingressIface), slog.Any("error", err))
		return
	}
	r.obs.ARPReplySent()
}

func (r *Router) learnFromARPReply(reply ARPPacket) {
	dispatch, ok := r.arp.Insert(reply.SenderIPv4, reply.SenderMAC)
	if !ok {
		return
	}
	r.obs.ARPResolved()

	out, found := r.ifaces.LookupByName(dispatch.OutIface)
	if !found {
		// The out_iface named at enqueue time vanished from the
		// (immutable, startup-loaded) interface table: a corrupted
		// invariant, not a transient condition.
		panic(fmt.Sprintf("router: pending request references unknown interface %q", dispatch.OutIface))
	}

	for _, bf := range dispatch.Buffered {
		frame := bf.Frame
		SetEthernetDst(frame, dispatch.MAC)
		SetEthernetSrc(frame, out.MAC)
		if err := r.sender.SendFrame(out.Name, frame); err != nil {
			r.logger.Warn("send resolved frame failed", slog.String("iface", out.Name), slog.Any("error", err))
			continue
		}
		r.obs.Forwarded()
	}
}

func (r *Router) handleIPv4(ingressIface string, frame []byte) {
	if len(frame) < EthernetHeaderSize+IPv4MinHeaderSize {
		r.obs.FrameDropped(DropIPv4Malformed)
		return
	}

	payload := frame[EthernetHeaderSize:]
	hdr, err := ParseIPv4Header(payload)
	if err != nil {
		if errors.Is(err, ErrIPv4BadChecksum) {
			r.obs.FrameDropped(DropIPv4BadChecksum)
		} else {
			r.obs.FrameDropped(DropIPv4Malformed)
		}
		return
	}

	if _, local := r.ifaces.LookupByIP(hdr.Dst); local {
		r.handleLocalDelivery(ingressIface, frame, hdr)
		return
	}

	r.forward(ingressIface, frame, hdr)
}

func (r *Router) handleLocalDelivery(ingressIface string, frame []byte, hdr IPv4Header) {
	icmpRegion := frame[EthernetHeaderSize+hdr.HeaderLen:]

	switch hdr.Protocol {
	case IPProtocolICMP:
		icmpHdr, err := ParseICMPHeader(icmpRegion)
		if err != nil {
			r.obs.FrameDropped(DropIPv4Malformed)
			return
		}
		if icmpHdr.Type != ICMPTypeEchoRequest {
			r.obs.FrameDropped(DropIPv4UnhandledLocalProtocol)
			return
		}
		r.sendEchoReply(ingressIface, hdr, icmpHdr, icmpRegion[ICMPHeaderSize:])

	case IPProtocolTCP, IPProtocolUDP:
		r.sendICMPError(ingressIface, frame, hdr, ICMPTypeUnreachable, ICMPCodePortUnreachable)

	default:
		r.obs.FrameDropped(DropIPv4UnhandledLocalProtocol)
	}
}

func (r *Router) forward(ingressIface string, frame []byte, hdr IPv4Header) {
	if hdr.TTL <= 1 {
		r.sendICMPError(ingressIface, frame, hdr, ICMPTypeTimeExceeded, ICMPCodeTTLExceededInTransit)
		return
	}

	payload := frame[EthernetHeaderSize:]
	DecrementTTLAndRecheck(payload, hdr.HeaderLen)

	route, ok := r.routes.LPM(hdr.Dst)
	if !ok {
		r.sendICMPError(ingressIface, frame, hdr, ICMPTypeUnreachable, ICMPCodeNetUnreachable)
		return
	}

	out, ok := r.ifaces.LookupByName(route.OutIface)
	if !ok {
		panic(fmt.Sprintf("router: route references unknown interface %q", route.OutIface))
	}

	if mac, hit := r.arp.Lookup(route.Gateway); hit {
		SetEthernetDst(frame, mac)
		SetEthernetSrc(frame, out.MAC)
		if err := r.sender.SendFrame(out.Name, frame); err != nil {
			r.logger.Warn("send forwarded frame failed", slog.String("iface", out.Name), slog.Any("error", err))
			return
		}
		r.obs.Forwarded()
		return
	}

	r.arp.QueueRequest(route.Gateway, frame, route.OutIface, ingressIface)
}
