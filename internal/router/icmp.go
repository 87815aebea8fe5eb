package router

import "log/slog"

// ICMP generator (§4.H): builds and emits type-0/3/11 messages. All
// three paths (echo reply, and the two kinds of error) share the same
// shape — a fresh Ethernet+IPv4+ICMP frame, interface-sourced MAC and
// IP, checksum computed last — so they are collected here rather than
// duplicated at each of pipeline.go's call sites.

// sendEchoReply answers a local-destined ICMP echo request (§4.G step
// 3, §8 round-trip property): identifier, sequence, and payload are
// preserved verbatim; only the ICMP type/checksum and the IP src/dst
// swap.
func (r *Router) sendEchoReply(ingressIface string, hdr IPv4Header, icmpHdr ICMPHeader, payload []byte) {
	local, ok := r.ifaces.LookupByName(ingressIface)
	if !ok {
		r.logger.Warn("echo reply: unknown ingress interface", slog.String("iface", ingressIface))
		return
	}

	icmpLen := ICMPHeaderSize + len(payload)
	totalLen := IPv4MinHeaderSize + icmpLen
	buf := r.pool.get(EthernetHeaderSize + totalLen)
	defer r.pool.put(buf)

	PutEthernetHeader(buf, MACAddr{}, local.MAC, EtherTypeIPv4) // dst filled in by sendLocallyOriginated from the ARP cache; see below.
	ipRegion := buf[EthernetHeaderSize:]
	PutIPv4Header(ipRegion, local.IPv4, hdr.Src, IPProtocolICMP, DefaultTTL, r.idents.Next(), totalLen)
	icmpRegion := ipRegion[IPv4MinHeaderSize:]
	PutICMPEchoReply(icmpRegion, icmpHdr.Identifier, icmpHdr.Sequence, payload)

	r.sendLocallyOriginated(ingressIface, buf, hdr.Src)
	r.obs.ICMPSent(ICMPTypeEchoReply)
}

// sendICMPError emits a type-3 or type-11 ICMP error quoting the
// original packet, addressed back to its source via ingressIface — or
// via the original ingress interface recorded at buffering time, for
// the host-unreachable-on-ARP-abandonment case (see emitHostUnreachable).
//
// Per §7, an ICMP error is never generated in response to an ICMP
// error nor addressed to a broadcast/multicast source.
func (r *Router) sendICMPError(ingressIface string, frame []byte, hdr IPv4Header, icmpType, code uint8) {
	if hdr.Src.IsBroadcastOrMulticast() {
		r.obs.FrameDropped(DropICMPToICMPError)
		return
	}
	if hdr.Protocol == IPProtocolICMP {
		origICMP := frame[EthernetHeaderSize+hdr.HeaderLen:]
		if origHdr, err := ParseICMPHeader(origICMP); err == nil && origHdr.Type != ICMPTypeEchoRequest {
			r.obs.FrameDropped(DropICMPToICMPError)
			return
		}
	}

	local, ok := r.ifaces.LookupByName(ingressIface)
	if !ok {
		r.logger.Warn("icmp error: unknown responding interface", slog.String("iface", ingressIface))
		return
	}

	quoted := make([]byte, ICMPQuoteLen)
	copy(quoted, frame[EthernetHeaderSize:])

	icmpLen := ICMPHeaderSize + ICMPErrorBodyLen
	totalLen := IPv4MinHeaderSize + icmpLen
	buf := r.pool.get(EthernetHeaderSize + totalLen)
	defer r.pool.put(buf)

	PutEthernetHeader(buf, EthernetSrc(frame), local.MAC, EtherTypeIPv4) // back to the offending frame's link-layer source unless the ARP cache knows hdr.Src.
	ipRegion := buf[EthernetHeaderSize:]
	PutIPv4Header(ipRegion, local.IPv4, hdr.Src, IPProtocolICMP, DefaultTTL, r.idents.Next(), totalLen)
	icmpRegion := ipRegion[IPv4MinHeaderSize:]
	PutICMPError(icmpRegion, icmpType, code, quoted)

	r.sendLocallyOriginated(ingressIface, buf, hdr.Src)
	r.obs.ICMPSent(icmpType)
}

// emitHostUnreachable builds and sends one ICMP type-3/code-1 per
// buffered frame of an abandoned pending request (§4.F), each via the
// ingress interface recorded when that particular frame was queued —
// which may differ frame-to-frame if packets for the same unresolved
// next-hop arrived on different interfaces.
func (r *Router) emitHostUnreachable(exp ExpiredRequest) {
	for _, bf := range exp.Buffered {
		if len(bf.Frame) < EthernetHeaderSize {
			continue // too short to hold an Ethernet header; nothing sane to quote.
		}
		payload := bf.Frame[EthernetHeaderSize:]
		hdr, err := ParseIPv4Header(payload)
		if err != nil {
			continue // the buffered frame no longer parses; nothing sane to quote.
		}
		r.sendICMPError(bf.IngressIface, bf.Frame, hdr, ICMPTypeUnreachable, ICMPCodeHostUnreachable)
	}
}

// sendLocallyOriginated resolves the link-layer destination for a
// router-originated IPv4 packet and transmits it. If dst is already in
// the ARP cache the Ethernet destination is filled in from the cache
// and the frame is sent immediately. On a cache miss, a frame that
// already carries an Ethernet destination (an ICMP error, which
// sendICMPError addresses to the offending frame's link-layer source)
// is sent as is; any other frame (an echo reply) is queued exactly like
// a forwarded packet awaiting ARP resolution, reusing the same pending
// queue and sweeper-driven retry/giveup machinery (§4.F).
func (r *Router) sendLocallyOriginated(outIface string, frame []byte, dst IPv4Addr) {
	out, ok := r.ifaces.LookupByName(outIface)
	if !ok {
		return
	}

	if mac, hit := r.arp.Lookup(dst); hit {
		SetEthernetDst(frame, mac)
	} else if EthernetDst(frame).IsZero() {
		r.arp.QueueRequest(dst, frame, outIface, outIface)
		return
	}

	if err := r.sender.SendFrame(out.Name, frame); err != nil {
		r.logger.Warn("send originated frame failed", slog.String("iface", out.Name), slog.Any("error", err))
	}
}
