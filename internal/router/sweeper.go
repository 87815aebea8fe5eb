package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RunSweeper runs the background sweeper task (§4.F) until ctx is
// cancelled. There is exactly one sweeper goroutine regardless of how
// many pending requests or cache entries exist — it iterates the whole
// ARPTable each tick rather than scheduling one timer per entry, the
// same collapsing of "one goroutine per independent timer" into "one
// goroutine, one ticker, iterate everything" that the component design
// calls for.
//
// RunSweeper blocks until ctx.Done(); callers run it in its own
// goroutine and cancel ctx to join it during shutdown. Per §5,
// cancellation drops any still-pending requests without emitting ICMP
// (best-effort) rather than draining them.
func (r *Router) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(DefaultARPSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce()
		}
	}
}

func (r *Router) sweepOnce() {
	outcome := r.arp.Sweep()

	if outcome.Evicted > 0 {
		r.obs.CacheEvicted(outcome.Evicted)
	}

	for _, rt := range outcome.Retransmits {
		r.broadcastARPRequest(rt)
	}

	for _, exp := range outcome.Expired {
		r.obs.ARPExpired(len(exp.Buffered))
		r.emitHostUnreachable(exp)
	}
}

// broadcastARPRequest sends an ARP request for rt.TargetIPv4 out
// rt.OutIface, per §4.F: target MAC is the broadcast address, sender is
// the out_iface's own MAC/IP, target MAC in the ARP payload is zero
// (not yet known).
func (r *Router) broadcastARPRequest(rt ARPRetransmit) {
	out, ok := r.ifaces.LookupByName(rt.OutIface)
	if !ok {
		// Same class of corrupted invariant as learnFromARPReply and
		// forward: the interface table is immutable for the life of the
		// Router, so a pending request naming an interface it doesn't
		// contain cannot happen without a bug elsewhere.
		panic(fmt.Sprintf("router: pending request references unknown interface %q", rt.OutIface))
	}

	buf := r.pool.get(EthernetHeaderSize + ARPHeaderSize)
	defer r.pool.put(buf)

	PutEthernetHeader(buf, BroadcastMAC, out.MAC, EtherTypeARP)
	PutARP(buf[EthernetHeaderSize:], ARPPacket{
		Operation:  ARPOpRequest,
		SenderMAC:  out.MAC,
		SenderIPv4: out.IPv4,
		TargetMAC:  MACAddr{},
		TargetIPv4: rt.TargetIPv4,
	})

	if err := r.sender.SendFrame(out.Name, buf); err != nil {
		r.logger.Warn("send arp request failed", slog.String("iface", out.Name), slog.Any("error", err))
		return
	}
	r.obs.ARPRequestSent()
}
