package router

import (
	"sync"
	"time"
)

// Tunables, overridable via configuration but defaulting to the values
// below.
const (
	DefaultARPCacheTTL           = 15 * time.Second
	DefaultARPRequestInterval    = 1 * time.Second
	DefaultARPMaxAttempts        = 5
	DefaultARPSweepInterval      = 1 * time.Second
)

// BufferedFrame is a single Ethernet frame held by a pending ARP
// request. It owns a private copy of the frame bytes: the transport's
// receive buffer is not retained past the frame handler that queued it.
type BufferedFrame struct {
	Frame        []byte
	IngressIface string
}

// pendingRequest is an unresolved next-hop lookup together with every
// frame buffered behind it, FIFO.
type pendingRequest struct {
	targetIPv4 IPv4Addr
	outIface   string
	buffered   []BufferedFrame
	attempts   int
	lastSentAt time.Time
	state      PendingState
}

// cacheEntry is one resolved ARP cache record.
type cacheEntry struct {
	mac        MACAddr
	insertedAt time.Time
}

// ARPTable is the ARP cache and pending-request queue together,
// guarded by a single mutex. The component design requires this: the
// invariant "a pending request and a live cache entry for the same
// IPv4 never coexist" spans both structures, so splitting them across
// two independently-locked maps would only reintroduce the same
// coordination problem one level up.
type ARPTable struct {
	mu      sync.Mutex
	cache   map[IPv4Addr]cacheEntry
	pending map[IPv4Addr]*pendingRequest

	ttl                time.Duration
	retransmitInterval time.Duration
	maxAttempts        int

	now func() time.Time
}

// ARPTableOption configures optional ARPTable parameters.
type ARPTableOption func(*ARPTable)

// WithARPCacheTTL overrides DefaultARPCacheTTL.
func WithARPCacheTTL(d time.Duration) ARPTableOption {
	return func(t *ARPTable) { t.ttl = d }
}

// WithARPRetransmitInterval overrides DefaultARPRequestInterval.
func WithARPRetransmitInterval(d time.Duration) ARPTableOption {
	return func(t *ARPTable) { t.retransmitInterval = d }
}

// WithARPMaxAttempts overrides DefaultARPMaxAttempts.
func WithARPMaxAttempts(n int) ARPTableOption {
	return func(t *ARPTable) { t.maxAttempts = n }
}

// withClock overrides the time source; used by tests to control the
// sweeper deterministically without sleeping.
func withClock(now func() time.Time) ARPTableOption {
	return func(t *ARPTable) { t.now = now }
}

// NewARPTable creates an empty ARPTable with the given options applied
// over the package defaults.
func NewARPTable(opts ...ARPTableOption) *ARPTable {
	t := &ARPTable{
		cache:              make(map[IPv4Addr]cacheEntry),
		pending:            make(map[IPv4Addr]*pendingRequest),
		ttl:                DefaultARPCacheTTL,
		retransmitInterval: DefaultARPRequestInterval,
		maxAttempts:        DefaultARPMaxAttempts,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Lookup returns the cached MAC for ip if present and not expired. The
// returned MACAddr is a value copy; the caller holds no lock.
func (t *ARPTable) Lookup(ip IPv4Addr) (MACAddr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.cache[ip]
	if !ok {
		return MACAddr{}, false
	}
	if t.now().Sub(entry.insertedAt) > t.ttl {
		return MACAddr{}, false
	}
	return entry.mac, true
}

// ResolvedDispatch describes the buffered frames of a pending request
// that has just been resolved by a matching ARP reply, plus the MAC
// they should be addressed to and the interface they were queued on.
// The caller dispatches these after releasing any lock.
type ResolvedDispatch struct {
	MAC      MACAddr
	OutIface string
	Buffered []BufferedFrame
}

// Insert updates or creates the cache entry for ip, and atomically
// removes the pending request for ip if one exists. What the caller
// must do next — dispatch the buffered frames, remove the pending
// record, or both — is driven entirely by the actions
// ApplyPendingEvent returns; Insert performs no I/O itself.
func (t *ARPTable) Insert(ip IPv4Addr, mac MACAddr) (ResolvedDispatch, bool) {
	t.mu.Lock()

	t.cache[ip] = cacheEntry{mac: mac, insertedAt: t.now()}

	pr, ok := t.pending[ip]
	if !ok {
		t.mu.Unlock()
		return ResolvedDispatch{}, false
	}

	result := ApplyPendingEvent(pr.state, EventCacheInsert)

	var dispatch ResolvedDispatch
	var dispatched bool
	for _, action := range result.Actions {
		switch action {
		case ActionDispatchBuffered:
			dispatch = ResolvedDispatch{MAC: mac, OutIface: pr.outIface, Buffered: pr.buffered}
			dispatched = true
		case ActionDestroy:
			delete(t.pending, ip)
		}
	}

	t.mu.Unlock()
	return dispatch, dispatched
}

// QueueRequest appends a buffered frame to the pending request for
// target, creating one with attempts=0 if none exists yet. frame is
// copied; the caller's buffer is not retained.
func (t *ARPTable) QueueRequest(target IPv4Addr, frame []byte, outIface, ingressIface string) {
	cp := make([]byte, len(frame))
	copy(cp, frame)

	t.mu.Lock()
	defer t.mu.Unlock()

	pr, ok := t.pending[target]
	if !ok {
		pr = &pendingRequest{
			targetIPv4: target,
			outIface:   outIface,
			state:      PendingStateActive,
		}
		t.pending[target] = pr
	}

	pr.buffered = append(pr.buffered, BufferedFrame{Frame: cp, IngressIface: ingressIface})
}

// SweepOutcome is everything the sweeper must do as a result of one
// pass, computed while holding the lock and executed (I/O) after
// releasing it.
type SweepOutcome struct {
	Retransmits []ARPRetransmit
	Expired     []ExpiredRequest
	Evicted     int
}

// ARPRetransmit describes a pending request that needs another ARP
// request broadcast.
type ARPRetransmit struct {
	TargetIPv4 IPv4Addr
	OutIface   string
}

// ExpiredRequest describes a pending request abandoned after exceeding
// the retry budget; every buffered frame needs a host-unreachable ICMP.
type ExpiredRequest struct {
	TargetIPv4 IPv4Addr
	Buffered   []BufferedFrame
}

// Sweep evicts expired cache entries and advances every pending
// request's state machine by one tick, returning the actions the
// caller must perform outside the lock. It is invoked by the sweeper
// (see Router.RunSweeper) roughly every DefaultARPSweepInterval.
func (t *ARPTable) Sweep() SweepOutcome {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	var out SweepOutcome

	for ip, entry := range t.cache {
		if now.Sub(entry.insertedAt) > t.ttl {
			delete(t.cache, ip)
			out.Evicted++
		}
	}

	for ip, pr := range t.pending {
		if pr.attempts > t.maxAttempts {
			result := ApplyPendingEvent(pr.state, EventSweepExpire)
			for _, action := range result.Actions {
				switch action {
				case ActionEmitHostUnreachable:
					out.Expired = append(out.Expired, ExpiredRequest{
						TargetIPv4: ip,
						Buffered:   pr.buffered,
					})
				case ActionDestroy:
					delete(t.pending, ip)
				}
			}
			continue
		}

		if now.Sub(pr.lastSentAt) >= t.retransmitInterval {
			result := ApplyPendingEvent(pr.state, EventSweepRetransmit)
			for _, action := range result.Actions {
				if action == ActionRetransmitARP {
					pr.attempts++
					pr.lastSentAt = now
					out.Retransmits = append(out.Retransmits, ARPRetransmit{
						TargetIPv4: ip,
						OutIface:   pr.outIface,
					})
				}
			}
		}
	}

	return out
}

// Stats reports the current cache and pending-queue sizes, for metrics.
func (t *ARPTable) Stats() (cacheSize, pendingSize int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cache), len(t.pending)
}

// Snapshot returns a copy of every live cache entry, for the management
// API.
func (t *ARPTable) Snapshot() map[IPv4Addr]MACAddr {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	out := make(map[IPv4Addr]MACAddr, len(t.cache))
	for ip, entry := range t.cache {
		if now.Sub(entry.insertedAt) <= t.ttl {
			out[ip] = entry.mac
		}
	}
	return out
}
