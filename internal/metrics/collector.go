// Package metrics exposes router activity as Prometheus metrics. The
// Collector implements router.Observer directly, so the router core
// stays free of any dependency on the metrics library itself.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dantte-lp/routerd/internal/router"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "routerd"
	subsystem = "router"
)

// Label names for router metrics.
const (
	labelReason   = "reason"
	labelICMPType = "icmp_type"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Router Metrics
// -------------------------------------------------------------------------

// Collector holds all router Prometheus metrics and implements
// router.Observer, so it can be passed directly to router.WithObserver.
type Collector struct {
	// FramesForwarded counts frames successfully forwarded, whether sent
	// on a cache hit or dispatched once ARP resolves the next hop.
	FramesForwarded prometheus.Counter

	// FramesDropped counts silently-dropped frames, labeled by reason.
	FramesDropped *prometheus.CounterVec

	// ICMPSent counts ICMP messages the router originates, labeled by type.
	ICMPSent *prometheus.CounterVec

	// ARPRequestsSent counts ARP requests broadcast by the sweeper.
	ARPRequestsSent prometheus.Counter

	// ARPRepliesSent counts ARP replies sent for locally-owned addresses.
	ARPRepliesSent prometheus.Counter

	// ARPResolved counts pending ARP requests resolved by a reply.
	ARPResolved prometheus.Counter

	// ARPExpired counts pending ARP requests abandoned after exhausting
	// their retransmit attempts.
	ARPExpired prometheus.Counter

	// ARPBufferedLost counts frames discarded along with an abandoned
	// pending ARP request.
	ARPBufferedLost prometheus.Counter

	// ARPCacheEvicted counts ARP cache entries evicted after TTL expiry.
	ARPCacheEvicted prometheus.Counter

	// ARPCacheSize reports the ARP cache occupancy last passed to
	// SetCacheSize; no Observer callback updates it.
	ARPCacheSize prometheus.Gauge
}

// NewCollector creates a Collector with all router metrics registered
// against the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.FramesForwarded,
		c.FramesDropped,
		c.ICMPSent,
		c.ARPRequestsSent,
		c.ARPRepliesSent,
		c.ARPResolved,
		c.ARPExpired,
		c.ARPBufferedLost,
		c.ARPCacheEvicted,
		c.ARPCacheSize,
	)

	return c
}

// newMetrics creates all Prometheus metrics without registering them.
func newMetrics() *Collector {
	return &Collector{
		FramesForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_forwarded_total",
			Help:      "Total frames successfully forwarded.",
		}),

		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_dropped_total",
			Help:      "Total frames silently dropped, by reason.",
		}, []string{labelReason}),

		ICMPSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "icmp_sent_total",
			Help:      "Total ICMP messages originated by the router, by type.",
		}, []string{labelICMPType}),

		ARPRequestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arp_requests_sent_total",
			Help:      "Total ARP requests broadcast by the sweeper.",
		}),

		ARPRepliesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arp_replies_sent_total",
			Help:      "Total ARP replies sent for locally-owned addresses.",
		}),

		ARPResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arp_resolved_total",
			Help:      "Total pending ARP requests resolved by a reply.",
		}),

		ARPExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arp_expired_total",
			Help:      "Total pending ARP requests abandoned after exhausting retransmit attempts.",
		}),

		ARPBufferedLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arp_buffered_frames_lost_total",
			Help:      "Total frames discarded because their pending ARP request was abandoned.",
		}),

		ARPCacheEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arp_cache_evicted_total",
			Help:      "Total ARP cache entries evicted after their TTL expired.",
		}),

		ARPCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arp_cache_size",
			Help:      "Current number of entries in the ARP cache.",
		}),
	}
}

// -------------------------------------------------------------------------
// router.Observer implementation
// -------------------------------------------------------------------------

// Forwarded implements router.Observer.
func (c *Collector) Forwarded() {
	c.FramesForwarded.Inc()
}

// FrameDropped implements router.Observer.
func (c *Collector) FrameDropped(reason router.DropReason) {
	c.FramesDropped.WithLabelValues(reason.String()).Inc()
}

// ICMPSent implements router.Observer.
func (c *Collector) ICMPSent(icmpType uint8) {
	c.ICMPSent.WithLabelValues(icmpTypeLabel(icmpType)).Inc()
}

// ARPRequestSent implements router.Observer.
func (c *Collector) ARPRequestSent() {
	c.ARPRequestsSent.Inc()
}

// ARPReplySent implements router.Observer.
func (c *Collector) ARPReplySent() {
	c.ARPRepliesSent.Inc()
}

// ARPResolved implements router.Observer.
func (c *Collector) ARPResolved() {
	c.ARPResolved.Inc()
}

// ARPExpired implements router.Observer. bufferedFrames is the number of
// queued frames discarded along with the abandoned pending request.
func (c *Collector) ARPExpired(bufferedFrames int) {
	c.ARPExpired.Inc()
	c.ARPBufferedLost.Add(float64(bufferedFrames))
}

// CacheEvicted implements router.Observer. count is the number of cache
// entries removed in a single sweep pass.
func (c *Collector) CacheEvicted(count int) {
	c.ARPCacheEvicted.Add(float64(count))
}

// -------------------------------------------------------------------------
// Polled gauges
// -------------------------------------------------------------------------

// SetCacheSize reports the current ARP cache size. Unlike the counters
// above this isn't driven by an Observer callback; the gauge changes
// only when a caller passes a value here. cmd/routerd does not call it,
// so in the daemon the gauge stays at 0.
func (c *Collector) SetCacheSize(n int) {
	c.ARPCacheSize.Set(float64(n))
}

func icmpTypeLabel(t uint8) string {
	switch t {
	case 0:
		return "echo_reply"
	case 3:
		return "destination_unreachable"
	case 8:
		return "echo_request"
	case 11:
		return "time_exceeded"
	default:
		return "other"
	}
}
