package router

import "sync"

// maxFrameSize is large enough for any frame this router originates
// (ARP replies/requests, ICMP errors, echo replies never approach
// standard Ethernet MTU). Copies of forwarded frames held while they
// await ARP are plain allocations, not drawn from this pool.
const maxFrameSize = 1522

// framePool recycles frame-sized byte buffers to keep the hot path
// (ARP replies, ICMP generation) allocation-free, the same role the
// teacher's package-level PacketPool plays for BFD Control packets.
type framePool struct {
	pool sync.Pool
}

func newFramePool() *framePool {
	return &framePool{
		pool: sync.Pool{
			New: func() any {
				buf := make([]byte, maxFrameSize)
				return &buf
			},
		},
	}
}

// get returns a zeroed buffer of exactly n bytes, backed by pooled
// storage when n fits within maxFrameSize.
func (p *framePool) get(n int) []byte {
	if n > maxFrameSize {
		return make([]byte, n)
	}
	bufp := p.pool.Get().(*[]byte)
	buf := (*bufp)[:n]
	clear(buf)
	return buf
}

// put returns buf to the pool. Callers must not use buf after calling
// put.
func (p *framePool) put(buf []byte) {
	if cap(buf) != maxFrameSize {
		return
	}
	full := buf[:maxFrameSize]
	p.pool.Put(&full)
}
