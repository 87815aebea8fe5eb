package netio

import (
	"fmt"
	"sync"
)

// Multiplexer holds one FrameConn per router interface and implements
// router.FrameSender by dispatching SendFrame to the conn matching the
// named interface. This is the same role the teacher's UDPSender plays
// for a single BFD peer, generalized to a fixed set of named interfaces.
type Multiplexer struct {
	mu    sync.RWMutex
	conns map[string]FrameConn
}

// NewMultiplexer creates a Multiplexer over the given conns, keyed by
// each conn's IfaceName.
func NewMultiplexer(conns []FrameConn) *Multiplexer {
	m := &Multiplexer{conns: make(map[string]FrameConn, len(conns))}
	for _, c := range conns {
		m.conns[c.IfaceName()] = c
	}
	return m
}

// SendFrame implements router.FrameSender.
func (m *Multiplexer) SendFrame(ifaceName string, frame []byte) error {
	m.mu.RLock()
	conn, ok := m.conns[ifaceName]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("netio: send on %q: %w", ifaceName, ErrUnknownInterface)
	}
	return conn.WriteFrame(frame)
}

// Conns returns every conn the Multiplexer dispatches to, in no
// particular order.
func (m *Multiplexer) Conns() []FrameConn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FrameConn, 0, len(m.conns))
	for _, c := range m.conns {
		out = append(out, c)
	}
	return out
}

// Close closes every conn the Multiplexer dispatches to.
func (m *Multiplexer) Close() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var firstErr error
	for _, c := range m.conns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
