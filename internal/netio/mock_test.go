package netio_test

import (
	"errors"
	"sync"

	"github.com/dantte-lp/routerd/internal/netio"
)

// -------------------------------------------------------------------------
// MockFrameConn — Test double for FrameConn
// -------------------------------------------------------------------------

// MockFrameConn implements netio.FrameConn for testing without real
// sockets. It provides injectable read behavior and records every frame
// written.
type MockFrameConn struct {
	mu     sync.Mutex
	ifName string
	closed bool

	// ReadFunc is called by ReadFrame. Set this to control read
	// behavior; if nil, ReadFrame blocks on closeCh until Close is
	// called.
	ReadFunc func(buf []byte) (int, error)

	// Written records every frame sent via WriteFrame.
	Written [][]byte

	closeCh chan struct{}
}

// NewMockFrameConn creates a MockFrameConn bound to the given interface
// name.
func NewMockFrameConn(ifName string) *MockFrameConn {
	return &MockFrameConn{
		ifName:  ifName,
		closeCh: make(chan struct{}),
	}
}

// ReadFrame implements FrameConn.ReadFrame.
func (m *MockFrameConn) ReadFrame(buf []byte) (int, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(buf)
	}
	<-m.closeCh
	return 0, netio.ErrSocketClosed
}

// WriteFrame implements FrameConn.WriteFrame.
func (m *MockFrameConn) WriteFrame(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return netio.ErrSocketClosed
	}

	data := make([]byte, len(frame))
	copy(data, frame)
	m.Written = append(m.Written, data)
	return nil
}

// Close implements FrameConn.Close.
func (m *MockFrameConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.closeCh)
	return nil
}

// IfaceName implements FrameConn.IfaceName.
func (m *MockFrameConn) IfaceName() string {
	return m.ifName
}

// writtenCount returns the number of frames recorded so far.
func (m *MockFrameConn) writtenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Written)
}

var errMockRead = errors.New("mock read failure")
