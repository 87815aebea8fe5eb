package netio_test

import (
	"testing"

	"github.com/dantte-lp/routerd/internal/netio"
)

func TestMultiplexerSendFrameDispatchesToNamedConn(t *testing.T) {
	t.Parallel()

	eth0 := NewMockFrameConn("eth0")
	eth1 := NewMockFrameConn("eth1")
	m := netio.NewMultiplexer([]netio.FrameConn{eth0, eth1})

	frame := []byte("hello")
	if err := m.SendFrame("eth1", frame); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	if eth0.writtenCount() != 0 {
		t.Errorf("eth0 got %d frames, want 0", eth0.writtenCount())
	}
	if eth1.writtenCount() != 1 {
		t.Fatalf("eth1 got %d frames, want 1", eth1.writtenCount())
	}
	if string(eth1.Written[0]) != "hello" {
		t.Errorf("eth1 frame = %q, want %q", eth1.Written[0], "hello")
	}
}

func TestMultiplexerSendFrameUnknownInterface(t *testing.T) {
	t.Parallel()

	m := netio.NewMultiplexer([]netio.FrameConn{NewMockFrameConn("eth0")})

	err := m.SendFrame("eth9", []byte("x"))
	if err == nil {
		t.Fatal("expected error for unknown interface, got nil")
	}
}

func TestMultiplexerCloseClosesAllConns(t *testing.T) {
	t.Parallel()

	eth0 := NewMockFrameConn("eth0")
	eth1 := NewMockFrameConn("eth1")
	m := netio.NewMultiplexer([]netio.FrameConn{eth0, eth1})

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := eth0.WriteFrame([]byte("x")); err == nil {
		t.Error("eth0 should be closed after Multiplexer.Close")
	}
	if err := eth1.WriteFrame([]byte("x")); err == nil {
		t.Error("eth1 should be closed after Multiplexer.Close")
	}
}
