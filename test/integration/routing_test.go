//go:build integration

// Package integration_test exercises the router, netio, and mgmt packages
// wired together as routerd assembles them, without opening real raw
// sockets (which requires root and a configured interface).
package integration_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dantte-lp/routerd/internal/mgmt"
	"github.com/dantte-lp/routerd/internal/netio"
	"github.com/dantte-lp/routerd/internal/router"
)

// memConn is a netio.FrameConn backed by an in-memory channel, standing
// in for a real AF_PACKET socket so the receiver/router/multiplexer
// wiring can be exercised in a single process.
type memConn struct {
	name string
	in   chan []byte

	mu      sync.Mutex
	written [][]byte
	closed  bool
	closeCh chan struct{}
}

func newMemConn(name string) *memConn {
	return &memConn{
		name:    name,
		in:      make(chan []byte, 8),
		closeCh: make(chan struct{}),
	}
}

func (c *memConn) deliver(frame []byte) {
	c.in <- frame
}

func (c *memConn) ReadFrame(buf []byte) (int, error) {
	select {
	case frame := <-c.in:
		return copy(buf, frame), nil
	case <-c.closeCh:
		return 0, netio.ErrSocketClosed
	}
}

func (c *memConn) WriteFrame(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return netio.ErrSocketClosed
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	c.written = append(c.written, cp)
	return nil
}

func (c *memConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closeCh)
	return nil
}

func (c *memConn) IfaceName() string { return c.name }

func (c *memConn) writtenFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}

var (
	eth0MAC = router.MACAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	eth0IP  = router.IPv4Addr{10, 0, 0, 1}
	eth1MAC = router.MACAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	eth1IP  = router.IPv4Addr{10, 0, 2, 1}

	hostMAC = router.MACAddr{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0x01}
	hostIP  = router.IPv4Addr{10, 0, 0, 50}

	farMAC = router.MACAddr{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0x01}
	farIP  = router.IPv4Addr{10, 0, 2, 77}
)

func buildIPv4Frame(t *testing.T, dstMAC, srcMAC router.MACAddr, src, dst router.IPv4Addr, payload []byte) []byte {
	t.Helper()
	totalLen := router.IPv4MinHeaderSize + len(payload)
	frame := make([]byte, router.EthernetHeaderSize+totalLen)
	router.PutEthernetHeader(frame, dstMAC, srcMAC, router.EtherTypeIPv4)
	router.PutIPv4Header(frame[router.EthernetHeaderSize:], src, dst, router.IPProtocolUDP, 64, 1, totalLen)
	copy(frame[router.EthernetHeaderSize+router.IPv4MinHeaderSize:], payload)
	return frame
}

func buildARPReplyFrame(senderMAC router.MACAddr, senderIP router.IPv4Addr, targetMAC router.MACAddr, targetIP router.IPv4Addr) []byte {
	frame := make([]byte, router.EthernetHeaderSize+router.ARPHeaderSize)
	router.PutEthernetHeader(frame, targetMAC, senderMAC, router.EtherTypeARP)
	router.PutARP(frame[router.EthernetHeaderSize:], router.ARPPacket{
		Operation:  router.ARPOpReply,
		SenderMAC:  senderMAC,
		SenderIPv4: senderIP,
		TargetMAC:  targetMAC,
		TargetIPv4: targetIP,
	})
	return frame
}

// TestForwardingAcrossNetioAndRouter wires a Router to a netio.Receiver
// and netio.Multiplexer over two in-memory conns (standing in for
// eth0/eth1's raw sockets) and drives a full forward-then-ARP-resolve
// cycle through the real package boundary, not router-package-internal
// mocks.
func TestForwardingAcrossNetioAndRouter(t *testing.T) {
	ifaces, err := router.NewInterfaceTable([]router.Interface{
		{Name: "eth0", MAC: eth0MAC, IPv4: eth0IP},
		{Name: "eth1", MAC: eth1MAC, IPv4: eth1IP},
	})
	if err != nil {
		t.Fatalf("NewInterfaceTable: %v", err)
	}

	routes, err := router.NewRoutingTable([]router.Route{
		{Dest: router.IPv4Addr{10, 0, 2, 0}, Mask: router.IPv4Addr{255, 255, 255, 0}, Gateway: farIP, OutIface: "eth1"},
	})
	if err != nil {
		t.Fatalf("NewRoutingTable: %v", err)
	}

	eth0 := newMemConn("eth0")
	eth1 := newMemConn("eth1")
	mux := netio.NewMultiplexer([]netio.FrameConn{eth0, eth1})

	arp := router.NewARPTable()
	rt := router.NewRouter(ifaces, routes, mux, router.WithARPTable(arp))

	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	recv := netio.NewReceiver(rt, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- recv.Run(ctx, eth0, eth1) }()
	go rt.RunSweeper(ctx) // ARP requests are sent only by the sweeper (first tick ~1s)

	mgmtSrv := mgmt.New(ifaces.All(), []router.Route{
		{Dest: router.IPv4Addr{10, 0, 2, 0}, Mask: router.IPv4Addr{255, 255, 255, 0}, Gateway: farIP, OutIface: "eth1"},
	}, arp, logger)
	if mgmtSrv.Handler() == nil {
		t.Fatal("mgmt.Server.Handler() returned nil")
	}

	frame := buildIPv4Frame(t, eth0MAC, hostMAC, hostIP, farIP, []byte("payload"))
	eth0.deliver(frame)

	waitFor(t, func() bool { return len(eth1.writtenFrames()) >= 1 })

	arpReq := eth1.writtenFrames()[0]
	if router.EthernetType(arpReq) != router.EtherTypeARP {
		t.Fatalf("first frame out eth1 = ethertype %#x, want ARP", router.EthernetType(arpReq))
	}

	reply := buildARPReplyFrame(farMAC, farIP, eth1MAC, eth1IP)
	eth1.deliver(reply)

	waitFor(t, func() bool { return len(eth1.writtenFrames()) >= 2 })

	forwarded := eth1.writtenFrames()[1]
	if router.EthernetType(forwarded) != router.EtherTypeIPv4 {
		t.Fatalf("second frame out eth1 = ethertype %#x, want IPv4", router.EthernetType(forwarded))
	}
	if router.EthernetDst(forwarded) != farMAC {
		t.Fatal("forwarded frame not addressed to the resolved gateway MAC")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return within 2s of context cancellation")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}

// testWriter adapts *testing.T to an io.Writer for slog output during
// the test.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
