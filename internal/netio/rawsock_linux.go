//go:build linux

package netio

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// etherTypeARP and etherTypeIPv4 are the only two EtherTypes the router
// cares about; every other frame is filtered out by the kernel before it
// ever reaches userspace.
const (
	etherTypeARP  = 0x0806
	etherTypeIPv4 = 0x0800
)

// RawFrameConn implements FrameConn using an AF_PACKET/SOCK_RAW socket
// bound to a single network interface.
//
// The socket is configured with:
//   - A classic BPF filter (SO_ATTACH_FILTER) accepting only ARP and
//     IPv4 EtherTypes, so the kernel discards everything else before a
//     copy ever reaches this process.
//   - An eventfd used purely to interrupt ReadFrame's blocked poll when Close
//     is called, since AF_PACKET sockets don't support SO_RCVTIMEO-based
//     context cancellation cleanly across concurrent readers.
type RawFrameConn struct {
	fd      int
	efd     int
	ifName  string
	ifIndex int

	mu     sync.Mutex
	closed bool
}

// NewRawFrameConn opens a raw Ethernet socket bound to ifName, with a
// BPF filter restricting delivery to ARP and IPv4 frames.
func NewRawFrameConn(ifName string, promiscuous bool) (*RawFrameConn, error) {
	ifi, err := net.InterfaceByName(ifName)
	if err != nil {
		return nil, fmt.Errorf("netio: lookup interface %q: %w", ifName, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("netio: raw socket on %q (requires CAP_NET_RAW): %w", ifName, err)
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifi.Index,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netio: bind to interface %q: %w", ifName, err)
	}

	if promiscuous {
		mreq := &unix.PacketMreq{
			Ifindex: int32(ifi.Index),
			Type:    unix.PACKET_MR_PROMISC,
		}
		if err := unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, mreq); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("netio: set promiscuous on %q: %w", ifName, err)
		}
	}

	if err := attachEtherTypeFilter(fd); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netio: attach BPF filter on %q: %w", ifName, err)
	}

	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netio: eventfd for %q: %w", ifName, err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		unix.Close(efd)
		return nil, fmt.Errorf("netio: set nonblocking on %q: %w", ifName, err)
	}

	return &RawFrameConn{
		fd:      fd,
		efd:     efd,
		ifName:  ifName,
		ifIndex: ifi.Index,
	}, nil
}

// attachEtherTypeFilter installs a classic BPF program restricting
// delivery to ARP (0x0806) and IPv4 (0x0800) EtherTypes, so the kernel
// drops everything else before it is copied into this process.
//
// The program is assembled from golang.org/x/net/bpf's typed
// instructions rather than hand-placed opcodes, so the jump targets
// stay in sync with the instruction list by construction.
func attachEtherTypeFilter(fd int) error {
	insns := []bpf.Instruction{
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: etherTypeARP, SkipTrue: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: etherTypeIPv4, SkipTrue: 1},
		bpf.RetConstant{Val: 0},
		bpf.RetConstant{Val: 0x00040000},
	}

	raw, err := bpf.Assemble(insns)
	if err != nil {
		return fmt.Errorf("netio: assemble BPF filter: %w", err)
	}

	prog := make([]unix.SockFilter, len(raw))
	for i, ins := range raw {
		prog[i] = unix.SockFilter{Code: ins.Op, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}

	fprog := unix.SockFprog{
		Len:    uint16(len(prog)),
		Filter: &prog[0],
	}
	return unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &fprog)
}

// ReadFrame blocks until a frame arrives or Close is called.
func (c *RawFrameConn) ReadFrame(buf []byte) (int, error) {
	pfds := []unix.PollFd{
		{Fd: int32(c.fd), Events: unix.POLLIN},
		{Fd: int32(c.efd), Events: unix.POLLIN},
	}

	for {
		if _, err := unix.Poll(pfds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, fmt.Errorf("netio: poll %q: %w", c.ifName, err)
		}

		if pfds[1].Revents&unix.POLLIN != 0 {
			return 0, ErrSocketClosed
		}

		if pfds[0].Revents&(unix.POLLIN|unix.POLLERR) == 0 {
			continue
		}

		n, _, err := unix.Recvfrom(c.fd, buf, 0)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				continue
			}
			return 0, fmt.Errorf("netio: recvfrom %q: %w", c.ifName, err)
		}
		return n, nil
	}
}

// WriteFrame sends frame as-is on the bound interface.
func (c *RawFrameConn) WriteFrame(frame []byte) error {
	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  c.ifIndex,
	}
	if err := unix.Sendto(c.fd, frame, 0, addr); err != nil {
		return fmt.Errorf("netio: sendto %q: %w", c.ifName, err)
	}
	return nil
}

// Close releases the socket and unblocks any pending ReadFrame call.
func (c *RawFrameConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var wakeup [8]byte
	binary.LittleEndian.PutUint64(wakeup[:], 1)
	_, _ = unix.Write(c.efd, wakeup[:])

	if err := unix.Close(c.fd); err != nil {
		unix.Close(c.efd)
		return fmt.Errorf("netio: close %q: %w", c.ifName, err)
	}
	return unix.Close(c.efd)
}

// IfaceName returns the bound interface name.
func (c *RawFrameConn) IfaceName() string {
	return c.ifName
}

func htons(v uint16) uint16 { return (v << 8) | (v >> 8) }
