package router

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// TestMain checks for goroutine leaks after every test in this package,
// which matters here specifically because RunSweeper starts a goroutine
// that must actually exit when its context is cancelled.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunSweeperStopsOnContextCancel(t *testing.T) {
	sender := &fakeSender{}
	r := newTestRouter(t, &countingObserver{}, sender, NewARPTable(
		WithARPRetransmitInterval(time.Millisecond),
		WithARPMaxAttempts(1),
	))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunSweeper(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSweeper did not return within 1s of context cancellation")
	}
}

func TestRunSweeperRetransmitsAndExpiresOverRealTime(t *testing.T) {
	sender := &fakeSender{}
	obs := &countingObserver{}
	arp := NewARPTable(
		WithARPRetransmitInterval(5*time.Millisecond),
		WithARPMaxAttempts(1),
	)
	r := newTestRouter(t, obs, sender, arp)

	frame := buildIPv4Frame(t, eth0MAC, hostMAC, hostIP, farIP, IPProtocolUDP, 64, []byte("payload"))
	arp.QueueRequest(farIP, frame, "eth1", "eth0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// RunSweeper always ticks at DefaultARPSweepInterval (1s); it is not
	// configurable per-ARPTable. With max attempts 1 the request expires
	// on the third tick (~3s), so the deadline below leaves room past it.
	go r.RunSweeper(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if obs.arpExpired > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	if obs.arpExpired == 0 {
		t.Fatal("sweeper never abandoned the pending request within the deadline")
	}

	var sawHostUnreachable bool
	for _, sf := range sender.sent {
		if EthernetType(sf.frame) != EtherTypeIPv4 {
			continue
		}
		icmpHdr, _ := parseICMPFromSent(t, sf.frame)
		if icmpHdr.Type == ICMPTypeUnreachable && icmpHdr.Code == ICMPCodeHostUnreachable {
			sawHostUnreachable = true
		}
	}
	if !sawHostUnreachable {
		t.Fatal("no host-unreachable ICMP observed among sent frames")
	}
}
