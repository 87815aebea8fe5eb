package netio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoConns indicates that Run was called without any conns.
var ErrNoConns = errors.New("receiver run: no conns provided")

// FrameHandler routes a received Ethernet frame into the forwarding
// pipeline. This interface decouples the receiver from router.Router to
// keep netio free of any import of the router package.
type FrameHandler interface {
	HandleFrame(ingressIface string, frame []byte)
}

// Receiver reads raw Ethernet frames from one or more FrameConns and
// routes them to a FrameHandler.
//
// The Receiver handles:
//   - Buffer management via FramePool
//   - Context-aware graceful shutdown (each conn's Close unblocks its
//     read loop; Run itself also returns promptly on ctx cancellation)
type Receiver struct {
	handler FrameHandler
	logger  *slog.Logger
}

// NewReceiver creates a Receiver that routes frames to the given handler.
func NewReceiver(handler FrameHandler, logger *slog.Logger) *Receiver {
	return &Receiver{
		handler: handler,
		logger:  logger.With(slog.String("component", "netio.receiver")),
	}
}

// Run reads from all conns concurrently until every read loop exits,
// which happens either because ctx is cancelled (Run then closes every
// conn itself) or because a conn is closed directly. Each conn gets
// its own goroutine. Run blocks until all goroutines complete.
func (r *Receiver) Run(ctx context.Context, conns ...FrameConn) error {
	if len(conns) == 0 {
		return fmt.Errorf("receiver: %w", ErrNoConns)
	}

	done := make(chan struct{}, len(conns))

	for _, conn := range conns {
		go func(c FrameConn) {
			r.recvLoop(ctx, c)
			done <- struct{}{}
		}(conn)
	}

	go func() {
		<-ctx.Done()
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for range conns {
		<-done
	}

	return nil
}

// recvLoop reads frames from a single conn in a loop until the conn is
// closed. Errors from individual reads are logged but do not stop the
// loop; only ErrSocketClosed (or ctx cancellation) terminates it.
func (r *Receiver) recvLoop(ctx context.Context, conn FrameConn) {
	for {
		if err := r.recvOne(conn); err != nil {
			if errors.Is(err, ErrSocketClosed) || ctx.Err() != nil {
				return
			}
			r.logger.Warn("recv error",
				slog.String("iface", conn.IfaceName()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// recvOne performs a single receive-dispatch cycle. The buffer from
// FramePool is returned after dispatch regardless of outcome.
func (r *Receiver) recvOne(conn FrameConn) error {
	bufp, ok := FramePool.Get().(*[]byte)
	if !ok {
		return fmt.Errorf("receiver: %w", ErrPoolType)
	}
	defer FramePool.Put(bufp)

	n, err := conn.ReadFrame(*bufp)
	if err != nil {
		return fmt.Errorf("recv on %q: %w", conn.IfaceName(), err)
	}

	r.handler.HandleFrame(conn.IfaceName(), (*bufp)[:n])
	return nil
}
