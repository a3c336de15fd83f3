// Package transport owns the reliable byte-stream read/write halves used
// by a FIX session: a framing-agnostic read loop feeding fixmsg.Parser,
// and a rate-limited, serialized write path.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"fixengine/fixmsg"
)

// ErrTransportFailure covers connection reset, EOF mid-frame, and write
// failures. The engine responds to it by transitioning to Disconnected.
var ErrTransportFailure = errors.New("transport: failure")

// readChunkSize is the default bounded read size; large enough to avoid
// thrashing on small FIX frames, small enough to keep read latency low.
const readChunkSize = 150

// Transport wraps one net.Conn for the lifetime of a connection attempt.
// It is discarded and replaced on every reconnect.
type Transport struct {
	conn    net.Conn
	parser  *fixmsg.Parser
	limiter *windowLimiter

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// New wraps conn with a streaming FIX parser and a send-side rate limiter
// allowing maxMessages per period (strict sliding window).
func New(conn net.Conn, maxMessages int, period time.Duration) *Transport {
	return &Transport{
		conn:    conn,
		parser:  fixmsg.NewParser(),
		limiter: newWindowLimiter(maxMessages, period),
	}
}

// Dial connects to addr and returns a Transport with the given rate
// limit applied to its send path.
func Dial(ctx context.Context, network, addr string, maxMessages int, period time.Duration) (*Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	return New(conn, maxMessages, period), nil
}

// ReadMessage blocks, performing bounded reads into the streaming parser,
// until one complete FIX frame emerges, the connection fails, or ctx is
// canceled. A parser-level framing error (ErrMalformedFrame) is returned
// directly so the caller can log and keep reading; it does not imply the
// transport itself has failed.
func (t *Transport) ReadMessage(ctx context.Context) (*fixmsg.Message, error) {
	for {
		msg, err := t.parser.NextMessage()
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}

		if deadline, ok := ctx.Deadline(); ok {
			t.conn.SetReadDeadline(deadline)
		} else {
			t.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		}

		buf := make([]byte, readChunkSize)
		n, err := t.conn.Read(buf)
		if n > 0 {
			t.parser.Append(buf[:n])
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				default:
					continue
				}
			}
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: connection closed: %v", ErrTransportFailure, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
		}
	}
}

// Send acquires a rate-limiter reservation, then writes frame in full,
// serialized against concurrent callers. This is the only method
// permitted to touch the write half.
func (t *Transport) Send(ctx context.Context, frame []byte) error {
	if err := t.limiter.wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", ErrTransportFailure, err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetWriteDeadline(deadline)
	} else {
		t.conn.SetWriteDeadline(time.Time{})
	}

	if _, err := t.conn.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	return nil
}

// windowLimiter enforces a strict sliding window: at most limit sends may
// land within any period-length window. Unlike a token bucket, it never
// lets a burst of limit sends at t=0 open room for another send before
// the oldest of those has aged out of the window — the (N+1)th send
// always waits until exactly period after the (N+1-limit)th.
type windowLimiter struct {
	mu     sync.Mutex
	sent   []time.Time
	limit  int
	period time.Duration
}

// newWindowLimiter builds a limiter admitting limit sends per period.
// A non-positive limit or period disables limiting entirely.
func newWindowLimiter(limit int, period time.Duration) *windowLimiter {
	return &windowLimiter{limit: limit, period: period}
}

// wait blocks until a send is admitted under the window, or ctx is done.
func (w *windowLimiter) wait(ctx context.Context) error {
	if w.limit <= 0 || w.period <= 0 {
		return nil
	}
	for {
		w.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-w.period)
		i := 0
		for i < len(w.sent) && w.sent[i].Before(cutoff) {
			i++
		}
		w.sent = w.sent[i:]

		if len(w.sent) < w.limit {
			w.sent = append(w.sent, now)
			w.mu.Unlock()
			return nil
		}
		delay := w.sent[0].Add(w.period).Sub(now)
		w.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close closes the underlying connection exactly once.
func (t *Transport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
