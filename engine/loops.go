package engine

import (
	"context"
	"errors"
	"time"

	"fixengine/transport"
)

// readLoop continuously reads messages while the connection state is not
// Disconnected. When LoggedOut, it instead attempts re-logon subject to
// ReconnectInterval and MaxReconnectAttempts, per the logon retry policy.
func (e *Engine) readLoop(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		state := e.ConnectionState()
		if state == StateDisconnected {
			return
		}

		if state == StateLoggedOut {
			if !e.canRetryLogon() {
				e.sessionLog.Errorf("logon attempts exhausted after %d tries", e.cfg.MaxReconnectAttempts)
				e.mu.Lock()
				e.lastErr = ErrLogonExhausted
				e.mu.Unlock()
				e.setState(StateDisconnected)
				return
			}
			e.mu.Lock()
			since := e.now().Sub(e.lastLogonAttempt)
			e.mu.Unlock()
			if since >= e.cfg.ReconnectInterval {
				e.mu.Lock()
				stats := e.stats
				e.mu.Unlock()
				if stats != nil {
					stats.ReconnectsTotal.Inc()
				}
				if err := e.sendLogon(ctx); err != nil {
					e.sessionLog.Warnf("re-logon attempt failed: %v", err)
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}

		e.mu.Lock()
		tr := e.transport
		e.mu.Unlock()
		if tr == nil {
			return
		}

		msg, err := tr.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrTransportFailure) {
				e.handleTransportFailure(err)
				return
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			// Malformed frame or similar parser-level error: the parser has
			// already resynced internally; log and keep reading.
			e.sessionLog.Warnf("frame error: %v", err)
			continue
		}

		e.handleInbound(ctx, msg)
	}
}

// heartbeatLoop ticks at min(HeartBeatInterval, 1s), driven by the
// monotonic clock, never a busy spin. Liveness checks run whenever the
// connection is neither Disconnected nor LoggedOut, matching the
// original's gate on connectionState != LOGGED_OUT rather than requiring
// LoggedIn: a session awaiting its Logon ack is still subject to the
// same heartbeat/TestRequest liveness discipline.
func (e *Engine) heartbeatLoop(ctx context.Context) {
	defer e.wg.Done()

	tickInterval := e.cfg.HeartBeatInterval
	if tickInterval > time.Second {
		tickInterval = time.Second
	}
	if tickInterval <= 0 {
		tickInterval = time.Second
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			switch e.ConnectionState() {
			case StateDisconnected, StateLoggedOut:
				continue
			}

			now := e.now()
			e.mu.Lock()
			interval := e.heartBtInt
			lastSent := e.lastSent
			lastReceived := e.lastReceived
			e.mu.Unlock()

			if now.Sub(lastSent) > interval {
				_ = e.sendHeartbeat(ctx, "")
			}

			if now.Sub(lastReceived) > interval {
				_ = e.sendTestRequest(ctx)
				e.mu.Lock()
				e.missedHeartbeats++
				missed := e.missedHeartbeats
				stats := e.stats
				e.mu.Unlock()
				if stats != nil {
					stats.MissedHeartbeats.Set(float64(missed))
				}
				if missed >= e.cfg.MaxMissedHeartBeats {
					e.initiateLogout(ctx)
				}
			}
		}
	}
}
