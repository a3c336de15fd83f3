// Package engine implements the FIX SessionEngine: the orchestrator that
// drives the connection state machine and runs the read and heartbeat
// loops described in the session layer design.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"fixengine/fixbuilder"
	"fixengine/fixmsg"
	"fixengine/fixsession"
	"fixengine/metrics"
	"fixengine/transport"
)

// Listener receives decoded business messages after session-level
// handling. It may suspend; a panic from it is recovered and logged and
// does not tear down the session.
type Listener func(ctx context.Context, msg *fixmsg.Message)

// Engine orchestrates connection, logon, receive, dispatch, liveness,
// and logout for one FIX session. Two goroutines (read loop, heartbeat
// loop) share its mutable state, serialized by a single mutex — the
// single-mutex alternative to strict single-threading noted in the
// session design, grounded on go-sol.Session's own mu guarding its
// sequence fields across its readLoop/writeLoop/keepaliveLoop.
type Engine struct {
	cfg      Config
	identity fixsession.Identity
	listener Listener

	fixLog     *log.Logger
	sessionLog *log.Logger

	clock fixbuilder.Clock
	ids   fixbuilder.IDGenerator
	stats *metrics.Registry

	mu               sync.Mutex
	connState        ConnectionState
	lastErr          error
	state            *fixsession.State
	builder          *fixbuilder.Builder
	transport        *transport.Transport
	lastSent         time.Time
	lastReceived     time.Time
	missedHeartbeats int
	logonAttempts    int
	lastLogonAttempt time.Time
	heartBtInt       time.Duration

	// sendMu serializes the stamp-encode-send sequence across callers
	// (SendMessage, the heartbeat loop, internal session replies) so
	// MsgSeqNum assignment order always matches wire order.
	sendMu sync.Mutex

	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

// New constructs an Engine for one session identity. fixLog and
// sessionLog are the two sinks described in the external interfaces
// (FIX-message log and session-event log); clock and ids may be nil to
// use production defaults (wall clock, uuid ids).
func New(cfg Config, listener Listener, fixLog, sessionLog *log.Logger, clock fixbuilder.Clock, ids fixbuilder.IDGenerator) *Engine {
	cfg = cfg.withDefaults()
	identity := fixsession.Identity{SenderCompID: cfg.SenderCompID, TargetCompID: cfg.TargetCompID}

	e := &Engine{
		cfg:        cfg,
		identity:   identity,
		listener:   listener,
		fixLog:     fixLog,
		sessionLog: sessionLog,
		clock:      clock,
		ids:        ids,
		connState:  StateDisconnected,
		state:      fixsession.New(identity),
		heartBtInt: cfg.HeartBeatInterval,
	}
	e.builder = fixbuilder.New(cfg.BeginString, cfg.SenderCompID, cfg.TargetCompID, cfg.SenderPassword, int(cfg.HeartBeatInterval.Seconds()), ids, clock)
	return e
}

// SetMetrics attaches a Prometheus registry the engine reports liveness
// and sequencing gauges/counters to. Optional; nil-safe when unset.
func (e *Engine) SetMetrics(stats *metrics.Registry) {
	e.mu.Lock()
	e.stats = stats
	e.mu.Unlock()
}

// Connect dials the configured endpoint, sends the initial Logon, and
// starts the read and heartbeat loops. It returns once the transport is
// established; reaching LoggedIn happens asynchronously as the
// counterparty's Logon is read back.
func (e *Engine) Connect(ctx context.Context) error {
	if e.ConnectionState() != StateDisconnected {
		return ErrAlreadyConnected
	}

	addr := net.JoinHostPort(e.cfg.SocketHost, strconv.Itoa(e.cfg.SocketPort))
	tr, err := transport.Dial(ctx, "tcp", addr, e.cfg.MaxMessagesNo, time.Duration(e.cfg.MaxMessagesPeriodInSec)*time.Second)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	e.sessionLog.Infof("connected to %s", addr)
	return e.start(tr)
}

// start launches the session over an already-established transport: it
// transitions Disconnected -> Connected, sends the initial Logon, and
// starts the read and heartbeat loop goroutines. Factored out of Connect
// so tests can drive the engine over an in-memory net.Pipe transport
// instead of a real dial.
func (e *Engine) start(tr *transport.Transport) error {
	runCtx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.transport = tr
	e.connState = StateConnected
	e.logonAttempts = 0
	e.missedHeartbeats = 0
	e.lastReceived = e.now()
	e.lastErr = nil
	e.cancelRun = cancel
	e.mu.Unlock()

	if err := e.sendLogon(runCtx); err != nil {
		cancel()
		tr.Close()
		e.setState(StateDisconnected)
		return fmt.Errorf("initial logon: %w", err)
	}

	e.wg.Add(2)
	go e.readLoop(runCtx)
	go e.heartbeatLoop(runCtx)

	return nil
}

// SendMessage stamps, encodes, and sends msg, subject to the engine
// being Connected or LoggedIn.
func (e *Engine) SendMessage(ctx context.Context, msg *fixmsg.Message) error {
	state := e.ConnectionState()
	if state != StateConnected && state != StateLoggedIn {
		return ErrNotReady
	}
	return e.doSend(ctx, msg)
}

// doSend performs the unconditional send path: stamp, encode, transport
// send, timestamp update, FIX-log emission. Used both by the public
// SendMessage and by the engine's own session-message sends.
func (e *Engine) doSend(ctx context.Context, msg *fixmsg.Message) error {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	e.mu.Lock()
	tr := e.transport
	e.state.Stamp(msg)
	e.mu.Unlock()

	if tr == nil {
		return ErrNotReady
	}

	frame, err := fixmsg.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if err := tr.Send(ctx, frame); err != nil {
		e.handleTransportFailure(err)
		return err
	}

	e.mu.Lock()
	e.lastSent = e.now()
	stats := e.stats
	outbound := e.state.Outbound()
	e.mu.Unlock()

	if stats != nil {
		stats.OutboundSeq.Set(float64(outbound))
		stats.MessagesSentTotal.Inc()
	}

	e.fixLog.Info(visualize(frame))
	return nil
}

// Disconnect attempts a best-effort Logout (bounded by a short timeout)
// when LoggedIn, then closes the transport and cancels both loops.
func (e *Engine) Disconnect(ctx context.Context) error {
	if e.ConnectionState() == StateLoggedIn {
		logoutCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		msg := e.builder.Logout()
		e.setState(StateLoggedOut)
		_ = e.doSend(logoutCtx, msg)
		cancel()
	}

	e.mu.Lock()
	tr := e.transport
	cancelRun := e.cancelRun
	e.mu.Unlock()

	if tr != nil {
		tr.Close()
	}
	if cancelRun != nil {
		cancelRun()
	}
	e.wg.Wait()
	e.setState(StateDisconnected)
	return nil
}

// Err returns the last terminal error the engine recorded (for example
// ErrLogonExhausted), or nil if none has occurred since construction or
// the last successful Connect. Mirrors go-sol's channel-based Err()
// exposure, adapted to a simple getter since the engine has only one
// terminal error at a time rather than a stream of them.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock.Now()
	}
	return time.Now()
}

func (e *Engine) handleTransportFailure(err error) {
	if errors.Is(err, transport.ErrTransportFailure) {
		e.sessionLog.Warnf("transport failure: %v", err)
		e.setState(StateDisconnected)
	}
}

// visualize renders a FIX frame for the message log with SOH replaced by
// '|', matching the external FIX-message log format.
func visualize(frame []byte) string {
	return strings.ReplaceAll(string(frame), string(rune(fixmsg.SOH)), "|")
}
