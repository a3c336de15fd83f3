package engine

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"fixengine/fixbuilder"
	"fixengine/fixmsg"
	"fixengine/fixsession"
	"fixengine/transport"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type sequentialIDs struct{ n int }

func (s *sequentialIDs) NextID() string {
	s.n++
	return "ID-" + string(rune('0'+s.n))
}

func discardLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func testEngine(t *testing.T) (*Engine, net.Conn) {
	t.Helper()
	clientConn, counterparty := net.Pipe()

	cfg := Config{
		BeginString:            "FIX.4.4",
		SenderCompID:           "CLIENT1",
		TargetCompID:           "GATEWAY",
		SenderPassword:         "secret",
		HeartBeatInterval:      30 * time.Second,
		MaxMissedHeartBeats:    3,
		MaxReconnectAttempts:   3,
		ReconnectInterval:      time.Second,
		MaxMessagesNo:          100,
		MaxMessagesPeriodInSec: 1,
	}

	e := New(cfg, nil, discardLogger(), discardLogger(), fixedClock{t: time.Now()}, &sequentialIDs{})

	tr := transport.New(clientConn, 100, time.Second)
	// net.Pipe is unbuffered: start's initial Logon write blocks until the
	// test reads it from the counterparty end, so start runs in the
	// background and its result is checked at cleanup.
	startErr := make(chan error, 1)
	go func() { startErr <- e.start(tr) }()
	t.Cleanup(func() {
		e.Disconnect(context.Background())
		if err := <-startErr; err != nil {
			t.Fatalf("start: %v", err)
		}
	})
	return e, counterparty
}

// readFrame reads exactly one FIX frame off conn using a throwaway
// parser, the way a real counterparty would.
func readFrame(t *testing.T, conn net.Conn) *fixmsg.Message {
	t.Helper()
	p := fixmsg.NewParser()
	buf := make([]byte, 256)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		msg, err := p.NextMessage()
		if err != nil {
			t.Fatalf("parser error: %v", err)
		}
		if msg != nil {
			return msg
		}
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		p.Append(buf[:n])
	}
}

// counterparty plays the other side of the session in tests: it owns its
// own builder and sequence state, so a test can send a sequence of
// messages (including deliberately skipping a seqnum to trigger a gap)
// exactly as a real gateway would.
type counterparty struct {
	conn  net.Conn
	b     *fixbuilder.Builder
	state *fixsession.State
}

// newCounterparty builds a counterparty whose Logon advertises
// heartBtIntSec as its HeartBtInt, so the engine's own heartBtInt (which
// adopts whatever the counterparty's Logon carries) matches what the
// test configured rather than silently reverting to 30s.
func newCounterparty(conn net.Conn, heartBtIntSec int) *counterparty {
	return &counterparty{
		conn:  conn,
		b:     fixbuilder.New("FIX.4.4", "GATEWAY", "CLIENT1", "", heartBtIntSec, &sequentialIDs{}, fixedClock{t: time.Now()}),
		state: fixsession.New(fixsession.Identity{SenderCompID: "GATEWAY", TargetCompID: "CLIENT1"}),
	}
}

// send stamps msg with the next sequence number and writes it.
func (c *counterparty) send(t *testing.T, msg *fixmsg.Message) {
	t.Helper()
	c.state.Stamp(msg)
	frame, err := fixmsg.Encode(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := c.conn.Write(frame); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// skipSeqNum advances the counterparty's own outbound counter without
// sending anything, simulating a dropped message so the next send()
// lands on the wire with a gap relative to what the engine expects.
func (c *counterparty) skipSeqNum() {
	c.state.Stamp(fixmsg.NewMessage(0))
}

func (c *counterparty) logon(t *testing.T) {
	t.Helper()
	c.send(t, c.b.Logon(true))
}

func sendCounterpartyLogon(t *testing.T, conn net.Conn, seqNum int) {
	t.Helper()
	cp := newCounterparty(conn, 30)
	for i := 1; i < seqNum; i++ {
		cp.skipSeqNum()
	}
	cp.logon(t)
}

// loginCounterparty drains the engine's initial outbound Logon and logs
// the counterparty in, advertising the same HeartBtInt the engine was
// configured with, blocking until the engine reports LoggedIn.
func loginCounterparty(t *testing.T, e *Engine, conn net.Conn) *counterparty {
	t.Helper()
	readFrame(t, conn) // drain the outbound Logon
	heartBtIntSec := int(e.cfg.HeartBeatInterval.Seconds())
	if heartBtIntSec <= 0 {
		heartBtIntSec = 1
	}
	cp := newCounterparty(conn, heartBtIntSec)
	cp.logon(t)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.ConnectionState() == StateLoggedIn {
			return cp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("engine never reached LoggedIn, state=%s", e.ConnectionState())
	return nil
}

func TestEngineSendsInitialLogonOnConnect(t *testing.T) {
	_, counterparty := testEngine(t)
	defer counterparty.Close()

	msg := readFrame(t, counterparty)
	if msg.MsgType() != fixbuilder.MsgTypeLogon {
		t.Fatalf("MsgType = %q, want Logon", msg.MsgType())
	}
	seq, _ := msg.MsgSeqNum()
	if seq != 1 {
		t.Fatalf("MsgSeqNum = %d, want 1", seq)
	}
	if got, _ := msg.Get(141); got != "Y" {
		t.Errorf("ResetSeqNumFlag = %q, want Y", got)
	}
}

func TestEngineTransitionsToLoggedInOnInboundLogon(t *testing.T) {
	e, counterparty := testEngine(t)
	defer counterparty.Close()

	readFrame(t, counterparty) // drain the outbound Logon

	sendCounterpartyLogon(t, counterparty, 1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.ConnectionState() == StateLoggedIn {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("engine never reached LoggedIn, state=%s", e.ConnectionState())
}

func TestEngineSendMessageRequiresReadyState(t *testing.T) {
	cfg := Config{BeginString: "FIX.4.4", SenderCompID: "CLIENT1", TargetCompID: "GATEWAY"}
	e := New(cfg, nil, discardLogger(), discardLogger(), nil, nil)

	msg := fixmsg.NewMessage(1)
	err := e.SendMessage(context.Background(), msg)
	if err != ErrNotReady {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

// TestEngineRequestsResendOnSequenceGap covers a counterparty message
// arriving with a MsgSeqNum gap: the engine must reply with a
// ResendRequest running from the expected MsgSeqNum through the one it
// received.
func TestEngineRequestsResendOnSequenceGap(t *testing.T) {
	e, conn := testEngine(t)
	defer conn.Close()

	cp := loginCounterparty(t, e, conn)

	cp.skipSeqNum() // seqnum 2 never sent
	cp.send(t, cp.b.Heartbeat(""))

	msg := readFrame(t, conn)
	if msg.MsgType() != fixbuilder.MsgTypeResendRequest {
		t.Fatalf("MsgType = %q, want ResendRequest", msg.MsgType())
	}
	begin, _ := msg.GetInt(7)  // BeginSeqNo
	end, _ := msg.GetInt(16)   // EndSeqNo
	if begin != 2 || end != 3 {
		t.Fatalf("BeginSeqNo/EndSeqNo = %d/%d, want 2/3", begin, end)
	}
}

// TestEngineRespondsToTestRequestWithHeartbeat covers the TestRequest /
// Heartbeat liveness round trip: the engine must echo the inbound
// TestReqID back on a Heartbeat.
func TestEngineRespondsToTestRequestWithHeartbeat(t *testing.T) {
	e, conn := testEngine(t)
	defer conn.Close()

	cp := loginCounterparty(t, e, conn)

	msg := fixmsg.NewMessage(0)
	msg.Add(fixmsg.TagBeginString, "FIX.4.4")
	msg.Add(fixmsg.TagMsgType, fixbuilder.MsgTypeTestRequest)
	msg.Add(tagTestReqID, "PING-7")
	cp.send(t, msg)

	reply := readFrame(t, conn)
	if reply.MsgType() != fixbuilder.MsgTypeHeartbeat {
		t.Fatalf("MsgType = %q, want Heartbeat", reply.MsgType())
	}
	if got, _ := reply.Get(tagTestReqID); got != "PING-7" {
		t.Errorf("TestReqID = %q, want PING-7", got)
	}
}

// TestEngineLogsOutAfterMissedHeartbeats covers the missed-heartbeats
// liveness path: once MaxMissedHeartBeats worth of TestRequests go
// unanswered, the engine must send a Logout and transition out of
// LoggedIn. Uses a real (nil) clock and a short HeartBeatInterval so the
// heartbeat loop's ticker, which always runs on wall-clock time, can
// observe the staleness within the test deadline.
func TestEngineLogsOutAfterMissedHeartbeats(t *testing.T) {
	clientConn, conn := net.Pipe()
	defer conn.Close()

	cfg := Config{
		BeginString:            "FIX.4.4",
		SenderCompID:           "CLIENT1",
		TargetCompID:           "GATEWAY",
		SenderPassword:         "secret",
		HeartBeatInterval:      time.Second,
		MaxMissedHeartBeats:    1,
		MaxReconnectAttempts:   3,
		ReconnectInterval:      time.Second,
		MaxMessagesNo:          100,
		MaxMessagesPeriodInSec: 1,
	}
	e := New(cfg, nil, discardLogger(), discardLogger(), nil, &sequentialIDs{})
	tr := transport.New(clientConn, 100, time.Second)
	startErr := make(chan error, 1)
	go func() { startErr <- e.start(tr) }()
	t.Cleanup(func() {
		e.Disconnect(context.Background())
		if err := <-startErr; err != nil {
			t.Fatalf("start: %v", err)
		}
	})

	loginCounterparty(t, e, conn)

	// The same tick that finds lastReceived stale may also find lastSent
	// stale and proactively send a Heartbeat first; skip over any of
	// those while waiting for the TestRequest, and never answer it, so
	// missedHeartbeats reaches 1.
	var sawTestRequest bool
	for i := 0; i < 5; i++ {
		msg := readFrame(t, conn)
		if msg.MsgType() == fixbuilder.MsgTypeTestRequest {
			sawTestRequest = true
			break
		}
		if msg.MsgType() != fixbuilder.MsgTypeHeartbeat {
			t.Fatalf("MsgType = %q, want Heartbeat or TestRequest", msg.MsgType())
		}
	}
	if !sawTestRequest {
		t.Fatal("never saw a TestRequest")
	}

	logout := readFrame(t, conn)
	if logout.MsgType() != fixbuilder.MsgTypeLogout {
		t.Fatalf("MsgType = %q, want Logout", logout.MsgType())
	}

	deadline := time.Now().Add(4 * time.Second)
	for time.Now().Before(deadline) {
		if e.ConnectionState() == StateLoggedOut {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("engine never reached LoggedOut, state=%s", e.ConnectionState())
}
