package engine

import (
	"context"
	"time"

	"fixengine/fixbuilder"
	"fixengine/fixmsg"
	"fixengine/fixsession"
)

// FIX tag numbers the session handler inspects directly; business-level
// tags live in fixbuilder.
const (
	tagResetSeqNumFlag = 141
	tagHeartBtInt      = 108
	tagTestReqID       = 112
)

func (e *Engine) sendLogon(ctx context.Context) error {
	e.mu.Lock()
	e.logonAttempts++
	e.lastLogonAttempt = e.now()
	e.mu.Unlock()

	msg := e.builder.Logon(true)
	return e.doSend(ctx, msg)
}

func (e *Engine) sendHeartbeat(ctx context.Context, testReqID string) error {
	msg := e.builder.Heartbeat(testReqID)
	return e.doSend(ctx, msg)
}

func (e *Engine) sendTestRequest(ctx context.Context) error {
	msg, _ := e.builder.TestRequest()
	return e.doSend(ctx, msg)
}

func (e *Engine) sendResendRequest(ctx context.Context, beginSeqNo, endSeqNo int) error {
	msg := e.builder.ResendRequest(beginSeqNo, endSeqNo)
	return e.doSend(ctx, msg)
}

// handleInbound updates liveness bookkeeping, enforces the BeginString
// contract, routes to the internal session handler or the listener, and
// runs the sequence-number discipline. Implements the read loop's
// per-message steps.
func (e *Engine) handleInbound(ctx context.Context, msg *fixmsg.Message) {
	e.mu.Lock()
	e.lastReceived = e.now()
	e.missedHeartbeats = 0
	stats := e.stats
	e.mu.Unlock()

	if stats != nil {
		stats.MessagesRecvTotal.Inc()
		stats.MissedHeartbeats.Set(0)
	}

	begin, _ := msg.Get(fixmsg.TagBeginString)
	if begin != e.cfg.BeginString {
		e.sessionLog.Errorf("BeginString mismatch: got %q want %q", begin, e.cfg.BeginString)
		e.handleTransportFailure(ErrProtocolMismatch)
		e.mu.Lock()
		tr := e.transport
		e.mu.Unlock()
		if tr != nil {
			tr.Close()
		}
		return
	}

	handled := e.sessionHandler(ctx, msg)
	if !handled && e.listener != nil {
		e.invokeListener(ctx, msg)
	}

	seqNo, ok := msg.MsgSeqNum()
	if !ok {
		return
	}

	e.mu.Lock()
	result, expected := e.state.ValidateRecv(seqNo)
	e.mu.Unlock()

	switch result {
	case fixsession.RecvGap:
		e.sessionLog.Warnf("sequence gap: expected %d got %d", expected, seqNo)
		if stats != nil {
			stats.SequenceGapsTotal.Inc()
		}
		_ = e.sendResendRequest(ctx, expected, seqNo)
	default:
		e.mu.Lock()
		e.state.CommitRecv(seqNo)
		nextExpected := e.state.NextExpectedInbound()
		e.mu.Unlock()
		if stats != nil {
			stats.InboundSeqExpected.Set(float64(nextExpected))
		}
	}
}

// invokeListener calls the external listener, recovering and logging any
// panic so a misbehaving callback does not tear down the session.
func (e *Engine) invokeListener(ctx context.Context, msg *fixmsg.Message) {
	defer func() {
		if r := recover(); r != nil {
			e.sessionLog.Errorf("listener panicked: %v", r)
		}
	}()
	e.listener(ctx, msg)
}

// sessionHandler handles session-level message types internally,
// returning true when it fully handled the message (the listener is not
// invoked) and false when the caller should forward it to the listener.
func (e *Engine) sessionHandler(ctx context.Context, msg *fixmsg.Message) bool {
	switch msg.MsgType() {
	case fixbuilder.MsgTypeLogon:
		if e.ConnectionState() == StateLoggedIn {
			if flag, _ := msg.Get(tagResetSeqNumFlag); flag == "Y" {
				e.mu.Lock()
				e.state.Reset()
				e.mu.Unlock()
			}
			return true
		}
		if hbi, ok := msg.GetInt(tagHeartBtInt); ok {
			e.mu.Lock()
			e.heartBtInt = time.Duration(hbi) * time.Second
			e.mu.Unlock()
		}
		e.setState(StateLoggedIn)
		return true

	case fixbuilder.MsgTypeTestRequest:
		id, _ := msg.Get(tagTestReqID)
		_ = e.sendHeartbeat(ctx, id)
		return true

	case fixbuilder.MsgTypeLogout:
		e.setState(StateLoggedOut)
		e.mu.Lock()
		tr := e.transport
		e.mu.Unlock()
		if tr != nil {
			tr.Close()
		}
		return true

	case fixbuilder.MsgTypeHeartbeat:
		return true

	default:
		if e.ConnectionState() == StateLoggedIn {
			return false
		}
		e.sessionLog.Debugf("dropping %s while not logged in", msg.MsgType())
		return true
	}
}

// initiateLogout transitions to LoggedOut and sends an outbound Logout,
// then closes the transport, as the heartbeat loop does once
// missedHeartbeats reaches MaxMissedHeartBeats.
func (e *Engine) initiateLogout(ctx context.Context) {
	e.setState(StateLoggedOut)
	msg := e.builder.Logout()
	_ = e.doSend(ctx, msg)
	e.mu.Lock()
	tr := e.transport
	e.mu.Unlock()
	if tr != nil {
		tr.Close()
	}
}

func (e *Engine) canRetryLogon() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logonAttempts < e.cfg.MaxReconnectAttempts
}
