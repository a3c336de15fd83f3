// Package fixsession tracks the per-direction sequence-number discipline
// and session identity checks. It performs no I/O and owns no clock.
package fixsession

import (
	"strconv"

	"fixengine/fixmsg"
)

// RecvResult is the outcome of validating an inbound MsgSeqNum.
type RecvResult int

const (
	// RecvOk means the sequence number is acceptable and may be
	// committed once the message has been fully processed.
	RecvOk RecvResult = iota
	// RecvGap means the inbound MsgSeqNum is ahead of what is expected;
	// the caller must emit a ResendRequest and must not commit.
	RecvGap
)

// Identity is the immutable (SenderCompID, TargetCompID) pair for a
// session's lifetime.
type Identity struct {
	SenderCompID string
	TargetCompID string
}

// State holds the two monotonic sequence counters defined by the FIX
// session layer: outbound (next value to stamp is outbound+1) and
// nextExpectedInbound (starts at 1). It is not safe for concurrent use
// without external synchronization; SessionEngine serializes access with
// its own mutex per the single cooperative-loop discipline.
type State struct {
	Identity Identity

	outbound            int
	nextExpectedInbound int
}

// New returns a State initialized to outbound=0, nextExpectedInbound=1.
func New(identity Identity) *State {
	s := &State{Identity: identity}
	s.Reset()
	return s
}

// Outbound returns the last stamped outbound MsgSeqNum.
func (s *State) Outbound() int { return s.outbound }

// NextExpectedInbound returns the MsgSeqNum expected on the next inbound
// message.
func (s *State) NextExpectedInbound() int { return s.nextExpectedInbound }

// Stamp increments the outbound counter and inserts MsgSeqNum into msg's
// header position (immediately after TargetCompID, before SendingTime,
// matching the standard field ordering in the wire protocol). Must be
// called exactly once per outbound message, immediately before encoding.
func (s *State) Stamp(msg *fixmsg.Message) {
	s.outbound++
	insertAfter(msg, fixmsg.TagTargetCompID, fixmsg.Field{
		Tag:   fixmsg.TagMsgSeqNum,
		Value: []byte(strconv.Itoa(s.outbound)),
	})
}

// ValidateRecv checks an inbound MsgSeqNum against nextExpectedInbound.
// Equal-or-lower sequence numbers are treated as Ok (a duplicate or the
// exact expected value): this does not enforce PossDup per FIX strict
// semantics, matching the documented behavior this engine inherits — see
// DESIGN.md for the rationale. Numbers ahead of expectation report RecvGap
// with the expected number so the caller can emit a ResendRequest.
func (s *State) ValidateRecv(msgSeqNo int) (RecvResult, int) {
	if msgSeqNo > s.nextExpectedInbound {
		return RecvGap, s.nextExpectedInbound
	}
	return RecvOk, msgSeqNo
}

// CommitRecv advances nextExpectedInbound past msgSeqNo. Must only be
// called after the message has been fully processed and only when
// ValidateRecv reported RecvOk.
func (s *State) CommitRecv(msgSeqNo int) {
	s.nextExpectedInbound = msgSeqNo + 1
}

// Reset returns both counters to their initial values (outbound=0,
// nextExpectedInbound=1), as on a Logon with ResetSeqNumFlag=Y.
func (s *State) Reset() {
	s.outbound = 0
	s.nextExpectedInbound = 1
}

// CompIDsMatch reports whether the given target/sender pair matches this
// session's identity, by exact string equality in both directions.
func (s *State) CompIDsMatch(targetCompID, senderCompID string) bool {
	return targetCompID == s.Identity.SenderCompID && senderCompID == s.Identity.TargetCompID
}

func insertAfter(msg *fixmsg.Message, afterTag int, f fixmsg.Field) {
	for i, existing := range msg.Fields {
		if existing.Tag == afterTag {
			msg.Fields = append(msg.Fields, fixmsg.Field{})
			copy(msg.Fields[i+2:], msg.Fields[i+1:])
			msg.Fields[i+1] = f
			return
		}
	}
	msg.Fields = append(msg.Fields, f)
}
