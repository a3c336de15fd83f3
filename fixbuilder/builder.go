// Package fixbuilder constructs well-formed FIX messages with standard
// header fields pre-populated (BeginString, MsgType, SenderCompID,
// TargetCompID, SendingTime). MsgSeqNum is stamped later by fixsession,
// immediately before encoding.
package fixbuilder

import "fixengine/fixmsg"

// Session-level and business-level MsgType values this builder produces.
const (
	MsgTypeLogon                    = "A"
	MsgTypeLogout                   = "5"
	MsgTypeHeartbeat                = "0"
	MsgTypeTestRequest               = "1"
	MsgTypeResendRequest             = "2"
	MsgTypeUserRequest               = "BE"
	MsgTypeNewOrderSingle            = "D"
	MsgTypeOrderCancelReplaceRequest = "G"
	MsgTypeOrderCancelRequest        = "F"
	MsgTypeOrderMassStatusRequest    = "AF"
	MsgTypeMarketDataRequest         = "V"
	MsgTypeTradeCaptureReportRequest = "AD"
	MsgTypeTradeCaptureReportAck     = "AR"
)

// Additional header/body tag numbers beyond those named in fixmsg.
const (
	tagEncryptMethod     = 98
	tagHeartBtInt        = 108
	tagTestReqID         = 112
	tagResetSeqNumFlag   = 141
	tagPassword          = 554
	tagBeginSeqNo        = 7
	tagEndSeqNo          = 16
	tagUserRequestType   = 924
	tagUsername          = 553
	tagNewPassword       = 925
)

// Builder produces messages carrying one session's identity, BeginString,
// and heartbeat interval. It is safe to reuse across many messages; it
// holds no mutable sequencing state (that lives in fixsession.State).
type Builder struct {
	beginString  string
	senderCompID string
	targetCompID string
	password     string
	heartBtInt   int

	ids   IDGenerator
	clock Clock
}

// New returns a Builder for one session identity. If ids or clock are
// nil, production defaults (uuid-backed ids, wall clock) are used.
func New(beginString, senderCompID, targetCompID, password string, heartBtInt int, ids IDGenerator, clock Clock) *Builder {
	if ids == nil {
		ids = uuidGenerator{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Builder{
		beginString:  beginString,
		senderCompID: senderCompID,
		targetCompID: targetCompID,
		password:     password,
		heartBtInt:   heartBtInt,
		ids:          ids,
		clock:        clock,
	}
}

// header builds the standard header fields common to every message this
// builder produces, in wire order: BeginString, MsgType, SenderCompID,
// TargetCompID, SendingTime. MsgSeqNum is inserted later by
// fixsession.State.Stamp.
func (b *Builder) header(msgType string) *fixmsg.Message {
	msg := fixmsg.NewMessage(8)
	msg.Add(fixmsg.TagBeginString, b.beginString)
	msg.Add(fixmsg.TagMsgType, msgType)
	msg.Add(fixmsg.TagSenderCompID, b.senderCompID)
	msg.Add(fixmsg.TagTargetCompID, b.targetCompID)
	msg.Add(fixmsg.TagSendingTime, fixmsg.FormatSendingTime(b.clock.Now()))
	return msg
}

// Logon builds a Logon message carrying ResetSeqNumFlag=Y when
// resetSeqNumFlag is true and N otherwise; the engine's own logons pass
// true.
func (b *Builder) Logon(resetSeqNumFlag bool) *fixmsg.Message {
	msg := b.header(MsgTypeLogon)
	msg.AddInt(tagEncryptMethod, 0)
	msg.AddInt(tagHeartBtInt, b.heartBtInt)
	if resetSeqNumFlag {
		msg.Add(tagResetSeqNumFlag, "Y")
	} else {
		msg.Add(tagResetSeqNumFlag, "N")
	}
	msg.Add(tagPassword, b.password)
	return msg
}

// Logout builds a Logout message with no body.
func (b *Builder) Logout() *fixmsg.Message {
	return b.header(MsgTypeLogout)
}

// Heartbeat builds a Heartbeat, optionally carrying TestReqID when
// answering a TestRequest. Pass "" when sending an unsolicited
// heartbeat.
func (b *Builder) Heartbeat(testReqID string) *fixmsg.Message {
	msg := b.header(MsgTypeHeartbeat)
	if testReqID != "" {
		msg.Add(tagTestReqID, testReqID)
	}
	return msg
}

// TestRequest builds a TestRequest carrying a freshly generated TestReqID,
// returning both the message and the id for the caller to track.
func (b *Builder) TestRequest() (*fixmsg.Message, string) {
	id := b.ids.NextID()
	msg := b.header(MsgTypeTestRequest)
	msg.Add(tagTestReqID, id)
	return msg, id
}

// ResendRequest builds a ResendRequest for the inclusive range
// [beginSeqNo, endSeqNo].
func (b *Builder) ResendRequest(beginSeqNo, endSeqNo int) *fixmsg.Message {
	msg := b.header(MsgTypeResendRequest)
	msg.AddInt(tagBeginSeqNo, beginSeqNo)
	msg.AddInt(tagEndSeqNo, endSeqNo)
	return msg
}

// ChangePassword builds a UserRequest message requesting a password
// change (UserRequestType=3), carrying the session's current password
// and the requested new password.
func (b *Builder) ChangePassword(newPassword string) *fixmsg.Message {
	msg := b.header(MsgTypeUserRequest)
	msg.AddInt(tagUserRequestType, 3)
	msg.Add(tagUsername, b.senderCompID)
	msg.Add(tagPassword, b.password)
	msg.Add(tagNewPassword, newPassword)
	return msg
}
