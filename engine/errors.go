package engine

import "errors"

// ErrNotReady is returned by SendMessage when the connection state is
// neither Connected nor LoggedIn.
var ErrNotReady = errors.New("engine: not ready")

// ErrProtocolMismatch names an inbound message whose BeginString does not
// match the configured value. The engine does not return it to callers:
// it logs the mismatch and closes the transport, which ends the session.
var ErrProtocolMismatch = errors.New("engine: BeginString mismatch")

// ErrLogonExhausted is returned once MaxReconnectAttempts logon attempts
// have been made without success.
var ErrLogonExhausted = errors.New("engine: logon attempts exhausted")

// ErrAlreadyConnected is returned by Connect when the engine is not in
// the Disconnected state.
var ErrAlreadyConnected = errors.New("engine: already connected")
