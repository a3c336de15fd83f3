package fixmsg

import "errors"

// ErrMalformedFrame covers a non-digit BodyLength/CheckSum, a missing
// required header tag, or a CheckSum mismatch.
var ErrMalformedFrame = errors.New("fixmsg: malformed frame")

// ErrOverlongField is returned when a single field exceeds the parser's
// safety bound, guarding against unbounded memory growth on a corrupt or
// hostile byte stream.
var ErrOverlongField = errors.New("fixmsg: field exceeds maximum length")

// MaxFieldLen bounds the byte length of a single tag's value during
// parsing. Genuine FIX fields (prices, ids, short text) never approach it.
const MaxFieldLen = 64 * 1024
