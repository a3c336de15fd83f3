// Package fixmsg implements FIX tag=value wire framing: an ordered field
// list, encoding with BodyLength/CheckSum computation, and a streaming
// decoder that reassembles frames out of arbitrary byte fragments.
package fixmsg

import (
	"strconv"
	"time"
)

// SOH is the ASCII field delimiter used throughout FIX tag=value framing.
const SOH = 0x01

// Standard header/trailer tag numbers referenced by the codec and engine.
const (
	TagBeginString = 8
	TagBodyLength  = 9
	TagMsgType     = 35
	TagSenderCompID = 49
	TagTargetCompID = 56
	TagMsgSeqNum    = 34
	TagSendingTime  = 52
	TagCheckSum     = 10
)

// Field is a single (tag, value) pair. Value never contains SOH.
type Field struct {
	Tag   int
	Value []byte
}

// Message is an ordered sequence of fields. Order is preserved end to end
// so that repeating groups and header placement round-trip exactly.
type Message struct {
	Fields []Field
}

// NewMessage returns an empty message with capacity for n fields.
func NewMessage(n int) *Message {
	return &Message{Fields: make([]Field, 0, n)}
}

// Add appends a field with a string value.
func (m *Message) Add(tag int, value string) *Message {
	m.Fields = append(m.Fields, Field{Tag: tag, Value: []byte(value)})
	return m
}

// AddInt appends a field with a decimal integer value.
func (m *Message) AddInt(tag int, value int) *Message {
	return m.Add(tag, strconv.Itoa(value))
}

// AddBytes appends a field with a raw byte-slice value.
func (m *Message) AddBytes(tag int, value []byte) *Message {
	m.Fields = append(m.Fields, Field{Tag: tag, Value: value})
	return m
}

// Has reports whether the message carries at least one field with tag.
func (m *Message) Has(tag int) bool {
	for _, f := range m.Fields {
		if f.Tag == tag {
			return true
		}
	}
	return false
}

// Get returns the string value of the first field with tag, and whether it
// was found.
func (m *Message) Get(tag int) (string, bool) {
	for _, f := range m.Fields {
		if f.Tag == tag {
			return string(f.Value), true
		}
	}
	return "", false
}

// GetInt parses the first field with tag as a decimal integer.
func (m *Message) GetInt(tag int) (int, bool) {
	v, ok := m.Get(tag)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetAll returns the string values of every field with tag, in wire order.
// Used for repeating groups (e.g. NoRelatedSym, NoMDEntryTypes).
func (m *Message) GetAll(tag int) []string {
	var out []string
	for _, f := range m.Fields {
		if f.Tag == tag {
			out = append(out, string(f.Value))
		}
	}
	return out
}

// MsgType returns the value of tag 35.
func (m *Message) MsgType() string {
	v, _ := m.Get(TagMsgType)
	return v
}

// MsgSeqNum returns the value of tag 34.
func (m *Message) MsgSeqNum() (int, bool) {
	return m.GetInt(TagMsgSeqNum)
}

// SendingTimeLayout is the FIX microsecond-precision UTC timestamp format.
const SendingTimeLayout = "20060102-15:04:05.000000"

// FormatSendingTime renders t in the standard FIX SendingTime layout, UTC.
func FormatSendingTime(t time.Time) string {
	return t.UTC().Format(SendingTimeLayout)
}

// ParseSendingTime parses a FIX timestamp in either microsecond or
// whole-second form.
func ParseSendingTime(v string) (time.Time, error) {
	if t, err := time.Parse(SendingTimeLayout, v); err == nil {
		return t, nil
	}
	return time.Parse("20060102-15:04:05", v)
}
