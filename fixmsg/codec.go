package fixmsg

import (
	"fmt"
	"strconv"
)

// Encode serializes msg as a complete FIX frame. msg.Fields[0] must be
// BeginString (tag 8) and the field list must contain MsgType (tag 35);
// the caller is responsible for header-before-body ordering (MessageBuilder
// and fixsession.State.Stamp produce fields in that order already). BodyLength
// and CheckSum are computed here and must not be present in msg.Fields.
func Encode(msg *Message) ([]byte, error) {
	if len(msg.Fields) == 0 || msg.Fields[0].Tag != TagBeginString {
		return nil, fmt.Errorf("%w: first field must be BeginString", ErrMalformedFrame)
	}
	if !msg.Has(TagMsgType) {
		return nil, fmt.Errorf("%w: missing MsgType", ErrMalformedFrame)
	}

	begin := msg.Fields[0]

	var body []byte
	for _, f := range msg.Fields[1:] {
		if f.Tag == TagBodyLength || f.Tag == TagCheckSum {
			continue
		}
		body = appendField(body, f)
	}

	var out []byte
	out = appendField(out, begin)
	out = appendField(out, Field{Tag: TagBodyLength, Value: []byte(strconv.Itoa(len(body)))})
	out = append(out, body...)

	sum := checksum(out)
	out = appendField(out, Field{Tag: TagCheckSum, Value: []byte(fmt.Sprintf("%03d", sum))})

	return out, nil
}

func appendField(dst []byte, f Field) []byte {
	dst = strconv.AppendInt(dst, int64(f.Tag), 10)
	dst = append(dst, '=')
	dst = append(dst, f.Value...)
	dst = append(dst, SOH)
	return dst
}

func checksum(b []byte) int {
	sum := 0
	for _, c := range b {
		sum += int(c)
	}
	return sum % 256
}
