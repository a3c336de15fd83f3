package fixmsg

import (
	"bytes"
	"fmt"
	"strconv"
)

// Parser is a streaming FIX decoder. Append feeds arbitrary byte
// fragments; NextMessage extracts at most one complete frame per call,
// returning (nil, nil) while the buffer holds an incomplete frame. On a
// framing error the parser resyncs to the next BeginString occurrence and
// returns the error for the caller to log; it does not lose subsequent
// valid frames already buffered.
type Parser struct {
	buf []byte
}

// NewParser returns an empty streaming parser.
func NewParser() *Parser {
	return &Parser{}
}

// Append feeds additional bytes read from the transport into the parser.
func (p *Parser) Append(b []byte) {
	p.buf = append(p.buf, b...)
}

// Buffered reports how many unconsumed bytes the parser is holding.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

var beginStringMarker = []byte("8=")

// findBeginString returns the offset of the next "8=" that can start a
// frame: one not preceded by a digit, so that tags such as 98= or 108=
// are not taken for BeginString. Returns -1 if none is buffered yet.
func findBeginString(buf []byte) int {
	for off := 0; ; {
		idx := bytes.Index(buf[off:], beginStringMarker)
		if idx == -1 {
			return -1
		}
		idx += off
		if idx == 0 || buf[idx-1] < '0' || buf[idx-1] > '9' {
			return idx
		}
		off = idx + 1
	}
}

// NextMessage extracts the next complete frame, if any.
func (p *Parser) NextMessage() (*Message, error) {
	for {
		start := findBeginString(p.buf)
		if start == -1 {
			// Nothing resembling a frame start buffered; drop garbage but
			// keep the last byte in case it is the '8' of a begin-string
			// marker split across reads.
			if n := len(p.buf); n > 1 {
				p.buf = p.buf[n-1:]
			}
			return nil, nil
		}
		if start > 0 {
			p.buf = p.buf[start:]
		}

		sohBegin := bytes.IndexByte(p.buf, SOH)
		if sohBegin == -1 {
			if len(p.buf) > MaxFieldLen {
				return nil, ErrOverlongField
			}
			return nil, nil
		}

		afterBegin := p.buf[sohBegin+1:]
		if len(afterBegin) < 2 {
			return nil, nil
		}
		if afterBegin[0] != '9' || afterBegin[1] != '=' {
			p.buf = p.buf[sohBegin+1:]
			return nil, fmt.Errorf("%w: expected BodyLength immediately after BeginString", ErrMalformedFrame)
		}

		sohBodyLen := bytes.IndexByte(afterBegin, SOH)
		if sohBodyLen == -1 {
			if len(afterBegin) > MaxFieldLen {
				return nil, ErrOverlongField
			}
			return nil, nil
		}

		bodyLenStr := afterBegin[2:sohBodyLen]
		bodyLen, err := strconv.Atoi(string(bodyLenStr))
		if err != nil || bodyLen < 0 {
			p.buf = afterBegin[sohBodyLen+1:]
			return nil, fmt.Errorf("%w: non-numeric BodyLength", ErrMalformedFrame)
		}
		if bodyLen > MaxFieldLen*16 {
			p.buf = afterBegin[sohBodyLen+1:]
			return nil, ErrOverlongField
		}

		bodyStart := sohBegin + 1 + sohBodyLen + 1
		need := bodyStart + bodyLen
		if len(p.buf) < need {
			return nil, nil
		}

		rest := p.buf[need:]
		if len(rest) < 4 || rest[0] != '1' || rest[1] != '0' || rest[2] != '=' {
			if len(rest) >= 4 {
				p.buf = p.buf[bodyStart:]
				return nil, fmt.Errorf("%w: expected CheckSum trailer", ErrMalformedFrame)
			}
			return nil, nil
		}

		cksumSoh := bytes.IndexByte(rest, SOH)
		if cksumSoh == -1 {
			if len(rest) > MaxFieldLen {
				return nil, ErrOverlongField
			}
			return nil, nil
		}

		cksumStr := rest[3:cksumSoh]
		wantCksum, err := strconv.Atoi(string(cksumStr))
		if err != nil {
			p.buf = rest[cksumSoh+1:]
			return nil, fmt.Errorf("%w: non-numeric CheckSum", ErrMalformedFrame)
		}

		frameEnd := need + cksumSoh + 1
		gotCksum := checksum(p.buf[:need])
		if gotCksum != wantCksum%256 {
			p.buf = p.buf[frameEnd:]
			return nil, fmt.Errorf("%w: checksum mismatch", ErrMalformedFrame)
		}

		frame := p.buf[:frameEnd]
		p.buf = p.buf[frameEnd:]
		return parseFields(frame)
	}
}

func parseFields(frame []byte) (*Message, error) {
	segs := bytes.Split(frame, []byte{SOH})
	msg := NewMessage(len(segs))
	for _, seg := range segs {
		if len(seg) == 0 {
			continue
		}
		eq := bytes.IndexByte(seg, '=')
		if eq == -1 {
			return nil, fmt.Errorf("%w: field missing '='", ErrMalformedFrame)
		}
		tag, err := strconv.Atoi(string(seg[:eq]))
		if err != nil {
			return nil, fmt.Errorf("%w: non-numeric tag", ErrMalformedFrame)
		}
		val := make([]byte, len(seg)-eq-1)
		copy(val, seg[eq+1:])
		msg.Fields = append(msg.Fields, Field{Tag: tag, Value: val})
	}
	if !msg.Has(TagBeginString) || !msg.Has(TagMsgType) {
		return nil, fmt.Errorf("%w: missing required header tag", ErrMalformedFrame)
	}
	return msg, nil
}
