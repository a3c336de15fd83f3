package fixmsg

import "testing"

func buildSample() *Message {
	m := NewMessage(8)
	m.Add(TagBeginString, "FIX.4.4")
	m.Add(TagMsgType, "A")
	m.Add(TagSenderCompID, "CLIENT1")
	m.Add(TagTargetCompID, "GATEWAY")
	m.AddInt(TagMsgSeqNum, 1)
	m.Add(TagSendingTime, "20260101-00:00:00.000000")
	m.AddInt(98, 0)
	m.AddInt(108, 30)
	return m
}

func TestEncodeRoundTrip(t *testing.T) {
	msg := buildSample()
	frame, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	p := NewParser()
	p.Append(frame)
	decoded, err := p.NextMessage()
	if err != nil {
		t.Fatalf("NextMessage: %v", err)
	}
	if decoded == nil {
		t.Fatal("expected a decoded message, got nil")
	}

	want := map[int]string{
		TagBeginString:  "FIX.4.4",
		TagMsgType:      "A",
		TagSenderCompID: "CLIENT1",
		TagTargetCompID: "GATEWAY",
		TagMsgSeqNum:    "1",
	}
	for tag, wantVal := range want {
		got, ok := decoded.Get(tag)
		if !ok || got != wantVal {
			t.Errorf("tag %d = %q, %v; want %q", tag, got, ok, wantVal)
		}
	}
}

func TestEncodeBodyLengthAndCheckSum(t *testing.T) {
	msg := buildSample()
	frame, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	p := NewParser()
	p.Append(frame)
	decoded, err := p.NextMessage()
	if err != nil {
		t.Fatalf("NextMessage: %v", err)
	}

	bodyLenStr, ok := decoded.Get(TagBodyLength)
	if !ok {
		t.Fatal("missing BodyLength in decoded frame")
	}
	if bodyLenStr == "" || bodyLenStr[0] == '-' {
		t.Fatalf("unexpected BodyLength value %q", bodyLenStr)
	}

	cksumStr, ok := decoded.Get(TagCheckSum)
	if !ok || len(cksumStr) != 3 {
		t.Fatalf("CheckSum = %q, %v; want 3 digits", cksumStr, ok)
	}
}

func TestEncodeMissingBeginString(t *testing.T) {
	msg := NewMessage(1)
	msg.Add(TagMsgType, "0")
	if _, err := Encode(msg); err == nil {
		t.Fatal("expected error for missing BeginString")
	}
}

func TestEncodeMissingMsgType(t *testing.T) {
	msg := NewMessage(1)
	msg.Add(TagBeginString, "FIX.4.4")
	if _, err := Encode(msg); err == nil {
		t.Fatal("expected error for missing MsgType")
	}
}
