package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"fixengine/fixmsg"
)

func sampleFrame(t *testing.T, seqNum int) []byte {
	t.Helper()
	msg := fixmsg.NewMessage(6)
	msg.Add(fixmsg.TagBeginString, "FIX.4.4")
	msg.Add(fixmsg.TagMsgType, "0")
	msg.Add(fixmsg.TagSenderCompID, "CLIENT1")
	msg.Add(fixmsg.TagTargetCompID, "GATEWAY")
	msg.AddInt(fixmsg.TagMsgSeqNum, seqNum)
	msg.Add(fixmsg.TagSendingTime, "20260101-00:00:00.000000")
	frame, err := fixmsg.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return frame
}

func TestTransportReadMessageAssemblesFrame(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	tr := New(clientConn, 0, 0)

	frame := sampleFrame(t, 1)
	go func() {
		// Dribble the frame in small writes to exercise reassembly across
		// multiple bounded reads.
		for i := 0; i < len(frame); i += 7 {
			end := i + 7
			if end > len(frame) {
				end = len(frame)
			}
			serverConn.Write(frame[i:end])
			time.Sleep(time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := tr.ReadMessage(ctx)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	seq, _ := msg.MsgSeqNum()
	if seq != 1 {
		t.Fatalf("MsgSeqNum = %d, want 1", seq)
	}
}

func TestTransportSendWritesFullFrame(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	tr := New(clientConn, 0, 0)
	frame := sampleFrame(t, 1)

	received := make(chan []byte, 1)
	go func() {
		buf := make([]byte, len(frame))
		n := 0
		for n < len(frame) {
			m, err := serverConn.Read(buf[n:])
			if err != nil {
				return
			}
			n += m
		}
		received <- buf
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tr.Send(ctx, frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if string(got) != string(frame) {
			t.Errorf("received frame does not match sent frame")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame on the other end")
	}
}

func TestTransportSendRateLimited(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := serverConn.Read(buf); err != nil {
				return
			}
		}
	}()

	tr := New(clientConn, 2, time.Second)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		frame := sampleFrame(t, i+1)
		if err := tr.Send(ctx, frame); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 900*time.Millisecond {
		t.Fatalf("third send completed too early: elapsed=%v, want >= ~1s", elapsed)
	}
}

func TestTransportCloseIsIdempotent(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	tr := New(clientConn, 0, 0)
	if err := tr.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}
