package ipc

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestWriteFrameThenReadFrameRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	want := Frame{Type: MsgNavigate, RequestID: 7, Payload: []byte("https://example.com")}
	if err := WriteFrame(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != want.Type || got.RequestID != want.RequestID || !bytes.Equal(got.Payload, want.Payload) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestReadFrameRejectsTruncatedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 3}) // length 3 < minimum header of 6
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatalf("expected an error for a too-short frame length")
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	big := make([]byte, maxPayloadBytes+1)
	err := WriteFrame(&buf, Frame{Type: MsgExecuteScript, Payload: big})
	if err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestConnRequestReceivesMatchingResponse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		f, err := ReadFrame(server)
		if err != nil {
			return
		}
		_ = WriteFrame(server, Frame{Type: MsgNavigationResult, RequestID: f.RequestID, Payload: []byte("ok")})
	}()

	c := NewConn(client, nil, nil)
	defer c.Close()

	resp, err := c.Request(MsgNavigate, []byte("https://example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != MsgNavigationResult || string(resp.Payload) != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestConnDropsUnknownMessageTypeWithoutBlockingEvents(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	events := make(chan Frame, 2)
	c := NewConn(client, nil, func(f Frame) { events <- f })
	defer c.Close()

	go func() {
		_ = WriteFrame(server, Frame{Type: MessageType(9999), RequestID: 0})
		_ = WriteFrame(server, Frame{Type: MsgTitleChanged, RequestID: 0, Payload: []byte("New Title")})
	}()

	select {
	case f := <-events:
		if f.Type != MsgTitleChanged || string(f.Payload) != "New Title" {
			t.Fatalf("expected the known event to come through, got %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the known event after an unknown one was dropped")
	}
}

func TestConnRequestUnblocksOnClose(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := NewConn(client, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Request(MsgStop, nil)
		done <- err
	}()

	// Give Request time to register its pending waiter before we sever
	// the connection from the other end.
	time.Sleep(50 * time.Millisecond)
	_ = server.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected Request to return an error once the connection closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Request to unblock after close")
	}
}
