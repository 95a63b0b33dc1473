//go:build !windows

package bridge_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"deskrelay/internal/bridge"
	"deskrelay/internal/ipc"
	"deskrelay/internal/testsupport"
)

const waitTimeout = 5 * time.Second

func newBridge(t *testing.T) (*bridge.Bridge, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return bridge.New(cfg, nil), cfg.IPC.SocketPath
}

func expectEvent(t *testing.T, events <-chan ipc.Message, want ipc.Message) {
	t.Helper()
	select {
	case got := <-events:
		if got != want {
			t.Fatalf("event = %+v, want %+v", got, want)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %+v", want)
	}
}

func TestListenDeliversEventsInOrder(t *testing.T) {
	b, path := newBridge(t)
	events := make(chan ipc.Message, 8)
	if err := b.Listen(func(m ipc.Message) { events <- m }); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindConnected})
	if _, err := conn.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindMessage, Message: "hello"})
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindDisconnected})
}

func TestSendBroadcastsQueuedText(t *testing.T) {
	b, path := newBridge(t)
	if err := b.Send("queued early"); err != nil {
		t.Fatalf("Send before Listen: %v", err)
	}
	events := make(chan ipc.Message, 8)
	if err := b.Listen(func(m ipc.Message) { events <- m }); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindConnected})

	if err := b.Send("hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := conn.SetReadDeadline(time.Now().Add(waitTimeout)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	buf := make([]byte, 64)
	var got []byte
	for !containsHi(got) {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("read after %q: %v", got, err)
		}
		got = append(got, buf[:n]...)
	}
}

// containsHi reports whether the stream ends with "hi". The early message
// may or may not precede it, depending on whether the first broadcast ran
// before the client connected.
func containsHi(got []byte) bool {
	return len(got) >= 2 && string(got[len(got)-2:]) == "hi"
}

func TestSendRejectsInvalidUTF8(t *testing.T) {
	b, _ := newBridge(t)
	if err := b.Send("\xff"); !errors.Is(err, ipc.ErrInvalidEncoding) {
		t.Fatalf("Send = %v, want ErrInvalidEncoding", err)
	}
}

func TestListenRequiresCallback(t *testing.T) {
	b, _ := newBridge(t)
	if err := b.Listen(nil); err == nil {
		t.Fatal("Listen(nil) succeeded")
	}
}

func TestListenTwice(t *testing.T) {
	b, _ := newBridge(t)
	noop := func(ipc.Message) {}
	if err := b.Listen(noop); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if err := b.Listen(noop); !errors.Is(err, ipc.ErrAlreadyStarted) {
		t.Fatalf("second Listen = %v, want ErrAlreadyStarted", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
