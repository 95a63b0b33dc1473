//go:build !windows

package ipc_test

import (
	"bytes"
	"net"
	"testing"
	"time"

	"deskrelay/internal/ipc"
)

const waitTimeout = 5 * time.Second

func dialHub(t *testing.T, path string) net.Conn {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
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

func expectNoEvent(t *testing.T, events <-chan ipc.Message) {
	t.Helper()
	select {
	case got := <-events:
		t.Fatalf("unexpected event %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

// readExactly reads until len(want) bytes arrived; a stream may split or
// merge writes.
func readExactly(t *testing.T, conn net.Conn, want string) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(waitTimeout)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	var got bytes.Buffer
	buf := make([]byte, 256)
	for got.Len() < len(want) {
		n, err := conn.Read(buf)
		got.Write(buf[:n])
		if err != nil {
			t.Fatalf("read after %q: %v", got.String(), err)
		}
	}
	if got.String() != want {
		t.Fatalf("read %q, want %q", got.String(), want)
	}
}

func expectString(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("received %q, want %q", got, want)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func expectNoString(t *testing.T, ch <-chan string) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("unexpected %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}
