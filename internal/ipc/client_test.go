//go:build !windows

package ipc_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"deskrelay/internal/clock"
	"deskrelay/internal/ipc"
	"deskrelay/internal/testsupport"
)

func refusingDialer(attempts chan<- struct{}) ipc.Dialer {
	return func(context.Context, string) (net.Conn, error) {
		attempts <- struct{}{}
		return nil, errors.New("connection refused")
	}
}

func expectAttempt(t *testing.T, attempts <-chan struct{}) {
	t.Helper()
	select {
	case <-attempts:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for dial attempt")
	}
}

func expectNoAttempt(t *testing.T, attempts <-chan struct{}) {
	t.Helper()
	select {
	case <-attempts:
		t.Fatal("unexpected dial attempt")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRelayWaitsRetryDelayBetweenFailedDials(t *testing.T) {
	attempts := make(chan struct{}, 8)
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	relay := ipc.NewRelay(ipc.RelayOptions{Path: "unused", Clock: fake, Dial: refusingDialer(attempts)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	incoming := make(chan string, 4)
	relay.Start(ctx, incoming, make(chan string))

	expectAttempt(t, attempts)
	fake.WaitForTimers(1)
	fake.Advance(5*time.Second - time.Millisecond)
	expectNoAttempt(t, attempts)

	fake.Advance(time.Millisecond)
	expectAttempt(t, attempts)
	expectNoString(t, incoming)
}

func TestRelayStopsRetryingWhenCancelled(t *testing.T) {
	attempts := make(chan struct{}, 8)
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	relay := ipc.NewRelay(ipc.RelayOptions{Path: "unused", Clock: fake, Dial: refusingDialer(attempts)})

	ctx, cancel := context.WithCancel(context.Background())
	relay.Start(ctx, make(chan string, 4), make(chan string))

	expectAttempt(t, attempts)
	fake.WaitForTimers(1)
	cancel()
	fake.Advance(time.Minute)
	expectNoAttempt(t, attempts)
}

func TestRelayExchangesMessagesWithHub(t *testing.T) {
	path := testsupport.SocketPath(t)
	hub := ipc.NewHub(ipc.HubOptions{Path: path, BroadcastInterval: 10 * time.Millisecond})
	events := make(chan ipc.Message, 32)
	if err := hub.Start(events); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	incoming := make(chan string, 8)
	outgoing := make(chan string, 8)
	outgoing <- "queued before connect"
	relay := ipc.NewRelay(ipc.RelayOptions{Path: path, RetryDelay: 10 * time.Millisecond, PollDelay: time.Millisecond})
	relay.Start(ctx, incoming, outgoing)

	expectString(t, incoming, ipc.ConnectedNotice)
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindConnected})
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindMessage, Message: "queued before connect"})

	outgoing <- "ping"
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindMessage, Message: "ping"})

	hub.Send("pong")
	expectString(t, incoming, "pong")
}

func TestRelayClosesConnectionWhenCancelled(t *testing.T) {
	path := testsupport.SocketPath(t)
	hub := ipc.NewHub(ipc.HubOptions{Path: path, BroadcastInterval: 10 * time.Millisecond})
	events := make(chan ipc.Message, 32)
	if err := hub.Start(events); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	incoming := make(chan string, 8)
	relay := ipc.NewRelay(ipc.RelayOptions{Path: path, RetryDelay: 10 * time.Millisecond, PollDelay: time.Millisecond})
	relay.Start(ctx, incoming, make(chan string))

	expectString(t, incoming, ipc.ConnectedNotice)
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindConnected})

	// The hub stays silent, so the relay is parked in a read when cancelled.
	cancel()
	expectEvent(t, events, ipc.Message{ClientID: 1, Kind: ipc.KindDisconnected})
	expectNoString(t, incoming)
	expectNoEvent(t, events)
}

func TestRelayReconnectsAfterHubDropsConnection(t *testing.T) {
	path := testsupport.SocketPath(t)
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	incoming := make(chan string, 8)
	relay := ipc.NewRelay(ipc.RelayOptions{Path: path, RetryDelay: 10 * time.Millisecond, PollDelay: time.Millisecond})
	relay.Start(ctx, incoming, make(chan string))

	conn, err := listener.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	expectString(t, incoming, ipc.ConnectedNotice)
	if _, err := conn.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectString(t, incoming, "hello")
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	expectString(t, incoming, ipc.DisconnectedNotice)

	again, err := listener.Accept()
	if err != nil {
		t.Fatalf("accept after retry: %v", err)
	}
	t.Cleanup(func() { _ = again.Close() })
	expectString(t, incoming, ipc.ConnectedNotice)
}

func TestRelayReplacesUndecodableBytes(t *testing.T) {
	path := testsupport.SocketPath(t)
	listener, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	incoming := make(chan string, 8)
	relay := ipc.NewRelay(ipc.RelayOptions{Path: path, PollDelay: time.Millisecond})
	relay.Start(ctx, incoming, make(chan string))

	conn, err := listener.Accept()
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	expectString(t, incoming, ipc.ConnectedNotice)

	if _, err := conn.Write([]byte("a\xffb")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectString(t, incoming, "a\uFFFDb")
}
