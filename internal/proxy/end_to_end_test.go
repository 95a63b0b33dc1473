//go:build !windows

package proxy_test

import (
	"io"
	"testing"
	"time"

	"deskrelay/internal/framing"
	"deskrelay/internal/ipc"
	"deskrelay/internal/proxy"
	"deskrelay/internal/testsupport"
)

func TestBrowserToHubRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRelayDelays(10*time.Millisecond, time.Millisecond))
	hub := ipc.NewHub(ipc.HubOptions{Path: cfg.IPC.SocketPath, BroadcastInterval: cfg.BroadcastInterval()})
	events := make(chan ipc.Message, 16)
	if err := hub.Start(events); err != nil {
		t.Fatalf("hub Start: %v", err)
	}

	relay := ipc.NewRelay(ipc.RelayOptions{
		Path:       cfg.IPC.SocketPath,
		RetryDelay: cfg.RetryDelay(),
		PollDelay:  cfg.PollDelay(),
	})
	stdinR, stdinW := io.Pipe()
	defer stdinW.Close()
	stdoutR, stdoutW := io.Pipe()
	runAsync(proxy.New(relay, proxy.Options{}), stdinR, stdoutW)

	readFrame := func(want string) {
		t.Helper()
		got, err := framing.Decode(stdoutR)
		if err != nil {
			t.Fatalf("decode stdout: %v", err)
		}
		if got != want {
			t.Fatalf("stdout frame = %q, want %q", got, want)
		}
	}

	readFrame(ipc.ConnectedNotice)
	expectEvent := func(want ipc.Message) {
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
	expectEvent(ipc.Message{ClientID: 1, Kind: ipc.KindConnected})

	writeFrame(t, stdinW, `{"command":"ping"}`)
	expectEvent(ipc.Message{ClientID: 1, Kind: ipc.KindMessage, Message: `{"command":"ping"}`})

	hub.Send(`{"command":"pong"}`)
	readFrame(`{"command":"pong"}`)
}
