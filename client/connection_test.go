package client

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"snek/protocol"
)

type transition struct {
	from, to ConnState
}

func recordTransitions(opts *Options) *[]transition {
	var got []transition
	opts.OnTransition = func(from, to ConnState) {
		got = append(got, transition{from, to})
	}
	return &got
}

func TestServeJoinsAndPlaysRounds(t *testing.T) {
	conn := newScriptConn(
		"motd|welcome",
		"game|5|5|0",
		"pos|0|1|1",
		"pos|1|1|0",
		"tick",
		"lose|0|1",
		"message|1|gg",
		"game|5|5|1",
		"pos|1|3|3",
		"tick",
		"win|1|1",
	)
	reg := prometheus.NewRegistry()
	opts := Options{
		Name:    "Snekisnek",
		Token:   "secret",
		Metrics: NewMetrics(reg),
		Logger:  discardLogger(),
	}
	got := recordTransitions(&opts)
	m := NewManager(opts)

	err := m.Serve(conn)
	if !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("Serve() = %v, want connection lost", err)
	}

	wantWritten := []string{"join|Snekisnek|secret", "move|right"}
	if !reflect.DeepEqual(conn.written, wantWritten) {
		t.Errorf("written = %q, want %q", conn.written, wantWritten)
	}

	want := []transition{
		{Disconnected, Connected},
		{Connected, RoundActive},
		{RoundActive, Connected},
		{Connected, RoundActive},
		{RoundActive, Connected},
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("transitions = %v, want %v", *got, want)
	}

	if v := testutil.ToFloat64(opts.Metrics.rounds.WithLabelValues("lose")); v != 1 {
		t.Errorf("lost rounds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(opts.Metrics.rounds.WithLabelValues("win")); v != 1 {
		t.Errorf("won rounds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(opts.Metrics.ticks); v != 2 {
		t.Errorf("ticks = %v, want 2", v)
	}
	if v := testutil.ToFloat64(opts.Metrics.moves.WithLabelValues("right")); v != 1 {
		t.Errorf("right moves = %v, want 1", v)
	}
}

func TestServeServerError(t *testing.T) {
	conn := newScriptConn("motd|hi", "error|invalid token", "game|5|5|0")
	m := NewManager(Options{Name: "a", Token: "b", Logger: discardLogger()})

	err := m.Serve(conn)
	var serverErr *protocol.ServerError
	if !errors.As(err, &serverErr) || serverErr.Text != "invalid token" {
		t.Fatalf("Serve() = %v, want server error", err)
	}
	if m.State() != Connected {
		t.Errorf("state = %v, want connected", m.State())
	}
}

func TestServeRejectsBadBoard(t *testing.T) {
	scripts := [][]string{
		{"game|0|5|0"},
		{"game|3037000500|3037000500|0"},
		{"game|4294967296|4294967296|0", "pos|0|0|0"},
		{"game|100000|100000|0"},
	}

	for _, script := range scripts {
		conn := newScriptConn(script...)
		m := NewManager(Options{Logger: discardLogger()})

		if err := m.Serve(conn); !errors.Is(err, protocol.ErrProtocolViolation) {
			t.Errorf("Serve(%q) = %v, want protocol violation", script, err)
		}
		if m.State() != Connected {
			t.Errorf("Serve(%q) left state %v, want connected", script, m.State())
		}
	}
}

func TestServeAbortedRound(t *testing.T) {
	conn := newScriptConn("game|5|5|0", "garbage")
	reg := prometheus.NewRegistry()
	opts := Options{Metrics: NewMetrics(reg), Logger: discardLogger()}
	m := NewManager(opts)

	if err := m.Serve(conn); !errors.Is(err, protocol.ErrProtocolViolation) {
		t.Fatalf("Serve() = %v, want protocol violation", err)
	}
	if m.State() != RoundActive {
		t.Errorf("state = %v, want round_active", m.State())
	}
	if v := testutil.ToFloat64(opts.Metrics.rounds.WithLabelValues("aborted")); v != 1 {
		t.Errorf("aborted rounds = %v, want 1", v)
	}
	if v := testutil.ToFloat64(opts.Metrics.protocolErrors); v != 1 {
		t.Errorf("protocol errors = %v, want 1", v)
	}
}

func TestRunRetriesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dials int
	var served *scriptConn
	reg := prometheus.NewRegistry()
	opts := Options{
		Address:    "snek.example:4000",
		Name:       "n",
		Token:      "t",
		RetryDelay: time.Millisecond,
		Metrics:    NewMetrics(reg),
		Logger:     discardLogger(),
		Dialer: func(ctx context.Context, address string) (FrameConn, error) {
			dials++
			switch dials {
			case 1:
				return nil, ErrConnectionLost
			case 2:
				served = newScriptConn("motd|hello")
				return served, nil
			}
			cancel()
			return nil, ctx.Err()
		},
	}
	got := recordTransitions(&opts)
	m := NewManager(opts)

	if err := m.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if dials != 3 {
		t.Errorf("dialed %d times, want 3", dials)
	}
	if served == nil || !served.closed {
		t.Error("connection was not closed after it dropped")
	}
	if !reflect.DeepEqual(served.written, []string{"join|n|t"}) {
		t.Errorf("written = %q", served.written)
	}

	want := []transition{
		{Disconnected, Connecting},
		{Connecting, Disconnected},
		{Disconnected, Connecting},
		{Connecting, Connected},
		{Connected, Disconnected},
		{Disconnected, Connecting},
		{Connecting, Disconnected},
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("transitions = %v, want %v", *got, want)
	}
	if m.State() != Disconnected {
		t.Errorf("state = %v, want disconnected", m.State())
	}
	if v := testutil.ToFloat64(opts.Metrics.connectionAttempts); v != 3 {
		t.Errorf("attempts = %v, want 3", v)
	}
	if v := testutil.ToFloat64(opts.Metrics.connectionState.WithLabelValues("disconnected")); v != 1 {
		t.Errorf("disconnected gauge = %v, want 1", v)
	}
}

func TestRunStopsDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(Options{
		RetryDelay: time.Hour,
		Logger:     discardLogger(),
		Dialer: func(context.Context, string) (FrameConn, error) {
			cancel()
			return nil, ErrConnectionLost
		},
	})

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConnStateString(t *testing.T) {
	want := []string{"disconnected", "connecting", "connected", "round_active"}
	for i, s := range connStates {
		if s.String() != want[i] {
			t.Errorf("%d.String() = %q, want %q", i, s.String(), want[i])
		}
	}
}
