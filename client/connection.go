package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/segmentio/ksuid"

	"snek/protocol"
	"snek/world"
)

type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	RoundActive
)

var connStates = []ConnState{Disconnected, Connecting, Connected, RoundActive}

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case RoundActive:
		return "round_active"
	}
	return fmt.Sprintf("ConnState(%d)", int(s))
}

// Dialer opens a framed connection to the game server.
type Dialer func(ctx context.Context, address string) (FrameConn, error)

// NetDialer dials TCP. See NewFrameConn for readTimeout.
func NetDialer(readTimeout time.Duration) Dialer {
	return func(ctx context.Context, address string) (FrameConn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionLost, address, err)
		}
		return NewFrameConn(conn, readTimeout), nil
	}
}

type Options struct {
	Address    string
	Name       string
	Token      string
	RetryDelay time.Duration

	// Dialer defaults to NetDialer(0).
	Dialer    Dialer
	Strategy  Strategy
	Publisher Publisher
	Metrics   *Metrics
	Logger    *slog.Logger

	// OnTransition is called on every state change, from the goroutine
	// running the manager.
	OnTransition func(from, to ConnState)
}

// Manager keeps the agent connected: it dials, plays rounds for as long as
// the connection lasts, and retries after a fixed delay when it drops.
// It is driven by a single goroutine and is not safe for concurrent use.
type Manager struct {
	opts  Options
	state ConnState
	log   *slog.Logger
}

func NewManager(opts Options) *Manager {
	if opts.Dialer == nil {
		opts.Dialer = NetDialer(0)
	}
	if opts.Strategy == nil {
		opts.Strategy = Reflex{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		opts:  opts,
		state: Disconnected,
		log:   opts.Logger,
	}
}

func (m *Manager) State() ConnState {
	return m.state
}

func (m *Manager) transition(to ConnState) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	m.opts.Metrics.setState(to)
	m.log.Debug("state change", "from", from.String(), "to", to.String())
	if m.opts.OnTransition != nil {
		m.opts.OnTransition(from, to)
	}
}

// Run reconnects forever. It only returns once ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	for {
		err := m.connect(ctx)
		m.transition(Disconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m.log.Warn("connection closed, waiting before retry", "error", err, "delay", m.opts.RetryDelay)
		timer := time.NewTimer(m.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *Manager) connect(ctx context.Context) error {
	m.transition(Connecting)
	m.opts.Metrics.connectionAttempt()
	m.log.Info("attempting connection", "address", m.opts.Address)

	conn, err := m.opts.Dialer(ctx, m.opts.Address)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Reads block without a deadline, so closing the connection is how a
	// cancelled ctx gets through to them.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	return m.Serve(conn)
}

// Serve runs the connected state on an open connection until it fails. It
// answers the server's motd with a join and plays every round it is given.
func (m *Manager) Serve(conn FrameConn) error {
	log := m.log.With("conn", ksuid.New().String())
	m.transition(Connected)
	log.Info("connected", "address", m.opts.Address)

	for {
		msg, err := readMessage(conn, m.opts.Metrics)
		if err != nil {
			return err
		}

		switch msg := msg.(type) {
		case protocol.Motd:
			log.Info("motd", "text", msg.Text)
			if err := conn.WriteFrame(protocol.EncodeJoin(m.opts.Name, m.opts.Token)); err != nil {
				return err
			}

		case protocol.Game:
			if err := m.playRound(conn, msg, log); err != nil {
				return err
			}

		case protocol.ErrorFrame:
			log.Error("server sent error", "text", msg.Text)
			return &protocol.ServerError{Text: msg.Text}

		default:
			log.Debug("ignoring message", "tag", msg.Tag())
		}
	}
}

func (m *Manager) playRound(conn FrameConn, game protocol.Game, log *slog.Logger) error {
	state, err := world.NewRoundState(game.Width, game.Height, game.PlayerID)
	if err != nil {
		m.opts.Metrics.protocolError()
		return fmt.Errorf("%w: %w", protocol.ErrProtocolViolation, err)
	}

	m.transition(RoundActive)
	loop := NewRoundLoop(conn, state, m.opts.Strategy, m.opts.Publisher, m.opts.Metrics, log)
	outcome, err := loop.Run()
	if err != nil {
		m.opts.Metrics.roundFinished("aborted")
		return err
	}

	if outcome.Won {
		m.opts.Metrics.roundFinished("win")
	} else {
		m.opts.Metrics.roundFinished("lose")
	}
	m.transition(Connected)
	return nil
}
