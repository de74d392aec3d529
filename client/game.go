package client

import (
	"context"
	"fmt"
	"log/slog"

	"snek/protocol"
	"snek/world"
)

// Publisher receives a snapshot after every tick. Publish must not block.
type Publisher interface {
	Publish(snap world.Snapshot)
}

// Outcome is how a round ended, with the server's running tally.
type Outcome struct {
	Won    bool
	Wins   int
	Losses int
}

// RoundLoop plays a single round on a connection it does not own.
type RoundLoop struct {
	conn      FrameConn
	state     *world.RoundState
	strategy  Strategy
	publisher Publisher
	metrics   *Metrics
	log       *slog.Logger
}

func NewRoundLoop(conn FrameConn, state *world.RoundState, strategy Strategy, publisher Publisher, metrics *Metrics, logger *slog.Logger) *RoundLoop {
	if strategy == nil {
		strategy = Reflex{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RoundLoop{
		conn:      conn,
		state:     state,
		strategy:  strategy,
		publisher: publisher,
		metrics:   metrics,
		log:       logger.With("round", state.RoundID()),
	}
}

// Run reads frames until the round is won or lost. Any read, decode or
// write failure ends the round with an error.
func (r *RoundLoop) Run() (Outcome, error) {
	r.log.Info("starting a new round",
		"player", r.state.OwnID(),
		"width", r.state.Width,
		"height", r.state.Height)

	for {
		msg, err := readMessage(r.conn, r.metrics)
		if err != nil {
			return Outcome{}, err
		}

		switch msg := msg.(type) {
		case protocol.Pos:
			if err := r.state.RecordPosition(msg.PlayerID, msg.X, msg.Y); err != nil {
				r.metrics.protocolError()
				return Outcome{}, fmt.Errorf("%w: %w", protocol.ErrProtocolViolation, err)
			}

		case protocol.Tick:
			if err := r.onTick(); err != nil {
				return Outcome{}, err
			}

		case protocol.Die:
			r.state.RemovePlayers(msg.PlayerIDs)
			r.log.Info("players died", "ids", msg.PlayerIDs, "alive", r.state.AlivePlayers())

		case protocol.Win:
			r.log.Info("won", "wins", msg.Wins, "losses", msg.Losses, "ticks", r.state.Ticks())
			return Outcome{Won: true, Wins: msg.Wins, Losses: msg.Losses}, nil

		case protocol.Lose:
			r.log.Info("lost", "wins", msg.Wins, "losses", msg.Losses, "ticks", r.state.Ticks())
			return Outcome{Wins: msg.Wins, Losses: msg.Losses}, nil

		case protocol.Chat:
			r.log.Debug("chat", "player", msg.PlayerID, "text", msg.Text)

		case protocol.ErrorFrame:
			return Outcome{}, &protocol.ServerError{Text: msg.Text}

		default:
			r.log.Warn("unhandled message in round", "tag", msg.Tag())
		}
	}
}

func (r *RoundLoop) onTick() error {
	r.state.AdvanceTick()
	r.metrics.tick()

	if dir, ok := r.strategy.NextMove(r.state); ok {
		if err := r.conn.WriteFrame(protocol.EncodeMove(dir)); err != nil {
			return err
		}
		r.metrics.move(dir)
		r.log.Debug("moving", "direction", dir.String(), "tick", r.state.Ticks())
	}

	if r.publisher != nil {
		r.publisher.Publish(r.state.Snapshot())
	}
	if r.log.Enabled(context.Background(), slog.LevelDebug) {
		r.log.Debug("board\n" + r.state.Render())
	}
	return nil
}

// readMessage reads and decodes the next frame.
func readMessage(conn FrameConn, metrics *Metrics) (protocol.Message, error) {
	line, err := conn.ReadFrame()
	if err != nil {
		return nil, err
	}
	msg, err := protocol.Decode(line)
	if err != nil {
		metrics.protocolError()
		return nil, err
	}
	return msg, nil
}
