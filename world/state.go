package world

import (
	"fmt"

	"github.com/segmentio/ksuid"

	"snek/protocol"
)

// RoundState is everything we know about the current round. It is owned by
// the goroutine reading the connection and is not safe for concurrent use.
type RoundState struct {
	*Map
	roundID      string
	ownID        int
	ownPos       Coords
	alivePlayers int
	firstTick    bool
	ticks        int64
}

// MaxCells caps the board area a round may announce.
const MaxCells = 1 << 20

func NewRoundState(width, height, ownID int) (*RoundState, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid board %dx%d", width, height)
	}
	if height > MaxCells/width {
		return nil, fmt.Errorf("board %dx%d exceeds %d cells", width, height, MaxCells)
	}
	return &RoundState{
		Map:       NewMap(width, height),
		roundID:   ksuid.New().String(),
		ownID:     ownID,
		firstTick: true,
	}, nil
}

// RecordPosition marks (x, y) as occupied by playerID. Until the first tick
// every report is a new participant, which is how the roster is learned.
// The previous cell of a moving player is left as it is: trails stay
// occupied until that player dies.
func (s *RoundState) RecordPosition(playerID, x, y int) error {
	if err := s.Set(x, y, playerID); err != nil {
		return fmt.Errorf("pos %d at (%d,%d) on %dx%d board: %w", playerID, x, y, s.Width, s.Height, err)
	}
	if playerID == s.ownID {
		s.ownPos = Coords{X: x, Y: y}
	}
	if s.firstTick {
		s.alivePlayers++
	}
	return nil
}

func (s *RoundState) AdvanceTick() {
	s.firstTick = false
	s.ticks++
}

// RemovePlayers drops ids from the alive count and clears every cell they
// hold.
func (s *RoundState) RemovePlayers(ids []int) {
	s.alivePlayers -= len(ids)
	if s.alivePlayers < 0 {
		s.alivePlayers = 0
	}
	s.Clear(ids)
}

// IsMoveBlocked reports whether the cell one step from (x, y) towards dir
// holds anyone, ourselves included.
func (s *RoundState) IsMoveBlocked(x, y int, dir protocol.Direction) bool {
	_, occupied := s.At(s.NextOffset(x, y, dir))
	return occupied
}

func (s *RoundState) OccupantAt(offset int) (int, bool) {
	return s.At(offset)
}

func (s *RoundState) RoundID() string {
	return s.roundID
}

func (s *RoundState) OwnID() int {
	return s.ownID
}

func (s *RoundState) OwnPos() Coords {
	return s.ownPos
}

func (s *RoundState) AlivePlayers() int {
	return s.alivePlayers
}

func (s *RoundState) FirstTick() bool {
	return s.firstTick
}

func (s *RoundState) Ticks() int64 {
	return s.ticks
}

func (s *RoundState) Snapshot() Snapshot {
	snap := Snapshot{
		RoundID: s.roundID,
		Width:   s.Width,
		Height:  s.Height,
		OwnID:   s.ownID,
		OwnPos:  s.ownPos,
		Alive:   s.alivePlayers,
		Tick:    s.ticks,
	}
	s.ForEach(func(x, y, playerID int) {
		snap.Cells = append(snap.Cells, Cell{
			Offset:   s.Offset(x, y),
			PlayerID: playerID,
		})
	})
	return snap
}
