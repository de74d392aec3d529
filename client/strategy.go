package client

import (
	"snek/protocol"
	"snek/world"
)

// Strategy picks the move for the current tick. ok is false when no move
// should be sent and the snake keeps its heading.
type Strategy interface {
	NextMove(s *world.RoundState) (dir protocol.Direction, ok bool)
}

// Reflex looks one tile ahead only. It keeps going while Up is free, turns
// Right when it can, and otherwise turns Left without checking it.
type Reflex struct{}

func (Reflex) NextMove(s *world.RoundState) (protocol.Direction, bool) {
	pos := s.OwnPos()
	if !s.IsMoveBlocked(pos.X, pos.Y, protocol.Up) {
		return 0, false
	}
	if !s.IsMoveBlocked(pos.X, pos.Y, protocol.Right) {
		return protocol.Right, true
	}
	return protocol.Left, true
}
