package world

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Snapshot is a copy of a RoundState handed to viewers.
type Snapshot struct {
	RoundID string
	Width   int
	Height  int
	OwnID   int
	OwnPos  Coords
	Alive   int
	Tick    int64
	Cells   []Cell
}

type Cell struct {
	Offset   int
	PlayerID int
}

// Field numbers of the snapshot message.
const (
	snapshotRoundID protowire.Number = 1 + iota
	snapshotWidth
	snapshotHeight
	snapshotOwnID
	snapshotOwnX
	snapshotOwnY
	snapshotAlive
	snapshotTick
	snapshotCell
)

const (
	cellOffset   protowire.Number = 1
	cellPlayerID protowire.Number = 2
)

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func (c *Cell) ToProto() []byte {
	var b []byte
	b = appendVarintField(b, cellOffset, uint64(c.Offset))
	b = appendVarintField(b, cellPlayerID, uint64(c.PlayerID))
	return b
}

// ToProto encodes the snapshot in protobuf wire format.
func (s *Snapshot) ToProto() []byte {
	var b []byte
	b = protowire.AppendTag(b, snapshotRoundID, protowire.BytesType)
	b = protowire.AppendString(b, s.RoundID)
	b = appendVarintField(b, snapshotWidth, uint64(s.Width))
	b = appendVarintField(b, snapshotHeight, uint64(s.Height))
	b = appendVarintField(b, snapshotOwnID, uint64(s.OwnID))
	b = appendVarintField(b, snapshotOwnX, uint64(s.OwnPos.X))
	b = appendVarintField(b, snapshotOwnY, uint64(s.OwnPos.Y))
	b = appendVarintField(b, snapshotAlive, uint64(s.Alive))
	b = appendVarintField(b, snapshotTick, uint64(s.Tick))
	for i := range s.Cells {
		b = protowire.AppendTag(b, snapshotCell, protowire.BytesType)
		b = protowire.AppendBytes(b, s.Cells[i].ToProto())
	}
	return b
}

// SnapshotFromProto decodes a snapshot, skipping fields it does not know.
func SnapshotFromProto(b []byte) (*Snapshot, error) {
	s := &Snapshot{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == snapshotRoundID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			s.RoundID = v
			return n, nil
		case num == snapshotCell && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			cell, err := cellFromProto(v)
			if err != nil {
				return 0, err
			}
			s.Cells = append(s.Cells, *cell)
			return n, nil
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case snapshotWidth:
				s.Width = int(v)
			case snapshotHeight:
				s.Height = int(v)
			case snapshotOwnID:
				s.OwnID = int(v)
			case snapshotOwnX:
				s.OwnPos.X = int(v)
			case snapshotOwnY:
				s.OwnPos.Y = int(v)
			case snapshotAlive:
				s.Alive = int(v)
			case snapshotTick:
				s.Tick = int64(v)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return s, nil
}

func cellFromProto(b []byte) (*Cell, error) {
	c := &Cell{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeVarint(b)
		switch num {
		case cellOffset:
			c.Offset = int(v)
		case cellPlayerID:
			c.PlayerID = int(v)
		}
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cell: %w", err)
	}
	return c, nil
}

// consumeFields walks a message and hands each field's value bytes to
// callback, which returns how many bytes it consumed.
func consumeFields(b []byte, callback func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n, err := callback(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}
