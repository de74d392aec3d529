package world

import (
	"errors"
	"strings"

	"snek/protocol"
)

// emptyCell marks a cell nobody has been reported on. Player ids are never
// negative, so it cannot collide with an occupant.
const emptyCell = -1

var ErrOutOfBounds = errors.New("out of bounds")

// markers are the board glyphs for the first few players.
var markers = []byte{'X', 'O', 'V', 'B'}

// Map is the toroidal occupancy grid: the id of the last player reported on
// each cell, indexed by Width*y+x.
type Map struct {
	Cells  []int
	Width  int
	Height int
}

func NewMap(width, height int) *Map {
	cells := make([]int, width*height)
	for i := range cells {
		cells[i] = emptyCell
	}
	return &Map{
		Cells:  cells,
		Width:  width,
		Height: height,
	}
}

func (m *Map) Offset(x, y int) int {
	return y*m.Width + x
}

// Wrap folds a coordinate back onto the board. Negative values wrap to the
// opposite edge.
func (m *Map) Wrap(x, y int) (int, int) {
	return floorMod(x, m.Width), floorMod(y, m.Height)
}

func floorMod(v, n int) int {
	return ((v % n) + n) % n
}

func (m *Map) NextOffset(x, y int, dir protocol.Direction) int {
	dx, dy := dir.Delta()
	return m.Offset(m.Wrap(x+dx, y+dy))
}

func (m *Map) Set(x, y, playerID int) error {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return ErrOutOfBounds
	}
	m.Cells[m.Offset(x, y)] = playerID
	return nil
}

// At returns the occupant at an offset, if any.
func (m *Map) At(offset int) (int, bool) {
	if offset < 0 || offset >= len(m.Cells) {
		return 0, false
	}
	id := m.Cells[offset]
	return id, id != emptyCell
}

// Clear empties every cell held by one of ids.
func (m *Map) Clear(ids []int) {
	for i, occupant := range m.Cells {
		if occupant == emptyCell {
			continue
		}
		for _, id := range ids {
			if occupant == id {
				m.Cells[i] = emptyCell
				break
			}
		}
	}
}

func (m *Map) ForEach(callback func(x, y, playerID int)) {
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if id := m.Cells[m.Width*y+x]; id != emptyCell {
				callback(x, y, id)
			}
		}
	}
}

// Render draws the board with one marker per occupied cell, two columns
// per cell, followed by a dashed line.
func (m *Map) Render() string {
	var b strings.Builder
	b.Grow((m.Width*2 + 1) * (m.Height + 1))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			id := m.Cells[m.Width*y+x]
			switch {
			case id == emptyCell:
				b.WriteString("  ")
			case id < len(markers):
				b.WriteByte(markers[id])
				b.WriteByte(' ')
			default:
				b.WriteString("# ")
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("-", m.Width*2))
	return b.String()
}
