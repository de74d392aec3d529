package world

// Coords is a cell on the board.
type Coords struct {
	X, Y int
}
