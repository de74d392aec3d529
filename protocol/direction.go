package protocol

import "fmt"

type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

var directionTokens = [...]string{
	Up:    "up",
	Right: "right",
	Down:  "down",
	Left:  "left",
}

// String returns the wire token for the direction.
func (d Direction) String() string {
	if d < Up || d > Left {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionTokens[d]
}

// Delta is the unit step for the direction. Y grows downwards.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Right:
		return 1, 0
	case Left:
		return -1, 0
	}
	return 0, 0
}

func ParseDirection(token string) (Direction, error) {
	for d, t := range directionTokens {
		if t == token {
			return Direction(d), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", token)
}
