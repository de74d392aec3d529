package protocol

// Message is a single decoded server frame. The concrete type tells which
// frame it was, so callers switch on it the same way they would on an event.
type Message interface {
	Tag() string
}

const (
	TagMotd    = "motd"
	TagError   = "error"
	TagGame    = "game"
	TagPos     = "pos"
	TagTick    = "tick"
	TagDie     = "die"
	TagMessage = "message"
	TagWin     = "win"
	TagLose    = "lose"

	TagJoin = "join"
	TagMove = "move"
)

type Motd struct {
	Text string
}

// ErrorFrame is the server telling us something went wrong, usually right
// before it drops the connection.
type ErrorFrame struct {
	Text string
}

// Game starts a round. PlayerID is our own id for the round.
type Game struct {
	Width, Height int
	PlayerID      int
}

// Pos reports a cell currently occupied by a player.
type Pos struct {
	PlayerID int
	X, Y     int
}

type Tick struct{}

type Die struct {
	PlayerIDs []int
}

// Chat is the "message" frame. Game logic ignores it.
type Chat struct {
	PlayerID int
	Text     string
}

type Win struct {
	Wins, Losses int
}

type Lose struct {
	Wins, Losses int
}

func (Motd) Tag() string       { return TagMotd }
func (ErrorFrame) Tag() string { return TagError }
func (Game) Tag() string       { return TagGame }
func (Pos) Tag() string        { return TagPos }
func (Tick) Tag() string       { return TagTick }
func (Die) Tag() string        { return TagDie }
func (Chat) Tag() string       { return TagMessage }
func (Win) Tag() string        { return TagWin }
func (Lose) Tag() string       { return TagLose }
