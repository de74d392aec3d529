package protocol

import (
	"strconv"
	"strings"
)

const separator = "|"

// Decode parses one frame. The line may still carry its trailing newline.
// A line either matches one frame of the grammar exactly or is rejected.
func Decode(line string) (Message, error) {
	trimmed := strings.TrimSpace(line)
	parts := strings.Split(trimmed, separator)
	tag, fields := parts[0], parts[1:]

	p := fieldParser{tag: tag, parts: parts}

	switch {
	case tag == TagMotd && len(fields) == 1:
		return Motd{Text: fields[0]}, nil

	case tag == TagError && len(fields) == 1:
		return ErrorFrame{Text: fields[0]}, nil

	case tag == TagGame && len(fields) == 3:
		msg := Game{
			Width:    p.uint(1),
			Height:   p.uint(2),
			PlayerID: p.uint(3),
		}
		return p.result(msg)

	case tag == TagPos && len(fields) == 3:
		msg := Pos{
			PlayerID: p.uint(1),
			X:        p.uint(2),
			Y:        p.uint(3),
		}
		return p.result(msg)

	case tag == TagTick && len(fields) == 0:
		return Tick{}, nil

	case tag == TagDie:
		ids := make([]int, len(fields))
		for i := range fields {
			ids[i] = p.uint(i + 1)
		}
		return p.result(Die{PlayerIDs: ids})

	case tag == TagMessage && len(fields) == 2:
		msg := Chat{
			PlayerID: p.uint(1),
			Text:     fields[1],
		}
		return p.result(msg)

	case tag == TagWin && len(fields) == 2:
		msg := Win{
			Wins:   p.uint(1),
			Losses: p.uint(2),
		}
		return p.result(msg)

	case tag == TagLose && len(fields) == 2:
		msg := Lose{
			Wins:   p.uint(1),
			Losses: p.uint(2),
		}
		return p.result(msg)
	}

	return nil, &UnknownFrameError{Line: line}
}

// fieldParser keeps the first parse failure so the cases above stay flat.
type fieldParser struct {
	tag   string
	parts []string
	err   error
}

func (p *fieldParser) uint(index int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(p.parts[index], 10, strconv.IntSize-1)
	if err != nil {
		p.err = &FieldParseError{Tag: p.tag, Index: index, Err: err}
		return 0
	}
	return int(v)
}

func (p *fieldParser) result(msg Message) (Message, error) {
	if p.err != nil {
		return nil, p.err
	}
	return msg, nil
}

func EncodeJoin(name, token string) string {
	return TagJoin + separator + name + separator + token
}

func EncodeMove(dir Direction) string {
	return TagMove + separator + dir.String()
}
