package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrProtocolViolation = errors.New("protocol violation")
	ErrFieldParse        = errors.New("field parse error")
)

// UnknownFrameError is returned when a line matches no frame of the grammar,
// either because of its tag or its number of fields.
type UnknownFrameError struct {
	Line string // as received, before trimming
}

func (e *UnknownFrameError) Error() string {
	return fmt.Sprintf("unknown frame %q", e.Line)
}

func (e *UnknownFrameError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// FieldParseError is returned when a numeric field is not a non-negative
// integer. Index counts the tag as field 0.
type FieldParseError struct {
	Tag   string
	Index int
	Err   error
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("%s: field %d: %v", e.Tag, e.Index, e.Err)
}

func (e *FieldParseError) Is(target error) bool {
	return target == ErrFieldParse
}

func (e *FieldParseError) Unwrap() error {
	return e.Err
}

// ServerError carries the text of an "error" frame.
type ServerError struct {
	Text string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Text)
}
