package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrConnectionLost = errors.New("connection lost")

// FrameConn reads and writes newline-terminated frames. Writes go straight
// to the underlying stream.
type FrameConn interface {
	ReadFrame() (string, error)
	WriteFrame(frame string) error
	Close() error
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type lineConn struct {
	rwc         io.ReadWriteCloser
	reader      *bufio.Reader
	readTimeout time.Duration
}

// NewFrameConn frames rwc by lines. A zero readTimeout blocks on reads for
// as long as the server stays quiet.
func NewFrameConn(rwc io.ReadWriteCloser, readTimeout time.Duration) FrameConn {
	return &lineConn{
		rwc:         rwc,
		reader:      bufio.NewReader(rwc),
		readTimeout: readTimeout,
	}
}

func (c *lineConn) ReadFrame() (string, error) {
	if d, ok := c.rwc.(readDeadliner); ok && c.readTimeout > 0 {
		if err := d.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return "", fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		// A final frame without a newline is still a frame.
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return "", fmt.Errorf("%w: read: %w", ErrConnectionLost, err)
	}
	return line, nil
}

func (c *lineConn) WriteFrame(frame string) error {
	if _, err := io.WriteString(c.rwc, frame+"\n"); err != nil {
		return fmt.Errorf("%w: write: %w", ErrConnectionLost, err)
	}
	return nil
}

func (c *lineConn) Close() error {
	return c.rwc.Close()
}
