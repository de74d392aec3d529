package client

import (
	"fmt"
	"io"
	"log/slog"

	"snek/world"
)

// scriptConn replays canned frames and records what gets written. Once the
// script runs out it reports EOF like a closed socket.
type scriptConn struct {
	frames   []string
	written  []string
	writeErr error
	closed   bool
}

func newScriptConn(frames ...string) *scriptConn {
	return &scriptConn{frames: frames}
}

func (c *scriptConn) ReadFrame() (string, error) {
	if c.closed || len(c.frames) == 0 {
		return "", fmt.Errorf("%w: read: %w", ErrConnectionLost, io.EOF)
	}
	frame := c.frames[0]
	c.frames = c.frames[1:]
	return frame + "\n", nil
}

func (c *scriptConn) WriteFrame(frame string) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, frame)
	return nil
}

func (c *scriptConn) Close() error {
	c.closed = true
	return nil
}

type recordingPublisher struct {
	snapshots []world.Snapshot
}

func (p *recordingPublisher) Publish(snap world.Snapshot) {
	p.snapshots = append(p.snapshots, snap)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
