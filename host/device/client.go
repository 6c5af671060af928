// Package device talks to bootrtc firmware over its line console.
package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bootrtc/core"
)

var (
	// ErrClosed is returned by queries on a closed client
	ErrClosed = errors.New("device client closed")

	// ErrMalformedReply is returned when a reply line cannot be parsed
	ErrMalformedReply = errors.New("malformed device reply")
)

// Error is a reply of the form "err <message>"
type Error struct {
	Command string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("device rejected %q: %s", e.Command, e.Message)
}

// Reply is a parsed "ok k=v ..." line
type Reply struct {
	Raw    string
	Fields map[string]string
}

// String returns the value of key, or "" if absent
func (r Reply) String(key string) string {
	return r.Fields[key]
}

// Int parses the value of key as a signed integer
func (r Reply) Int(key string) (int64, error) {
	v, ok := r.Fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q in %q", ErrMalformedReply, key, r.Raw)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %w", ErrMalformedReply, key, err)
	}
	return n, nil
}

// Uint parses the value of key as an unsigned integer
func (r Reply) Uint(key string) (uint64, error) {
	v, ok := r.Fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q in %q", ErrMalformedReply, key, r.Raw)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %w", ErrMalformedReply, key, err)
	}
	return n, nil
}

// Bool parses a 0/1 field
func (r Reply) Bool(key string) (bool, error) {
	n, err := r.Int(key)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// ParseReply classifies one console line.
// isReply is false for diagnostic lines, which start with '['.
func ParseReply(command, line string) (reply Reply, isReply bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "[") {
		return Reply{}, false, nil
	}

	head, rest, _ := strings.Cut(line, " ")
	switch head {
	case core.ReplyOK:
		fields := make(map[string]string)
		for _, f := range strings.Fields(rest) {
			k, v, ok := strings.Cut(f, "=")
			if !ok {
				return Reply{}, true, fmt.Errorf("%w: %q", ErrMalformedReply, line)
			}
			fields[k] = v
		}
		return Reply{Raw: line, Fields: fields}, true, nil
	case core.ReplyErr:
		return Reply{}, true, &Error{Command: command, Message: rest}
	default:
		// Anything else is device chatter (e.g. PrintNow output)
		return Reply{}, false, nil
	}
}

// LogFunc receives diagnostic lines the device prints between replies
type LogFunc func(line string)

// Client issues console commands and waits for their replies.
// Queries are serialized; the firmware answers one line at a time.
type Client struct {
	rw     io.ReadWriter
	logger zerolog.Logger

	queryMu sync.Mutex
	lines   chan string
	done    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	onLog LogFunc
	err   error
}

// NewClient starts reading lines from rw in the background
func NewClient(rw io.ReadWriter, logger zerolog.Logger) *Client {
	c := &Client{
		rw:     rw,
		logger: logger,
		lines:  make(chan string, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// OnLog sets the handler for diagnostic lines. nil drops them.
func (c *Client) OnLog(fn LogFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLog = fn
}

// Close stops the reader and closes rw if it is an io.Closer
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (c *Client) readLoop() {
	reader := bufio.NewReader(c.rw)
	var pending strings.Builder

	for {
		chunk, err := reader.ReadString('\n')
		pending.WriteString(chunk)

		if err == nil {
			line := strings.TrimRight(pending.String(), "\r\n")
			pending.Reset()
			c.dispatchLine(line)
			continue
		}

		select {
		case <-c.done:
			return
		default:
		}

		// A serial read timeout surfaces as EOF or an empty read; keep the
		// partial line and poll again.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrNoProgress) {
			time.Sleep(10 * time.Millisecond)
			reader.Reset(c.rw)
			continue
		}

		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		c.logger.Error().Err(err).Msg("device read failed")
		close(c.lines)
		return
	}
}

func (c *Client) dispatchLine(line string) {
	if line == "" {
		return
	}
	if strings.HasPrefix(line, "[") {
		c.mu.Lock()
		fn := c.onLog
		c.mu.Unlock()
		if fn != nil {
			fn(line)
		}
		c.logger.Debug().Str("line", line).Msg("device log")
		return
	}
	select {
	case c.lines <- line:
	case <-c.done:
	}
}

// Query sends command and waits for its reply line
func (c *Client) Query(ctx context.Context, command string) (Reply, error) {
	c.queryMu.Lock()
	defer c.queryMu.Unlock()

	select {
	case <-c.done:
		return Reply{}, ErrClosed
	default:
	}

	// Discard replies left over from an abandoned query
	for drained := false; !drained; {
		select {
		case _, ok := <-c.lines:
			drained = !ok
		default:
			drained = true
		}
	}

	c.logger.Debug().Str("command", command).Msg("device query")
	if _, err := io.WriteString(c.rw, command+"\n"); err != nil {
		return Reply{}, fmt.Errorf("write %q: %w", command, err)
	}

	for {
		select {
		case <-ctx.Done():
			return Reply{}, fmt.Errorf("waiting for %q: %w", command, ctx.Err())
		case <-c.done:
			return Reply{}, ErrClosed
		case line, ok := <-c.lines:
			if !ok {
				c.mu.Lock()
				err := c.err
				c.mu.Unlock()
				return Reply{}, fmt.Errorf("device read: %w", err)
			}
			reply, isReply, err := ParseReply(command, line)
			if !isReply {
				c.logger.Debug().Str("line", line).Msg("device output")
				continue
			}
			return reply, err
		}
	}
}
