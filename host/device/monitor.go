package device

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Monitor passes every line read from r to fn until ctx is done or r
// fails. Read timeouts (EOF from a serial port) are retried.
func Monitor(ctx context.Context, r io.Reader, fn func(line string)) error {
	reader := bufio.NewReader(r)
	var pending strings.Builder

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := reader.ReadString('\n')
		pending.WriteString(chunk)
		if err == nil {
			if line := strings.TrimRight(pending.String(), "\r\n"); line != "" {
				fn(line)
			}
			pending.Reset()
			continue
		}
		if !errors.Is(err, io.EOF) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
