package device

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"bootrtc/core"
)

// Status mirrors the firmware "status" reply
type Status struct {
	Connected    bool
	PreviousBoot uint64
	BootDelta    core.Delta
}

// Now returns the device clock reading. A disconnected RTC reports the
// 1970-01-01 placeholder.
func (c *Client) Now(ctx context.Context) (time.Time, error) {
	reply, err := c.Query(ctx, "now")
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("2006-01-02 15:04:05", reply.String("date")+" "+reply.String("time"))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}
	epoch, err := reply.Int("epoch")
	if err != nil {
		return time.Time{}, err
	}
	if t.Unix() != epoch {
		return time.Time{}, fmt.Errorf("%w: date %s does not match epoch %d", ErrMalformedReply, t, epoch)
	}
	return t, nil
}

// BootDelta returns the delta the device computed at boot
func (c *Client) BootDelta(ctx context.Context) (core.Delta, error) {
	return c.queryDelta(ctx, "boot_delta")
}

// RecomputeDelta asks the device for a live delta against its clock
func (c *Client) RecomputeDelta(ctx context.Context) (core.Delta, error) {
	return c.queryDelta(ctx, "delta")
}

func (c *Client) queryDelta(ctx context.Context, command string) (core.Delta, error) {
	reply, err := c.Query(ctx, command)
	if err != nil {
		return core.DeltaUnknown, err
	}
	known, err := reply.Bool("known")
	if err != nil {
		return core.DeltaUnknown, err
	}
	if !known {
		return core.DeltaUnknown, nil
	}
	d, err := reply.Int("delta")
	if err != nil {
		return core.DeltaUnknown, err
	}
	return core.Delta(d), nil
}

// Status returns the device boot clock state
func (c *Client) Status(ctx context.Context) (Status, error) {
	reply, err := c.Query(ctx, "status")
	if err != nil {
		return Status{}, err
	}
	connected, err := reply.Bool("connected")
	if err != nil {
		return Status{}, err
	}
	previous, err := reply.Uint("previous")
	if err != nil {
		return Status{}, err
	}
	delta, err := reply.Int("boot_delta")
	if err != nil {
		return Status{}, err
	}
	return Status{
		Connected:    connected,
		PreviousBoot: previous,
		BootDelta:    core.Delta(delta),
	}, nil
}

// Tick runs the device maintenance hook and reports whether the RTC is usable
func (c *Client) Tick(ctx context.Context) (bool, error) {
	reply, err := c.Query(ctx, "tick")
	if err != nil {
		return false, err
	}
	return reply.Bool("updated")
}

// SetTime writes t, truncated to seconds, to the device RTC
func (c *Client) SetTime(ctx context.Context, t time.Time) error {
	epoch := t.Unix()
	if epoch < 0 || epoch > core.MaxSettableEpoch {
		return fmt.Errorf("time %s outside settable range", t.UTC())
	}
	reply, err := c.Query(ctx, "set "+strconv.FormatInt(epoch, 10))
	if err != nil {
		return err
	}
	got, err := reply.Int("epoch")
	if err != nil {
		return err
	}
	if got != epoch {
		return fmt.Errorf("%w: device set %d, requested %d", ErrMalformedReply, got, epoch)
	}
	return nil
}
