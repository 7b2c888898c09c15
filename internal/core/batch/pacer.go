package batch

import (
	"context"
	"time"
)

// Pacer decides how long to wait between two consecutive upstream calls.
type Pacer interface {
	Wait(ctx context.Context) error
}

// ConstantPacer waits a fixed delay.
type ConstantPacer struct {
	Delay time.Duration
}

func (p ConstantPacer) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoPacer never waits.
type NoPacer struct{}

func (NoPacer) Wait(ctx context.Context) error { return ctx.Err() }
