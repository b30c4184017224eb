package service

import (
	"context"
	"time"
)

// FixedDelay waits the same interval before every paced request.
type FixedDelay struct {
	Interval time.Duration
}

func (p FixedDelay) Wait(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
