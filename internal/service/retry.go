package service

import (
	"context"
	"math/rand"
	"time"
)

// backoffDelay returns base*2^(attempt-1) plus up to half of that in jitter.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	exp := base << (attempt - 1)
	if half := int64(exp / 2); half > 0 {
		exp += time.Duration(rand.Int63n(half))
	}
	return exp
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
