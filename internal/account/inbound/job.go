package inbound

import (
	"context"
	"time"

	"github.com/shandysiswandi/accountd/internal/pkg/goroutine"
)

type sweeper interface {
	SweepExpiredTokens(ctx context.Context) (int64, error)
}

// RegisterSweepJob deletes expired tokens on every interval until ctx is
// canceled.
func RegisterSweepJob(ctx context.Context, gm *goroutine.Manager, interval time.Duration, uc sweeper) {
	gm.Every(ctx, "account.sweep_expired_tokens", interval, func(ctx context.Context) error {
		_, err := uc.SweepExpiredTokens(ctx)
		return err
	})
}
