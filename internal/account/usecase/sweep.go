package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

// SweepExpiredTokens deletes tokens that expired more than the grace period
// ago. The grace lets verifications that already read a token finish first.
func (s *Usecase) SweepExpiredTokens(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "SweepExpiredTokens")
	defer span.End()

	before := s.clock.Now().Add(-s.sweepGrace())
	n, err := s.repoToken.DeleteExpiredTokens(ctx, before)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired tokens", "before", before, "error", err)
		return 0, goerror.NewServer(err)
	}

	if n > 0 {
		slog.InfoContext(ctx, "expired tokens swept", "count", n, "before", before)
	}

	return n, nil
}
