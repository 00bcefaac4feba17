package inbound

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/accountd/internal/pkg/goroutine"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) SweepExpiredTokens(context.Context) (int64, error) {
	s.calls.Inc()
	return 0, nil
}

func TestRegisterSweepJob(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(t.Context())
	gm := goroutine.NewManager(2)
	sw := &countingSweeper{}

	// Act
	RegisterSweepJob(ctx, gm, 10*time.Millisecond, sw)

	// Assert
	assert.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, gm.Wait())
}
