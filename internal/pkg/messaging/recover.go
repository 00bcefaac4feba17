package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/accountd/internal/pkg/stacktrace"
)

func callHandlerWithRecover(ctx context.Context, driver string, handler Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return handler(ctx, msg)
}

// deliver retries handler in process until it succeeds, ctx ends, or the
// attempt budget runs out. The last handler error is returned.
func deliver(ctx context.Context, driver string, handler Handler, msg Message, maxAttempts int) error {
	var err error
	for attempt := max(msg.Attempt, 1); attempt <= maxAttempts; attempt++ {
		msg.Attempt = attempt
		if err = callHandlerWithRecover(ctx, driver, handler, msg); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		slog.WarnContext(ctx, "messaging handler failed",
			"driver", driver,
			"topic", msg.Topic,
			"message_id", msg.ID,
			"attempt", attempt,
			"error", err,
		)
	}
	return err
}
