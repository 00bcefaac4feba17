package inbound

import (
	"context"

	"github.com/shandysiswandi/accountd/internal/notification/usecase"
)

type uc interface {
	ConsumeOTPIssued(ctx context.Context, in usecase.ConsumeOTPIssuedInput) error
	ConsumePasswordReset(ctx context.Context, in usecase.ConsumePasswordResetInput) error
}
