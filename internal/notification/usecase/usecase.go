package usecase

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"time"

	"github.com/shandysiswandi/accountd/internal/notification/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/clock"
	"github.com/shandysiswandi/accountd/internal/pkg/config"
	"github.com/shandysiswandi/accountd/internal/pkg/idempotency"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/shandysiswandi/accountd/internal/pkg/mail"
	"github.com/shandysiswandi/accountd/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/*.html
var templateFS embed.FS

const deliveryStateTTL = 24 * time.Hour

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoMail    repoMail
	idempotency idempotency.Idempotency
	validator   validator.Validator
	cfg         config.Config
	clock       clock.Clocker
	ins         instrument.Instrumentation
	templates   *template.Template
}

type Dependency struct {
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:    dep.RepoMail,
		idempotency: dep.Idempotency,
		validator:   dep.Validator,
		cfg:         dep.Config,
		clock:       dep.Clock,
		ins:         dep.Instrument,
		templates:   template.Must(template.New("").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html")),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) renderTemplate(tk entity.TriggerKey, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, tk.String()+".html", data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"support_email":   s.cfg.GetString("modules.notification.support_email"),
		"company_name":    s.cfg.GetString("modules.notification.company_name"),
		"company_address": s.cfg.GetString("modules.notification.company_address"),
		"year":            s.clock.Now().Format("2006"),
	}
}

type emailInput struct {
	EventID      string
	UserID       int64
	Email        string
	TriggerKey   entity.TriggerKey
	TemplateData map[string]any
}

// sendEmail renders and sends the email for in at most once per event id.
// A redelivered event whose email already went out is acknowledged without
// sending again; a failed send releases the key so the broker may retry.
func (s *Usecase) sendEmail(ctx context.Context, in emailInput) error {
	body, err := s.renderTemplate(in.TriggerKey, in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", err)
		return nil
	}

	key := "notification:" + in.TriggerKey.String() + ":" + in.EventID
	err = s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		return s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  in.TriggerKey.Subject(),
			HTMLBody: body,
		})
	}, idempotency.WithStateTTL(deliveryStateTTL))

	switch {
	case err == nil:
		slog.InfoContext(ctx, "notification email sent", "user_id", in.UserID, "trigger_key", in.TriggerKey.String())
		return nil
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "notification email already handled", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "event_id", in.EventID)
		return nil
	default:
		slog.ErrorContext(ctx, "failed to send notification email", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", err)
		return err
	}
}

func expiryMinutes(now, expiresAt time.Time) int {
	m := int(expiresAt.Sub(now).Round(time.Minute) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
