package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	addr string
	from string
	to   []string
	raw  string
}

func newTestSMTP(t *testing.T, c *captured, sendErr error) *SMTP {
	t.Helper()

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@accountd.local"})
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC) }
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		c.addr, c.from, c.to, c.raw = addr, from, to, string(msg)
		return sendErr
	}

	return s
}

func TestSMTP_Send(t *testing.T) {
	// Arrange
	c := &captured{}
	s := newTestSMTP(t, c, nil)

	// Act
	err := s.Send(context.Background(), Message{
		To:       []string{"jane@example.com"},
		Bcc:      []string{"audit@example.com"},
		Subject:  "Your One-Time Password (OTP)",
		HTMLBody: "<p>123456</p>",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", c.addr)
	assert.Equal(t, "noreply@accountd.local", c.from)
	assert.Equal(t, []string{"jane@example.com", "audit@example.com"}, c.to)
	assert.Contains(t, c.raw, "To: jane@example.com\r\n")
	assert.NotContains(t, c.raw, "audit@example.com")
	assert.Contains(t, c.raw, "Content-Type: text/html; charset=UTF-8")
	assert.True(t, strings.HasSuffix(c.raw, "\r\n\r\n<p>123456</p>"))
}

func TestSMTP_Multipart(t *testing.T) {
	c := &captured{}
	s := newTestSMTP(t, c, nil)

	err := s.Send(context.Background(), Message{To: []string{"a@b.c"}, TextBody: "plain", HTMLBody: "<b>html</b>"})

	require.NoError(t, err)
	assert.Contains(t, c.raw, "multipart/alternative; boundary=accountd-boundary-")
	assert.Contains(t, c.raw, "plain")
	assert.Contains(t, c.raw, "<b>html</b>")
}

func TestSMTP_Errors(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)

	s := newTestSMTP(t, &captured{}, errors.New("relay down"))
	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrSMTPNoRecipients)
	assert.EqualError(t, s.Send(context.Background(), Message{To: []string{"a@b.c"}}), "relay down")

	s.defaultFrom = ""
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: []string{"a@b.c"}}), ErrSMTPNoSender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: []string{"a@b.c"}}), context.Canceled)
}

func TestLog_Send(t *testing.T) {
	assert.NoError(t, NewLog().Send(context.Background(), Message{To: []string{"a@b.c"}}))
	assert.ErrorIs(t, NewLog().Send(context.Background(), Message{}), ErrSMTPNoRecipients)
}
