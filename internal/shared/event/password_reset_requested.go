package event

import "time"

const PasswordResetRequestedDestination string = "account.password_reset.requested"
const PasswordResetRequestedConsumerNotification string = "account_password_reset_notification"

type PasswordResetRequestedMessage struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}
