package event

import "time"

const OTPIssuedDestination string = "account.otp.issued"
const OTPIssuedConsumerNotification string = "account_otp_issued_notification"

// OTPIssuedMessage carries a freshly issued OTP to the mailer. It is the only
// place the plaintext code travels after issuance.
type OTPIssuedMessage struct {
	EventID           string    `json:"event_id"`
	UserID            int64     `json:"user_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	OTP               string    `json:"otp"`
	VerificationToken string    `json:"verification_token"`
	ExpiresAt         time.Time `json:"expires_at"`
}
