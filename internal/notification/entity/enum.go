package entity

type TriggerKey string

const (
	TriggerKeyAccountOTP           TriggerKey = "account_otp"
	TriggerKeyAccountPasswordReset TriggerKey = "account_password_reset"
)

func (t TriggerKey) String() string {
	return string(t)
}

// Subject is the email subject line sent for the trigger.
func (t TriggerKey) Subject() string {
	switch t {
	case TriggerKeyAccountOTP:
		return "Your One-Time Password (OTP)"
	case TriggerKeyAccountPasswordReset:
		return "Reset your password"
	default:
		return ""
	}
}
