package sessions

import "time"

// Status tracks an authentication session through the MFA login sequence.
//
// Transitions:
//
//	authenticating -> mfa_required -> mfa_received -> authenticating -> success
//	                                                                 -> failed
//	                  mfa_required -> timeout
//
// success, failed, and timeout are terminal; a session never leaves them.
type Status string

const (
	StatusAuthenticating Status = "authenticating"
	StatusMFARequired    Status = "mfa_required"
	StatusMFAReceived    Status = "mfa_received"
	StatusSuccess        Status = "success"
	StatusFailed         Status = "failed"
	StatusTimeout        Status = "timeout"
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusTimeout
}

// Session is a read snapshot of an authentication session. The single-shot
// MFA waiter channel lives on the store's internal record, never on a
// snapshot, so readers cannot complete it.
//
// Username and Password are used once for the remote login attempt and must
// never be logged or serialized.
type Session struct {
	ID          string
	Username    string
	Password    string
	Status      Status
	MFACode     string
	AccessToken string
	Err         string
	CreatedAt   time.Time
}
