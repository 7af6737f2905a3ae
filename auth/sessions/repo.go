package sessions

import "time"

// Repo defines storage for MFA authentication sessions. All mutations are
// serialized per store, so state transitions on one session are totally
// ordered. Sessions are in-memory only and are discarded on shutdown.
type Repo interface {
	// Create allocates a new session in StatusAuthenticating and returns its id.
	Create(username, password string) string

	// Get returns a snapshot of the session, or ok=false when absent.
	Get(id string) (Session, bool)

	// SetStatus moves the session to status, recording errMsg when non-empty.
	// It refuses to leave a terminal status and reports whether it applied.
	SetStatus(id string, status Status, errMsg string) bool

	// SetToken stores the access token and moves the session to StatusSuccess.
	SetToken(id, token string) bool

	// ArmMFAWait moves the session to StatusMFARequired and installs a fresh
	// single-shot waiter, returning the channel the coordinator blocks on.
	// Arming again replaces the waiter, so each MFA round gets its own.
	ArmMFAWait(id string) (<-chan struct{}, bool)

	// SubmitCode records the code and moves mfa_required -> mfa_received,
	// completing the waiter. Returns false, mutating nothing, when the session
	// is absent or not exactly in StatusMFARequired.
	SubmitCode(id, code string) bool

	// TakeCode returns the submitted code and moves mfa_received back to
	// StatusAuthenticating for the remainder of the login exchange.
	TakeCode(id string) (string, bool)

	// TimeoutMFA moves mfa_required -> StatusTimeout. Returns false when the
	// session already left mfa_required, so the loser of the code/timeout race
	// is a no-op.
	TimeoutMFA(id, errMsg string) bool

	// ValidToken returns the access token of a successful session younger than
	// maxAge. Sessions at or past maxAge are evicted and reported absent.
	ValidToken(id string, maxAge time.Duration) (string, bool)

	// EvictExpired removes sessions older than maxAge and returns the count.
	// Intended to run opportunistically; no background sweeper is required.
	EvictExpired(maxAge time.Duration) int

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(id string)
}
