// Package auth drives the session-based MFA login sequence: it bridges the
// utility's synchronous, interactive login protocol (credentials -> external
// MFA code entry -> token issuance) with the stateless HTTP API above it.
package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/skortchmar/livewire/auth/sessions"
)

const (
	defaultMFATimeout = 300 * time.Second
	defaultTokenTTL   = 2 * time.Hour
)

// MFAPrompt is supplied to the login client and invoked if and when the
// remote protocol demands a second factor. It blocks the calling goroutine
// (not the process) until the code arrives or the wait times out.
type MFAPrompt func(ctx context.Context) (string, error)

// LoginClient abstracts the external utility login exchange. Implementations
// call prompt at most once per challenge round and return the issued access
// token on success.
type LoginClient interface {
	Login(ctx context.Context, username, password string, prompt MFAPrompt) (string, error)
}

// StatusInfo is the poller-facing view of a session.
type StatusInfo struct {
	Status    sessions.Status
	Err       string
	CreatedAt time.Time
}

// Service coordinates MFA login sessions. One goroutine per login sequence
// runs concurrently with the HTTP-facing read/submit operations; the session
// repo serializes every state transition.
type Service struct {
	repo       sessions.Repo
	client     LoginClient
	mfaTimeout time.Duration
	tokenTTL   time.Duration
	nowTime    func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithMFATimeout overrides how long a login waits for the second-factor code.
func WithMFATimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.mfaTimeout = d
	}
}

// WithTokenTTL overrides how long a stored access token stays usable.
func WithTokenTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.tokenTTL = d
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repo sessions.Repo, client LoginClient, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] session repo is required")
	}
	if client == nil {
		return nil, errors.New("[NewService] login client is required")
	}

	s := &Service{
		repo:       repo,
		client:     client,
		mfaTimeout: defaultMFATimeout,
		tokenTTL:   defaultTokenTTL,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// StartLogin creates a session and launches its login sequence as a detached
// goroutine. The returned channel closes when the sequence reaches a terminal
// state; callers may await it or abandon it.
func (s *Service) StartLogin(ctx context.Context, username, password string) (string, <-chan struct{}) {
	id := s.repo.Create(username, password)
	log.Info().Str("session_id", id).Msg("created MFA session")

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.BeginLogin(ctx, id)
	}()
	return id, done
}

// BeginLogin runs the full login sequence for a session to a terminal state.
// Every failure of the external exchange is converted into session state;
// nothing escapes, since the sequence runs detached.
func (s *Service) BeginLogin(ctx context.Context, id string) {
	sess, ok := s.repo.Get(id)
	if !ok {
		// Evicted before the sequence started. Nothing to report against.
		return
	}

	token, err := s.client.Login(ctx, sess.Username, sess.Password, s.mfaPrompt(id))
	if err != nil {
		if errors.Is(err, ErrMFATimeout) {
			// The prompt already moved the session to StatusTimeout.
			log.Warn().Str("session_id", id).Msg("MFA wait timed out")
			return
		}
		if errors.Is(err, ErrSessionNotFound) {
			return
		}
		s.repo.SetStatus(id, sessions.StatusFailed, err.Error())
		log.Error().Str("session_id", id).Str("error", err.Error()).Msg("authentication failed")
		return
	}

	if token == "" {
		s.repo.SetStatus(id, sessions.StatusFailed, "login returned no access token")
		return
	}
	if s.repo.SetToken(id, token) {
		log.Info().Str("session_id", id).Msg("authentication successful, access token stored")
	}
}

// SubmitCode records an MFA code for a pending session and releases the
// waiting login sequence. It never blocks; it returns false when the session
// is absent or not currently waiting on a code.
func (s *Service) SubmitCode(id, code string) bool {
	if !s.repo.SubmitCode(id, code) {
		return false
	}
	log.Info().Str("session_id", id).Msg("MFA code received")
	return true
}

// Status returns the poller view of a session.
func (s *Service) Status(id string) (StatusInfo, bool) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return StatusInfo{}, false
	}
	return StatusInfo{
		Status:    sess.Status,
		Err:       sess.Err,
		CreatedAt: sess.CreatedAt,
	}, true
}

// ValidToken returns the session's access token while it is still fresh.
// Stale sessions are evicted at read time; there is no timer involved.
func (s *Service) ValidToken(id string) (string, bool) {
	return s.repo.ValidToken(id, s.tokenTTL)
}

// Credentials returns the username and password captured at session creation,
// for data collection against the utility on behalf of the session. ok is
// false unless the session authenticated successfully.
func (s *Service) Credentials(id string) (username, password string, ok bool) {
	sess, found := s.repo.Get(id)
	if !found || sess.Status != sessions.StatusSuccess {
		return "", "", false
	}
	return sess.Username, sess.Password, true
}

// Sweep opportunistically removes sessions older than the token TTL.
func (s *Service) Sweep() int {
	return s.repo.EvictExpired(s.tokenTTL)
}

// mfaPrompt builds the callback handed to the login client. Entering the wait
// arms a fresh single-shot waiter and flips the session to mfa_required; the
// first of {code submission, timeout, context cancellation} wins.
func (s *Service) mfaPrompt(id string) MFAPrompt {
	return func(ctx context.Context) (string, error) {
		ready, ok := s.repo.ArmMFAWait(id)
		if !ok {
			return "", ErrSessionNotFound
		}

		timer := time.NewTimer(s.mfaTimeout)
		defer timer.Stop()

		select {
		case <-ready:
			code, ok := s.repo.TakeCode(id)
			if !ok {
				return "", ErrSessionNotFound
			}
			return code, nil
		case <-timer.C:
			if !s.repo.TimeoutMFA(id, "MFA timeout") {
				// The code won the race against the timer; use it.
				if code, ok := s.repo.TakeCode(id); ok {
					return code, nil
				}
				return "", ErrSessionNotFound
			}
			return "", ErrMFATimeout
		case <-ctx.Done():
			s.repo.SetStatus(id, sessions.StatusFailed, "login cancelled")
			return "", ctx.Err()
		}
	}
}
