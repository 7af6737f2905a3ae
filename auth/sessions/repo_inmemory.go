package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// record is the mutable server-side state behind a session id. The waiter
// channel is completed by closing it, exactly once per arming: SubmitCode is
// the only closer and only fires from StatusMFARequired.
type record struct {
	session  Session
	mfaReady chan struct{}
}

// InMemoryRepo is a mutex-guarded in-memory implementation of Repo.
type InMemoryRepo struct {
	mu      sync.RWMutex
	records map[string]*record
	nowTime func() time.Time
}

// InMemoryRepoOption modifies an InMemoryRepo instance.
type InMemoryRepoOption func(*InMemoryRepo)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo(options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		records: make(map[string]*record),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) Create(username, password string) string {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[id] = &record{
		session: Session{
			ID:        id,
			Username:  username,
			Password:  password,
			Status:    StatusAuthenticating,
			CreatedAt: r.nowTime(),
		},
		mfaReady: make(chan struct{}),
	}
	return id
}

func (r *InMemoryRepo) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return Session{}, false
	}
	return rec.session, true
}

func (r *InMemoryRepo) SetStatus(id string, status Status, errMsg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.session.Status.Terminal() {
		return false
	}
	rec.session.Status = status
	if errMsg != "" {
		rec.session.Err = errMsg
	}
	return true
}

func (r *InMemoryRepo) SetToken(id, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.session.Status.Terminal() {
		return false
	}
	rec.session.AccessToken = token
	rec.session.Status = StatusSuccess
	return true
}

func (r *InMemoryRepo) ArmMFAWait(id string) (<-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.session.Status.Terminal() {
		return nil, false
	}
	// Fresh waiter per MFA round. The remote protocol may challenge more than
	// once per login; a previously completed channel must not satisfy the new
	// round's wait.
	rec.mfaReady = make(chan struct{})
	rec.session.MFACode = ""
	rec.session.Status = StatusMFARequired
	return rec.mfaReady, true
}

func (r *InMemoryRepo) SubmitCode(id, code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.session.Status != StatusMFARequired {
		return false
	}
	rec.session.MFACode = code
	rec.session.Status = StatusMFAReceived
	close(rec.mfaReady)
	return true
}

func (r *InMemoryRepo) TakeCode(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.session.Status != StatusMFAReceived {
		return "", false
	}
	rec.session.Status = StatusAuthenticating
	return rec.session.MFACode, true
}

func (r *InMemoryRepo) TimeoutMFA(id, errMsg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.session.Status != StatusMFARequired {
		return false
	}
	rec.session.Status = StatusTimeout
	rec.session.Err = errMsg
	return true
}

func (r *InMemoryRepo) ValidToken(id string, maxAge time.Duration) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return "", false
	}
	if rec.session.Status != StatusSuccess || rec.session.AccessToken == "" {
		return "", false
	}
	if r.nowTime().Sub(rec.session.CreatedAt) >= maxAge {
		delete(r.records, id)
		return "", false
	}
	return rec.session.AccessToken, true
}

func (r *InMemoryRepo) EvictExpired(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.nowTime().Add(-maxAge)
	evicted := 0
	for id, rec := range r.records {
		if rec.session.CreatedAt.Before(cutoff) {
			delete(r.records, id)
			evicted++
		}
	}
	return evicted
}

func (r *InMemoryRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, id)
}
