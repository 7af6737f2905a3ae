package sessions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skortchmar/livewire/auth/sessions"
)

func TestInMemoryRepo_CreateAndGet(t *testing.T) {
	repo := sessions.NewInMemoryRepo()

	id := repo.Create("user@example.com", "hunter2")
	require.NotEmpty(t, id)

	session, ok := repo.Get(id)
	require.True(t, ok)
	require.Equal(t, id, session.ID)
	require.Equal(t, "user@example.com", session.Username)
	require.Equal(t, "hunter2", session.Password)
	require.Equal(t, sessions.StatusAuthenticating, session.Status)
	require.Empty(t, session.AccessToken)
	require.False(t, session.CreatedAt.IsZero())

	t.Run("unknown id", func(t *testing.T) {
		_, ok := repo.Get("nope")
		require.False(t, ok)
	})

	t.Run("ids are unique", func(t *testing.T) {
		other := repo.Create("user@example.com", "hunter2")
		require.NotEqual(t, id, other)
	})
}

func TestInMemoryRepo_MFARound(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	id := repo.Create("user@example.com", "hunter2")

	ready, ok := repo.ArmMFAWait(id)
	require.True(t, ok)
	require.NotNil(t, ready)

	session, _ := repo.Get(id)
	require.Equal(t, sessions.StatusMFARequired, session.Status)

	select {
	case <-ready:
		t.Fatal("waiter completed before any code was submitted")
	default:
	}

	require.True(t, repo.SubmitCode(id, "123456"))

	select {
	case <-ready:
	default:
		t.Fatal("waiter not completed after code submission")
	}

	session, _ = repo.Get(id)
	require.Equal(t, sessions.StatusMFAReceived, session.Status)

	code, ok := repo.TakeCode(id)
	require.True(t, ok)
	require.Equal(t, "123456", code)

	session, _ = repo.Get(id)
	require.Equal(t, sessions.StatusAuthenticating, session.Status)
}

func TestInMemoryRepo_SubmitCodeGuards(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	id := repo.Create("user@example.com", "hunter2")

	t.Run("before arming", func(t *testing.T) {
		require.False(t, repo.SubmitCode(id, "123456"))
	})

	t.Run("unknown session", func(t *testing.T) {
		require.False(t, repo.SubmitCode("nope", "123456"))
	})

	t.Run("double submit closes waiter once", func(t *testing.T) {
		_, ok := repo.ArmMFAWait(id)
		require.True(t, ok)
		require.True(t, repo.SubmitCode(id, "111111"))
		// Second submit finds mfa_received, not mfa_required, and must not
		// close the channel again.
		require.False(t, repo.SubmitCode(id, "222222"))

		code, ok := repo.TakeCode(id)
		require.True(t, ok)
		require.Equal(t, "111111", code)
	})

	t.Run("take without submit", func(t *testing.T) {
		_, ok := repo.TakeCode(id)
		require.False(t, ok)
	})
}

func TestInMemoryRepo_SecondMFARoundGetsFreshWaiter(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	id := repo.Create("user@example.com", "hunter2")

	first, ok := repo.ArmMFAWait(id)
	require.True(t, ok)
	require.True(t, repo.SubmitCode(id, "111111"))
	_, ok = repo.TakeCode(id)
	require.True(t, ok)

	second, ok := repo.ArmMFAWait(id)
	require.True(t, ok)
	require.NotEqual(t, first, second)

	select {
	case <-second:
		t.Fatal("fresh waiter must not be satisfied by the previous round")
	default:
	}

	session, _ := repo.Get(id)
	require.Empty(t, session.MFACode, "re-arming clears the previous code")
}

func TestInMemoryRepo_TimeoutRace(t *testing.T) {
	repo := sessions.NewInMemoryRepo()

	t.Run("timeout wins", func(t *testing.T) {
		id := repo.Create("user@example.com", "hunter2")
		_, ok := repo.ArmMFAWait(id)
		require.True(t, ok)

		require.True(t, repo.TimeoutMFA(id, "MFA timeout"))

		session, _ := repo.Get(id)
		require.Equal(t, sessions.StatusTimeout, session.Status)
		require.Equal(t, "MFA timeout", session.Err)

		// Late code is rejected and the terminal state sticks.
		require.False(t, repo.SubmitCode(id, "123456"))
		session, _ = repo.Get(id)
		require.Equal(t, sessions.StatusTimeout, session.Status)
	})

	t.Run("code wins", func(t *testing.T) {
		id := repo.Create("user@example.com", "hunter2")
		_, ok := repo.ArmMFAWait(id)
		require.True(t, ok)

		require.True(t, repo.SubmitCode(id, "123456"))
		require.False(t, repo.TimeoutMFA(id, "MFA timeout"))

		code, ok := repo.TakeCode(id)
		require.True(t, ok)
		require.Equal(t, "123456", code)
	})
}

func TestInMemoryRepo_TerminalStatesAreAbsorbing(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	id := repo.Create("user@example.com", "hunter2")

	require.True(t, repo.SetStatus(id, sessions.StatusFailed, "login failed"))

	require.False(t, repo.SetStatus(id, sessions.StatusAuthenticating, ""))
	require.False(t, repo.SetToken(id, "token"))
	_, ok := repo.ArmMFAWait(id)
	require.False(t, ok)

	session, _ := repo.Get(id)
	require.Equal(t, sessions.StatusFailed, session.Status)
	require.Equal(t, "login failed", session.Err)
}

func TestInMemoryRepo_SetToken(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	id := repo.Create("user@example.com", "hunter2")

	require.True(t, repo.SetToken(id, "access-token"))

	session, _ := repo.Get(id)
	require.Equal(t, sessions.StatusSuccess, session.Status)
	require.Equal(t, "access-token", session.AccessToken)
}

func TestInMemoryRepo_ValidToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := sessions.NewInMemoryRepo(sessions.WithNowTime(func() time.Time { return now }))

	id := repo.Create("user@example.com", "hunter2")
	require.True(t, repo.SetToken(id, "access-token"))

	t.Run("fresh token", func(t *testing.T) {
		now = now.Add(time.Hour)
		token, ok := repo.ValidToken(id, 2*time.Hour)
		require.True(t, ok)
		require.Equal(t, "access-token", token)
	})

	t.Run("no token before success", func(t *testing.T) {
		pending := repo.Create("other@example.com", "pw")
		_, ok := repo.ValidToken(pending, 2*time.Hour)
		require.False(t, ok)
	})

	t.Run("expired token evicts the session", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, ok := repo.ValidToken(id, 2*time.Hour)
		require.False(t, ok)

		_, ok = repo.Get(id)
		require.False(t, ok, "stale session is removed on read")
	})
}

func TestInMemoryRepo_EvictExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := sessions.NewInMemoryRepo(sessions.WithNowTime(func() time.Time { return now }))

	old := repo.Create("old@example.com", "pw")
	now = now.Add(3 * time.Hour)
	fresh := repo.Create("fresh@example.com", "pw")

	require.Equal(t, 1, repo.EvictExpired(2*time.Hour))

	_, ok := repo.Get(old)
	require.False(t, ok)
	_, ok = repo.Get(fresh)
	require.True(t, ok)
}

func TestInMemoryRepo_Delete(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	id := repo.Create("user@example.com", "hunter2")

	repo.Delete(id)
	_, ok := repo.Get(id)
	require.False(t, ok)

	// Deleting again is a no-op.
	repo.Delete(id)
}
