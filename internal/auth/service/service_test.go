package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/cooldown"
	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/internal/auth/notify"
	"github.com/oncreesaas/oncree/internal/auth/store/drivers/sqlite"
	"github.com/oncreesaas/oncree/pkg/cryptox"
	"github.com/oncreesaas/oncree/pkg/idx"
	"github.com/oncreesaas/oncree/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "oncree-service-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *recordingNotifier) last(t *testing.T) notify.Message {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no code was sent")
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) fail(err error) {
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
}

type fixture struct {
	store      *sqlite.Store
	clock      *testClock
	notifier   *recordingNotifier
	keys       *jwtx.KeyManager
	challenges *ChallengeService
	passwords  *PasswordService
	logins     *LoginService
	mfa        *MFAService
	users      *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: "oncree-test", NumKeys: 1})
	require.NoError(t, err)

	clock := &testClock{t: time.Now().UTC()}
	notifier := &recordingNotifier{}

	challenges := &ChallengeService{
		Store:       st,
		Notifier:    notifier,
		Cooldown:    cooldown.Disabled{},
		TTL:         10 * time.Minute,
		MaxAttempts: 3,
		Now:         clock.Now,
	}
	tokens := &TokenService{KeyManager: keys, Issuer: "oncree-test", AccessTTL: time.Hour}

	return &fixture{
		store:      st,
		clock:      clock,
		notifier:   notifier,
		keys:       keys,
		challenges: challenges,
		passwords:  &PasswordService{Store: st, Challenges: challenges},
		logins:     &LoginService{Store: st, Challenges: challenges, Tokens: tokens, Now: clock.Now},
		mfa:        &MFAService{Store: st, Issuer: "OncreeSaaS"},
		users:      &UserService{Store: st},
	}
}

func (f *fixture) createUser(t *testing.T, email, password string, emailMFA bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test User",
		Type:         domain.AccountConsultant,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if emailMFA {
		u.MFAEnabled = &now
	}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))

	u, err = f.store.Users().GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

// wrongCode returns a well-formed code different from code.
func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	const email = "alice@example.com"

	t.Run("consume once", func(t *testing.T) {
		f := newFixture(t)

		issued, err := f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
		require.NoError(t, err)
		require.Equal(t, email, issued.Identity)
		require.WithinDuration(t, f.clock.Now().Add(10*time.Minute), issued.ExpiresAt, time.Second)

		msg := f.notifier.last(t)
		require.Equal(t, issued.ChallengeID, msg.ChallengeID)
		require.Len(t, msg.Code, 6)
		require.Equal(t, 10, msg.TTLMinutes())

		req := VerifyRequest{Target: ByIdentity(email, domain.PurposePasswordReset), Code: msg.Code, Mode: domain.VerifyConsume}
		v, err := f.challenges.Verify(ctx, req)
		require.NoError(t, err)
		require.Equal(t, issued.ChallengeID, v.ChallengeID)
		require.Equal(t, domain.PurposePasswordReset, v.Purpose)

		_, err = f.challenges.Verify(ctx, req)
		require.ErrorIs(t, err, ErrAlreadyConsumed)
	})

	t.Run("check mode leaves the challenge usable", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
		require.NoError(t, err)
		code := f.notifier.last(t).Code

		target := ByIdentity(email, domain.PurposePasswordReset)
		_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: code, Mode: domain.VerifyCheck})
		require.NoError(t, err)
		_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: code, Mode: domain.VerifyCheck})
		require.NoError(t, err)

		_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: code, Mode: domain.VerifyConsume})
		require.NoError(t, err)
	})

	t.Run("purpose is part of the key", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.challenges.Issue(ctx, email, domain.PurposeLoginMFA)
		require.NoError(t, err)
		code := f.notifier.last(t).Code

		_, err = f.challenges.Verify(ctx, VerifyRequest{
			Target: ByIdentity(email, domain.PurposePasswordReset),
			Code:   code,
		})
		require.ErrorIs(t, err, ErrChallengeNotFound)
	})

	t.Run("unknown challenge id", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.challenges.Verify(ctx, VerifyRequest{
			Target: ByChallenge(idx.NewChallengeID(), domain.PurposeLoginMFA),
			Code:   "123456",
		})
		require.ErrorIs(t, err, ErrChallengeNotFound)
	})
}

func TestVerifyLocksOutAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "bob@example.com"

	issued, err := f.challenges.Issue(ctx, email, domain.PurposeLoginMFA)
	require.NoError(t, err)
	code := f.notifier.last(t).Code
	target := ByChallenge(issued.ChallengeID, domain.PurposeLoginMFA)

	_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: wrongCode(code)})
	require.ErrorIs(t, err, ErrCodeMismatch)
	_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: wrongCode(code)})
	require.ErrorIs(t, err, ErrCodeMismatch)
	_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: wrongCode(code)})
	require.ErrorIs(t, err, ErrLockedOut)

	// The right code no longer helps.
	_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: code})
	require.ErrorIs(t, err, ErrLockedOut)

	c, err := f.store.Challenges().GetChallengeByID(ctx, issued.ChallengeID)
	require.NoError(t, err)
	require.Equal(t, domain.ChallengeLockedOut, c.State)
	require.Equal(t, 3, c.AttemptCount)
}

func TestVerifyExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "carol@example.com"

	issued, err := f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
	require.NoError(t, err)
	code := f.notifier.last(t).Code

	f.clock.Advance(10*time.Minute + time.Second)

	target := ByIdentity(email, domain.PurposePasswordReset)
	_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: code})
	require.ErrorIs(t, err, ErrChallengeExpired)

	c, err := f.store.Challenges().GetChallengeByID(ctx, issued.ChallengeID)
	require.NoError(t, err)
	require.Equal(t, domain.ChallengeExpired, c.State)

	_, err = f.challenges.Verify(ctx, VerifyRequest{Target: target, Code: code})
	require.ErrorIs(t, err, ErrChallengeExpired)
}

func TestReissueSupersedes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "dave@example.com"

	first, err := f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
	require.NoError(t, err)
	oldCode := f.notifier.last(t).Code

	second, err := f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
	require.NoError(t, err)
	newCode := f.notifier.last(t).Code
	require.NotEqual(t, first.ChallengeID, second.ChallengeID)
	require.NotEqual(t, oldCode, newCode)

	t.Run("old code reports superseded without counting", func(t *testing.T) {
		_, err := f.challenges.Verify(ctx, VerifyRequest{
			Target: ByIdentity(email, domain.PurposePasswordReset),
			Code:   oldCode,
		})
		require.ErrorIs(t, err, ErrSuperseded)

		c, err := f.store.Challenges().GetChallengeByID(ctx, second.ChallengeID)
		require.NoError(t, err)
		require.Equal(t, 0, c.AttemptCount)
		require.Equal(t, domain.ChallengePending, c.State)
	})

	t.Run("old challenge id is superseded", func(t *testing.T) {
		_, err := f.challenges.Verify(ctx, VerifyRequest{
			Target: ByChallenge(first.ChallengeID, domain.PurposePasswordReset),
			Code:   oldCode,
		})
		require.ErrorIs(t, err, ErrSuperseded)
	})

	t.Run("new code works", func(t *testing.T) {
		_, err := f.challenges.Verify(ctx, VerifyRequest{
			Target: ByIdentity(email, domain.PurposePasswordReset),
			Code:   newCode,
		})
		require.NoError(t, err)
	})
}

func TestResend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "erin@example.com"

	first, err := f.challenges.Issue(ctx, email, domain.PurposeLoginMFA)
	require.NoError(t, err)

	second, err := f.challenges.Resend(ctx, first.ChallengeID, domain.PurposeLoginMFA)
	require.NoError(t, err)
	require.NotEqual(t, first.ChallengeID, second.ChallengeID)
	require.Equal(t, 2, f.notifier.count())

	_, err = f.challenges.Resend(ctx, first.ChallengeID, domain.PurposeLoginMFA)
	require.ErrorIs(t, err, ErrSuperseded)

	_, err = f.challenges.Verify(ctx, VerifyRequest{
		Target: ByChallenge(second.ChallengeID, domain.PurposeLoginMFA),
		Code:   f.notifier.last(t).Code,
	})
	require.NoError(t, err)

	_, err = f.challenges.Resend(ctx, second.ChallengeID, domain.PurposeLoginMFA)
	require.ErrorIs(t, err, ErrAlreadyConsumed)

	_, err = f.challenges.Resend(ctx, idx.NewChallengeID(), domain.PurposeLoginMFA)
	require.ErrorIs(t, err, ErrChallengeNotFound)

	t.Run("expired challenges can be resent", func(t *testing.T) {
		third, err := f.challenges.Issue(ctx, email, domain.PurposeLoginMFA)
		require.NoError(t, err)
		f.clock.Advance(11 * time.Minute)

		_, err = f.challenges.Resend(ctx, third.ChallengeID, domain.PurposeLoginMFA)
		require.NoError(t, err)
	})
}

func TestResendStaleExpiredChallenge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "frank@example.com"

	old, err := f.challenges.Issue(ctx, email, domain.PurposeLoginMFA)
	require.NoError(t, err)
	f.clock.Advance(11 * time.Minute)

	// Housekeeping marks the old one expired before a new login starts.
	hk := NewHousekeepingService(f.store, testLogger(), time.Hour, 24*time.Hour)
	expired, _ := hk.Cleanup(ctx, f.clock.Now())
	require.EqualValues(t, 1, expired)

	current, err := f.challenges.Issue(ctx, email, domain.PurposeLoginMFA)
	require.NoError(t, err)
	code := f.notifier.last(t).Code

	_, err = f.challenges.Resend(ctx, old.ChallengeID, domain.PurposeLoginMFA)
	require.ErrorIs(t, err, ErrSuperseded)
	require.Equal(t, 2, f.notifier.count())

	// The live login is untouched.
	v, err := f.challenges.Verify(ctx, VerifyRequest{
		Target: ByChallenge(current.ChallengeID, domain.PurposeLoginMFA),
		Code:   code,
	})
	require.NoError(t, err)
	require.Equal(t, current.ChallengeID, v.ChallengeID)
}

func TestIssueCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.challenges.Cooldown = cooldown.NewMemory(time.Minute)
	const email = "frank@example.com"

	_, err := f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
	require.NoError(t, err)

	_, err = f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
	require.ErrorIs(t, err, ErrCooldown)
	after, ok := RetryAfter(err)
	require.True(t, ok)
	require.Greater(t, after, time.Duration(0))
	require.Equal(t, 1, f.notifier.count())

	// Other purposes have their own window.
	_, err = f.challenges.Issue(ctx, email, domain.PurposeLoginMFA)
	require.NoError(t, err)
}

func TestIssueDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.challenges.Cooldown = cooldown.NewMemory(time.Minute)
	const email = "grace@example.com"

	f.notifier.fail(errors.New("relay down"))
	_, err := f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
	require.ErrorIs(t, err, ErrDeliveryFailure)
	_, ok := RetryAfter(err)
	require.True(t, ok)

	latest, err := f.store.Challenges().GetLatestChallenge(ctx, email, domain.PurposePasswordReset)
	require.NoError(t, err)
	require.Equal(t, domain.ChallengeSuperseded, latest.State)

	// The cooldown was released, so the user can retry at once.
	f.notifier.fail(nil)
	_, err = f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
	require.NoError(t, err)
}

func TestConcurrentConsumeSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "heidi@example.com"

	_, err := f.challenges.Issue(ctx, email, domain.PurposePasswordReset)
	require.NoError(t, err)
	code := f.notifier.last(t).Code

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.challenges.Verify(ctx, VerifyRequest{
				Target: ByIdentity(email, domain.PurposePasswordReset),
				Code:   code,
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
}

func TestUniqueCode(t *testing.T) {
	id := idx.NewChallengeID()
	retained := make([]domain.VerificationChallenge, 0, 20)
	for i := range 20 {
		cid := idx.NewChallengeID()
		code := fmt.Sprintf("%06d", i)
		retained = append(retained, domain.VerificationChallenge{ID: cid, CodeHash: cryptox.HashCode(cid, code)})
	}

	for range 50 {
		code, err := uniqueCode(id, retained)
		require.NoError(t, err)
		for _, c := range retained {
			require.False(t, MatchEmailedCode(c, code))
		}
	}
}

func TestHousekeepingCleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.challenges.Issue(ctx, "ivan@example.com", domain.PurposePasswordReset)
	require.NoError(t, err)
	_, err = f.challenges.Issue(ctx, "ivan@example.com", domain.PurposePasswordReset)
	require.NoError(t, err)

	hk := NewHousekeepingService(f.store, testLogger(), time.Hour, time.Hour)

	// Nothing is due yet; the superseded one is inside retention.
	expired, deleted := hk.Cleanup(ctx, f.clock.Now())
	require.Zero(t, expired)
	require.Zero(t, deleted)

	expired, deleted = hk.Cleanup(ctx, f.clock.Now().Add(2*time.Hour))
	require.EqualValues(t, 1, expired)
	require.EqualValues(t, 1, deleted)
}

func newCooldownForTest() cooldown.Limiter {
	return cooldown.NewMemory(time.Minute)
}
