package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refsync/entity"
	"refsync/internal/seed"
	"refsync/internal/stats"
	"refsync/internal/store"
	"refsync/lib/clock"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeMirror struct {
	mu        sync.Mutex
	users     map[string]entity.User
	referrals map[string]entity.Referral
	order     []string
	failSave  bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{users: map[string]entity.User{}, referrals: map[string]entity.Referral{}}
}

func (m *fakeMirror) SaveUser(_ context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Id] = *user
	return nil
}

func (m *fakeMirror) SaveReferral(_ context.Context, r *entity.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errors.New("mirror down")
	}
	if _, ok := m.referrals[r.Id]; !ok {
		m.order = append(m.order, r.Id)
	}
	m.referrals[r.Id] = *r
	return nil
}

func (m *fakeMirror) GetUsers(_ context.Context) ([]*entity.User, error) {
	var users []*entity.User
	for _, u := range m.users {
		u := u
		users = append(users, &u)
	}
	return users, nil
}

func (m *fakeMirror) GetReferrals(_ context.Context) ([]*entity.Referral, error) {
	var referrals []*entity.Referral
	for _, id := range m.order {
		r := m.referrals[id]
		referrals = append(referrals, &r)
	}
	return referrals, nil
}

type fakeNotifier struct {
	created   []string
	completed []string
	reward    int
}

func (n *fakeNotifier) ReferralCreated(r *entity.Referral) {
	n.created = append(n.created, r.Id)
}

func (n *fakeNotifier) ReferralCompleted(r *entity.Referral, reward int) {
	n.completed = append(n.completed, r.Id)
	n.reward = reward
}

func newTestCore(t *testing.T) (*Core, *store.Store) {
	t.Helper()
	st := store.New(store.WithClock(clock.Fixed(now)))
	c := New(st, stats.New(st, 5), "https://share.example.com", quietLog())
	return c, st
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func importUser(t *testing.T, st *store.Store, id, code string) *entity.User {
	t.Helper()
	u, err := st.ImportUser(entity.User{Id: id, Name: "User " + id, ReferralCode: code})
	require.NoError(t, err)
	return u
}

func TestCreateReferral_ShareUrlMirrorAndNotify(t *testing.T) {
	c, st := newTestCore(t)
	mirror, notifier := newFakeMirror(), &fakeNotifier{}
	c.SetMirror(mirror)
	c.SetNotifier(notifier)
	u := importUser(t, st, "u1", "TEST0001")

	resp, err := c.CreateReferral(context.Background(), &entity.CreateReferralRequest{
		ReferrerUserId:    u.Id,
		ReferredUserEmail: "new+friend@example.com",
		SharedMethod:      entity.ShareEmail,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://share.example.com/install?ref=TEST0001&email=new%2Bfriend%40example.com", resp.ShareUrl)
	assert.Equal(t, entity.StatusPending, resp.Referral.Status)
	assert.Contains(t, mirror.referrals, resp.Referral.Id)
	assert.Equal(t, []string{resp.Referral.Id}, notifier.created)
}

func TestCreateReferral_Errors(t *testing.T) {
	c, st := newTestCore(t)
	notifier := &fakeNotifier{}
	c.SetNotifier(notifier)

	_, err := c.CreateReferral(context.Background(), &entity.CreateReferralRequest{ReferrerUserId: "missing", SharedMethod: entity.ShareLink})
	assert.ErrorIs(t, err, store.ErrReferrerNotFound)

	_, err = c.CreateReferral(context.Background(), &entity.CreateReferralRequest{ReferrerUserId: "missing", SharedMethod: "fax"})
	assert.ErrorIs(t, err, store.ErrInvalidShareMethod)

	u := importUser(t, st, "u1", "TEST0001")
	req := &entity.CreateReferralRequest{ReferrerUserId: u.Id, ReferredUserEmail: "a@b.co", SharedMethod: entity.ShareSMS}
	for i := 0; i < 20; i++ {
		_, err = c.CreateReferral(context.Background(), req)
		require.NoError(t, err)
	}
	_, err = c.CreateReferral(context.Background(), req)
	assert.ErrorIs(t, err, store.ErrTooManyPendingReferrals)
	assert.Len(t, notifier.created, 20)
}

func TestCreateReferral_MirrorFailureIsNotFatal(t *testing.T) {
	c, st := newTestCore(t)
	mirror := newFakeMirror()
	mirror.failSave = true
	c.SetMirror(mirror)
	u := importUser(t, st, "u1", "TEST0001")

	resp, err := c.CreateReferral(context.Background(), &entity.CreateReferralRequest{
		ReferrerUserId: u.Id, ReferredUserEmail: "a@b.co", SharedMethod: entity.ShareLink,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.UserReferrals(u.Id, 10, 0).Total)
	assert.NotContains(t, mirror.referrals, resp.Referral.Id)
}

func TestCompleteReferral(t *testing.T) {
	c, st := newTestCore(t)
	mirror, notifier := newFakeMirror(), &fakeNotifier{}
	c.SetMirror(mirror)
	c.SetNotifier(notifier)
	u := importUser(t, st, "u1", "TEST0001")

	resp, err := c.CreateReferral(context.Background(), &entity.CreateReferralRequest{
		ReferrerUserId: u.Id, ReferredUserEmail: "a@b.co", SharedMethod: entity.ShareLink,
	})
	require.NoError(t, err)

	done, err := c.CompleteReferral(context.Background(), resp.Referral.Id, "new-user")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, done.Status)
	assert.Equal(t, entity.StatusCompleted, mirror.referrals[done.Id].Status)
	assert.Equal(t, []string{done.Id}, notifier.completed)
	assert.Equal(t, 5, notifier.reward)

	info, ok := c.ReferralInfo(u.Id)
	require.True(t, ok)
	assert.Equal(t, 5, info.TotalRewards)

	_, err = c.CompleteReferral(context.Background(), "missing", "x")
	assert.ErrorIs(t, err, store.ErrReferralNotFound)
}

func TestValidateReferralCode(t *testing.T) {
	c, st := newTestCore(t)
	fresh := importUser(t, st, "fresh", "FRESH001")
	used := importUser(t, st, "used", "USED0001")
	old := importUser(t, st, "old", "OLD00001")
	usedLong := importUser(t, st, "usedlong", "USEDLONG")

	_, err := st.ImportReferral(entity.Referral{ReferrerUserId: fresh.Id, Status: entity.StatusPending, CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	doneAt := now.Add(-time.Minute)
	_, err = st.ImportReferral(entity.Referral{ReferrerUserId: used.Id, Status: entity.StatusCompleted, CreatedAt: now.Add(-time.Hour), CompletedAt: &doneAt})
	require.NoError(t, err)
	_, err = st.ImportReferral(entity.Referral{ReferrerUserId: old.Id, Status: entity.StatusPending, CreatedAt: now.Add(-40 * 24 * time.Hour)})
	require.NoError(t, err)
	longAgo := now.Add(-39 * 24 * time.Hour)
	_, err = st.ImportReferral(entity.Referral{ReferrerUserId: usedLong.Id, Status: entity.StatusCompleted, CreatedAt: now.Add(-40 * 24 * time.Hour), CompletedAt: &longAgo})
	require.NoError(t, err)

	t.Run("not found", func(t *testing.T) {
		got := c.ValidateReferralCode("NOPE0000")
		assert.Equal(t, &entity.ValidateReferralResponse{Reason: entity.ReasonNotFound}, got)
	})
	t.Run("fresh pending is not valid", func(t *testing.T) {
		got := c.ValidateReferralCode("FRESH001")
		assert.False(t, got.IsValid)
		assert.False(t, got.IsExpired)
		assert.Empty(t, got.Reason)
		require.NotNil(t, got.Referral)
		assert.Equal(t, &entity.UserRef{Id: "fresh", Name: "User fresh"}, got.Referrer)
	})
	t.Run("completed is valid and already used", func(t *testing.T) {
		got := c.ValidateReferralCode("USED0001")
		assert.True(t, got.IsValid)
		assert.Equal(t, entity.ReasonAlreadyUsed, got.Reason)
		assert.NotNil(t, got.Referral)
	})
	t.Run("expired", func(t *testing.T) {
		got := c.ValidateReferralCode("OLD00001")
		assert.False(t, got.IsValid)
		assert.True(t, got.IsExpired)
		assert.Equal(t, entity.ReasonExpired, got.Reason)
		assert.Nil(t, got.Referral)
		assert.Nil(t, got.Referrer)
	})
	t.Run("completed past expiry reads as expired", func(t *testing.T) {
		got := c.ValidateReferralCode("USEDLONG")
		assert.False(t, got.IsValid)
		assert.True(t, got.IsExpired)
		assert.Equal(t, entity.ReasonExpired, got.Reason)
	})
}

func TestValidateReferralCode_ExpiryFollowsStoreClock(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	current := created
	st := store.New(store.WithClock(func() time.Time { return current }))
	c := New(st, nil, "https://share.example.com", quietLog())
	u := importUser(t, st, "u1", "TEST0001")

	_, err := c.CreateReferral(context.Background(), &entity.CreateReferralRequest{
		ReferrerUserId: u.Id, ReferredUserEmail: "a@b.co", SharedMethod: entity.ShareEmail,
	})
	require.NoError(t, err)

	got := c.ValidateReferralCode("TEST0001")
	assert.False(t, got.IsExpired)
	assert.Empty(t, got.Reason)
	assert.NotNil(t, got.Referral)

	current = created.Add(31 * 24 * time.Hour)
	got = c.ValidateReferralCode("TEST0001")
	assert.True(t, got.IsExpired)
	assert.Equal(t, entity.ReasonExpired, got.Reason)
	assert.Nil(t, got.Referral)
}

func TestSeedAndRestore(t *testing.T) {
	c, _ := newTestCore(t)
	mirror := newFakeMirror()
	c.SetMirror(mirror)

	require.NoError(t, c.Seed(context.Background(), seed.New(7, clock.Fixed(now))))
	assert.Len(t, mirror.users, 8)
	assert.Len(t, mirror.referrals, 20)
	for _, r := range mirror.referrals {
		assert.NotEqual(t, entity.StatusExpired, r.Status)
	}

	restored, _ := newTestCore(t)
	restored.SetMirror(mirror)
	users, referrals, err := restored.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, users)
	assert.Equal(t, 20, referrals)

	for _, u := range c.ListUsers(-1, 0).Items {
		assert.Equal(t, c.UserReferrals(u.Id, -1, 0), restored.UserReferrals(u.Id, -1, 0))
	}
}

func TestRestore_NoMirror(t *testing.T) {
	c, _ := newTestCore(t)
	users, referrals, err := c.Restore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, users)
	assert.Zero(t, referrals)
}
