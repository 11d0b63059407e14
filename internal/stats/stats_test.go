package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refsync/entity"
	"refsync/internal/store"
	"refsync/lib/clock"
)

func TestInfo_CountsAndRewards(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := store.New(store.WithClock(clock.Fixed(now)))
	u, err := s.ImportUser(entity.User{Id: "u1", Name: "One", ReferralCode: "TEST0001"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = s.CreateReferral(u.Id, "p@example.com", entity.ShareEmail, "")
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		r, err := s.CreateReferral(u.Id, "c@example.com", entity.ShareSMS, "")
		require.NoError(t, err)
		_, err = s.CompleteReferral(r.Id, "ref")
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err = s.ImportReferral(entity.Referral{
			ReferrerUserId: u.Id,
			Status:         entity.StatusPending,
			CreatedAt:      now.Add(-31 * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	a := New(s, 0)
	info, ok := a.Info(u.Id)
	require.True(t, ok)
	assert.Equal(t, &entity.ReferralInfo{
		ReferralCode:       "TEST0001",
		TotalReferrals:     10,
		CompletedReferrals: 3,
		PendingReferrals:   5,
		TotalRewards:       3 * DefaultRewardPerCompletion,
	}, info)
}

func TestInfo_TracksLiveState(t *testing.T) {
	s := store.New()
	u, err := s.CreateUser("a@example.com", "A")
	require.NoError(t, err)
	a := New(s, 10)

	info, _ := a.Info(u.Id)
	assert.Equal(t, 0, info.TotalRewards)

	r, err := s.CreateReferral(u.Id, "b@example.com", entity.ShareLink, "")
	require.NoError(t, err)
	_, err = s.CompleteReferral(r.Id, "b")
	require.NoError(t, err)

	info, _ = a.Info(u.Id)
	assert.Equal(t, 1, info.CompletedReferrals)
	assert.Equal(t, 10, info.TotalRewards)
}

func TestInfo_UnknownUser(t *testing.T) {
	a := New(store.New(), 5)
	info, ok := a.Info("missing")
	assert.False(t, ok)
	assert.Nil(t, info)
}

func TestRewards(t *testing.T) {
	a := New(store.New(), -1)
	assert.Equal(t, DefaultRewardPerCompletion, a.RewardPerCompletion())
	assert.Equal(t, 15, a.Rewards(3))
}
