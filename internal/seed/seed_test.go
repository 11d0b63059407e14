package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refsync/entity"
	"refsync/internal/store"
	"refsync/lib/clock"
)

func TestSeed(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := store.New(store.WithClock(clock.Fixed(now)))

	require.NoError(t, New(42, clock.Fixed(now)).Seed(s))

	users := s.ListUsers(-1, 0)
	assert.Equal(t, len(TestUsers)+randomUsers, users.Total)
	assert.Equal(t, "TEST0001", users.Items[0].ReferralCode)
	assert.Equal(t, "TEST0002", users.Items[1].ReferralCode)

	codes := make(map[string]bool)
	total := 0
	for _, u := range users.Items {
		assert.False(t, codes[u.ReferralCode])
		codes[u.ReferralCode] = true

		page := s.GetUserReferrals(u.Id, -1, 0)
		total += page.Total
		for i, r := range page.Items {
			assert.Equal(t, u.ReferralCode, r.ReferralCode)
			assert.Equal(t, r.CreatedAt.Add(30*24*time.Hour), r.ExpiresAt)
			assert.Equal(t, r.Status == entity.StatusCompleted, r.CompletedAt != nil)
			if i > 0 {
				assert.False(t, r.CreatedAt.Before(page.Items[i-1].CreatedAt))
			}
		}
	}
	assert.Equal(t, randomReferrals, total)
}

func TestSeed_Twice(t *testing.T) {
	s := store.New()
	seeder := New(0, nil)
	require.NoError(t, seeder.Seed(s))
	assert.ErrorIs(t, seeder.Seed(s), store.ErrDuplicateUser)
}

func TestSeed_SameSeedSameData(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	first := store.New(store.WithClock(clock.Fixed(now)))
	second := store.New(store.WithClock(clock.Fixed(now)))

	require.NoError(t, New(7, clock.Fixed(now)).Seed(first))
	require.NoError(t, New(7, clock.Fixed(now)).Seed(second))

	users := first.ListUsers(-1, 0)
	assert.Equal(t, users, second.ListUsers(-1, 0))
	for _, u := range users.Items {
		assert.NotEmpty(t, u.Name)
		assert.Contains(t, u.Email, "@")
		assert.Equal(t, first.GetUserReferrals(u.Id, -1, 0), second.GetUserReferrals(u.Id, -1, 0))
	}
}
