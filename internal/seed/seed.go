// Package seed fills an empty store with demo users and referrals.
package seed

import (
	"fmt"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"refsync/entity"
	"refsync/lib/clock"
)

const (
	randomUsers     = 6
	randomReferrals = 20
)

// fixed accounts available in every seeded environment
var TestUsers = []entity.User{
	{
		Id:           "550e8400-e29b-41d4-a716-446655440001",
		Email:        "test1@example.com",
		Name:         "Test User One",
		ReferralCode: "TEST0001",
		CreatedAt:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	},
	{
		Id:           "550e8400-e29b-41d4-a716-446655440002",
		Email:        "test2@example.com",
		Name:         "Test User Two",
		ReferralCode: "TEST0002",
		CreatedAt:    time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	},
}

type Store interface {
	ImportUser(u entity.User) (*entity.User, error)
	ImportReferral(r entity.Referral) (*entity.Referral, error)
}

type Seeder struct {
	fake *gofakeit.Faker
	now  clock.Clock
}

// New returns a seeder drawing from a faker seeded with seed; zero picks a
// random seed
func New(seed uint64, now clock.Clock) *Seeder {
	if now == nil {
		now = clock.System
	}
	return &Seeder{fake: gofakeit.New(seed), now: now}
}

// Seed loads the fixed test users, random users and random referrals.
// Referrals are imported oldest first so index order matches creation order.
func (s *Seeder) Seed(st Store) error {
	now := s.now()

	var users []*entity.User
	for _, u := range TestUsers {
		imported, err := st.ImportUser(u)
		if err != nil {
			return fmt.Errorf("seed test user %s: %w", u.Id, err)
		}
		users = append(users, imported)
	}
	for i := 0; i < randomUsers; i++ {
		imported, err := st.ImportUser(entity.User{
			Id:        s.fake.UUID(),
			Email:     s.fake.Email(),
			Name:      s.fake.Name(),
			CreatedAt: now.Add(-s.within(clock.Days(365))),
		})
		if err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		users = append(users, imported)
	}

	referrals := make([]entity.Referral, 0, randomReferrals)
	for i := 0; i < randomReferrals; i++ {
		referrals = append(referrals, s.referral(users[s.fake.Number(0, len(users)-1)], now))
	}
	sort.SliceStable(referrals, func(i, j int) bool {
		return referrals[i].CreatedAt.Before(referrals[j].CreatedAt)
	})
	for _, r := range referrals {
		if _, err := st.ImportReferral(r); err != nil {
			return fmt.Errorf("seed referral: %w", err)
		}
	}
	return nil
}

// referral draws an outcome first and then a creation time consistent with
// it, since expiry is derived from age rather than stored
func (s *Seeder) referral(referrer *entity.User, now time.Time) entity.Referral {
	methods := entity.AllShareMethods()
	r := entity.Referral{
		Id:                s.fake.UUID(),
		ReferrerUserId:    referrer.Id,
		ReferralCode:      referrer.ReferralCode,
		ReferredUserEmail: s.fake.Email(),
		SharedMethod:      methods[s.fake.Number(0, len(methods)-1)],
	}
	if s.fake.Bool() {
		r.CustomMessage = s.fake.Phrase()
	}

	switch s.fake.Number(0, 2) {
	case 0:
		r.Status = entity.StatusPending
		r.CreatedAt = now.Add(-s.within(clock.Days(29)))
	case 1:
		r.Status = entity.StatusCompleted
		r.CreatedAt = now.Add(-s.within(clock.Days(110)))
		completed := r.CreatedAt.Add(s.within(now.Sub(r.CreatedAt)))
		r.CompletedAt = &completed
		r.ReferredUserId = s.fake.UUID()
	default:
		r.Status = entity.StatusPending
		r.CreatedAt = now.Add(-clock.Days(31) - s.within(clock.Days(79)))
	}
	return r
}

// within returns a random duration in [0, d)
func (s *Seeder) within(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(s.fake.Number(0, int(d)-1))
}
