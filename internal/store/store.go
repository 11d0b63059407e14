// Package store is the authoritative in-memory owner of users and referrals.
//
// Records live in id-keyed maps; two secondary indexes (referrer id and
// referral code) hold ordered id lists used for paging and first-match
// lookups. Every insert updates the map and both indexes under one write
// lock, so readers never see a referral in an index but missing from the
// map or the reverse.
//
// Stored status is only ever pending or completed. Expiry is a read-time
// view computed by EffectiveStatus and is never written back.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"refsync/entity"
	"refsync/internal/abuse"
	"refsync/lib/clock"
	"refsync/lib/codegen"
	"refsync/lib/paging"
)

// upper bound on code regeneration attempts for one user
const maxCodeAttempts = 100

var (
	ErrReferrerNotFound         = errors.New("referrer not found")
	ErrTooManyPendingReferrals  = abuse.ErrTooManyPendingReferrals
	ErrReferralNotFound         = errors.New("referral not found")
	ErrReferralAlreadyCompleted = errors.New("referral already completed")
	ErrReferralExpired          = errors.New("referral expired")
	ErrDuplicateUser            = errors.New("user already exists")
	ErrDuplicateReferral        = errors.New("referral already exists")
	ErrDuplicateReferralCode    = errors.New("referral code already in use")
	ErrInvalidReferral          = errors.New("invalid referral")
	ErrInvalidShareMethod       = errors.New("invalid share method")
	ErrReferralCodesExhausted   = errors.New("unable to generate a unique referral code")
)

type Option func(*Store)

// WithClock replaces the system clock
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.now = c
	}
}

// WithGenerator replaces the random id and code generator
func WithGenerator(g codegen.Generator) Option {
	return func(s *Store) {
		s.gen = g
	}
}

// WithPolicy replaces the default abuse policy
func WithPolicy(p *abuse.Policy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

type Store struct {
	mu     sync.RWMutex
	now    clock.Clock
	gen    codegen.Generator
	policy *abuse.Policy
	ttl    time.Duration

	users     map[string]*entity.User
	userOrder []string
	codes     map[string]string // referral code -> user id

	referrals map[string]*entity.Referral
	byUser    map[string][]string
	byCode    map[string][]string
}

func New(opts ...Option) *Store {
	s := &Store{
		now:       clock.System,
		gen:       codegen.Random(),
		policy:    abuse.New(abuse.DefaultConfig()),
		users:     make(map[string]*entity.User),
		codes:     make(map[string]string),
		referrals: make(map[string]*entity.Referral),
		byUser:    make(map[string][]string),
		byCode:    make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ttl = clock.Days(s.policy.Config().ReferralExpirationDays)
	return s
}

// EffectiveStatus overlays expiry onto the stored status: a pending
// referral whose expiry time has passed at now reads as expired.
func EffectiveStatus(r *entity.Referral, now time.Time) entity.ReferralStatus {
	if r.Status == entity.StatusPending && r.IsExpired(now) {
		return entity.StatusExpired
	}
	return r.Status
}

// view returns a detached copy with the effective status applied
func view(r *entity.Referral, now time.Time) entity.Referral {
	v := *r
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		v.CompletedAt = &at
	}
	v.Status = EffectiveStatus(r, now)
	return v
}

func (s *Store) AbuseConfig() abuse.Config {
	return s.policy.Config()
}

func (s *Store) GetUserById(id string) (*entity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	user := *u
	return &user, true
}

// FirstUser returns the earliest inserted user
func (s *Store) FirstUser() (*entity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.userOrder) == 0 {
		return nil, false
	}
	user := *s.users[s.userOrder[0]]
	return &user, true
}

// ListUsers pages over all users in insertion order
func (s *Store) ListUsers(limit, offset int) paging.Page[entity.User] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]entity.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		users = append(users, *s.users[id])
	}
	return paging.Slice(users, paging.Window{Limit: limit, Offset: offset})
}

// CreateUser adds a user with a freshly generated referral code,
// regenerating on collision with any existing code.
func (s *Store) CreateUser(email, name string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.uniqueCodeLocked()
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		Id:           s.gen.NewID(),
		Email:        email,
		Name:         name,
		ReferralCode: code,
		CreatedAt:    s.now(),
	}
	if _, ok := s.users[user.Id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, user.Id)
	}
	s.insertUserLocked(user)
	result := *user
	return &result, nil
}

// ImportUser inserts a user with caller-provided fields, used for seed data
// and hydration. Missing id, code or creation time are generated.
func (s *Store) ImportUser(u entity.User) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Id == "" {
		u.Id = s.gen.NewID()
	}
	if _, ok := s.users[u.Id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, u.Id)
	}
	if u.ReferralCode == "" {
		code, err := s.uniqueCodeLocked()
		if err != nil {
			return nil, err
		}
		u.ReferralCode = code
	} else if _, taken := s.codes[u.ReferralCode]; taken {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateReferralCode, u.ReferralCode)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	user := u
	s.insertUserLocked(&user)
	return &u, nil
}

func (s *Store) uniqueCodeLocked() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := s.gen.NewReferralCode()
		if _, taken := s.codes[code]; !taken {
			return code, nil
		}
	}
	return "", ErrReferralCodesExhausted
}

func (s *Store) insertUserLocked(u *entity.User) {
	s.users[u.Id] = u
	s.userOrder = append(s.userOrder, u.Id)
	s.codes[u.ReferralCode] = u.Id
}

// GetUserReferrals returns one page of the user's referrals in creation
// order with effective status applied. Total counts all of them.
// Unknown users yield an empty page. A negative limit returns everything.
func (s *Store) GetUserReferrals(userId string, limit, offset int) paging.Page[entity.Referral] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	ids := s.byUser[userId]
	items := make([]entity.Referral, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.referrals[id]; ok {
			items = append(items, view(r, now))
		}
	}
	return paging.Slice(items, paging.Window{Limit: limit, Offset: offset})
}

// GetReferralByCode returns the earliest created referral carrying code
func (s *Store) GetReferralByCode(code string) (*entity.Referral, bool) {
	r, _, ok := s.LookupReferralCode(code)
	return r, ok
}

// LookupReferralCode is GetReferralByCode that also returns the instant the
// effective status was derived at, so callers judge expiry against the same time
func (s *Store) LookupReferralCode(code string) (*entity.Referral, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	ids := s.byCode[code]
	if len(ids) == 0 {
		return nil, now, false
	}
	r, ok := s.referrals[ids[0]]
	if !ok {
		return nil, now, false
	}
	v := view(r, now)
	return &v, now, true
}

// GetReferral looks a referral up by its id
func (s *Store) GetReferral(id string) (*entity.Referral, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.referrals[id]
	if !ok {
		return nil, false
	}
	v := view(r, s.now())
	return &v, true
}

// CreateReferral records a new pending invite from referrerUserId.
// The pending cap counts effective status, so expired invites do not
// hold a slot. The cap check and the insert happen under one lock.
func (s *Store) CreateReferral(referrerUserId, referredUserEmail string, method entity.ShareMethod, customMessage string) (*entity.Referral, error) {
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidShareMethod, method)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	referrer, ok := s.users[referrerUserId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReferrerNotFound, referrerUserId)
	}

	now := s.now()
	stats := s.statsLocked(referrerUserId, now)
	if err := s.policy.Evaluate(stats.Pending); err != nil {
		return nil, err
	}

	r := &entity.Referral{
		Id:                s.gen.NewID(),
		ReferrerUserId:    referrerUserId,
		ReferralCode:      referrer.ReferralCode,
		ReferredUserEmail: referredUserEmail,
		Status:            entity.StatusPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.ttl),
		SharedMethod:      method,
		CustomMessage:     customMessage,
	}
	if _, exists := s.referrals[r.Id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateReferral, r.Id)
	}
	s.insertReferralLocked(r)

	v := view(r, now)
	return &v, nil
}

// ImportReferral inserts a historical referral, used for seed data and
// hydration. ExpiresAt is always recomputed from CreatedAt; CompletedAt
// must be set exactly when the stored status is completed.
func (s *Store) ImportReferral(r entity.Referral) (*entity.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	referrer, ok := s.users[r.ReferrerUserId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReferrerNotFound, r.ReferrerUserId)
	}
	if r.Id == "" {
		r.Id = s.gen.NewID()
	}
	if _, exists := s.referrals[r.Id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateReferral, r.Id)
	}
	switch r.Status {
	case entity.StatusPending:
		if r.CompletedAt != nil {
			return nil, fmt.Errorf("%w: pending referral %s has completion time", ErrInvalidReferral, r.Id)
		}
	case entity.StatusCompleted:
		if r.CompletedAt == nil {
			return nil, fmt.Errorf("%w: completed referral %s has no completion time", ErrInvalidReferral, r.Id)
		}
		at := *r.CompletedAt
		r.CompletedAt = &at
	default:
		return nil, fmt.Errorf("%w: stored status %q", ErrInvalidReferral, r.Status)
	}

	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.ReferralCode == "" {
		r.ReferralCode = referrer.ReferralCode
	}
	r.ExpiresAt = r.CreatedAt.Add(s.ttl)

	stored := r
	s.insertReferralLocked(&stored)

	v := view(&stored, now)
	return &v, nil
}

// CompleteReferral applies the completion event: pending -> completed.
// Completed is permanent, and an effectively expired invite cannot complete.
func (s *Store) CompleteReferral(id, referredUserId string) (*entity.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.referrals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReferralNotFound, id)
	}
	now := s.now()
	switch EffectiveStatus(r, now) {
	case entity.StatusCompleted:
		return nil, fmt.Errorf("%w: %s", ErrReferralAlreadyCompleted, id)
	case entity.StatusExpired:
		return nil, fmt.Errorf("%w: %s", ErrReferralExpired, id)
	}

	at := now
	r.Status = entity.StatusCompleted
	r.CompletedAt = &at
	r.ReferredUserId = referredUserId

	v := view(r, now)
	return &v, nil
}

// GetReferralStats counts all of the user's referrals by effective status
func (s *Store) GetReferralStats(userId string) entity.ReferralStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statsLocked(userId, s.now())
}

func (s *Store) statsLocked(userId string, now time.Time) entity.ReferralStats {
	var stats entity.ReferralStats
	for _, id := range s.byUser[userId] {
		r, ok := s.referrals[id]
		if !ok {
			continue
		}
		stats.Total++
		switch EffectiveStatus(r, now) {
		case entity.StatusPending:
			stats.Pending++
		case entity.StatusCompleted:
			stats.Completed++
		}
	}
	return stats
}

func (s *Store) insertReferralLocked(r *entity.Referral) {
	s.referrals[r.Id] = r
	s.byUser[r.ReferrerUserId] = s.insertOrdered(s.byUser[r.ReferrerUserId], r)
	s.byCode[r.ReferralCode] = s.insertOrdered(s.byCode[r.ReferralCode], r)
}

// insertOrdered keeps ids ordered by creation time. Records created in
// time order are appended; an older imported record is placed after every
// record created at or before it.
func (s *Store) insertOrdered(ids []string, r *entity.Referral) []string {
	i := len(ids)
	for i > 0 && s.referrals[ids[i-1]].CreatedAt.After(r.CreatedAt) {
		i--
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = r.Id
	return ids
}
