package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"refsync/entity"
	"refsync/internal/abuse"
	"refsync/internal/seed"
	"refsync/internal/stats"
	"refsync/internal/store"
	"refsync/lib/paging"
	"refsync/lib/sl"
)

// Mirror is the durable copy of the store's records
type Mirror interface {
	SaveUser(ctx context.Context, user *entity.User) error
	SaveReferral(ctx context.Context, referral *entity.Referral) error
	GetUsers(ctx context.Context) ([]*entity.User, error)
	GetReferrals(ctx context.Context) ([]*entity.Referral, error)
}

type Notifier interface {
	ReferralCreated(r *entity.Referral)
	ReferralCompleted(r *entity.Referral, reward int)
}

type Core struct {
	store    *store.Store
	stats    *stats.Aggregator
	mirror   Mirror
	notifier Notifier
	shareUrl string
	log      *slog.Logger
}

func New(st *store.Store, agg *stats.Aggregator, shareUrl string, log *slog.Logger) *Core {
	if st == nil {
		panic("store is nil")
	}
	if agg == nil {
		agg = stats.New(st, stats.DefaultRewardPerCompletion)
	}
	return &Core{
		store:    st,
		stats:    agg,
		shareUrl: shareUrl,
		log:      log.With(sl.Module("core")),
	}
}

func (c *Core) SetMirror(m Mirror) {
	c.mirror = m
}

func (c *Core) SetNotifier(n Notifier) {
	c.notifier = n
}

// Restore loads mirrored users and referrals into the store, oldest first.
// It returns the number of users and referrals restored.
func (c *Core) Restore(ctx context.Context) (int, int, error) {
	if c.mirror == nil {
		return 0, 0, nil
	}
	users, err := c.mirror.GetUsers(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("restore users: %w", err)
	}
	for _, u := range users {
		if _, err = c.store.ImportUser(*u); err != nil {
			return 0, 0, fmt.Errorf("restore user %s: %w", u.Id, err)
		}
	}
	referrals, err := c.mirror.GetReferrals(ctx)
	if err != nil {
		return len(users), 0, fmt.Errorf("restore referrals: %w", err)
	}
	for _, r := range referrals {
		if _, err = c.store.ImportReferral(stored(*r)); err != nil {
			return len(users), 0, fmt.Errorf("restore referral %s: %w", r.Id, err)
		}
	}
	c.log.With(
		slog.Int("users", len(users)),
		slog.Int("referrals", len(referrals)),
	).Info("restored from mirror")
	return len(users), len(referrals), nil
}

// Seed fills the store with demo data and copies it to the mirror
func (c *Core) Seed(ctx context.Context, seeder *seed.Seeder) error {
	if err := seeder.Seed(c.store); err != nil {
		return err
	}
	users := c.store.ListUsers(paging.All, 0)
	referrals := 0
	for i := range users.Items {
		c.saveUser(ctx, &users.Items[i])
		page := c.store.GetUserReferrals(users.Items[i].Id, paging.All, 0)
		for j := range page.Items {
			c.saveReferral(ctx, &page.Items[j])
		}
		referrals += page.Total
	}
	c.log.With(
		slog.Int("users", users.Total),
		slog.Int("referrals", referrals),
	).Info("seeded demo data")
	return nil
}

func (c *Core) GetUserById(id string) (*entity.User, bool) {
	return c.store.GetUserById(id)
}

func (c *Core) ListUsers(limit, offset int) paging.Page[entity.User] {
	return c.store.ListUsers(limit, offset)
}

func (c *Core) UserReferrals(userId string, limit, offset int) paging.Page[entity.Referral] {
	return c.store.GetUserReferrals(userId, limit, offset)
}

func (c *Core) ReferralInfo(userId string) (*entity.ReferralInfo, bool) {
	return c.stats.Info(userId)
}

func (c *Core) AbuseConfig() abuse.Config {
	return c.store.AbuseConfig()
}

// ValidateReferralCode reports whether code belongs to a redeemed, unexpired
// referral. A fresh pending referral reads as not valid: isValid is
// !expired && status != pending, kept as published until the intended
// meaning is confirmed.
func (c *Core) ValidateReferralCode(code string) *entity.ValidateReferralResponse {
	referral, now, ok := c.store.LookupReferralCode(code)
	if !ok {
		return &entity.ValidateReferralResponse{
			IsValid:   false,
			IsExpired: false,
			Reason:    entity.ReasonNotFound,
		}
	}

	isExpired := referral.Status == entity.StatusExpired || referral.IsExpired(now)
	response := &entity.ValidateReferralResponse{
		IsValid:   !isExpired && referral.Status != entity.StatusPending,
		IsExpired: isExpired,
	}
	switch {
	case isExpired:
		response.Reason = entity.ReasonExpired
	case referral.Status == entity.StatusCompleted:
		response.Reason = entity.ReasonAlreadyUsed
	}
	if !isExpired {
		response.Referral = referral
		if referrer, found := c.store.GetUserById(referral.ReferrerUserId); found {
			response.Referrer = referrer.Ref()
		}
	}
	return response
}

func (c *Core) CreateReferral(ctx context.Context, req *entity.CreateReferralRequest) (*entity.CreateReferralResponse, error) {
	referral, err := c.store.CreateReferral(req.ReferrerUserId, req.ReferredUserEmail, req.SharedMethod, req.CustomMessage)
	if err != nil {
		return nil, err
	}
	c.log.With(
		slog.String("referral_id", referral.Id),
		slog.String("referrer", referral.ReferrerUserId),
		sl.Email("email", referral.ReferredUserEmail),
		slog.String("method", string(referral.SharedMethod)),
	).Debug("referral created")

	c.saveReferral(ctx, referral)
	if c.notifier != nil {
		c.notifier.ReferralCreated(referral)
	}

	return &entity.CreateReferralResponse{
		Referral: referral,
		ShareUrl: c.ShareUrl(referral.ReferralCode, referral.ReferredUserEmail),
	}, nil
}

func (c *Core) CompleteReferral(ctx context.Context, id, referredUserId string) (*entity.Referral, error) {
	referral, err := c.store.CompleteReferral(id, referredUserId)
	if err != nil {
		return nil, err
	}
	c.log.With(
		slog.String("referral_id", referral.Id),
		slog.String("referred_user", referredUserId),
	).Debug("referral completed")

	c.saveReferral(ctx, referral)
	if c.notifier != nil {
		c.notifier.ReferralCompleted(referral, c.stats.RewardPerCompletion())
	}
	return referral, nil
}

// ShareUrl builds the invite link handed to the referred person
func (c *Core) ShareUrl(code, email string) string {
	return fmt.Sprintf("%s/install?ref=%s&email=%s", c.shareUrl, url.QueryEscape(code), url.QueryEscape(email))
}

func (c *Core) saveUser(ctx context.Context, user *entity.User) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.SaveUser(ctx, user); err != nil {
		c.log.With(slog.String("user_id", user.Id)).Error("mirror user", sl.Err(err))
	}
}

func (c *Core) saveReferral(ctx context.Context, referral *entity.Referral) {
	if c.mirror == nil {
		return
	}
	r := stored(*referral)
	if err := c.mirror.SaveReferral(ctx, &r); err != nil {
		c.log.With(slog.String("referral_id", referral.Id)).Error("mirror referral", sl.Err(err))
	}
}

// stored undoes the read-time expiry overlay; only pending referrals expire
func stored(r entity.Referral) entity.Referral {
	if r.Status == entity.StatusExpired {
		r.Status = entity.StatusPending
	}
	return r
}
