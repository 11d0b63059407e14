// Package abuse holds the stateless rules consulted before a referral is created.
package abuse

import (
	"errors"
	"fmt"
)

var ErrTooManyPendingReferrals = errors.New("too many pending referrals")

// Config is the published abuse configuration.
// MaxReferralsPerDay is exposed to clients but not enforced by the store.
type Config struct {
	MaxPendingReferrals    int `json:"maxPendingReferrals"`
	MaxReferralsPerDay     int `json:"maxReferralsPerDay"`
	ReferralExpirationDays int `json:"referralExpirationDays"`
}

func DefaultConfig() Config {
	return Config{
		MaxPendingReferrals:    20,
		MaxReferralsPerDay:     5,
		ReferralExpirationDays: 30,
	}
}

type Policy struct {
	conf Config
}

// New fills zero fields of conf with defaults
func New(conf Config) *Policy {
	def := DefaultConfig()
	if conf.MaxPendingReferrals <= 0 {
		conf.MaxPendingReferrals = def.MaxPendingReferrals
	}
	if conf.MaxReferralsPerDay <= 0 {
		conf.MaxReferralsPerDay = def.MaxReferralsPerDay
	}
	if conf.ReferralExpirationDays <= 0 {
		conf.ReferralExpirationDays = def.ReferralExpirationDays
	}
	return &Policy{conf: conf}
}

func (p *Policy) Config() Config {
	return p.conf
}

// Evaluate rejects creation once the referrer already holds
// MaxPendingReferrals effectively pending referrals.
func (p *Policy) Evaluate(pendingCount int) error {
	if pendingCount >= p.conf.MaxPendingReferrals {
		return fmt.Errorf("%w: %d of %d", ErrTooManyPendingReferrals, pendingCount, p.conf.MaxPendingReferrals)
	}
	return nil
}
