// Package stats derives per-user referral summaries from live store state.
package stats

import (
	"refsync/entity"
)

// DefaultRewardPerCompletion is the reward credited for each completed referral
const DefaultRewardPerCompletion = 5

type Source interface {
	GetUserById(id string) (*entity.User, bool)
	GetReferralStats(userId string) entity.ReferralStats
}

// Aggregator keeps no state of its own; every call recomputes from Source.
type Aggregator struct {
	src    Source
	reward int
}

func New(src Source, rewardPerCompletion int) *Aggregator {
	if rewardPerCompletion <= 0 {
		rewardPerCompletion = DefaultRewardPerCompletion
	}
	return &Aggregator{
		src:    src,
		reward: rewardPerCompletion,
	}
}

func (a *Aggregator) RewardPerCompletion() int {
	return a.reward
}

// Rewards converts completed referrals into reward units
func (a *Aggregator) Rewards(completed int) int {
	return completed * a.reward
}

// Info summarizes a user's referrals; false when the user is unknown
func (a *Aggregator) Info(userId string) (*entity.ReferralInfo, bool) {
	user, ok := a.src.GetUserById(userId)
	if !ok {
		return nil, false
	}
	counts := a.src.GetReferralStats(userId)
	return &entity.ReferralInfo{
		ReferralCode:       user.ReferralCode,
		TotalReferrals:     counts.Total,
		CompletedReferrals: counts.Completed,
		PendingReferrals:   counts.Pending,
		TotalRewards:       a.Rewards(counts.Completed),
	}, true
}
