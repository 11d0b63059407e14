package entity

// ReferralStats are per-user counts by effective status. Expired referrals
// are part of Total but of neither bucket.
type ReferralStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// ReferralInfo is the public summary of a user's referral activity
type ReferralInfo struct {
	ReferralCode       string `json:"referralCode"`
	TotalReferrals     int    `json:"totalReferrals"`
	CompletedReferrals int    `json:"completedReferrals"`
	PendingReferrals   int    `json:"pendingReferrals"`
	TotalRewards       int    `json:"totalRewards"`
}
