package entity

import (
	"net/http"
	"time"

	"refsync/lib/validate"
)

// ReferralStatus is the stored lifecycle state of a referral.
// Only StatusPending and StatusCompleted are ever written; StatusExpired
// is derived at read time from ExpiresAt.
type ReferralStatus string

const (
	StatusPending   ReferralStatus = "pending"
	StatusCompleted ReferralStatus = "completed"
	StatusExpired   ReferralStatus = "expired"
)

// ShareMethod is the channel the referrer used to send the invite.
type ShareMethod string

const (
	ShareEmail  ShareMethod = "email"
	ShareSMS    ShareMethod = "sms"
	ShareSocial ShareMethod = "social"
	ShareLink   ShareMethod = "link"
)

var allShareMethods = []ShareMethod{ShareEmail, ShareSMS, ShareSocial, ShareLink}

func AllShareMethods() []ShareMethod {
	result := make([]ShareMethod, len(allShareMethods))
	copy(result, allShareMethods)
	return result
}

func (m ShareMethod) IsValid() bool {
	for _, v := range allShareMethods {
		if v == m {
			return true
		}
	}
	return false
}

type Referral struct {
	Id                string         `json:"id" bson:"id"`
	ReferrerUserId    string         `json:"referrerUserId" bson:"referrer_user_id"`
	ReferralCode      string         `json:"referralCode" bson:"referral_code"`
	ReferredUserEmail string         `json:"referredUserEmail" bson:"referred_user_email"`
	ReferredUserId    string         `json:"referredUserId,omitempty" bson:"referred_user_id,omitempty"`
	Status            ReferralStatus `json:"status" bson:"status"`
	CreatedAt         time.Time      `json:"createdAt" bson:"created_at"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
	ExpiresAt         time.Time      `json:"expiresAt" bson:"expires_at"`
	SharedMethod      ShareMethod    `json:"sharedMethod" bson:"shared_method"`
	CustomMessage     string         `json:"customMessage,omitempty" bson:"custom_message,omitempty"`
}

// IsExpired reports whether the referral's expiry time has passed at now
func (r *Referral) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

type CreateReferralRequest struct {
	ReferrerUserId    string      `json:"referrerUserId" validate:"required"`
	ReferredUserEmail string      `json:"referredUserEmail" validate:"required,basic_email"`
	SharedMethod      ShareMethod `json:"sharedMethod" validate:"required,oneof=email sms social link"`
	CustomMessage     string      `json:"customMessage,omitempty"`
}

func (c *CreateReferralRequest) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

type CreateReferralResponse struct {
	Referral *Referral `json:"referral"`
	ShareUrl string    `json:"shareUrl"`
}

type CompleteReferralRequest struct {
	ReferredUserId string `json:"referredUserId" validate:"required"`
}

func (c *CompleteReferralRequest) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

type ReferralList struct {
	Referrals []Referral `json:"referrals"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	HasMore   bool       `json:"hasMore"`
}

// ValidationReason explains why a code did not validate
type ValidationReason string

const (
	ReasonNotFound    ValidationReason = "not_found"
	ReasonExpired     ValidationReason = "expired"
	ReasonAlreadyUsed ValidationReason = "already_used"
)

type ValidateReferralResponse struct {
	IsValid   bool             `json:"isValid"`
	IsExpired bool             `json:"isExpired"`
	Reason    ValidationReason `json:"reason,omitempty"`
	Referral  *Referral        `json:"referral,omitempty"`
	Referrer  *UserRef         `json:"referrer,omitempty"`
}
