package entity

import "time"

// User is a referrer. Users are created at bootstrap and never mutated;
// ReferralCode is unique across all users.
type User struct {
	Id           string    `json:"id" bson:"id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name" bson:"name"`
	ReferralCode string    `json:"referralCode" bson:"referral_code"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// UserRef is the public subset of a user shown to people redeeming a code
type UserRef struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

func (u *User) Ref() *UserRef {
	return &UserRef{Id: u.Id, Name: u.Name}
}

type UserList struct {
	Users  []User `json:"users"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
