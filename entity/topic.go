// Package entity defines domain types shared across the application.
package entity

// TopicReferral heads bot messages about referral lifecycle events
const TopicReferral = "referral"
