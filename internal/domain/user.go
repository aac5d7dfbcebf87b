package domain

import (
	"time"
)

// User is a fleet rider. Credential handling lives outside this core; the
// fields here are what the lifecycle managers need.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Name      string    `json:"name"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionStatus represents the state of a subscription plan
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExhausted SubscriptionStatus = "exhausted"
	SubscriptionStatusInactive  SubscriptionStatus = "inactive"
)

// Subscription is a prepaid plan granting a number of free trips.
type Subscription struct {
	ID             string             `json:"id" gorm:"primaryKey"`
	UserID         string             `json:"user_id" gorm:"index"`
	Status         SubscriptionStatus `json:"status" gorm:"index"`
	RemainingTrips int                `json:"remaining_trips"`
	ExpiresAt      time.Time          `json:"expires_at"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Usable reports whether a credit can be drawn from the plan right now.
func (s *Subscription) Usable(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.RemainingTrips > 0 && now.Before(s.ExpiresAt)
}
