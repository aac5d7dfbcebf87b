package domain

import (
	"time"
)

// TripClass is the tariff classification of a trip, derived from the
// station pair at unlock time.
type TripClass string

const (
	TripClassShortHop TripClass = "short_hop" // same-zone station pair
	TripClassLongHaul TripClass = "long_haul" // cross-zone station pair
)

// TripStatus represents the lifecycle of a trip
type TripStatus string

const (
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusFinished   TripStatus = "finished"
)

// PaymentStatus represents the payment state of a trip
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusSubscribed PaymentStatus = "subscribed" // covered by a subscription plan
)

// Valid reports whether the payment status belongs to the closed set.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled,
		PaymentStatusFailed, PaymentStatusSubscribed:
		return true
	}
	return false
}

// Terminal reports whether fare fields are frozen under this status.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusFailed:
		return true
	}
	return false
}

// Trip is an active or completed rental session created when a reservation
// is converted into vehicle use. Fare fields are written once at
// finalization and immutable afterwards.
type Trip struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	ReservationID  string        `json:"reservation_id" gorm:"index"`
	VehicleID      string        `json:"vehicle_id" gorm:"index"`
	HolderID       string        `json:"holder_id" gorm:"index"`
	Class          TripClass     `json:"class"`
	Status         TripStatus    `json:"status" gorm:"index"`
	PaymentStatus  PaymentStatus `json:"payment_status" gorm:"index"`
	StartStationID string        `json:"start_station_id"`
	EndStationID   string        `json:"end_station_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        *time.Time    `json:"end_time,omitempty"`
	Minutes        int           `json:"minutes"`     // ceiling-rounded elapsed minutes
	DistanceKm     float64       `json:"distance_km"` // great-circle start->end
	Subtotal       float64       `json:"subtotal"`
	Overage        float64       `json:"overage"`
	Tax            float64       `json:"tax"`
	Total          float64       `json:"total"`
	UnlockLatency  int           `json:"unlock_latency_ms"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsFinished reports whether the trip reached its terminal lifecycle state.
func (t *Trip) IsFinished() bool {
	return t.Status == TripStatusFinished
}

// TripConfig holds trip lifecycle configuration
type TripConfig struct {
	// UnlockTimeout is the ceiling on the physical lock-release handshake
	UnlockTimeout time.Duration `json:"unlock_timeout"`
}

// DefaultTripConfig returns sensible defaults
func DefaultTripConfig() *TripConfig {
	return &TripConfig{
		UnlockTimeout: 1000 * time.Millisecond,
	}
}
