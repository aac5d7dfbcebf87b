package domain

import (
	"time"
)

// ReservationStatus represents the status of a reservation
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusScheduled ReservationStatus = "scheduled"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusFailed    ReservationStatus = "failed"
)

// EndReason explains how a reservation left its non-terminal state.
type EndReason string

const (
	EndReasonTripStart          EndReason = "trip_start"
	EndReasonUserCancel         EndReason = "user_cancel"
	EndReasonTimeExpiry         EndReason = "time_expiry"
	EndReasonVehicleUnavailable EndReason = "vehicle_unavailable"
	EndReasonActivationError    EndReason = "activation_error"
)

// reservationTransitions is the allowed transition graph. Terminal states
// have no outgoing edges and are immutable once reached.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusActive:    {ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusExpired},
	ReservationStatusScheduled: {ReservationStatusActive, ReservationStatusCancelled, ReservationStatusFailed},
	ReservationStatusCompleted: {},
	ReservationStatusCancelled: {},
	ReservationStatusExpired:   {},
	ReservationStatusFailed:    {},
}

// CanTransition reports whether from -> to is an allowed reservation
// status transition.
func CanTransition(from, to ReservationStatus) bool {
	allowed, ok := reservationTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Reservation is a time-boxed hold granting one holder exclusive right to
// unlock one vehicle.
type Reservation struct {
	ID         string            `json:"id" gorm:"primaryKey"`
	VehicleID  string            `json:"vehicle_id" gorm:"index"`
	HolderID   string            `json:"holder_id" gorm:"index"`
	Status     ReservationStatus `json:"status" gorm:"index"`
	ExpiresAt  time.Time         `json:"expires_at" gorm:"index"`
	ActivateAt *time.Time        `json:"activate_at,omitempty" gorm:"index"` // due-at for scheduled reservations
	EndReason  EndReason         `json:"end_reason,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	Vehicle *Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}

// IsTerminal reports whether the reservation reached an immutable state.
func (r *Reservation) IsTerminal() bool {
	switch r.Status {
	case ReservationStatusCompleted, ReservationStatusCancelled,
		ReservationStatusExpired, ReservationStatusFailed:
		return true
	}
	return false
}

// IsExpired reports whether an active reservation's hold window has passed.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationStatusActive && now.After(r.ExpiresAt)
}

// ReservationConfig holds reservation lifecycle configuration
type ReservationConfig struct {
	// HoldWindow is how long an active reservation remains valid
	HoldWindow time.Duration `json:"hold_window"`

	// SweepInterval is the period of the expiry/activation sweep
	SweepInterval time.Duration `json:"sweep_interval"`
}

// DefaultReservationConfig returns sensible defaults
func DefaultReservationConfig() *ReservationConfig {
	return &ReservationConfig{
		HoldWindow:    10 * time.Minute,
		SweepInterval: 60 * time.Second,
	}
}
