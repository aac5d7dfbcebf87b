package domain

import (
	"time"
)

// VehicleStatus represents the status of a fleet vehicle
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusReserved    VehicleStatus = "reserved"
	VehicleStatusInTrip      VehicleStatus = "in_trip"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusAbandoned   VehicleStatus = "abandoned"
)

// Valid reports whether the status belongs to the closed set.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusReserved, VehicleStatusInTrip,
		VehicleStatusMaintenance, VehicleStatusAbandoned:
		return true
	}
	return false
}

// Vehicle represents a shared bicycle in the fleet.
// Status is mutated only through the reservation/trip services using
// guarded (status-conditional) writes.
type Vehicle struct {
	ID         string        `json:"id" gorm:"primaryKey"`
	SerialCode string        `json:"serial_code" gorm:"uniqueIndex"`
	Status     VehicleStatus `json:"status" gorm:"index"`
	StationID  *string       `json:"station_id,omitempty" gorm:"index"`
	ReservedBy *string       `json:"reserved_by,omitempty"` // holder of the current reservation
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	Station *Station `json:"station,omitempty" gorm:"foreignKey:StationID"`
}

// CanBeReserved reports whether a reservation may take this vehicle.
func (v *Vehicle) CanBeReserved() bool {
	return v.Status == VehicleStatusAvailable
}

// CanStartTrip reports whether an unlock may proceed from the current status.
func (v *Vehicle) CanStartTrip() bool {
	return v.Status == VehicleStatusAvailable || v.Status == VehicleStatusReserved
}
