package domain

import (
	"time"
)

// Station is a docking station with a fixed location and a bounded number
// of slots. AvailableCount is the number of vehicles currently docked.
type Station struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name"`
	Zone           string    `json:"zone" gorm:"index"` // tariff zone; same-zone pairs are short hops
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Capacity       int       `json:"capacity"`
	AvailableCount int       `json:"available_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasCoordinates reports whether the station carries usable geodata.
func (s *Station) HasCoordinates() bool {
	return s.Latitude != 0 || s.Longitude != 0
}
