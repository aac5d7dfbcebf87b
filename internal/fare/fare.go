// Package fare computes tiered trip fares from elapsed time.
package fare

import (
	"math"
	"time"

	"github.com/seu-repo/sigeb/internal/domain"
)

// Tariff is the fare schedule for one trip classification.
type Tariff struct {
	Base        float64 `json:"base" mapstructure:"base"`
	FreeMinutes int     `json:"free_minutes" mapstructure:"free_minutes"`
	PerMinute   float64 `json:"per_minute" mapstructure:"per_minute"`
}

// Config holds the full tariff table plus the proportional tax rate.
type Config struct {
	ShortHop Tariff  `json:"short_hop" mapstructure:"short_hop"`
	LongHaul Tariff  `json:"long_haul" mapstructure:"long_haul"`
	TaxRate  float64 `json:"tax_rate" mapstructure:"tax_rate"`
}

// DefaultConfig returns the standard tariff table.
func DefaultConfig() *Config {
	return &Config{
		ShortHop: Tariff{Base: 17500, FreeMinutes: 45, PerMinute: 250},
		LongHaul: Tariff{Base: 28000, FreeMinutes: 90, PerMinute: 400},
		TaxRate:  0.10,
	}
}

// Quote is a computed fare breakdown.
type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Overage  float64 `json:"overage"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Calculator computes fares from the configured tariff table.
type Calculator struct {
	cfg *Config
}

// NewCalculator creates a fare calculator.
func NewCalculator(cfg *Config) *Calculator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Calculator{cfg: cfg}
}

// Quote computes the fare for a trip of the given classification and
// ceiling-rounded elapsed minutes. Unknown classifications are a hard
// failure.
func (c *Calculator) Quote(class domain.TripClass, minutes int) (*Quote, error) {
	var t Tariff
	switch class {
	case domain.TripClassShortHop:
		t = c.cfg.ShortHop
	case domain.TripClassLongHaul:
		t = c.cfg.LongHaul
	default:
		return nil, domain.Ef(domain.KindValidation, "unknown trip classification: %s", class)
	}

	overage := 0.0
	if minutes > t.FreeMinutes {
		overage = float64(minutes-t.FreeMinutes) * t.PerMinute
	}

	subtotal := t.Base + overage
	tax := subtotal * c.cfg.TaxRate

	return &Quote{
		Subtotal: subtotal,
		Overage:  overage,
		Tax:      tax,
		Total:    subtotal + tax,
	}, nil
}

// ElapsedMinutes returns the ceiling-rounded minutes between start and end.
func ElapsedMinutes(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Minutes()))
}
