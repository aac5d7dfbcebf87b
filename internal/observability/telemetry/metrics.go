package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de negocio
	ActiveTrips = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sigeb_active_trips",
		Help: "Número de viajes en curso",
	})

	ReservationsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigeb_reservations_expired_total",
		Help: "Total de reservas expiradas por el barrido",
	})

	TripsStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigeb_trips_started_total",
		Help: "Total de viajes iniciados",
	}, []string{"class"})

	UnlockLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sigeb_unlock_latency_seconds",
		Help:    "Latencia del handshake de desbloqueo",
		Buckets: prometheus.DefBuckets,
	})

	// Métricas de infraestructura
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigeb_events_published_total",
		Help: "Total de eventos publicados por canal",
	}, []string{"channel", "type"})

	WebhookDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigeb_webhook_duplicates_total",
		Help: "Total de webhooks descartados por deduplicación",
	})
)
