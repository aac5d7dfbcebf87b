package domain

import (
	"time"
)

// Channel is a named topic on the event bus.
type Channel string

const (
	ChannelBicicletas    Channel = "BICICLETAS"
	ChannelReservas      Channel = "RESERVAS"
	ChannelViajes        Channel = "VIAJES"
	ChannelPagos         Channel = "PAGOS"
	ChannelBooking       Channel = "BOOKING"
	ChannelMantenimiento Channel = "MANTENIMIENTO"
	ChannelEstaciones    Channel = "ESTACIONES"
	ChannelUsuarios      Channel = "USUARIOS"
)

// EventType is the closed set of domain event types. Observers dispatch on
// it with an exhaustive switch; unknown values are logged, never dropped
// silently.
type EventType string

const (
	EventBicicletaReservada  EventType = "bicicleta_reservada"
	EventReservaProgramada   EventType = "reserva_programada"
	EventReservaActivada     EventType = "reserva_activada"
	EventReservaCancelada    EventType = "reserva_cancelada"
	EventReservaCompletada   EventType = "reserva_completada"
	EventReservaExpirada     EventType = "reserva_expirada"
	EventReservaFallida      EventType = "reserva_fallida"
	EventViajeIniciado       EventType = "viaje_iniciado"
	EventViajeFinalizado     EventType = "viaje_finalizado"
	EventReservaBuscada      EventType = "reserva_buscada"
	EventPagoPendiente       EventType = "pago_pendiente"
	EventPagoConfirmado      EventType = "pago_confirmado"
	EventPagoRechazado       EventType = "pago_rechazado"
	EventBicicletaEstado     EventType = "bicicleta_estado"
	EventMantenimiento       EventType = "bicicleta_mantenimiento"
	EventEstacionActualizada EventType = "estacion_actualizada"
)

// Event is an append-only record on a channel. Never mutated after publish.
type Event struct {
	ID        string                 `json:"id"`
	Channel   Channel                `json:"channel"`
	Type      EventType              `json:"type"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt time.Time              `json:"created_at"`
}
