package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/mocks"
)

func newTestBus() (*Bus, *mocks.MockEventLog, *mocks.MockMessageQueue) {
	log := mocks.NewMockEventLog()
	relay := mocks.NewMockMessageQueue()
	return New(log, relay, zap.NewNop()), log, relay
}

func TestPublishNotifiesSubscribersInOrder(t *testing.T) {
	bus, _, _ := newTestBus()

	var seen []domain.EventType
	bus.Subscribe(domain.ChannelReservas, func(evt domain.Event) {
		seen = append(seen, evt.Type)
	})

	ctx := context.Background()
	bus.Publish(ctx, domain.ChannelReservas, domain.EventBicicletaReservada, nil)
	bus.Publish(ctx, domain.ChannelReservas, domain.EventReservaCancelada, nil)
	bus.Publish(ctx, domain.ChannelReservas, domain.EventReservaExpirada, nil)

	want := []domain.EventType{
		domain.EventBicicletaReservada,
		domain.EventReservaCancelada,
		domain.EventReservaExpirada,
	}
	if len(seen) != len(want) {
		t.Fatalf("observer saw %d events, expected %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event %d = %s, expected %s", i, seen[i], want[i])
		}
	}
}

func TestSubscribeReplaysOnlyMostRecent(t *testing.T) {
	bus, _, _ := newTestBus()
	ctx := context.Background()

	bus.Publish(ctx, domain.ChannelViajes, domain.EventViajeIniciado, map[string]interface{}{"trip_id": "t1"})
	bus.Publish(ctx, domain.ChannelViajes, domain.EventViajeFinalizado, map[string]interface{}{"trip_id": "t1"})

	var replayed []domain.Event
	bus.Subscribe(domain.ChannelViajes, func(evt domain.Event) {
		replayed = append(replayed, evt)
	})

	if len(replayed) != 1 {
		t.Fatalf("replayed %d events, expected exactly 1", len(replayed))
	}
	if replayed[0].Type != domain.EventViajeFinalizado {
		t.Errorf("replayed %s, expected the most recent event", replayed[0].Type)
	}
}

func TestSubscribeToEmptyChannelReplaysNothing(t *testing.T) {
	bus, _, _ := newTestBus()

	called := false
	bus.Subscribe(domain.ChannelPagos, func(evt domain.Event) {
		called = true
	})

	if called {
		t.Error("observer invoked on empty channel")
	}
}

func TestPanickingObserverDoesNotBlockOthers(t *testing.T) {
	bus, _, _ := newTestBus()

	bus.Subscribe(domain.ChannelReservas, func(evt domain.Event) {
		panic("observer bug")
	})
	var delivered bool
	bus.Subscribe(domain.ChannelReservas, func(evt domain.Event) {
		delivered = true
	})

	if _, err := bus.Publish(context.Background(), domain.ChannelReservas, domain.EventBicicletaReservada, nil); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if !delivered {
		t.Error("second observer was not notified after first panicked")
	}
}

func TestPublishFailsWhenLogAppendFails(t *testing.T) {
	log := mocks.NewMockEventLog()
	log.AppendFunc = func(ctx context.Context, evt domain.Event) error {
		return errors.New("log unavailable")
	}
	bus := New(log, nil, zap.NewNop())

	var notified bool
	bus.Subscribe(domain.ChannelReservas, func(evt domain.Event) {
		notified = true
	})

	_, err := bus.Publish(context.Background(), domain.ChannelReservas, domain.EventBicicletaReservada, nil)
	if !domain.IsKind(err, domain.KindExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if notified {
		t.Error("observers notified despite failed append")
	}
}

func TestUnsubscribeSemantics(t *testing.T) {
	bus, _, _ := newTestBus()

	var count int
	id := bus.Subscribe(domain.ChannelBicicletas, func(evt domain.Event) {
		count++
	})
	bus.Subscribe(domain.ChannelBicicletas, func(evt domain.Event) {})

	if !bus.Unsubscribe(domain.ChannelBicicletas, id) {
		t.Fatal("Unsubscribe returned false for a live subscription")
	}
	if bus.Unsubscribe(domain.ChannelBicicletas, id) {
		t.Error("second Unsubscribe with same id returned true")
	}
	if bus.Unsubscribe(domain.ChannelBicicletas, "missing") {
		t.Error("Unsubscribe with unknown id returned true")
	}

	bus.Publish(context.Background(), domain.ChannelBicicletas, domain.EventBicicletaEstado, nil)
	if count != 0 {
		t.Error("unsubscribed observer was notified")
	}

	if n := bus.UnsubscribeAll(domain.ChannelBicicletas); n != 1 {
		t.Errorf("UnsubscribeAll removed %d, expected 1", n)
	}
	if n := bus.UnsubscribeAll(domain.ChannelBicicletas); n != 0 {
		t.Errorf("UnsubscribeAll on empty channel removed %d", n)
	}
}

func TestPublishForwardsToRelay(t *testing.T) {
	bus, _, relay := newTestBus()

	evt, err := bus.Publish(context.Background(), domain.ChannelViajes, domain.EventViajeIniciado, map[string]interface{}{
		"trip_id": "t1",
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	msgs := relay.GetPublishedMessages("sigeb.eventos.VIAJES")
	if len(msgs) != 1 {
		t.Fatalf("relay received %d messages, expected 1", len(msgs))
	}

	var relayed domain.Event
	if err := json.Unmarshal(msgs[0], &relayed); err != nil {
		t.Fatalf("relay payload is not a JSON event: %v", err)
	}
	if relayed.ID != evt.ID || relayed.Type != domain.EventViajeIniciado {
		t.Errorf("relayed event = %+v", relayed)
	}
}

func TestRelayFailureDoesNotFailPublish(t *testing.T) {
	log := mocks.NewMockEventLog()
	relay := mocks.NewMockMessageQueue()
	relay.PublishFunc = func(subject string, data []byte) error {
		return errors.New("broker down")
	}
	bus := New(log, relay, zap.NewNop())

	if _, err := bus.Publish(context.Background(), domain.ChannelViajes, domain.EventViajeIniciado, nil); err != nil {
		t.Fatalf("Publish failed on relay error: %v", err)
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	bus, _, _ := newTestBus()

	var wrongChannel bool
	bus.Subscribe(domain.ChannelPagos, func(evt domain.Event) {
		wrongChannel = true
	})

	bus.Publish(context.Background(), domain.ChannelViajes, domain.EventViajeIniciado, nil)

	if wrongChannel {
		t.Error("observer received an event from another channel")
	}
}
