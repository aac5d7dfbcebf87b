package domain

import (
	"testing"
	"time"
)

func TestReservationTransitionTable(t *testing.T) {
	cases := []struct {
		from    ReservationStatus
		to      ReservationStatus
		allowed bool
	}{
		{ReservationStatusActive, ReservationStatusCompleted, true},
		{ReservationStatusActive, ReservationStatusCancelled, true},
		{ReservationStatusActive, ReservationStatusExpired, true},
		{ReservationStatusActive, ReservationStatusFailed, false},
		{ReservationStatusActive, ReservationStatusScheduled, false},
		{ReservationStatusScheduled, ReservationStatusActive, true},
		{ReservationStatusScheduled, ReservationStatusCancelled, true},
		{ReservationStatusScheduled, ReservationStatusFailed, true},
		{ReservationStatusScheduled, ReservationStatusExpired, false},
		{ReservationStatusScheduled, ReservationStatusCompleted, false},
		{ReservationStatusCompleted, ReservationStatusActive, false},
		{ReservationStatusCancelled, ReservationStatusActive, false},
		{ReservationStatusExpired, ReservationStatusActive, false},
		{ReservationStatusFailed, ReservationStatusScheduled, false},
		{"bogus", ReservationStatusActive, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, expected %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []ReservationStatus{
		ReservationStatusCompleted,
		ReservationStatusCancelled,
		ReservationStatusExpired,
		ReservationStatusFailed,
	}
	all := []ReservationStatus{
		ReservationStatusActive,
		ReservationStatusScheduled,
		ReservationStatusCompleted,
		ReservationStatusCancelled,
		ReservationStatusExpired,
		ReservationStatusFailed,
	}

	for _, from := range terminals {
		r := Reservation{Status: from}
		if !r.IsTerminal() {
			t.Errorf("%s not reported terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal state %s has exit to %s", from, to)
			}
		}
	}
}

func TestIsExpiredOnlyAppliesToActive(t *testing.T) {
	past := time.Now().Add(-time.Minute)

	active := Reservation{Status: ReservationStatusActive, ExpiresAt: past}
	if !active.IsExpired(time.Now()) {
		t.Error("active reservation past its window not reported expired")
	}

	scheduled := Reservation{Status: ReservationStatusScheduled, ExpiresAt: past}
	if scheduled.IsExpired(time.Now()) {
		t.Error("scheduled reservation reported expired")
	}

	fresh := Reservation{Status: ReservationStatusActive, ExpiresAt: time.Now().Add(time.Minute)}
	if fresh.IsExpired(time.Now()) {
		t.Error("unexpired reservation reported expired")
	}
}
