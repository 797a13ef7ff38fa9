package repository

import (
	"testing"

	"aidapay/internal/gateway"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from gateway.Status
		to   gateway.Status
		want bool
	}{
		{gateway.StatusPending, gateway.StatusSuccess, true},
		{gateway.StatusPending, gateway.StatusFailed, true},
		{gateway.StatusPending, gateway.StatusCancelled, true},
		{gateway.StatusPending, gateway.StatusRefunded, true},
		{gateway.StatusSuccess, gateway.StatusRefunded, true},

		// A terminal status never regresses, whatever arrives late.
		{gateway.StatusSuccess, gateway.StatusPending, false},
		{gateway.StatusSuccess, gateway.StatusFailed, false},
		{gateway.StatusFailed, gateway.StatusSuccess, false},
		{gateway.StatusFailed, gateway.StatusPending, false},
		{gateway.StatusCancelled, gateway.StatusSuccess, false},
		{gateway.StatusRefunded, gateway.StatusSuccess, false},

		// Same-state and empty updates are no-ops.
		{gateway.StatusPending, gateway.StatusPending, false},
		{gateway.StatusSuccess, gateway.StatusSuccess, false},
		{gateway.StatusPending, "", false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
