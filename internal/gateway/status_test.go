package gateway

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"success", StatusSuccess},
		{"SUCCESSFUL", StatusSuccess},
		{"completed", StatusSuccess},
		{"complete", StatusSuccess},
		{"paid", StatusSuccess},
		{"validated", StatusSuccess},
		{"pending", StatusPending},
		{" Processing ", StatusPending},
		{"initiated", StatusPending},
		{"open", StatusPending},
		{"failed", StatusFailed},
		{"declined", StatusFailed},
		{"error", StatusFailed},
		{"expired", StatusFailed},
		{"cancelled", StatusCancelled},
		{"canceled", StatusCancelled},
		{"refunded", StatusRefunded},
		// Unknown tokens must fail closed, never default to success.
		{"weird_status", StatusFailed},
		{"", StatusFailed},
	}

	for _, tc := range cases {
		if got := NormalizeStatus(tc.raw); got != tc.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []Status{StatusSuccess, StatusFailed, StatusCancelled, StatusRefunded} {
		if !s.Terminal() {
			t.Errorf("%q must be terminal", s)
		}
	}
}
