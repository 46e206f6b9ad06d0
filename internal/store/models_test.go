package store

import "testing"

func TestValidStatus(t *testing.T) {
	for _, status := range []string{StatusPending, StatusApproved, StatusRejected} {
		if !ValidStatus(status) {
			t.Errorf("ValidStatus(%q) = false", status)
		}
	}
	for _, status := range []string{"", "deleted", "Approved"} {
		if ValidStatus(status) {
			t.Errorf("ValidStatus(%q) = true", status)
		}
	}
}

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(false); got != StatusPending {
		t.Errorf("InitialStatus(false) = %q", got)
	}
	if got := InitialStatus(true); got != StatusApproved {
		t.Errorf("InitialStatus(true) = %q", got)
	}
}
