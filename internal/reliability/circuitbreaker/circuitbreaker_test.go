package circuitbreaker

import (
	"testing"
	"time"
)

func TestTripsOpenAfterThreshold(t *testing.T) {
	cb := New(3, time.Minute)

	for i := 0; i < 2; i++ {
		cb.Failure()
		if !cb.Allow() {
			t.Fatalf("should still allow after %d failures", i+1)
		}
	}

	cb.Failure()
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open, got %v", cb.GetState())
	}
	if cb.Allow() {
		t.Fatal("open circuit should not allow requests")
	}
}

func TestHalfOpenProbeAfterCooldown(t *testing.T) {
	cb := New(1, 10*time.Millisecond)

	cb.Failure()
	if cb.Allow() {
		t.Fatal("expected open circuit")
	}

	time.Sleep(20 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("expected half-open probe to be allowed")
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", cb.GetState())
	}

	cb.Success()
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after probe success, got %v", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 10*time.Millisecond)
	cb.Failure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	cb.Failure()
	if cb.GetState() != StateOpen {
		t.Fatalf("expected re-open after probe failure, got %v", cb.GetState())
	}
}

func TestStateChangeCallback(t *testing.T) {
	cb := New(1, time.Minute)
	var transitions []string
	cb.OnStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	cb.Failure()
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
}
