package resilience

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream unavailable")

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(Config{Name: "test"})
	if cb.maxFailures != 3 {
		t.Errorf("maxFailures = %d, want 3", cb.maxFailures)
	}
	if cb.cooldown != 20*time.Second {
		t.Errorf("cooldown = %v, want 20s", cb.cooldown)
	}
	if cb.probeMax != 2 {
		t.Errorf("probeMax = %d, want 2", cb.probeMax)
	}
	if cb.State() != StateClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_ClosedForwardsCalls(t *testing.T) {
	cb := NewCircuitBreaker(Config{Name: "test"})

	called := false
	if err := cb.Do(func() error { called = true; return nil }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !called {
		t.Fatal("fn was not called")
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:        "test",
		MaxFailures: 3,
		Cooldown:    time.Hour,
	})

	for i := 0; i < 3; i++ {
		if err := cb.Do(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("failure %d: err = %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	called := false
	err := cb.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Fatal("fn was called while the breaker was open")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(Config{Name: "test", MaxFailures: 3})

	_ = cb.Do(func() error { return errUpstream })
	_ = cb.Do(func() error { return errUpstream })
	_ = cb.Do(func() error { return nil })
	_ = cb.Do(func() error { return errUpstream })
	_ = cb.Do(func() error { return errUpstream })

	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed (success resets the counter)", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:        "test",
		MaxFailures: 1,
		Cooldown:    10 * time.Millisecond,
	})

	_ = cb.Do(func() error { return errUpstream })
	if cb.State() != StateOpen {
		t.Fatal("expected open")
	}

	time.Sleep(15 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after cooldown", cb.State())
	}
}

func TestCircuitBreaker_ClosesAfterSuccessfulProbes(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:        "test",
		MaxFailures: 1,
		Cooldown:    5 * time.Millisecond,
		ProbeMax:    2,
	})

	_ = cb.Do(func() error { return errUpstream })
	time.Sleep(10 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := cb.Do(func() error { return nil }); err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed after %d successful probes", cb.State(), 2)
	}
}

func TestCircuitBreaker_ReopensOnFailedProbe(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:        "test",
		MaxFailures: 1,
		Cooldown:    5 * time.Millisecond,
		ProbeMax:    2,
	})

	_ = cb.Do(func() error { return errUpstream })
	time.Sleep(10 * time.Millisecond)

	if err := cb.Do(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
		t.Fatalf("probe err = %v", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", cb.State())
	}
}
