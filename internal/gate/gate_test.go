package gate

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestTryAdmitRejectsSecondJob(t *testing.T) {
	g := New()
	if err := g.TryAdmit("x"); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	if err := g.TryAdmit("x"); !errors.Is(err, ErrAlreadyBusy) {
		t.Fatalf("expected ErrAlreadyBusy, got %v", err)
	}
	g.Release("x")
	if err := g.TryAdmit("x"); err != nil {
		t.Fatalf("admit after release: %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	g := New()
	g.Release("nobody")
	if err := g.TryAdmit("a"); err != nil {
		t.Fatalf("admit: %v", err)
	}
	g.Release("a")
	g.Release("a")
	if g.Busy("a") {
		t.Fatal("expected a to be idle")
	}
	if len(g.Active()) != 0 {
		t.Fatalf("expected no active requesters, got %v", g.Active())
	}
}

func TestRequestersAreIndependent(t *testing.T) {
	g := New()
	for _, id := range []string{"b", "a"} {
		if err := g.TryAdmit(id); err != nil {
			t.Fatalf("admit %s: %v", id, err)
		}
	}
	if got := g.Active(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected active set: %v", got)
	}
}

func TestConcurrentAdmissionAdmitsExactlyOne(t *testing.T) {
	g := New()
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAdmit("shared") == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	if admitted.Load() != 1 {
		t.Fatalf("expected exactly one admission, got %d", admitted.Load())
	}
}

func TestConcurrentDistinctRequesters(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			if err := g.TryAdmit(id); err != nil {
				errs <- err
				return
			}
			g.Release(id)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
}
