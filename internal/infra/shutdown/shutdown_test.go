package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestHandler_HooksRunInReverseOrder(t *testing.T) {
	h := NewHandler(5 * time.Second)

	var mu sync.Mutex
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	// Let Wait install its signal listener before triggering.
	time.Sleep(20 * time.Millisecond)
	h.Trigger()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after Trigger")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Fatalf("hook order = %v, want [3 2 1]", order)
	}
}

func TestHandler_ReturnsLastHookError(t *testing.T) {
	h := NewHandler(5 * time.Second)

	hookErr := errors.New("close failed")
	h.OnShutdown(func(ctx context.Context) error { return hookErr })
	h.OnShutdown(func(ctx context.Context) error { return nil })

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	time.Sleep(20 * time.Millisecond)
	h.Trigger()

	select {
	case err := <-errCh:
		if !errors.Is(err, hookErr) {
			t.Fatalf("Wait() error = %v, want %v", err, hookErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return")
	}
}

func TestHandler_DoneClosesAfterWait(t *testing.T) {
	h := NewHandler(time.Second)

	go h.Wait()
	time.Sleep(20 * time.Millisecond)

	select {
	case <-h.Done():
		t.Fatal("Done() closed before shutdown")
	default:
	}

	h.Trigger()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after shutdown")
	}
}

func TestHandler_HooksSeeDeadline(t *testing.T) {
	h := NewHandler(50 * time.Millisecond)

	h.OnShutdown(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("hook context has no deadline")
		}
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait() }()

	time.Sleep(20 * time.Millisecond)
	h.Trigger()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return")
	}
}
