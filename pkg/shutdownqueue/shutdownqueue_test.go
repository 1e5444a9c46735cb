package shutdownqueue

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNilTaskIgnored(t *testing.T) {
	t.Parallel()

	q := New()
	q.Add(nil)

	err := q.Shutdown(t.Context())
	if err != nil {
		t.Fatalf("expected nil after adding nil task; got %v", err)
	}
}

func TestLIFOOrder(t *testing.T) {
	t.Parallel()

	var (
		q     Queue
		order []int
	)

	for i := 1; i <= 3; i++ {
		q.Add(func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	err := q.Shutdown(t.Context())
	if err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	if diff := cmp.Diff([]int{3, 2, 1}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPanicRecoveredAndDrainContinues(t *testing.T) {
	t.Parallel()

	q := New()

	var ranAfterPanic atomic.Bool

	q.Add(func(context.Context) error {
		ranAfterPanic.Store(true)
		return nil
	})
	q.Add(func(context.Context) error { panic("boom") })

	err := q.Shutdown(t.Context())
	if err == nil || !strings.Contains(err.Error(), "panic in shutdown task: boom") {
		t.Fatalf("expected panic in error; got %v", err)
	}

	if !ranAfterPanic.Load() {
		t.Fatalf("expected tasks after the panic to still run")
	}
}

func TestCancelStopsDrain(t *testing.T) {
	t.Parallel()

	q := New()
	errA := errors.New("taskA")

	var ranB atomic.Bool

	gateReady := make(chan struct{})

	q.Add(func(context.Context) error { return errA })
	q.Add(func(context.Context) error {
		ranB.Store(true)
		return nil
	})
	q.Add(func(ctx context.Context) error {
		close(gateReady)
		<-ctx.Done()

		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)

	go func() { errCh <- q.Shutdown(ctx) }()

	<-gateReady
	cancel()

	err := <-errCh
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}

	if ranB.Load() || errors.Is(err, errA) {
		t.Fatalf("tasks after cancel must not run")
	}
}

func TestShutdownRunsOnce(t *testing.T) {
	t.Parallel()

	q := New()

	var count atomic.Int32

	q.Add(func(context.Context) error {
		count.Add(1)
		return nil
	})

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()

	for range 2 {
		err := q.Shutdown(ctx)
		if err != nil {
			t.Fatalf("Shutdown error: %v", err)
		}
	}

	if got := count.Load(); got != 1 {
		t.Fatalf("expected one run; got %d", got)
	}

	q.Add(func(context.Context) error {
		count.Add(1)
		return nil
	})

	_ = q.Shutdown(ctx)

	if got := count.Load(); got != 1 {
		t.Fatalf("task added after shutdown must not run; got %d", got)
	}
}

func TestAddCloserJoinsErrors(t *testing.T) {
	t.Parallel()

	q := New()
	errDB := errors.New("db")
	errPool := errors.New("pool")

	q.AddCloser("db", func() error { return errDB })
	q.AddCloser("pool", func() error { return errPool })
	q.AddCloser("ok", func() error { return nil })

	err := q.Shutdown(t.Context())
	if !errors.Is(err, errDB) || !errors.Is(err, errPool) {
		t.Fatalf("expected both errors joined; got %v", err)
	}

	if !strings.Contains(err.Error(), "close pool: pool") {
		t.Fatalf("expected named closer in error; got %q", err.Error())
	}
}
