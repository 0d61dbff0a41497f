package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAccountLocks_SerializesSameAccount(t *testing.T) {
	locks := newAccountLocks()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.acquire(ctx, "acc-1")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("expected at most 1 holder at a time, saw %d", maxInside)
	}
	if locks.size() != 0 {
		t.Errorf("expected lock table to drain, has %d entries", locks.size())
	}
}

func TestAccountLocks_DifferentAccountsDoNotContend(t *testing.T) {
	locks := newAccountLocks()
	ctx := context.Background()

	releaseA, err := locks.acquire(ctx, "acc-a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	releaseB, err := locks.acquire(ctx, "acc-b")
	if err != nil {
		t.Fatalf("acquire b blocked behind a: %v", err)
	}
	releaseB()
}

func TestAccountLocks_ContextCancelled(t *testing.T) {
	locks := newAccountLocks()

	release, err := locks.acquire(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.acquire(ctx, "acc-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	release()
	release()
	if locks.size() != 0 {
		t.Errorf("expected lock table to drain, has %d entries", locks.size())
	}
}
