package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"dummybot/models"
)

func TestPushPopOrder(t *testing.T) {
	q := NewSignalQueue(4)
	ctx := context.Background()

	tickers := []string{"NVDA", "AAPL", "MSFT"}
	for _, tk := range tickers {
		if !q.Push(ctx, models.Signal{Ticker: tk, Direction: models.DirectionBuy}) {
			t.Fatalf("push failed for %s", tk)
		}
	}

	for _, want := range tickers {
		sig, ok := q.Pop()
		if !ok {
			t.Fatalf("unexpected closed queue")
		}
		if sig.Ticker != want {
			t.Errorf("FIFO order violated: got %s, want %s", sig.Ticker, want)
		}
	}
}

func TestPushCancelledContext(t *testing.T) {
	q := NewSignalQueue(1)
	ctx, cancel := context.WithCancel(context.Background())

	if !q.Push(ctx, models.Signal{Ticker: "NVDA"}) {
		t.Fatalf("push into empty queue failed")
	}

	// Buffer is now full; a cancelled context must abort the blocked push.
	cancel()
	if q.Push(ctx, models.Signal{Ticker: "AAPL"}) {
		t.Fatalf("push should fail after context cancellation")
	}
}

func TestDrainAfterClose(t *testing.T) {
	q := NewSignalQueue(4)
	ctx := context.Background()

	q.Push(ctx, models.Signal{Ticker: "NVDA"})
	q.Push(ctx, models.Signal{Ticker: "AAPL"})
	q.Close()
	q.Close() // idempotent

	if _, ok := q.Pop(); !ok {
		t.Fatalf("expected buffered signal after close")
	}
	if _, ok := q.Pop(); !ok {
		t.Fatalf("expected second buffered signal after close")
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected closed signal after drain")
	}
}

func TestExactlyOnceDeliveryUnderConcurrency(t *testing.T) {
	const total = 200
	const consumers = 4

	q := NewSignalQueue(16)
	ctx := context.Background()

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				sig, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[sig.Ticker]++
				mu.Unlock()
			}
		}()
	}

	go func() {
		for i := 0; i < total; i++ {
			q.Push(ctx, models.Signal{Ticker: string(rune('A'+i%26)) + string(rune('a'+i/26))})
		}
		q.Close()
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("consumers did not terminate after close")
	}

	count := 0
	for _, n := range seen {
		count += n
	}
	if count != total {
		t.Fatalf("expected %d deliveries, got %d", total, count)
	}

	stats := q.GetStats()
	if stats.Pushed != total || stats.Popped != total {
		t.Errorf("stats mismatch: %+v", stats)
	}
}
