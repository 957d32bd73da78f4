package pipeline

import (
	"sync"
	"testing"
	"time"
)

func TestPrintGateOrdersCompletionsByUtteranceID(t *testing.T) {
	g := newPrintGate()

	var mu sync.Mutex
	var order []int64

	var wg sync.WaitGroup
	for _, id := range []int64{3, 1, 2} {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.waitTurn(id)
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			g.complete(id)
		}()
		time.Sleep(5 * time.Millisecond) // encourage launch order 3,1,2 to race against gating
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(order))
	}
	for i, id := range order {
		want := int64(i + 1)
		if id != want {
			t.Errorf("completion %d: want utterance %d, got %d", i, want, id)
		}
	}
}

// TestPrintGateLaterTurnWaitsForPendingPredecessor checks the
// waitTurn-then-complete pairing that every caller uses, including the
// drop paths: a later utterance's waitTurn must not return, and so its
// complete must not run, while an earlier utterance is still pending.
func TestPrintGateLaterTurnWaitsForPendingPredecessor(t *testing.T) {
	g := newPrintGate()

	g.waitTurn(1) // utterance 1 has printed its source line, but not yet completed

	done := make(chan struct{})
	go func() {
		// A dropped utterance 2 must take its turn before completing,
		// never complete(2) directly while 1 is still pending.
		g.waitTurn(2)
		g.complete(2)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("waitTurn(2) returned before utterance 1 completed")
	case <-time.After(50 * time.Millisecond):
	}

	g.complete(1)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitTurn(2) did not unblock after utterance 1 completed")
	}
}

func TestPrintGateStopReleasesWaiters(t *testing.T) {
	g := newPrintGate()

	done := make(chan struct{})
	go func() {
		g.waitTurn(100) // no utterance 99 will ever complete
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	g.stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitTurn did not unblock after stop")
	}
}
