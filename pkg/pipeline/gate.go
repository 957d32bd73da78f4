package pipeline

import "sync"

// printGate serializes the transcript/log emits across stages so that,
// per spec.md §5, the source-line print and the translation print for
// utterance N both happen before any print for utterance N+1 on the same
// display channel, even though transcription, translation, and synthesis
// run as independently paced stage goroutines.
type printGate struct {
	mu       sync.Mutex
	cond     *sync.Cond
	doneUpTo int64
	stopped  bool
}

func newPrintGate() *printGate {
	g := &printGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// waitTurn blocks until every utterance before id has completed printing,
// or the gate has been stopped.
func (g *printGate) waitTurn(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for !g.stopped && g.doneUpTo != id-1 {
		g.cond.Wait()
	}
}

// complete marks id as fully printed (source line, and target line if
// translation is enabled for this utterance) and unblocks id+1.
func (g *printGate) complete(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.doneUpTo {
		g.doneUpTo = id
	}
	g.cond.Broadcast()
}

// stop releases every goroutine blocked in waitTurn, used during
// shutdown so a stage draining in-flight work never deadlocks against a
// turn that will never arrive.
func (g *printGate) stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
	g.cond.Broadcast()
}
