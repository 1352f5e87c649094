package ordr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/casperin/ordr/internal/ctxlog"
	"github.com/casperin/ordr/internal/scheduler"
	"github.com/casperin/ordr/observer"
)

// workerState is the worker's own lifecycle, distinct from any one node's
// Run State: Built -> Running -> Terminated.
type workerState int32

const (
	built workerState = iota
	running
	terminated
)

// ErrAlreadyRun is returned by Run when it is called a second time on the
// same Worker.
var ErrAlreadyRun = errors.New("ordr: worker already run")

// NodeStatus is the last observed state of one node, used by Worker.Status
// for progress reporting during or after a run.
type NodeStatus struct {
	State observer.State
	Start time.Duration
	Err   error
}

// Option configures a Worker at construction.
type Option func(*Worker)

// WithObserver attaches o to receive every node transition the Worker
// makes. Without this option a Worker uses observer.NoOp.
func WithObserver(o observer.Observer) Option {
	return func(w *Worker) { w.observer = o }
}

// WithConcurrencyCap bounds how many producers run at once. Zero (the
// default) is unbounded: every ready node launches immediately.
func WithConcurrencyCap(n int64) Option {
	return func(w *Worker) { w.concurrencyCap = n }
}

// Worker wraps a Plan, a context, a Store, and a scheduler, and exposes the
// caller-facing control surface: run, stop, output, data.
type Worker struct {
	plan           *Plan
	ctx            context.Context
	store          *Store
	observer       observer.Observer
	concurrencyCap int64

	mu       sync.Mutex
	state    workerState
	statuses map[Identity]NodeStatus
	outcome  Outcome

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

// NewWorker constructs a Worker over plan. The store is seeded from the
// plan's own seed data (the values Builder.WithData supplied and Build
// decided to keep). ctx is propagated to every producer invocation and
// additionally governs cancellation: cancelling ctx has the same effect as
// calling Stop.
func NewWorker(plan *Plan, ctx context.Context, opts ...Option) *Worker {
	w := &Worker{
		plan:     plan,
		ctx:      ctx,
		store:    NewStore(),
		observer: observer.NoOp{},
		statuses: make(map[Identity]NodeStatus),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, id := range plan.Nodes() {
		if v, ok := plan.SeedValue(id); ok {
			_ = w.store.Put(id, v)
			w.statuses[id] = NodeStatus{State: observer.Skipped}
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run begins dispatch and returns immediately. It may be called at most
// once; a second call returns ErrAlreadyRun without affecting the run
// already in progress.
func (w *Worker) Run() error {
	w.mu.Lock()
	if w.state != built {
		w.mu.Unlock()
		return ErrAlreadyRun
	}
	w.state = running
	w.mu.Unlock()

	go w.drive()
	return nil
}

// Stop triggers cancellation. It is idempotent and returns immediately.
// Called before Run, it transitions the Worker straight to
// Terminated{Cancelled} without dispatching any producer. After Stop, the
// eventual Outcome is Cancelled unless the run had already terminated with
// another outcome (first-writer-wins).
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })

	w.mu.Lock()
	if w.state != built {
		w.mu.Unlock()
		return
	}
	w.state = terminated
	w.outcome = Outcome{Kind: Cancelled, snapshot: w.store.Snapshot()}
	w.mu.Unlock()

	w.doneOnce.Do(func() { close(w.done) })
}

// GetOutput blocks until the run reaches a terminal Outcome and returns it.
// Safe to call multiple times and from multiple goroutines; every caller
// observes the same value.
func (w *Worker) GetOutput() Outcome {
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcome
}

// Data returns a snapshot of everything currently in the store. Safe to
// call before, during, or after a run.
func (w *Worker) Data() Snapshot {
	return w.store.Snapshot()
}

// Status returns the last observed state of every node the Worker has
// touched so far. It is a best-effort, point-in-time view during a run;
// each node's Start is filled in once the run has terminated.
func (w *Worker) Status() map[Identity]NodeStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[Identity]NodeStatus, len(w.statuses))
	for id, st := range w.statuses {
		out[id] = st
	}
	return out
}

// CancellationHandle returns a value that can trigger the same cancellation
// as Stop, independently of holding the Worker itself.
func (w *Worker) CancellationHandle() CancellationHandle {
	return CancellationHandle{w: w}
}

// CancellationHandle is a small, copyable token equivalent to calling
// Worker.Stop.
type CancellationHandle struct {
	w *Worker
}

// Cancel triggers cancellation, equivalent to Worker.Stop.
func (h CancellationHandle) Cancel() {
	h.w.Stop()
}

// Done returns a channel closed when cancellation has been requested
// through this handle or Worker.Stop. Cancelling the Worker's own context
// does not close it.
func (h CancellationHandle) Done() <-chan struct{} {
	return h.w.stopCh
}

func (w *Worker) drive() {
	logger := ctxlog.FromContext(w.ctx)
	start := time.Now()

	cfg := scheduler.Config{
		Nodes:          make(map[string]scheduler.Node, len(w.plan.descriptors)),
		Seeded:         make(map[string][]byte, len(w.plan.seed)),
		Dependents:     make(map[string][]string, len(w.plan.dependents)),
		InDegree:       make(map[string]int, len(w.plan.inDegree)),
		Order:          make([]string, len(w.plan.order)),
		Targets:        make([]string, len(w.plan.targets)),
		ConcurrencyCap: w.concurrencyCap,
		Store:          schedulerStore{store: w.store},
		Observer:       w.onTransition,
	}
	for id, d := range w.plan.descriptors {
		deps := make([]string, len(d.Dependencies))
		for i, dep := range d.Dependencies {
			deps[i] = string(dep)
		}
		invoke := d.Invoke
		cfg.Nodes[string(id)] = scheduler.Node{
			ID:   string(id),
			Deps: deps,
			Run: func(ctx context.Context, deps [][]byte) ([]byte, error) {
				blobs := make([]Blob, len(deps))
				for i, b := range deps {
					blobs[i] = Blob(b)
				}
				out, err := invoke(ctx, blobs)
				return []byte(out), err
			},
		}
	}
	for id, b := range w.plan.seed {
		cfg.Seeded[string(id)] = []byte(b)
	}
	for id, dependents := range w.plan.dependents {
		list := make([]string, len(dependents))
		for i, d := range dependents {
			list[i] = string(d)
		}
		cfg.Dependents[string(id)] = list
	}
	for id, n := range w.plan.inDegree {
		cfg.InDegree[string(id)] = n
	}
	for i, id := range w.plan.order {
		cfg.Order[i] = string(id)
	}
	for i, id := range w.plan.targets {
		cfg.Targets[i] = string(id)
	}

	logger.Debug("Worker starting run.", "nodeCount", len(cfg.Nodes), "concurrencyCap", w.concurrencyCap)
	result := scheduler.New(cfg).Run(w.ctx, w.stopCh)

	outcome := Outcome{Duration: time.Since(start), snapshot: w.store.Snapshot()}
	switch result.Outcome {
	case scheduler.Completed:
		outcome.Kind = Completed
		logger.Debug("Worker run completed.", "duration", outcome.Duration)
	case scheduler.Cancelled:
		outcome.Kind = Cancelled
		logger.Warn("Worker run cancelled.", "duration", outcome.Duration)
	default:
		outcome.Kind = Failed
		outcome.Node = Identity(result.FailedNode)
		outcome.Reason = result.Reason
		logger.Error("Worker run failed.", "node", outcome.Node, "reason", outcome.Reason)
	}

	w.mu.Lock()
	for id, st := range result.Statuses {
		w.statuses[Identity(id)] = NodeStatus{State: observer.State(st.State), Start: st.Start, Err: st.Err}
	}
	if w.state != terminated {
		w.state = terminated
		w.outcome = outcome
	}
	w.mu.Unlock()

	w.doneOnce.Do(func() { close(w.done) })
}

func (w *Worker) onTransition(t scheduler.Transition) {
	w.mu.Lock()
	w.statuses[Identity(t.ID)] = NodeStatus{State: observer.State(t.State), Err: t.Err}
	w.mu.Unlock()
	logger := ctxlog.FromContext(w.ctx)
	if t.Err != nil {
		logger.Warn("Node transition.", "nodeID", t.ID, "state", t.State, "error", t.Err)
	} else {
		logger.Debug("Node transition.", "nodeID", t.ID, "state", t.State)
	}
	w.observer.OnTransition(observer.Event{Node: t.ID, State: observer.State(t.State), Err: t.Err})
}

// schedulerStore adapts *Store's Identity/Blob-typed methods to the plain
// string/[]byte surface scheduler.Store requires, so the core engine stays
// free of the public ordr types.
type schedulerStore struct {
	store *Store
}

func (s schedulerStore) Put(id string, v []byte) error {
	return s.store.Put(Identity(id), Blob(v))
}

func (s schedulerStore) GetBlob(id string) ([]byte, bool) {
	b, ok := s.store.GetBlob(Identity(id))
	return []byte(b), ok
}
