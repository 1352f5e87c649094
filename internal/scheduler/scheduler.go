// Package scheduler drives a reduced dependency graph to a terminal outcome:
// launching ready nodes in parallel, feeding values between them through a
// caller-supplied store, and aborting the rest on first failure or external
// cancellation. It knows nothing about the public ordr types; the Worker
// facade adapts a *ordr.Plan and *ordr.Store into the Config below so this
// package stays a plain, reusable dispatch engine.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/casperin/ordr/internal/ctxlog"
)

// State is a node's position in its run-state machine.
type State int

const (
	Pending State = iota
	Ready
	Running
	Done
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// Invoker is a node's type-erased work function.
type Invoker func(ctx context.Context, deps [][]byte) ([]byte, error)

// Node is one runnable unit in the reduced graph.
type Node struct {
	ID   string
	Deps []string
	Run  Invoker
}

// Store is the minimal read/write surface the scheduler needs from the
// value store. ordr.Store's methods take ordr's own Identity/Blob types, so
// the Worker passes an adapter that satisfies this interface.
type Store interface {
	Put(id string, v []byte) error
	GetBlob(id string) ([]byte, bool)
}

// Transition is reported to an optional Observer on every state change.
type Transition struct {
	ID    string
	State State
	Err   error
}

// Observer receives a Transition for every node state change. A nil
// Observer is valid and means no one is listening.
type Observer func(Transition)

// Outcome is the scheduler's terminal verdict.
type Outcome int

const (
	Completed Outcome = iota
	FailedOutcome
	Cancelled
)

// NodeStatus is the final recorded state of one node, used to build a
// progress snapshot after (or during, via Config.Observer) a run.
type NodeStatus struct {
	State State
	Start time.Duration
	Err   error
}

// Result is what Run returns once every node has resolved.
type Result struct {
	Outcome    Outcome
	FailedNode string
	Reason     string
	Statuses   map[string]NodeStatus
}

// Config is the reduced graph plus its runnable nodes, already separated
// from whichever nodes were seeded (and therefore start Skipped rather than
// Pending).
type Config struct {
	Nodes          map[string]Node
	Seeded         map[string][]byte
	Dependents     map[string][]string
	InDegree       map[string]int
	Order          []string
	Targets        []string
	ConcurrencyCap int64
	Store          Store
	Observer       Observer
}

// Scheduler drives one Config to completion. It is single-use: construct
// with New and call Run exactly once.
type Scheduler struct {
	cfg   Config
	t0    time.Time
	mu    sync.Mutex
	state map[string]State
	starts map[string]time.Duration
	errs  map[string]error

	onceMu sync.Mutex
	once   map[string]*sync.Once

	wg sync.WaitGroup

	failMu     sync.Mutex
	failNode   string
	failReason string
	failed     bool

	externalStop bool
	extMu        sync.Mutex

	cancel context.CancelFunc
}

// New builds a Scheduler ready to Run against cfg.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg:    cfg,
		state:  make(map[string]State, len(cfg.Nodes)+len(cfg.Seeded)),
		starts: make(map[string]time.Duration, len(cfg.Nodes)),
		errs:   make(map[string]error),
		once:   make(map[string]*sync.Once, len(cfg.Nodes)),
	}
	for id := range cfg.Nodes {
		s.once[id] = &sync.Once{}
	}
	for id := range cfg.Seeded {
		s.state[id] = Skipped
	}
	return s
}

// Run drives the graph to completion. stop, when closed, requests
// cancellation equivalent to ordr.Worker.Stop: the eventual Outcome is
// Cancelled unless a failure had already been recorded.
func (s *Scheduler) Run(ctx context.Context, stop <-chan struct{}) Result {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Scheduler run starting.", "nodeCount", len(s.cfg.Nodes), "seeded", len(s.cfg.Seeded))

	s.t0 = time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	go func() {
		select {
		case <-stop:
			s.extMu.Lock()
			s.externalStop = true
			s.extMu.Unlock()
			cancel()
		case <-runCtx.Done():
			// The caller's own context was cancelled (e.g. a deadline), or
			// a first failure cancelled the run. The former is treated the
			// same way as Stop; after a failure, result() still reports the
			// recorded failure ahead of this flag.
			s.extMu.Lock()
			s.externalStop = true
			s.extMu.Unlock()
		}
	}()

	var sem *semaphore.Weighted
	if s.cfg.ConcurrencyCap > 0 {
		sem = semaphore.NewWeighted(s.cfg.ConcurrencyCap)
	}

	ready := make(chan string, len(s.cfg.Nodes)+1)

	remaining := 0
	inDegree := make(map[string]int, len(s.cfg.InDegree))
	for id, n := range s.cfg.InDegree {
		inDegree[id] = n
		remaining++
	}
	for id := range s.cfg.Nodes {
		s.mu.Lock()
		if _, ok := s.state[id]; !ok {
			s.state[id] = Pending
		}
		s.mu.Unlock()
	}
	s.wg.Add(remaining)

	// Initialization: every seeded node satisfies its dependents immediately.
	enqueued := make(map[string]bool)
	for id := range s.cfg.Seeded {
		s.notify(id, Skipped, nil)
		for _, dep := range s.cfg.Dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 && !enqueued[dep] {
				enqueued[dep] = true
				ready <- dep
			}
		}
	}
	for _, id := range s.cfg.Order {
		if n, ok := inDegree[id]; ok && n == 0 && !enqueued[id] {
			enqueued[id] = true
			ready <- id
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	go func() {
		for id := range ready {
			id := id
			if sem != nil {
				if err := sem.Acquire(runCtx, 1); err != nil {
					s.resolveSkippedByCancellation(runCtx, id)
					continue
				}
			}
			go func() {
				if sem != nil {
					defer sem.Release(1)
				}
				s.dispatch(runCtx, id, inDegree, ready)
			}()
		}
	}()

	<-done
	close(ready)

	result := s.result()
	logger.Debug("Scheduler run finished.", "outcome", result.Outcome, "failedNode", result.FailedNode)
	return result
}

// dispatch runs one node (or, if the run has already been cancelled,
// resolves it as skipped without invoking it) and propagates readiness or
// failure to its dependents.
func (s *Scheduler) dispatch(ctx context.Context, id string, inDegree map[string]int, ready chan<- string) {
	logger := ctxlog.FromContext(ctx).With("nodeID", id)

	if ctx.Err() != nil {
		logger.Warn("Skipping node: run already cancelled.")
		s.resolveSkippedByCancellation(ctx, id)
		return
	}

	s.setState(id, Running)
	s.notify(id, Running, nil)
	start := time.Since(s.t0)
	s.mu.Lock()
	s.starts[id] = start
	s.mu.Unlock()
	logger.Debug("Node dispatched for execution.")

	node := s.cfg.Nodes[id]
	deps := make([][]byte, len(node.Deps))
	for i, depID := range node.Deps {
		v, ok := s.cfg.Store.GetBlob(depID)
		if !ok {
			logger.Error("Missing stored value for dependency.", "dependency", depID)
			s.fail(id, "internal: missing value for dependency "+depID)
			s.resolveFailed(ctx, id)
			return
		}
		deps[i] = v
	}

	out, err := node.Run(ctx, deps)
	if err != nil {
		logger.Error("Node execution failed.", "error", err)
		s.fail(id, err.Error())
		s.resolveFailed(ctx, id)
		return
	}

	if putErr := s.cfg.Store.Put(id, out); putErr != nil {
		logger.Error("Failed to store node result.", "error", putErr)
		s.fail(id, putErr.Error())
		s.resolveFailed(ctx, id)
		return
	}

	s.setState(id, Done)
	s.notify(id, Done, nil)
	logger.Debug("Node completed successfully.")

	// Propagate readiness to dependents before releasing this node's
	// WaitGroup slot: once the slot is released, Run may observe every
	// node resolved and close the ready channel, so nothing may send on it
	// afterward.
	for _, dependentID := range s.cfg.Dependents[id] {
		s.mu.Lock()
		inDegree[dependentID]--
		n := inDegree[dependentID]
		st := s.state[dependentID]
		s.mu.Unlock()
		if n == 0 && st == Pending {
			s.setState(dependentID, Ready)
			ready <- dependentID
		}
	}

	s.wg.Done()
}

// resolveFailed marks id Failed and recursively skips every node
// transitively dependent on it, exactly once each, so the WaitGroup always
// reaches zero.
func (s *Scheduler) resolveFailed(ctx context.Context, id string) {
	s.resolveOnce(id, func() {
		s.setState(id, Failed)
		s.notify(id, Failed, s.errs[id])
		s.wg.Done()
	})
	s.skipDependents(ctx, id)
}

// resolveSkippedByCancellation marks id Failed with a cancellation reason
// because the run was cancelled before this node's invoker launched.
func (s *Scheduler) resolveSkippedByCancellation(ctx context.Context, id string) {
	s.resolveOnce(id, func() {
		s.setState(id, Failed)
		s.setErr(id, errCancelled(id))
		s.notify(id, Failed, s.errs[id])
		s.wg.Done()
	})
	s.skipDependents(ctx, id)
}

func (s *Scheduler) skipDependents(ctx context.Context, id string) {
	logger := ctxlog.FromContext(ctx)
	for _, dependentID := range s.cfg.Dependents[id] {
		s.resolveOnce(dependentID, func() {
			logger.Warn("Skipping dependent node due to upstream failure.", "nodeID", dependentID, "dependency", id)
			s.setState(dependentID, Failed)
			s.setErr(dependentID, errSkippedUpstream(dependentID, id))
			s.notify(dependentID, Failed, s.errs[dependentID])
			s.wg.Done()
		})
		s.skipDependents(ctx, dependentID)
	}
}

// resolveOnce runs fn for id at most once across the whole run, guarding
// against both a node's own completion and a later upstream-failure
// cascade racing to resolve the same node.
func (s *Scheduler) resolveOnce(id string, fn func()) {
	s.onceMu.Lock()
	once, ok := s.once[id]
	s.onceMu.Unlock()
	if !ok {
		return
	}
	once.Do(fn)
}

func (s *Scheduler) fail(id, reason string) {
	s.setErr(id, errReason(reason))
	s.extMu.Lock()
	stopped := s.externalStop
	s.extMu.Unlock()
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if !s.failed && !stopped {
		s.failed = true
		s.failNode = id
		s.failReason = reason
		s.cancel()
	}
}

func (s *Scheduler) setState(id string, st State) {
	s.mu.Lock()
	s.state[id] = st
	s.mu.Unlock()
}

func (s *Scheduler) setErr(id string, err error) {
	s.mu.Lock()
	s.errs[id] = err
	s.mu.Unlock()
}

func (s *Scheduler) notify(id string, st State, err error) {
	if s.cfg.Observer == nil {
		return
	}
	s.cfg.Observer(Transition{ID: id, State: st, Err: err})
}

func errReason(reason string) error {
	return fmt.Errorf("%s", reason)
}

func errCancelled(id string) error {
	return fmt.Errorf("node %q cancelled before it started", id)
}

func errSkippedUpstream(id, cause string) error {
	return fmt.Errorf("node %q skipped due to upstream failure of %q", id, cause)
}

func (s *Scheduler) result() Result {
	s.mu.Lock()
	statuses := make(map[string]NodeStatus, len(s.state))
	for id, st := range s.state {
		statuses[id] = NodeStatus{State: st, Start: s.starts[id], Err: s.errs[id]}
	}
	s.mu.Unlock()

	s.failMu.Lock()
	failed := s.failed
	failNode, failReason := s.failNode, s.failReason
	s.failMu.Unlock()

	if failed {
		return Result{Outcome: FailedOutcome, FailedNode: failNode, Reason: failReason, Statuses: statuses}
	}

	s.extMu.Lock()
	stopped := s.externalStop
	s.extMu.Unlock()
	if stopped {
		return Result{Outcome: Cancelled, Statuses: statuses}
	}

	allTargetsDone := true
	s.mu.Lock()
	for _, t := range s.cfg.Targets {
		st, ok := s.state[t]
		if !ok || (st != Done && st != Skipped) {
			allTargetsDone = false
			break
		}
	}
	s.mu.Unlock()
	if allTargetsDone {
		return Result{Outcome: Completed, Statuses: statuses}
	}
	return Result{Outcome: FailedOutcome, FailedNode: "<scheduler>", Reason: "stalled", Statuses: statuses}
}
