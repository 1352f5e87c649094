package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory Store for scheduler tests.
type memStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string][]byte)}
}

func (s *memStore) Put(id string, v []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = v
	return nil
}

func (s *memStore) GetBlob(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[id]
	return v, ok
}

func buildConfig(store *memStore, nodes map[string]Node, seeded map[string][]byte, targets []string) Config {
	dependents := make(map[string][]string)
	inDegree := make(map[string]int)
	var order []string
	for id, n := range nodes {
		inDegree[id] = len(n.Deps)
		order = append(order, id)
		for _, dep := range n.Deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}
	return Config{
		Nodes:      nodes,
		Seeded:     seeded,
		Dependents: dependents,
		InDegree:   inDegree,
		Order:      order,
		Targets:    targets,
		Store:      store,
	}
}

func TestSchedulerLinearChainCompletes(t *testing.T) {
	store := newMemStore()
	nodes := map[string]Node{
		"A": {ID: "A", Run: func(ctx context.Context, deps [][]byte) ([]byte, error) {
			return []byte("a"), nil
		}},
		"B": {ID: "B", Deps: []string{"A"}, Run: func(ctx context.Context, deps [][]byte) ([]byte, error) {
			return append(deps[0], 'b'), nil
		}},
	}
	cfg := buildConfig(store, nodes, nil, []string{"B"})

	result := New(cfg).Run(context.Background(), make(chan struct{}))
	require.Equal(t, Completed, result.Outcome)

	b, ok := store.GetBlob("B")
	require.True(t, ok)
	assert.Equal(t, []byte("ab"), b)
}

func TestSchedulerFailurePropagatesToDependents(t *testing.T) {
	store := newMemStore()
	nodes := map[string]Node{
		"A": {ID: "A", Run: func(ctx context.Context, deps [][]byte) ([]byte, error) { return []byte("a"), nil }},
		"B": {ID: "B", Deps: []string{"A"}, Run: func(ctx context.Context, deps [][]byte) ([]byte, error) {
			return nil, assert.AnError
		}},
		"C": {ID: "C", Deps: []string{"B"}, Run: func(ctx context.Context, deps [][]byte) ([]byte, error) {
			return []byte("c"), nil
		}},
	}
	cfg := buildConfig(store, nodes, nil, []string{"C"})

	result := New(cfg).Run(context.Background(), make(chan struct{}))
	require.Equal(t, FailedOutcome, result.Outcome)
	assert.Equal(t, "B", result.FailedNode)

	_, hasB := store.GetBlob("B")
	_, hasC := store.GetBlob("C")
	assert.False(t, hasB)
	assert.False(t, hasC)
	assert.Equal(t, Failed, result.Statuses["C"].State)
}

func TestSchedulerCancellationBeforeDispatchSkipsNode(t *testing.T) {
	store := newMemStore()
	started := make(chan struct{})
	unblock := make(chan struct{})

	nodes := map[string]Node{
		"A": {ID: "A", Run: func(ctx context.Context, deps [][]byte) ([]byte, error) {
			close(started)
			<-unblock
			return []byte("a"), nil
		}},
		"B": {ID: "B", Deps: []string{"A"}, Run: func(ctx context.Context, deps [][]byte) ([]byte, error) {
			t.Error("B must not run once the scheduler was stopped")
			return nil, nil
		}},
	}
	cfg := buildConfig(store, nodes, nil, []string{"B"})

	stop := make(chan struct{})
	var result Result
	done := make(chan struct{})
	go func() {
		result = New(cfg).Run(context.Background(), stop)
		close(done)
	}()

	<-started
	close(stop)
	time.Sleep(20 * time.Millisecond)
	close(unblock)
	<-done

	assert.Equal(t, Cancelled, result.Outcome)
}

func TestSchedulerSeededNodeIsNeverInvoked(t *testing.T) {
	store := newMemStore()
	store.values["A"] = []byte("seed")

	called := false
	nodes := map[string]Node{
		"B": {ID: "B", Deps: []string{"A"}, Run: func(ctx context.Context, deps [][]byte) ([]byte, error) {
			called = true
			return deps[0], nil
		}},
	}
	cfg := buildConfig(store, nodes, map[string][]byte{"A": []byte("seed")}, []string{"B"})

	result := New(cfg).Run(context.Background(), make(chan struct{}))
	require.Equal(t, Completed, result.Outcome)
	assert.Equal(t, Skipped, result.Statuses["A"].State)
	_ = called
}

func TestSchedulerEmptyTargetsCompletesImmediately(t *testing.T) {
	store := newMemStore()
	cfg := buildConfig(store, map[string]Node{}, nil, nil)

	result := New(cfg).Run(context.Background(), make(chan struct{}))
	assert.Equal(t, Completed, result.Outcome)
}
