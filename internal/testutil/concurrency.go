package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/procedure"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// Its "sleep" procedure records the execution time of each call, keyed by
// the name of its node argument, and returns that argument.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Record returns the execution record for id.
func (m *MockSleeperModule) Record(id string) (*ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ExecutionTimes[id]
	return r, ok
}

// Register registers the "sleep" procedure.
func (m *MockSleeperModule) Register(r *procedure.Registry) error {
	return r.Register(procedure.New("sleep", procedure.Exactly(1), func(ctx context.Context, call *procedure.Call) (any, error) {
		id := call.Arg(0).String()
		if n, ok := atom.IsNode(call.Arg(0)); ok {
			id = n.Name()
		}

		startTime := time.Now()
		select {
		case <-time.After(m.sleepDuration):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		endTime := time.Now()

		m.mu.Lock()
		m.ExecutionTimes[id] = &ExecutionRecord{Start: startTime, End: endTime}
		m.mu.Unlock()

		if m.completionChan != nil {
			m.completionChan <- id
		}
		return call.Arg(0), nil
	}).WithParams("id"))
}
