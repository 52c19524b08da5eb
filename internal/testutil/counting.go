package testutil

import (
	"context"
	"sync/atomic"

	"github.com/specialistvlad/atomgrid/internal/procedure"
)

// CountingModule registers a copy of each wrapped procedure that counts its
// invocations.
type CountingModule struct {
	wrapped []*procedure.Procedure
	calls   map[string]*atomic.Int64
}

// NewCountingModule wraps procs.
func NewCountingModule(procs ...*procedure.Procedure) *CountingModule {
	m := &CountingModule{calls: make(map[string]*atomic.Int64, len(procs))}
	for _, p := range procs {
		counter := &atomic.Int64{}
		m.calls[p.Name] = counter
		fn := p.Fn
		cp := *p
		cp.Fn = func(ctx context.Context, call *procedure.Call) (any, error) {
			counter.Add(1)
			return fn(ctx, call)
		}
		m.wrapped = append(m.wrapped, &cp)
	}
	return m
}

// Calls returns how many times the named procedure ran.
func (m *CountingModule) Calls(name string) int {
	if c, ok := m.calls[name]; ok {
		return int(c.Load())
	}
	return 0
}

// Register implements the procedure.Module interface.
func (m *CountingModule) Register(r *procedure.Registry) error {
	for _, p := range m.wrapped {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}
