package testutil

import "github.com/specialistvlad/atomgrid/internal/procedure"

// SimpleModule is a test helper for easily creating a mock module that
// registers a fixed set of procedures.
type SimpleModule struct {
	Procedures []*procedure.Procedure
}

// Register implements the procedure.Module interface.
func (m *SimpleModule) Register(r *procedure.Registry) error {
	for _, p := range m.Procedures {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}
