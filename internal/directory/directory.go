// Package directory answers which counties the service covers in a state.
package directory

import (
	"context"

	"github.com/law-makers/taxcert/internal/adapter"
)

// Directory lists the enabled counties of a state.
type Directory interface {
	Counties(ctx context.Context, state string) ([]adapter.County, error)
	Close() error
}

// Memory serves the directory straight from the adapter registry.
type Memory struct {
	registry *adapter.Registry
}

// NewMemory creates a directory backed by registry.
func NewMemory(registry *adapter.Registry) *Memory {
	return &Memory{registry: registry}
}

// Counties returns the registered counties of state ordered by path.
func (m *Memory) Counties(ctx context.Context, state string) ([]adapter.County, error) {
	out := m.registry.Counties(state)
	if out == nil {
		out = []adapter.County{}
	}
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
