// Package rpgerr defines the error taxonomy shared across the RPG packages.
//
// Each kind maps directly to §7 of the specification: VcsError and
// StoreError are fatal to their enclosing operation, GraphInvariantError
// and ModelError are caught and logged by the Evolver (warn-and-continue),
// and ConfigError is only ever surfaced at the CLI boundary.
package rpgerr

import "fmt"

// VcsError wraps a VcsProbe subprocess failure, timeout, or malformed output.
type VcsError struct {
	Op  string
	Err error
}

func (e *VcsError) Error() string {
	return fmt.Sprintf("vcs: %s: %v", e.Op, e.Err)
}

func (e *VcsError) Unwrap() error { return e.Err }

// NewVcsError constructs a VcsError for the given operation.
func NewVcsError(op string, err error) *VcsError {
	return &VcsError{Op: op, Err: err}
}

// GraphInvariantError reports a violation of a graph invariant: a
// duplicate ID on insert, a missing edge endpoint, or the removal of a
// node that does not exist via the facade.
type GraphInvariantError struct {
	Op     string
	NodeID string
	Err    error
}

func (e *GraphInvariantError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("graph invariant violated: %s (node=%s): %v", e.Op, e.NodeID, e.Err)
	}
	return fmt.Sprintf("graph invariant violated: %s: %v", e.Op, e.Err)
}

func (e *GraphInvariantError) Unwrap() error { return e.Err }

// NewGraphInvariantError constructs a GraphInvariantError.
func NewGraphInvariantError(op, nodeID string, err error) *GraphInvariantError {
	return &GraphInvariantError{Op: op, NodeID: nodeID, Err: err}
}

// StoreError wraps an I/O or transactional failure at the storage layer.
// It is fatal: it aborts the evolution pass that triggered it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError constructs a StoreError for the given operation.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// ModelError wraps a Describer/Embedder failure. It is non-fatal: callers
// fall back to the deterministic heuristic or Jaccard similarity.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model: %s: %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError constructs a ModelError.
func NewModelError(op string, err error) *ModelError {
	return &ModelError{Op: op, Err: err}
}

// ConfigError reports a missing or invalid .rpg/config.json. It is only
// ever surfaced at the CLI boundary.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError constructs a ConfigError.
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}
