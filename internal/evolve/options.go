// Package evolve implements the Evolution Engine: given a commit range, it
// reconciles an RPG against the new repository state via a strict
// delete -> modify -> insert schedule. Grounded on spec §4.7 and on
// the internal/shards orchestration style (options record,
// result-with-counters, per-item failure isolation with warn-and-continue
// logging).
package evolve

import (
	"github.com/google/uuid"
)

// DefaultDriftThreshold is the similarity-drift cutoff above which a
// modified entity is rerouted rather than updated in place (spec §4.7:
// "driftThreshold ∈ [0,1] (default 0.4)").
const DefaultDriftThreshold = 0.4

// Options configures one evolution pass.
type Options struct {
	RepoPath       string
	CommitRange    string
	DriftThreshold float64
	UseLLM         bool
	IncludeSource  bool
}

// WithDefaults returns a copy of o with DriftThreshold defaulted to
// DefaultDriftThreshold when zero.
func (o Options) WithDefaults() Options {
	if o.DriftThreshold == 0 {
		o.DriftThreshold = DefaultDriftThreshold
	}
	return o
}

// Result reports what one evolution pass did, per spec §4.7.
type Result struct {
	RunID       uuid.UUID
	Inserted    int
	Deleted     int
	Modified    int
	Rerouted    int
	PrunedNodes int
	LLMCalls    int
	DurationMS  int64
}
