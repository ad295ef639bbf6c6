package projections

import (
	"fmt"
	"sort"
)

// ReadModelUpdate is one unit of projection work: the events of a single
// aggregate, ordered ascending by sequence number, addressed to the read model
// whose id is the aggregate identity value. Updates are built per batch and
// discarded after processing.
type ReadModelUpdate struct {
	ReadModelID string
	Envelopes   []Envelope
}

// BuildReadModelUpdates groups a raw event batch into per-read-model update
// units. Events may arrive in any order and may interleave aggregates; within
// each returned update the envelopes are sorted ascending by Version. The
// order of the updates themselves is not significant.
//
// An empty batch is a caller contract violation and returns
// ErrEmptyUpdateBatch. An envelope with Version 0 returns ErrInvalidSequence:
// aggregate sequence numbers start at 1.
func BuildReadModelUpdates(events []Envelope) ([]ReadModelUpdate, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("build read model updates: %w", ErrEmptyUpdateBatch)
	}

	grouped := make(map[string][]Envelope)
	for _, env := range events {
		if env.Version == 0 {
			return nil, fmt.Errorf("build read model updates: stream %q: %w", env.StreamID, ErrInvalidSequence)
		}
		grouped[env.StreamID] = append(grouped[env.StreamID], env)
	}

	updates := make([]ReadModelUpdate, 0, len(grouped))
	for id, envs := range grouped {
		sort.Slice(envs, func(i, j int) bool {
			return envs[i].Version < envs[j].Version
		})
		updates = append(updates, ReadModelUpdate{
			ReadModelID: id,
			Envelopes:   envs,
		})
	}

	return updates, nil
}
