package orders

import (
	"fmt"
	"sort"
)

// Replay reconstructs the state and version reached by applying transitions
// in timestamp order, starting from draft at version 0.
func Replay(transitions []OrderTransition) (State, int, error) {
	sorted := make([]OrderTransition, len(transitions))
	copy(sorted, transitions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Version < sorted[j].Version
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	state, version := StateDraft, 0
	for _, tr := range sorted {
		if tr.FromState != state {
			return state, version, fmt.Errorf("transition v%d starts at %s, replay is at %s", tr.Version, tr.FromState, state)
		}
		next, ok := Next(state, tr.Event)
		if !ok || next != tr.ToState {
			return state, version, fmt.Errorf("transition v%d %s -> %s is not allowed by %s", tr.Version, tr.FromState, tr.ToState, tr.Event)
		}
		state = next
		version = tr.Version
	}
	return state, version, nil
}
