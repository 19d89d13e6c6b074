package testutil

import (
	"sync"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/aggregates"
	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
)

// WriteRecorder keeps every aggregate write outcome for assertions.
type WriteRecorder struct {
	mu       sync.Mutex
	outcomes []aggregates.WriteOutcome
}

var _ aggregates.Hooks = (*WriteRecorder)(nil)

func (r *WriteRecorder) RecordWrite(o aggregates.WriteOutcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

func (r *WriteRecorder) Outcomes() []aggregates.WriteOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]aggregates.WriteOutcome(nil), r.outcomes...)
}

// Count returns how many writes ended with code; "" counts successes.
func (r *WriteRecorder) Count(code domainagg.ErrorCode) int {
	n := 0
	for _, o := range r.Outcomes() {
		if o.Code == code {
			n++
		}
	}
	return n
}
