package sim

import (
	"scrumline/internal/domain"
)

// Recorder receives the event stream of a run as it happens. Implementations
// must not mutate the event.
type Recorder interface {
	Record(e domain.Event)
}

// MultiRecorder fans one event out to several recorders in order.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(e domain.Event) {
	for _, r := range m {
		r.Record(e)
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.Event) {}
