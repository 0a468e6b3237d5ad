package sim

import (
	"scrumline/internal/domain"
)

// Story is one unit of backlog work. It carries the remaining effort hours
// per lifecycle status; effort applied to the current status drains that
// bucket, and crossing zero advances the story and clears its assignee in one
// step. Stories are created at load time and live for the whole run.
type Story struct {
	title    string
	points   int
	status   domain.Status
	initial  map[domain.Status]int
	remain   map[domain.Status]int
	assignee *Capability

	// lastHour guards against a story being drained twice in one hour when
	// it is both a capability's held story and part of another capability's
	// related sweep.
	lastHour int
}

func NewStory(spec domain.StorySpec) *Story {
	status := spec.Status
	if status == "" {
		status = domain.StatusActive
	}
	initial := make(map[domain.Status]int, len(spec.Profile))
	remain := make(map[domain.Status]int, len(spec.Profile))
	for st, hours := range spec.Profile {
		initial[st] = hours
		remain[st] = hours
	}
	return &Story{
		title:    spec.Title,
		points:   spec.Points,
		status:   status,
		initial:  initial,
		remain:   remain,
		lastHour: -1,
	}
}

func (s *Story) Title() string         { return s.title }
func (s *Story) Points() int           { return s.points }
func (s *Story) Status() domain.Status { return s.status }
func (s *Story) String() string        { return s.title }

// Remaining reports the effort hours left in the given status bucket.
func (s *Story) Remaining(st domain.Status) int { return s.remain[st] }

func (s *Story) Assignee() *Capability { return s.assignee }

func (s *Story) Unassigned() bool { return s.assignee == nil }

func (s *Story) assignTo(c *Capability) { s.assignee = c }

// Progress applies work effort hours to the current status bucket during the
// given absolute hour. If the bucket crosses zero the story moves to next and
// the assignee is cleared. A story progresses at most once per hour no matter
// how many capabilities reference it; the report value is false when this
// hour's effort was already applied.
func (s *Story) Progress(work int, next domain.Status, hour int) bool {
	if hour == s.lastHour {
		return false
	}
	s.lastHour = hour
	s.remain[s.status] -= work
	if s.remain[s.status] <= 0 {
		s.status = next
		s.assignee = nil
	}
	return true
}

// Regress sends the story back to an earlier status, modeling a failed deploy
// or a reopened defect. Its effort bucket refills from the initial profile.
// No built-in role triggers this yet.
func (s *Story) Regress(to domain.Status) {
	s.status = to
	s.remain[to] = s.initial[to]
	s.assignee = nil
}

// pickBefore reports whether s should be chosen over other under the given
// tie-break policy. Equal points compare false either way, so backlog scan
// order keeps the earlier candidate.
func (s *Story) pickBefore(other *Story, smallerFirst bool) bool {
	return (s.points < other.points) == smallerFirst
}

// State snapshots the story for summaries and event payloads.
func (s *Story) State() domain.StoryState {
	state := domain.StoryState{
		Title:     s.title,
		Status:    s.status,
		Remaining: s.remain[s.status],
	}
	if s.assignee != nil {
		state.Assignee = s.assignee.String()
	}
	return state
}
