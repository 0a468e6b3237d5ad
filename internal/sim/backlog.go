package sim

import (
	"scrumline/internal/domain"
)

// Backlog is the ordered, fixed collection of stories for a run. Insertion
// order is the tie-break order of last resort, so it is never resorted.
type Backlog struct {
	stories []*Story
}

func NewBacklog(specs []domain.StorySpec) *Backlog {
	stories := make([]*Story, 0, len(specs))
	for _, spec := range specs {
		stories = append(stories, NewStory(spec))
	}
	return &Backlog{stories: stories}
}

func (b *Backlog) Stories() []*Story { return b.stories }

func (b *Backlog) Len() int { return len(b.stories) }

// Find returns, in backlog order, the stories assigned to the given
// capability (nil meaning unassigned) whose status satisfies accept. A nil
// accept matches every status.
func (b *Backlog) Find(accept func(domain.Status) bool, assignee *Capability) []*Story {
	var out []*Story
	for _, story := range b.stories {
		if story.assignee != assignee {
			continue
		}
		if accept == nil || accept(story.status) {
			out = append(out, story)
		}
	}
	return out
}

// CountByStatus tallies stories per current status.
func (b *Backlog) CountByStatus() map[domain.Status]int {
	counts := make(map[domain.Status]int)
	for _, story := range b.stories {
		counts[story.status]++
	}
	return counts
}

// Snapshot captures the state of every story in backlog order.
func (b *Backlog) Snapshot() []domain.StoryState {
	states := make([]domain.StoryState, 0, len(b.stories))
	for _, story := range b.stories {
		states = append(states, story.State())
	}
	return states
}
