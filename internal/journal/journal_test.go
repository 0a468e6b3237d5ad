package journal

import (
	"bytes"
	"strings"
	"testing"

	"scrumline/internal/domain"
)

func TestJournalRendersRunEvents(t *testing.T) {
	var buf bytes.Buffer
	j := New(&buf)

	j.Record(domain.Event{Type: domain.EventRunStarted})
	j.Record(domain.Event{
		Type: domain.EventDayStarted, Day: 1,
		Payload: map[string]any{"weekday": "Mon"},
	})
	j.Record(domain.Event{
		Type: domain.EventStoryAssigned, Day: 1, Hour: 1,
		Story: "login", Actor: "dee", Role: domain.RoleDeveloper,
	})
	j.Record(domain.Event{
		Type: domain.EventStageCompleted, Day: 1, Hour: 7,
		Story: "login", Actor: "dee", Role: domain.RoleDeveloper,
		Payload: map[string]any{"status": domain.StatusResolved},
	})

	out := buf.String()
	for _, want := range []string{
		"Begin simulation",
		"Begin day 1 (Mon)",
		`Assigning story "login" to dee(developer)`,
		`dee(developer) completes work on "login" (now resolved)`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJournalRendersBacklogSnapshot(t *testing.T) {
	var buf bytes.Buffer
	j := New(&buf)

	j.Record(domain.Event{
		Type: domain.EventDayEnded, Day: 1,
		Payload: map[string]any{
			"weekday": "Mon",
			"backlog": []domain.StoryState{
				{Title: "login", Status: domain.StatusActive, Remaining: 3, Assignee: "dee(developer)"},
				{Title: "search", Status: domain.StatusClosed, Remaining: 0},
			},
		},
	})

	out := buf.String()
	for _, want := range []string{"Summary of day 1 (Mon)", "login", "active", "dee(developer)", "search", "closed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJournalStallSummary(t *testing.T) {
	var buf bytes.Buffer
	j := New(&buf)

	j.Record(domain.Event{
		Type: domain.EventRunStalled, Day: 2, Hour: 1,
		Payload: map[string]any{
			"backlog": []domain.StoryState{
				{Title: "login", Status: domain.StatusResolved, Remaining: 1},
			},
		},
	})

	out := buf.String()
	if !strings.Contains(out, "stalled day 2 hour 1") {
		t.Fatalf("output missing stall notice:\n%s", out)
	}
	if !strings.Contains(out, "login") {
		t.Fatalf("output missing backlog row:\n%s", out)
	}
}

func TestJournalIndent(t *testing.T) {
	var buf bytes.Buffer
	j := New(&buf)
	j.Indent(1)
	j.Printf("nested")
	if got := buf.String(); got != "    nested\n" {
		t.Fatalf("got %q, want four-space indent", got)
	}
}
