// Package journal renders a run's event stream as human-readable progress
// notices. The exact wording is presentation only; the event stream itself is
// the contract.
package journal

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"scrumline/internal/domain"
)

type Journal struct {
	out    io.Writer
	indent int
}

func New(out io.Writer) *Journal {
	return &Journal{out: out}
}

func (j *Journal) Indent(n int) { j.indent += n }

func (j *Journal) Printf(format string, args ...any) {
	for i := 0; i < j.indent; i++ {
		fmt.Fprint(j.out, "    ")
	}
	fmt.Fprintf(j.out, format+"\n", args...)
}

// Record implements sim.Recorder.
func (j *Journal) Record(e domain.Event) {
	switch e.Type {
	case domain.EventRunStarted:
		j.Printf("--- Begin simulation ---------------------------------")
	case domain.EventDayStarted:
		j.Printf("--- Begin day %d (%s)", e.Day, e.Payload["weekday"])
	case domain.EventStoryAssigned:
		j.Printf("Assigning story %q to %s(%s)", e.Story, e.Actor, e.Role)
	case domain.EventStageCompleted:
		j.Printf("%s(%s) completes work on %q (now %s)", e.Actor, e.Role, e.Story, e.Payload["status"])
	case domain.EventDayEnded:
		j.Printf("--- Summary of day %d (%s)", e.Day, e.Payload["weekday"])
		j.backlogPayload(e.Payload)
	case domain.EventRunStalled:
		j.Printf("--- End simulation: stalled day %d hour %d -----------", e.Day, e.Hour)
		j.backlogPayload(e.Payload)
	}
}

func (j *Journal) backlogPayload(payload map[string]any) {
	states, ok := payload["backlog"].([]domain.StoryState)
	if !ok {
		return
	}
	j.BacklogTable(states)
}

// BacklogTable renders a backlog snapshot.
func (j *Journal) BacklogTable(states []domain.StoryState) {
	tw := table.NewWriter()
	tw.SetOutputMirror(j.out)
	tw.AppendHeader(table.Row{"Story", "Status", "Remaining", "Assigned"})
	for _, s := range states {
		tw.AppendRow(table.Row{s.Title, s.Status, s.Remaining, s.Assignee})
	}
	tw.Render()
}
