package sim

import (
	"scrumline/internal/domain"
)

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayName maps a day number to its weekday label (day 1 is a Monday).
func WeekdayName(day int) string { return weekdayNames[day%7] }

// Options tune one simulation run.
type Options struct {
	// PickSmallerFirst flips the tie-break between eligible stories: false
	// (the default) prefers larger point estimates.
	PickSmallerFirst bool
	// HoursPerDay is the length of a working day. Defaults to 7.
	HoursPerDay int
	// Recorder receives the event stream. Nil discards it.
	Recorder Recorder
}

// Summary describes a finished run.
type Summary struct {
	Days          int
	Hours         int
	StoriesTotal  int
	StoriesClosed int
}

// Simulation drives the team against the backlog one hour at a time until no
// capability can find eligible work.
type Simulation struct {
	team    []*Capability
	backlog *Backlog
	env     *Environment
	opts    Options
	rec     Recorder

	hour int // absolute hour counter, shared dedup token
	seq  int
}

func New(team []*Capability, backlog *Backlog, env *Environment, opts Options) *Simulation {
	if opts.HoursPerDay <= 0 {
		opts.HoursPerDay = 7
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Simulation{
		team:    team,
		backlog: backlog,
		env:     env,
		opts:    opts,
		rec:     rec,
	}
}

func (s *Simulation) Environment() *Environment { return s.env }
func (s *Simulation) Backlog() *Backlog         { return s.backlog }

func (s *Simulation) emit(day, hour int, typ string, cap *Capability, story *Story, payload map[string]any) {
	s.seq++
	e := domain.Event{
		Seq:     s.seq,
		Day:     day,
		Hour:    hour,
		Type:    typ,
		Payload: payload,
	}
	if cap != nil {
		e.Actor = cap.Name()
		e.Role = cap.Role()
	}
	if story != nil {
		e.Story = story.Title()
	}
	s.rec.Record(e)
}

// assignment is the transient hour-scoped binding of a capability to the
// story it is advancing.
type assignment struct {
	cap   *Capability
	story *Story
	done  bool
}

// RunHour executes one simulated hour: every capability decides what to work
// (off-shift ones as a dry run, so blocked-versus-stalled stays observable),
// then all progress is applied, then completed stages release their
// resources. The phases are strictly ordered so no capability's pick can see
// another's progress within the same hour. The report value is false only
// when no capability, on shift or not, could find eligible work.
func (s *Simulation) RunHour(day, weekday, hour int) (bool, error) {
	progressPossible := false
	var asgs []assignment
	for _, cap := range s.team {
		onShift := cap.AvailableOn(weekday)
		story, picked, err := cap.GrabNextStory(s.backlog, s.env, s.opts.PickSmallerFirst, !onShift)
		if err != nil {
			return false, err
		}
		if story == nil {
			continue
		}
		progressPossible = true
		if !onShift {
			continue
		}
		if picked {
			s.emit(day, hour, domain.EventStoryAssigned, cap, story, map[string]any{
				"points": story.Points(),
				"status": story.Status(),
			})
		}
		asgs = append(asgs, assignment{cap: cap, story: story})
	}

	s.hour++
	for i := range asgs {
		for _, p := range asgs[i].cap.ProgressOneHour(s.backlog, s.hour) {
			if p.Applied {
				s.emit(day, hour, domain.EventStoryProgress, asgs[i].cap, p.Story, map[string]any{
					"status":    p.Story.Status(),
					"remaining": p.Story.Remaining(p.Story.Status()),
				})
			}
			if p.Applied && p.Completed {
				s.emit(day, hour, domain.EventStageCompleted, asgs[i].cap, p.Story, map[string]any{
					"status": p.Story.Status(),
				})
			}
			if p.Story == asgs[i].story && p.Completed {
				asgs[i].done = true
			}
		}
	}

	for i := range asgs {
		if !asgs[i].done {
			continue
		}
		if err := asgs[i].cap.JobDone(s.env); err != nil {
			return false, err
		}
	}
	return progressPossible, nil
}

// Run executes working days of HoursPerDay hours, skipping weekends, until
// the first hour in which nobody can make progress. That stall is the single
// stopping condition; an infeasible backlog terminates through it as well,
// once no further transition is reachable.
func (s *Simulation) Run() (Summary, error) {
	s.emit(0, 0, domain.EventRunStarted, nil, nil, map[string]any{
		"stories":            s.backlog.Len(),
		"capabilities":       len(s.team),
		"pick_smaller_first": s.opts.PickSmallerFirst,
	})
	day := 0
	for {
		day++
		weekday := day % 7
		if weekday < 1 || weekday > 5 {
			continue
		}
		s.emit(day, 0, domain.EventDayStarted, nil, nil, map[string]any{
			"weekday": WeekdayName(day),
		})
		for hour := 1; hour <= s.opts.HoursPerDay; hour++ {
			ok, err := s.RunHour(day, weekday, hour)
			if err != nil {
				return Summary{}, err
			}
			if !ok {
				s.emit(day, hour, domain.EventRunStalled, nil, nil, map[string]any{
					"backlog": s.backlog.Snapshot(),
				})
				return s.summary(day), nil
			}
		}
		s.emit(day, s.opts.HoursPerDay, domain.EventDayEnded, nil, nil, map[string]any{
			"weekday": WeekdayName(day),
			"backlog": s.backlog.Snapshot(),
		})
	}
}

func (s *Simulation) summary(day int) Summary {
	return Summary{
		Days:          day,
		Hours:         s.hour,
		StoriesTotal:  s.backlog.Len(),
		StoriesClosed: s.backlog.CountByStatus()[domain.StatusClosed],
	}
}
