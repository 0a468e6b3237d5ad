package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"scrumline/internal/domain"
	"scrumline/internal/events"
	"scrumline/internal/repo"
	"scrumline/internal/sim"
)

// Engine wires a simulation run to the workspace store.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Now    func() time.Time
}

func New(db *sql.DB) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// RunSpec carries everything one simulation run needs. Backlog and Team must
// already be normalized by the config package.
type RunSpec struct {
	Backlog          []domain.StorySpec
	Team             []domain.MemberSpec
	PickSmallerFirst bool
	// Record persists the run and its events to the workspace database.
	Record bool
	// Recorder optionally observes events live (a journal, typically).
	Recorder sim.Recorder
}

// Run executes one simulation to its stall point. The returned events are the
// complete stream whether or not the run was recorded.
func (e Engine) Run(ctx context.Context, spec RunSpec) (domain.Run, []domain.Event, error) {
	team, err := sim.BuildTeam(spec.Team)
	if err != nil {
		return domain.Run{}, nil, err
	}
	backlog := sim.NewBacklog(spec.Backlog)

	buf := &events.Buffer{}
	rec := sim.Recorder(buf)
	if spec.Recorder != nil {
		rec = sim.MultiRecorder{buf, spec.Recorder}
	}

	started := e.now().UTC()
	s := sim.New(team, backlog, sim.NewEnvironment(), sim.Options{
		PickSmallerFirst: spec.PickSmallerFirst,
		Recorder:         rec,
	})
	summary, err := s.Run()
	if err != nil {
		return domain.Run{}, nil, err
	}

	run := domain.Run{
		ID:               uuid.New().String(),
		StartedAt:        started.Format(time.RFC3339),
		FinishedAt:       e.now().UTC().Format(time.RFC3339),
		Days:             summary.Days,
		Hours:            summary.Hours,
		StoriesTotal:     summary.StoriesTotal,
		StoriesClosed:    summary.StoriesClosed,
		PickSmallerFirst: spec.PickSmallerFirst,
	}
	if spec.Record {
		if err := e.Events.SaveRun(ctx, run, buf.Events); err != nil {
			return domain.Run{}, nil, err
		}
	}
	return run, buf.Events, nil
}
