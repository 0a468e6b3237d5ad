package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"scrumline/internal/domain"
)

// ErrNotFound marks lookups that matched no row.
var ErrNotFound = errors.New("not found")

type Repo struct {
	DB *sql.DB
}

// ListRuns returns stored runs, newest first.
func (r Repo) ListRuns(ctx context.Context) ([]domain.Run, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,started_at,finished_at,days,hours,stories_total,stories_closed,pick_smaller_first
		 FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// GetRun returns one stored run by id.
func (r Repo) GetRun(ctx context.Context, id string) (domain.Run, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id,started_at,finished_at,days,hours,stories_total,stories_closed,pick_smaller_first
		 FROM runs WHERE id=?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// EventFilters narrow ListRunEvents.
type EventFilters struct {
	Type  string
	Story string
	Limit int
}

// ListRunEvents returns a run's events in sequence order.
func (r Repo) ListRunEvents(ctx context.Context, runID string, f EventFilters) ([]domain.Event, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	q := `SELECT seq,day,hour,type,story,actor,role,payload_json FROM run_events WHERE run_id=?`
	args := []any{runID}
	if f.Type != "" {
		q += ` AND type=?`
		args = append(args, f.Type)
	}
	if f.Story != "" {
		q += ` AND story=?`
		args = append(args, f.Story)
	}
	q += ` ORDER BY seq`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var story, actor, role sql.NullString
		var payload string
		if err := rows.Scan(&e.Seq, &e.Day, &e.Hour, &e.Type, &story, &actor, &role, &payload); err != nil {
			return nil, err
		}
		e.Story = story.String
		e.Actor = actor.String
		e.Role = domain.Role(role.String)
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
				return nil, fmt.Errorf("event %d payload: %w", e.Seq, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.Run, error) {
	var run domain.Run
	var smaller int
	err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Days, &run.Hours,
		&run.StoriesTotal, &run.StoriesClosed, &smaller)
	if err != nil {
		return domain.Run{}, err
	}
	run.PickSmallerFirst = smaller == 1
	return run, nil
}
