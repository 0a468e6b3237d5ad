package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"scrumline/internal/domain"
)

// Buffer collects a run's events in memory. It implements sim.Recorder.
type Buffer struct {
	Events []domain.Event
}

func (b *Buffer) Record(e domain.Event) {
	b.Events = append(b.Events, e)
}

// Writer persists runs and their event streams.
type Writer struct {
	DB *sql.DB
}

// SaveRun inserts the run row and its events in one transaction.
func (w Writer) SaveRun(ctx context.Context, run domain.Run, evts []domain.Event) error {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id,started_at,finished_at,days,hours,stories_total,stories_closed,pick_smaller_first) VALUES (?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.Days, run.Hours, run.StoriesTotal, run.StoriesClosed, boolInt(run.PickSmallerFirst)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, e := range evts {
		if err := w.Append(ctx, tx, run.ID, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Append writes one event within the given transaction.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, runID string, e domain.Event) error {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_events(run_id,seq,day,hour,type,story,actor,role,payload_json) VALUES (?,?,?,?,?,?,?,?,?)`,
		runID, e.Seq, e.Day, e.Hour, e.Type, nullable(e.Story), nullable(e.Actor), nullable(string(e.Role)), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
