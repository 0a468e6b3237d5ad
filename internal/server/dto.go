package server

import (
	"scrumline/internal/domain"
)

// RunOptions tune a submitted simulation run.
type RunOptions struct {
	PickSmallerFirst bool `json:"pick_smaller_first,omitempty"`
}

// CreateRunRequest submits a backlog and team for simulation.
type CreateRunRequest struct {
	Backlog []domain.StorySpec `json:"backlog"`
	Team    []domain.MemberSpec `json:"team"`
	Options RunOptions          `json:"options,omitempty"`
}

// RunResponse is the stored summary of a finished run.
type RunResponse struct {
	ID               string `json:"id"`
	StartedAt        string `json:"started_at"`
	FinishedAt       string `json:"finished_at"`
	Days             int    `json:"days"`
	Hours            int    `json:"hours"`
	StoriesTotal     int    `json:"stories_total"`
	StoriesClosed    int    `json:"stories_closed"`
	PickSmallerFirst bool   `json:"pick_smaller_first"`
}

func runResponse(run domain.Run) RunResponse {
	return RunResponse{
		ID:               run.ID,
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
		Days:             run.Days,
		Hours:            run.Hours,
		StoriesTotal:     run.StoriesTotal,
		StoriesClosed:    run.StoriesClosed,
		PickSmallerFirst: run.PickSmallerFirst,
	}
}

func mapRuns(runs []domain.Run) []RunResponse {
	out := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse(run))
	}
	return out
}
