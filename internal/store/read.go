package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Run is the recorded run row.
type Run struct {
	Scenario string
	State    string
	Verdict  string
	Detail   string
}

// Event is one recorded trace event.
type Event struct {
	Seq    int64  `json:"seq"`
	Phase  string `json:"phase"`
	Detail string `json:"detail"`
}

// ReadRun returns the run row.
func (s *Store) ReadRun(ctx context.Context) (Run, error) {
	var r Run
	var verdict, detail sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT scenario, state, verdict, detail FROM runs WHERE id = 1`).
		Scan(&r.Scenario, &r.State, &verdict, &detail)
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	r.Verdict = verdict.String
	r.Detail = detail.String
	return r, nil
}

// ReadEvents returns all trace events in sequence order.
func (s *Store) ReadEvents(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, phase, detail FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.Phase, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}
