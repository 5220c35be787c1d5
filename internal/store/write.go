package store

import (
	"context"
	"fmt"
)

// BeginRun records the scenario this store traces. Must be called once,
// before any state transition or event.
func (s *Store) BeginRun(ctx context.Context, scenario, state string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, state) VALUES (1, ?, ?)`,
		scenario, state)
	if err != nil {
		return fmt.Errorf("begin run %q: %w", scenario, err)
	}
	return nil
}

// SetState records a state-machine transition.
func (s *Store) SetState(ctx context.Context, state string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET state = ? WHERE id = 1`, state)
	if err != nil {
		return fmt.Errorf("set state %q: %w", state, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set state %q: run not begun", state)
	}
	return nil
}

// SetVerdict records the run's final verdict kind and detail.
func (s *Store) SetVerdict(ctx context.Context, kind, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET verdict = ?, detail = ? WHERE id = 1`, kind, detail)
	if err != nil {
		return fmt.Errorf("set verdict %q: %w", kind, err)
	}
	return nil
}

// AppendEvent records one trace event at the given sequence number.
// Sequence numbers come from the harness clock and are unique within a
// run.
func (s *Store) AppendEvent(ctx context.Context, seq int64, phase, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (seq, phase, detail) VALUES (?, ?, ?)`,
		seq, phase, detail)
	if err != nil {
		return fmt.Errorf("append event %d (%s): %w", seq, phase, err)
	}
	return nil
}
