package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hdlkit/hdlkit/internal/trace"
)

// TraceMeta describes one archived trace.
type TraceMeta struct {
	ID         string
	DesignName string
	DesignHash string
	Backend    string
	Timescale  string
	CreatedAt  time.Time
}

// SaveTrace archives a change sequence under a fresh ID and returns it. The
// metadata row and every change insert in one transaction, so a trace is
// either fully archived or absent.
func (s *Store) SaveTrace(ctx context.Context, meta TraceMeta, changes []trace.Change) (string, error) {
	id := meta.ID
	if id == "" {
		id = s.newID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save trace: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO traces (id, design_name, design_hash, backend, timescale, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		id,
		meta.DesignName,
		meta.DesignHash,
		meta.Backend,
		meta.Timescale,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("save trace: insert meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO changes (trace_id, seq, time, signal, width, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("save trace: prepare changes: %w", err)
	}
	defer stmt.Close()

	for seq, c := range changes {
		_, err := stmt.ExecContext(ctx, id, seq, int64(c.Time), c.Signal, c.Width,
			strconv.FormatUint(c.Value, 10))
		if err != nil {
			return "", fmt.Errorf("save trace: insert change %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save trace: commit: %w", err)
	}
	return id, nil
}

// ListTraces returns metadata for every archived trace, oldest first, ID
// breaking ties so the order is stable.
func (s *Store) ListTraces(ctx context.Context) ([]TraceMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, design_name, design_hash, backend, timescale, created_at
		FROM traces
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	defer rows.Close()

	var metas []TraceMeta
	for rows.Next() {
		m, err := scanMeta(rows.Scan)
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	if metas == nil {
		metas = []TraceMeta{}
	}
	return metas, nil
}

// GetTrace returns one archived trace and its changes in recorded order.
// Returns sql.ErrNoRows (wrapped) if the ID is unknown.
func (s *Store) GetTrace(ctx context.Context, id string) (TraceMeta, []trace.Change, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, design_name, design_hash, backend, timescale, created_at
		FROM traces
		WHERE id = ?
	`, id)
	meta, err := scanMeta(row.Scan)
	if err != nil {
		return TraceMeta{}, nil, fmt.Errorf("get trace %q: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT time, signal, width, value
		FROM changes
		WHERE trace_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return TraceMeta{}, nil, fmt.Errorf("get trace %q: query changes: %w", id, err)
	}
	defer rows.Close()

	var changes []trace.Change
	for rows.Next() {
		var c trace.Change
		var t int64
		var value string
		if err := rows.Scan(&t, &c.Signal, &c.Width, &value); err != nil {
			return TraceMeta{}, nil, fmt.Errorf("get trace %q: scan change: %w", id, err)
		}
		c.Time = uint64(t)
		c.Value, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return TraceMeta{}, nil, fmt.Errorf("get trace %q: bad change value: %w", id, err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return TraceMeta{}, nil, fmt.Errorf("get trace %q: iterate changes: %w", id, err)
	}
	return meta, changes, nil
}

// DeleteTrace removes a trace and its changes. Deleting an unknown ID is a
// no-op.
func (s *Store) DeleteTrace(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM traces WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete trace %q: %w", id, err)
	}
	return nil
}

func scanMeta(scan func(...any) error) (TraceMeta, error) {
	var m TraceMeta
	var created string
	if err := scan(&m.ID, &m.DesignName, &m.DesignHash, &m.Backend, &m.Timescale, &created); err != nil {
		return TraceMeta{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return TraceMeta{}, fmt.Errorf("parse created_at: %w", err)
	}
	m.CreatedAt = t
	return m, nil
}
