package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hdlkit/hdlkit/internal/sigquery"
	"github.com/hdlkit/hdlkit/internal/sigsql"
	"github.com/hdlkit/hdlkit/internal/trace"
)

// QueryChanges returns the changes of one trace that match a filter, in
// recorded order. A nil filter returns every change. The filter is
// validated before compilation so a malformed tree reports all of its
// problems instead of the first SQL error.
func (s *Store) QueryChanges(ctx context.Context, id string, f sigquery.Filter) ([]trace.Change, error) {
	if f != nil {
		if result := sigquery.Validate(f); !result.Valid {
			return nil, fmt.Errorf("query changes %q: invalid filter: %v", id, result.Problems)
		}
	}

	query, params, err := sigsql.ChangesQuery(id, f)
	if err != nil {
		return nil, fmt.Errorf("query changes %q: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query changes %q: %w", id, err)
	}
	defer rows.Close()

	changes := []trace.Change{}
	for rows.Next() {
		var c trace.Change
		var t int64
		var value string
		if err := rows.Scan(&t, &c.Signal, &c.Width, &value); err != nil {
			return nil, fmt.Errorf("query changes %q: scan: %w", id, err)
		}
		c.Time = uint64(t)
		c.Value, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("query changes %q: bad change value: %w", id, err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query changes %q: iterate: %w", id, err)
	}
	return changes, nil
}
