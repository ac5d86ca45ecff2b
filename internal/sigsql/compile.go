// Package sigsql compiles signal filters to parameterized SQL for the
// SQLite trace archive.
//
// Every query orders by the change sequence number so results replay in
// capture order regardless of SQLite version or plan. Filter values are
// always parameterized, never interpolated.
package sigsql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hdlkit/hdlkit/internal/sigquery"
)

// ChangesQuery builds the full SELECT for one trace's changes under a
// filter. A nil filter selects every change.
func ChangesQuery(traceID string, f sigquery.Filter) (string, []any, error) {
	where := "trace_id = ?"
	params := []any{traceID}

	if f != nil {
		filterSQL, filterParams, err := CompileFilter(f)
		if err != nil {
			return "", nil, err
		}
		where += " AND " + filterSQL
		params = append(params, filterParams...)
	}

	sql := fmt.Sprintf(
		"SELECT time, signal, width, value FROM changes WHERE %s ORDER BY seq ASC",
		where)
	return sql, params, nil
}

// CompileFilter converts a filter tree to a WHERE clause fragment.
// Returns (sql, params, error). The fragment is parenthesized wherever
// precedence could bite, so callers can conjoin it with their own
// conditions.
func CompileFilter(f sigquery.Filter) (string, []any, error) {
	if f == nil {
		return "", nil, fmt.Errorf("cannot compile nil filter")
	}

	switch flt := f.(type) {
	case sigquery.SignalIs:
		return compileSignalIs(flt)
	case *sigquery.SignalIs:
		return compileSignalIs(*flt)
	case sigquery.SignalIn:
		return compileSignalIn(flt)
	case *sigquery.SignalIn:
		return compileSignalIn(*flt)
	case sigquery.TimeBetween:
		return compileTimeBetween(flt)
	case *sigquery.TimeBetween:
		return compileTimeBetween(*flt)
	case sigquery.ValueIs:
		return compileValueIs(flt)
	case *sigquery.ValueIs:
		return compileValueIs(*flt)
	case sigquery.And:
		return compileList(flt.Filters, " AND ", "1 = 1")
	case *sigquery.And:
		return compileList(flt.Filters, " AND ", "1 = 1")
	case sigquery.Or:
		return compileList(flt.Filters, " OR ", "1 = 0")
	case *sigquery.Or:
		return compileList(flt.Filters, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported filter type %T", f)
	}
}

func compileSignalIs(f sigquery.SignalIs) (string, []any, error) {
	if f.Name == "" {
		return "", nil, fmt.Errorf("SignalIs with empty name")
	}
	return "signal = ?", []any{f.Name}, nil
}

func compileSignalIn(f sigquery.SignalIn) (string, []any, error) {
	if len(f.Names) == 0 {
		return "", nil, fmt.Errorf("SignalIn with no names")
	}
	placeholders := make([]string, len(f.Names))
	params := make([]any, len(f.Names))
	for i, name := range f.Names {
		if name == "" {
			return "", nil, fmt.Errorf("SignalIn contains an empty name")
		}
		placeholders[i] = "?"
		params[i] = name
	}
	return "signal IN (" + strings.Join(placeholders, ", ") + ")", params, nil
}

func compileTimeBetween(f sigquery.TimeBetween) (string, []any, error) {
	if f.From > f.To {
		return "", nil, fmt.Errorf("TimeBetween with From %d after To %d", f.From, f.To)
	}
	return "(time >= ? AND time <= ?)", []any{int64(f.From), int64(f.To)}, nil
}

// Values archive as decimal text, so the comparison happens on the same
// rendering SaveTrace wrote.
func compileValueIs(f sigquery.ValueIs) (string, []any, error) {
	return "value = ?", []any{strconv.FormatUint(f.Value, 10)}, nil
}

func compileList(filters []sigquery.Filter, sep, empty string) (string, []any, error) {
	if len(filters) == 0 {
		return empty, nil, nil
	}

	parts := make([]string, 0, len(filters))
	var allParams []any
	for _, sub := range filters {
		sql, params, err := CompileFilter(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		allParams = append(allParams, params...)
	}
	if len(parts) == 1 {
		return parts[0], allParams, nil
	}
	return "(" + strings.Join(parts, sep) + ")", allParams, nil
}
