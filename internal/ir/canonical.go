package ir

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for content hashing: object keys
// sorted by UTF-16 code units, strings NFC normalized, no HTML escaping, no
// floats, no null. This is the only serialization used for identity
// computation; the interchange form in marshal.go is free to differ in
// whitespace and field order.
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case uint64:
		return []byte(strconv.FormatUint(val, 10)), nil
	case SignalID:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	// Sort by UTF-16 code units, not UTF-8 bytes.
	sort.Slice(keys, func(i, j int) bool {
		return lessUTF16(keys[i], keys[j])
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(marshalCanonicalString(k))
		buf.WriteByte(':')
		b, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// lessUTF16 compares strings by UTF-16 code units.
func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// marshalCanonicalString NFC-normalizes and escapes a string without HTML
// escaping. Only the characters JSON requires escaping are escaped.
func marshalCanonicalString(s string) []byte {
	s = norm.NFC.String(s)
	var buf bytes.Buffer
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&buf, `\u%04x`, r)
			} else {
				var tmp [utf8.UTFMax]byte
				n := utf8.EncodeRune(tmp[:], r)
				buf.Write(tmp[:n])
			}
		}
	}
	buf.WriteByte('"')
	return buf.Bytes()
}

// canonicalMap flattens a design into the map tree fed to MarshalCanonical.
// Slice order is preserved: expression and register order is semantic.
func (d *Design) canonicalMap() map[string]any {
	signals := make([]any, len(d.Signals))
	for i, s := range d.Signals {
		signals[i] = map[string]any{
			"id":    s.ID,
			"name":  s.Name,
			"width": s.Width,
			"kind":  string(s.Kind),
		}
	}
	exprs := make([]any, len(d.Exprs))
	for i, e := range d.Exprs {
		m := map[string]any{
			"op":  string(e.Op),
			"out": e.Out,
		}
		if len(e.Args) > 0 {
			args := make([]any, len(e.Args))
			for j, a := range e.Args {
				args[j] = a
			}
			m["args"] = args
		}
		switch e.Op {
		case OpConst:
			m["imm"] = e.Imm
		case OpSlice:
			m["lo"] = e.Lo
			m["hi"] = e.Hi
		case OpCase:
			cases := make([]any, len(e.Cases))
			for j, c := range e.Cases {
				cases[j] = c
			}
			m["cases"] = cases
		}
		exprs[i] = m
	}
	regs := make([]any, len(d.Registers))
	for i, r := range d.Registers {
		m := map[string]any{
			"data":  r.Data,
			"clock": r.Clock,
			"out":   r.Out,
		}
		if r.HasReset() {
			m["reset"] = r.Reset
			m["reset_value"] = r.ResetValue
		}
		if r.HasEnable() {
			m["enable"] = r.Enable
		}
		regs[i] = m
	}
	ports := func(names []string) []any {
		out := make([]any, len(names))
		for i, n := range names {
			out[i] = n
		}
		return out
	}
	return map[string]any{
		"name":      d.Name,
		"inputs":    ports(d.Inputs),
		"outputs":   ports(d.Outputs),
		"signals":   signals,
		"exprs":     exprs,
		"registers": regs,
	}
}
