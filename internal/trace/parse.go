package trace

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ParseVCD decodes VCD text produced by this package (or any conforming
// writer) back into the exact (time, signal, value) sequence, dumpvars
// snapshot included. It is the round-trip inverse of ToVCD.
func ParseVCD(text string) ([]Change, error) {
	sc := bufio.NewScanner(strings.NewReader(text))
	byCode := make(map[string]Change) // template: name+width per id code
	var out []Change
	var now uint64
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || line == "$dumpvars" || line == "$end" ||
			line == "$upscope $end" || line == "$enddefinitions $end":
			continue
		case strings.HasPrefix(line, "$timescale") || strings.HasPrefix(line, "$scope"):
			continue
		case strings.HasPrefix(line, "$var"):
			// $var wire <width> <id> <name> $end
			fields := strings.Fields(line)
			if len(fields) != 6 || fields[1] != "wire" || fields[5] != "$end" {
				return nil, fmt.Errorf("vcd line %d: malformed $var: %q", lineNo, line)
			}
			width, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("vcd line %d: bad width: %w", lineNo, err)
			}
			byCode[fields[3]] = Change{Signal: fields[4], Width: width}
		case strings.HasPrefix(line, "#"):
			t, err := strconv.ParseUint(line[1:], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("vcd line %d: bad time marker: %w", lineNo, err)
			}
			now = t
		case strings.HasPrefix(line, "b"):
			// b<binary> <id>
			rest := line[1:]
			sp := strings.IndexByte(rest, ' ')
			if sp < 0 {
				return nil, fmt.Errorf("vcd line %d: malformed vector change: %q", lineNo, line)
			}
			v, err := strconv.ParseUint(rest[:sp], 2, 64)
			if err != nil {
				return nil, fmt.Errorf("vcd line %d: bad binary value: %w", lineNo, err)
			}
			tmpl, ok := byCode[rest[sp+1:]]
			if !ok {
				return nil, fmt.Errorf("vcd line %d: undeclared identifier %q", lineNo, rest[sp+1:])
			}
			tmpl.Time = now
			tmpl.Value = v
			out = append(out, tmpl)
		case line[0] == '0' || line[0] == '1':
			tmpl, ok := byCode[line[1:]]
			if !ok {
				return nil, fmt.Errorf("vcd line %d: undeclared identifier %q", lineNo, line[1:])
			}
			tmpl.Time = now
			tmpl.Value = uint64(line[0] - '0')
			out = append(out, tmpl)
		default:
			return nil, fmt.Errorf("vcd line %d: unrecognized line %q", lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning vcd: %w", err)
	}
	return out, nil
}
