package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderVCD renders a stored change sequence back to VCD text. The leading
// run of changes sharing the earliest time is treated as the $dumpvars
// snapshot, which is exactly how Snapshot lays a trace out.
func RenderVCD(module, timescale string, changes []Change) string {
	s := &Session{module: module, timescale: timescale}
	if len(changes) > 0 {
		s.captured = true
		s.baseTime = changes[0].Time
		i := 0
		for i < len(changes) && changes[i].Time == s.baseTime {
			i++
		}
		s.baseline = changes[:i]
		s.records = changes[i:]
	}
	return s.ToVCD()
}

// idCode maps a variable index to a short VCD identifier: base-94 over the
// printable characters '!'..'~', one or more characters.
func idCode(n int) string {
	var b []byte
	for {
		b = append([]byte{byte('!' + n%94)}, b...)
		n = n/94 - 1
		if n < 0 {
			return string(b)
		}
	}
}

// varOrder derives the declared variables (name, width, code) from the
// buffered records, first appearance first. Rendering depends only on what
// was recorded, so clearing the selection cannot orphan a buffered trace.
func (s *Session) varOrder() ([]Change, map[string]string) {
	var order []Change
	codes := make(map[string]string)
	note := func(c Change) {
		if _, ok := codes[c.Signal]; ok {
			return
		}
		codes[c.Signal] = idCode(len(order))
		order = append(order, c)
	}
	for _, c := range s.baseline {
		note(c)
	}
	for _, c := range s.records {
		note(c)
	}
	return order, codes
}

func (s *Session) writeHeader(b *strings.Builder) {
	order, codes := s.varOrder()
	fmt.Fprintf(b, "$timescale %s $end\n", s.timescale)
	fmt.Fprintf(b, "$scope module %s $end\n", s.module)
	for _, c := range order {
		fmt.Fprintf(b, "$var wire %d %s %s $end\n", c.Width, codes[c.Signal], c.Signal)
	}
	b.WriteString("$upscope $end\n")
	b.WriteString("$enddefinitions $end\n")
}

func (s *Session) writeDumpvars(b *strings.Builder) {
	if !s.captured {
		return
	}
	_, codes := s.varOrder()
	fmt.Fprintf(b, "#%d\n", s.baseTime)
	b.WriteString("$dumpvars\n")
	for _, c := range s.baseline {
		writeValue(b, c, codes[c.Signal])
	}
	b.WriteString("$end\n")
}

// writeSections renders records grouped into #time sections. Records are
// appended in nondecreasing time order, so one forward pass groups them.
func (s *Session) writeSections(b *strings.Builder, records []Change) {
	_, codes := s.varOrder()
	haveTime := false
	var cur uint64
	for _, c := range records {
		if !haveTime || c.Time != cur {
			fmt.Fprintf(b, "#%d\n", c.Time)
			cur = c.Time
			haveTime = true
		}
		writeValue(b, c, codes[c.Signal])
	}
}

func (s *Session) writeSection(b *strings.Builder, now uint64, records []Change) {
	if len(records) == 0 {
		return
	}
	_, codes := s.varOrder()
	fmt.Fprintf(b, "#%d\n", now)
	for _, c := range records {
		writeValue(b, c, codes[c.Signal])
	}
}

// writeValue emits one change line: "<bit><id>" for width 1,
// "b<binary> <id>" for wider signals.
func writeValue(b *strings.Builder, c Change, code string) {
	if c.Width == 1 {
		fmt.Fprintf(b, "%d%s\n", c.Value&1, code)
		return
	}
	fmt.Fprintf(b, "b%s %s\n", strconv.FormatUint(c.Value, 2), code)
}
