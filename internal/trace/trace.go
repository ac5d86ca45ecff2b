package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hdlkit/hdlkit/internal/ir"
)

// TraceIOError reports a streaming sink failure. The in-memory session and
// the simulation it observes are left intact; recovery is the caller's
// call.
type TraceIOError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TraceIOError) Error() string {
	return fmt.Sprintf("trace %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying sink error.
func (e *TraceIOError) Unwrap() error { return e.Err }

// IsTraceIO reports whether err is (or wraps) a sink failure.
func IsTraceIO(err error) bool {
	var te *TraceIOError
	return errors.As(err, &te)
}

// Change is one recorded value change.
type Change struct {
	Time   uint64
	Signal string
	Width  int
	Value  uint64
}

// ClearMode selects what Clear resets. Modes combine with bitwise or; the
// enabled flag is never touched by Clear.
type ClearMode int

const (
	// ClearBuffer drops buffered changes and the initial snapshot, so the
	// next Capture re-baselines every selected signal.
	ClearBuffer ClearMode = 1 << iota
	// ClearSelection drops the signal selection.
	ClearSelection
	// ClearAll drops both.
	ClearAll = ClearBuffer | ClearSelection
)

// Session observes one simulation through a read callback. All methods are
// synchronous; there is no background flushing.
type Session struct {
	signals []ir.Signal
	byName  map[string]ir.SignalID
	read    func(ir.SignalID) uint64

	timescale string
	module    string

	selected []ir.SignalID
	inSel    map[ir.SignalID]bool

	enabled  bool
	captured bool
	baseTime uint64
	baseline []Change
	records  []Change
	last     map[ir.SignalID]uint64

	// headerSent tracks whether the VCD header has been emitted to the
	// incremental consumer (chunks or stream).
	headerSent bool
	sink       io.Writer
	sinkCloser io.Closer
}

// NewSession creates a disarmed session over the given signal arena.
// read must return the signal's current value; it is only called during
// Capture.
func NewSession(module string, signals []ir.Signal, read func(ir.SignalID) uint64) *Session {
	byName := make(map[string]ir.SignalID, len(signals))
	for _, s := range signals {
		byName[s.Name] = s.ID
	}
	return &Session{
		signals:   signals,
		byName:    byName,
		read:      read,
		timescale: "1ns",
		module:    module,
		inSel:     make(map[ir.SignalID]bool),
		last:      make(map[ir.SignalID]uint64),
	}
}

// SetTimescale overrides the $timescale declaration (default "1ns").
func (s *Session) SetTimescale(ts string) { s.timescale = ts }

// Add selects a signal by exact name.
func (s *Session) Add(name string) error {
	id, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("trace: unknown signal %q", name)
	}
	s.addID(id)
	return nil
}

// AddPattern selects every signal whose name contains the substring and
// returns the match count. Zero matches is a valid empty result, not an
// error.
func (s *Session) AddPattern(substr string) int {
	n := 0
	for _, sig := range s.signals {
		if strings.Contains(sig.Name, substr) {
			s.addID(sig.ID)
			n++
		}
	}
	return n
}

// AddAll selects every signal in the design.
func (s *Session) AddAll() {
	for _, sig := range s.signals {
		s.addID(sig.ID)
	}
}

func (s *Session) addID(id ir.SignalID) {
	if !s.inSel[id] {
		s.inSel[id] = true
		s.selected = append(s.selected, id)
	}
}

// Selected returns the selected signal names in selection order.
func (s *Session) Selected() []string {
	out := make([]string, len(s.selected))
	for i, id := range s.selected {
		out[i] = s.signals[id].Name
	}
	return out
}

// Start enables recording. Arming is just having a selection; capturing
// with an empty selection records nothing.
func (s *Session) Start() { s.enabled = true }

// Stop disables recording and closes a streaming sink if one is open.
// Buffered changes survive for rendering.
func (s *Session) Stop() error {
	s.enabled = false
	if s.sinkCloser != nil {
		err := s.sinkCloser.Close()
		s.sinkCloser = nil
		s.sink = nil
		if err != nil {
			return &TraceIOError{Op: "close", Err: err}
		}
	}
	s.sink = nil
	return nil
}

// Enabled reports whether Capture currently records.
func (s *Session) Enabled() bool { return s.enabled }

// Clear resets buffered changes and/or the selection, independently of the
// enabled flag.
func (s *Session) Clear(mode ClearMode) {
	if mode&ClearBuffer != 0 {
		s.captured = false
		s.baseline = nil
		s.records = nil
		s.last = make(map[ir.SignalID]uint64)
		s.headerSent = false
	}
	if mode&ClearSelection != 0 {
		s.selected = nil
		s.inSel = make(map[ir.SignalID]bool)
	}
}

// Capture compares every selected signal against its last recorded value
// and appends sparse change records. The first capture snapshots all
// selected signals instead. In streaming mode the new records are written
// to the sink immediately; a write failure is reported without corrupting
// the session.
func (s *Session) Capture(now uint64) error {
	if !s.enabled {
		return nil
	}
	if !s.captured {
		s.baseTime = now
		for _, id := range s.selected {
			v := s.read(id)
			sig := s.signals[id]
			s.baseline = append(s.baseline, Change{Time: now, Signal: sig.Name, Width: sig.Width, Value: v})
			s.last[id] = v
		}
		s.captured = true
		return s.flushStream(nil, now)
	}

	var fresh []Change
	for _, id := range s.selected {
		v := s.read(id)
		if prev, ok := s.last[id]; ok && prev == v {
			continue
		}
		sig := s.signals[id]
		fresh = append(fresh, Change{Time: now, Signal: sig.Name, Width: sig.Width, Value: v})
		s.last[id] = v
	}
	if s.sink == nil {
		s.records = append(s.records, fresh...)
		return nil
	}
	return s.flushStream(fresh, now)
}

// flushStream writes the header (once) and this capture's section to the
// sink. Buffer mode is a no-op.
func (s *Session) flushStream(fresh []Change, now uint64) error {
	if s.sink == nil {
		return nil
	}
	var b strings.Builder
	if !s.headerSent {
		s.writeHeader(&b)
		s.writeDumpvars(&b)
	}
	if len(fresh) > 0 {
		s.writeSection(&b, now, fresh)
	}
	if b.Len() == 0 {
		return nil
	}
	if _, err := io.WriteString(s.sink, b.String()); err != nil {
		return &TraceIOError{Op: "write", Err: err}
	}
	s.headerSent = true
	return nil
}

// StartStreaming redirects future captures to w, bounding memory for long
// traces. Changes already buffered remain buffered.
func (s *Session) StartStreaming(w io.Writer) {
	s.sink = w
	s.enabled = true
}

// StartStreamingFile creates path and streams to it. The file is closed by
// Stop.
func (s *Session) StartStreamingFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &TraceIOError{Op: "create", Err: err}
	}
	s.sink = f
	s.sinkCloser = f
	s.enabled = true
	return nil
}

// TakeChunk drains buffered records as VCD text. The first chunk carries
// the header and $dumpvars block, so concatenating chunks yields a valid
// stream for a live consumer. Un-drained data is never lost.
func (s *Session) TakeChunk() string {
	var b strings.Builder
	if !s.headerSent && s.captured {
		s.writeHeader(&b)
		s.writeDumpvars(&b)
		s.headerSent = true
	}
	s.writeSections(&b, s.records)
	s.records = nil
	return b.String()
}

// Snapshot returns the initial snapshot followed by every still-buffered
// change, without draining. This is the record stream the archive store
// persists.
func (s *Session) Snapshot() []Change {
	out := make([]Change, 0, len(s.baseline)+len(s.records))
	out = append(out, s.baseline...)
	out = append(out, s.records...)
	return out
}

// ToVCD renders the full buffered trace. Records already drained by
// TakeChunk are gone and will not reappear here.
func (s *Session) ToVCD() string {
	var b strings.Builder
	s.writeHeader(&b)
	s.writeDumpvars(&b)
	s.writeSections(&b, s.records)
	return b.String()
}

// SaveVCD writes the full buffered trace to path.
func (s *Session) SaveVCD(path string) error {
	if err := os.WriteFile(path, []byte(s.ToVCD()), 0o644); err != nil {
		return &TraceIOError{Op: "save", Err: err}
	}
	return nil
}
