package engine

import (
	"github.com/hdlkit/hdlkit/internal/ir"
	"github.com/hdlkit/hdlkit/internal/trace"
)

// Trace returns the simulator's trace session, creating it on first use.
// The session reads values live through the simulator; its lifecycle is
// otherwise independent of simulation state (Reset does not clear it).
func (s *Simulator) Trace() *trace.Session {
	if s.trace == nil {
		s.trace = trace.NewSession(s.plan.Design.Name, s.Signals(), func(id ir.SignalID) uint64 {
			return s.vals[id]
		})
	}
	return s.trace
}

// TraceStart enables recording on the trace session.
func (s *Simulator) TraceStart() { s.Trace().Start() }

// TraceStop disables recording and closes any streaming sink.
func (s *Simulator) TraceStop() error { return s.Trace().Stop() }

// TraceClear resets buffered changes and/or the signal selection.
func (s *Simulator) TraceClear(mode trace.ClearMode) { s.Trace().Clear(mode) }

// TraceCapture records sparse value changes at the current step count.
func (s *Simulator) TraceCapture() error { return s.Trace().Capture(s.step) }

// TraceToVCD renders the buffered trace as VCD text.
func (s *Simulator) TraceToVCD() string { return s.Trace().ToVCD() }

// TraceSaveVCD writes the buffered trace to path.
func (s *Simulator) TraceSaveVCD(path string) error { return s.Trace().SaveVCD(path) }

// TraceStartStreaming streams future captures to a file at path.
func (s *Simulator) TraceStartStreaming(path string) error {
	return s.Trace().StartStreamingFile(path)
}

// TraceTakeLiveChunk drains buffered records as VCD text for a live
// consumer.
func (s *Simulator) TraceTakeLiveChunk() string { return s.Trace().TakeChunk() }
