package engine

import (
	"errors"
	"fmt"

	"github.com/hdlkit/hdlkit/internal/ir"
)

// CombinationalLoopError reports that Propagate's fixpoint sweep did not
// settle within the iteration cap. It is fatal to the simulation instance:
// the value array is left mid-settle and no further stepping is meaningful.
type CombinationalLoopError struct {
	// Signal names the first signal still changing when the cap was hit.
	Signal string
	// Iterations is the cap that was exceeded.
	Iterations int
}

// Error implements the error interface.
func (e *CombinationalLoopError) Error() string {
	return fmt.Sprintf("combinational loop: signal %q still unsettled after %d sweeps", e.Signal, e.Iterations)
}

// IsCombinationalLoop reports whether err is (or wraps) a settle failure.
func IsCombinationalLoop(err error) bool {
	var le *CombinationalLoopError
	return errors.As(err, &le)
}

// BackendUnsupportedOperationError reports an expression tag a backend
// cannot translate. Translation must fail loudly: approximating or falling
// back to another backend would silently break bit-for-bit parity.
type BackendUnsupportedOperationError struct {
	Backend string
	Op      ir.Op
}

// Error implements the error interface.
func (e *BackendUnsupportedOperationError) Error() string {
	return fmt.Sprintf("backend %q cannot translate expression tag %q", e.Backend, e.Op)
}

// IsBackendUnsupported reports whether err is (or wraps) a translation
// failure.
func IsBackendUnsupported(err error) bool {
	var ue *BackendUnsupportedOperationError
	return errors.As(err, &ue)
}

// UnknownSignalError reports a peek or poke against a name the design does
// not declare.
type UnknownSignalError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownSignalError) Error() string {
	return fmt.Sprintf("unknown signal %q", e.Name)
}

// IsUnknownSignal reports whether err is (or wraps) a bad signal lookup.
func IsUnknownSignal(err error) bool {
	var ue *UnknownSignalError
	return errors.As(err, &ue)
}
