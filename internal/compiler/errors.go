package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Elaboration error codes (E100-E199).
const (
	ErrBadSignalID       = "E100" // signal ID out of order or out of range
	ErrDuplicateName     = "E101" // duplicate signal name
	ErrBadWidth          = "E102" // width outside 1..64 or op width rule broken
	ErrBadKind           = "E103" // unknown signal kind
	ErrBadPort           = "E104" // port name missing or wrong kind
	ErrDanglingRef       = "E105" // expression/register references unknown signal
	ErrBadOp             = "E106" // unknown expression tag
	ErrBadArity          = "E107" // wrong argument count for tag
	ErrMultipleDrivers   = "E108" // signal driven by more than one expr/register
	ErrUndrivenSignal    = "E109" // non-input signal with no driver
	ErrDrivenInput       = "E110" // input port driven by an expr or register
	ErrBadImmediate      = "E111" // literal or case key does not fit its width
	ErrBadSlice          = "E112" // slice bounds outside the argument
	ErrCombinationalLoop = "E120" // expression-only cycle
)

// ElaborationError is a structural defect found at construction time.
// It is fatal: a design that produces any elaboration error never reaches
// a simulator.
type ElaborationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ElaborationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ElaborationErrors aggregates every defect found in one validation pass.
type ElaborationErrors []ElaborationError

// Error implements the error interface.
func (e ElaborationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d elaboration errors:", len(e))
	for _, err := range e {
		b.WriteString("\n  ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// IsElaborationError reports whether err is (or wraps) an elaboration
// failure.
func IsElaborationError(err error) bool {
	var one ElaborationError
	var many ElaborationErrors
	return errors.As(err, &one) || errors.As(err, &many)
}
