package errors

import (
	"fmt"
	"strings"

	"github.com/octofhir/fhirpath-go/internal/token"
)

// StackFrame is one registry call-stack frame: a FHIRPath function or
// lambda invocation, and the source position of the call. Repurposed from
// the teacher's interpreter call stack into FHIRPath's CALL_FUNCTION/
// lambda invocation chain, so a RecursionError or a registry error can
// report which function nesting produced it instead of a single site.
type StackFrame struct {
	Position     *token.Position
	FunctionName string
}

// String renders "name [line: N, column: M]", or just the name if no
// position is available (the root $this frame has none).
func (sf StackFrame) String() string {
	if sf.Position == nil {
		return sf.FunctionName
	}
	return fmt.Sprintf("%s [line: %d, column: %d]", sf.FunctionName, sf.Position.Line, sf.Position.Column)
}

// StackTrace is a complete call stack, oldest (bottom) to newest (top).
type StackTrace []StackFrame

// String renders the trace newest-frame-first, one per line, matching how
// a host would want to print "called from" chains.
func (st StackTrace) String() string {
	if len(st) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(st) - 1; i >= 0; i-- {
		sb.WriteString(st[i].String())
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Reverse returns a new StackTrace with frames in reverse order.
func (st StackTrace) Reverse() StackTrace {
	reversed := make(StackTrace, len(st))
	for i, frame := range st {
		reversed[len(st)-1-i] = frame
	}
	return reversed
}

// Top returns the most recent frame, or nil if empty.
func (st StackTrace) Top() *StackFrame {
	if len(st) == 0 {
		return nil
	}
	return &st[len(st)-1]
}

// Bottom returns the oldest frame, or nil if empty.
func (st StackTrace) Bottom() *StackFrame {
	if len(st) == 0 {
		return nil
	}
	return &st[0]
}

// Depth returns the number of frames.
func (st StackTrace) Depth() int { return len(st) }

// NewStackFrame creates a stack frame for functionName called at
// position (nil if not tracked, e.g. a synthetic root frame).
func NewStackFrame(functionName string, position *token.Position) StackFrame {
	return StackFrame{FunctionName: functionName, Position: position}
}

// NewStackTrace creates an empty StackTrace.
func NewStackTrace() StackTrace { return make(StackTrace, 0) }
