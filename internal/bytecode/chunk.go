package bytecode

import (
	"fmt"
	"strings"

	"github.com/octofhir/fhirpath-go/internal/value"
)

// Chunk is one compiled unit: the top-level expression, or a lambda body
// compiled as its own chunk and referenced from the parent's constant
// pool. Mirrors the teacher's bytecode.Chunk{Code, Constants, Lines,
// LocalCount} shape.
type Chunk struct {
	Code      []Instruction
	Constants []value.Value
	Strings   []string // function/property/variable names, interned
	Lines     []int    // Lines[i] is the source line for Code[i], for traces
	MaxStack  int       // computed by the compiler via abstract interpretation
	Lambdas   []*Chunk  // nested lambda bodies, referenced by index from OpLambdaCall's B operand context
}

func newChunk() *Chunk { return &Chunk{} }

func (c *Chunk) emit(op Op, a, b, line int) int {
	c.Code = append(c.Code, Encode(op, a, b))
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

func (c *Chunk) patchJumpTarget(at int, target int) {
	ins := c.Code[at]
	c.Code[at] = Encode(ins.Op(), target, ins.B())
}

func (c *Chunk) addConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

func (c *Chunk) addString(s string) int {
	for i, existing := range c.Strings {
		if existing == s {
			return i
		}
	}
	c.Strings = append(c.Strings, s)
	return len(c.Strings) - 1
}

func (c *Chunk) addLambda(l *Chunk) int {
	c.Lambdas = append(c.Lambdas, l)
	return len(c.Lambdas) - 1
}

// Disassemble renders the chunk in a human-readable form, used by
// snapshot tests to pin down compiler output without depending on the
// binary instruction encoding directly.
func (c *Chunk) Disassemble() string {
	var b strings.Builder
	for i, ins := range c.Code {
		fmt.Fprintf(&b, "%04d %-14s A=%d B=%d\n", i, ins.Op(), ins.A(), ins.B())
	}
	return b.String()
}
