// Package errors provides the engine's error formatting: a single
// EngineError type carrying a message, source text, and Span, with
// caret-pointing source-context rendering — adapted from the teacher's
// compiler-error formatter for FHIRPath's lex/parse/compile/evaluate
// error surface (spec.md §7).
package errors

import (
	"fmt"
	"strings"

	"github.com/octofhir/fhirpath-go/internal/token"
)

// EngineError is a single error with position and source context: a
// lexer/parser diagnostic, a bytecode CompileError, or a runtime
// evaluation error that was not folded to Empty.
type EngineError struct {
	Message string
	Source  string
	Span    token.Span
}

// New creates an EngineError.
func New(span token.Span, message, source string) *EngineError {
	return &EngineError{Span: span, Message: message, Source: source}
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return e.Format(false)
}

// Format formats the error message with source context. If color is
// true, ANSI color codes highlight the caret.
func (e *EngineError) Format(color bool) string {
	var sb strings.Builder

	pos := e.Span.Start
	sb.WriteString(fmt.Sprintf("error at line %d:%d\n", pos.Line, pos.Column))

	if line := e.getSourceLine(pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

// getSourceLine extracts a specific line from the source code. Lines are
// 1-indexed.
func (e *EngineError) getSourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// getSourceContext extracts multiple lines around the error for context.
func (e *EngineError) getSourceContext(lineNum, contextBefore, contextAfter int) []string {
	if e.Source == "" {
		return nil
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return nil
	}
	start := lineNum - contextBefore
	if start < 1 {
		start = 1
	}
	end := lineNum + contextAfter
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start-1 : end]
}

// FormatWithContext formats the error with contextLines of surrounding
// source on each side, for a host (an authoring tool editing the
// expression being diagnosed) that wants a wider excerpt than Format's
// single line.
func (e *EngineError) FormatWithContext(contextLines int, color bool) string {
	var sb strings.Builder

	pos := e.Span.Start
	sb.WriteString(fmt.Sprintf("error at line %d:%d\n", pos.Line, pos.Column))

	ctxLines := e.getSourceContext(pos.Line, contextLines, contextLines)
	if len(ctxLines) == 0 {
		return e.Format(color)
	}

	startLine := pos.Line - contextLines
	if startLine < 1 {
		startLine = 1
	}

	for i, line := range ctxLines {
		currentLine := startLine + i
		lineNumStr := fmt.Sprintf("%4d | ", currentLine)

		if currentLine == pos.Line {
			if color {
				sb.WriteString("\033[1m")
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")

			sb.WriteString(strings.Repeat(" ", len(lineNumStr)+pos.Column-1))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		} else {
			if color {
				sb.WriteString("\033[2m")
			}
			sb.WriteString(lineNumStr)
			sb.WriteString(line)
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

// FormatErrors renders every error in errs as one report. The lexer and
// parser stop at their first error, so a single parse yields at most one
// distinct diagnostic; this is for hosts that gather errors from several
// expressions.
func FormatErrors(errs []*EngineError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("evaluation failed with %d error(s):\n\n", len(errs)))
	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("[error %d of %d]\n", i+1, len(errs)))
		sb.WriteString(e.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
