package bytecode

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/value"
)

// lambdaFunctions names the registry functions this compiler treats as
// higher-order: their single expression/lambda argument is compiled into
// its own Chunk (run once per input item against a fresh $this/$index
// scope) rather than evaluated eagerly like a plain argument. This list
// mirrors spec.md §6.2's canonical higher-order builtins.
var lambdaFunctions = map[string]bool{
	"where": true, "select": true, "all": true, "exists": true,
	"repeat": true, "aggregate": true, "sort": true,
}

// CompileError reports a problem discovered during compilation: an
// unsupported construct, or (via the knownFunction oracle) an unknown
// function name caught ahead of evaluation.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string { return e.Message }

// Compile lowers an (optimized) AST into a Chunk. knownFunction, if
// non-nil, lets the compiler reject unknown function names at compile
// time (the fhirpath Engine always passes one, whatever the strict-mode
// setting); when nil every call name is accepted
// and left for the VM/evaluator to resolve against the registry at run
// time.
func Compile(expr ast.Expression, knownFunction func(name string) bool) (*Chunk, error) {
	c := newChunk()
	cp := &compiler{chunk: c, knownFunction: knownFunction}
	if err := cp.compile(expr); err != nil {
		return nil, err
	}
	c.emit(OpReturn, 0, 0, 0)
	c.MaxStack = estimateMaxStack(c)
	return c, nil
}

type compiler struct {
	chunk         *Chunk
	knownFunction func(name string) bool
}

func (cp *compiler) line(n ast.Node) int { return n.Span().Start.Line }

func (cp *compiler) compile(e ast.Expression) error {
	switch n := e.(type) {
	case *ast.EmptyLiteral:
		cp.chunk.emit(OpConst, cp.chunk.addConstant(value.Empty), 0, cp.line(n))
		return nil
	case *ast.BoolLiteral:
		cp.chunk.emit(OpConst, cp.chunk.addConstant(value.Bool(n.Value)), 0, cp.line(n))
		return nil
	case *ast.IntLiteral:
		iv, overflow, err := parseIntLiteral(n.Raw)
		if err != nil {
			return &CompileError{Message: err.Error()}
		}
		if overflow {
			cp.chunk.emit(OpConst, cp.chunk.addConstant(value.Empty), 0, cp.line(n))
			return nil
		}
		cp.chunk.emit(OpConst, cp.chunk.addConstant(value.Int(iv)), 0, cp.line(n))
		return nil
	case *ast.DecimalLiteral:
		dv, err := value.DecFromString(n.Raw)
		if err != nil {
			return &CompileError{Message: err.Error()}
		}
		cp.chunk.emit(OpConst, cp.chunk.addConstant(dv), 0, cp.line(n))
		return nil
	case *ast.StringLiteral:
		cp.chunk.emit(OpConst, cp.chunk.addConstant(value.Str(n.Value)), 0, cp.line(n))
		return nil
	case *ast.TemporalLiteral:
		v, err := compileTemporalConstant(n)
		if err != nil {
			return err
		}
		cp.chunk.emit(OpConst, cp.chunk.addConstant(v), 0, cp.line(n))
		return nil
	case *ast.QuantityLiteral:
		v, err := compileQuantityConstant(n)
		if err != nil {
			return err
		}
		cp.chunk.emit(OpConst, cp.chunk.addConstant(v), 0, cp.line(n))
		return nil
	case *ast.Identifier:
		cp.chunk.emit(OpLoadThis, 0, 0, cp.line(n))
		cp.chunk.emit(OpPath, cp.chunk.addString(n.Name), 0, cp.line(n))
		return nil
	case *ast.Variable:
		return cp.compileVariable(n)
	case *ast.EnvVariable:
		cp.chunk.emit(OpLoadEnv, cp.chunk.addString(n.Name), 0, cp.line(n))
		return nil
	case *ast.Path:
		if err := cp.compile(n.Base); err != nil {
			return err
		}
		cp.chunk.emit(OpPath, cp.chunk.addString(n.Name), 0, cp.line(n))
		return nil
	case *ast.Index:
		if err := cp.compile(n.Base); err != nil {
			return err
		}
		if err := cp.compile(n.Idx); err != nil {
			return err
		}
		cp.chunk.emit(OpIndex, 0, 0, cp.line(n))
		return nil
	case *ast.UnaryOp:
		if err := cp.compile(n.Operand); err != nil {
			return err
		}
		cp.chunk.emit(OpUnary, cp.chunk.addString(n.Op), 0, cp.line(n))
		return nil
	case *ast.BinaryOp:
		if err := cp.compile(n.Left); err != nil {
			return err
		}
		if err := cp.compile(n.Right); err != nil {
			return err
		}
		cp.chunk.emit(OpBinary, cp.chunk.addString(n.Op), 0, cp.line(n))
		return nil
	case *ast.TypeCheck:
		if err := cp.compile(n.Expr); err != nil {
			return err
		}
		// Only the bare type name is stored: matchesType (and its VM
		// counterpart MatchesTypeName) compares against TypeInfo.Name and
		// never consults Namespace, the same simplification the
		// tree-walker makes.
		cp.chunk.emit(OpTypeCheck, cp.chunk.addString(n.Type.Name), 0, cp.line(n))
		return nil
	case *ast.TypeCast:
		if err := cp.compile(n.Expr); err != nil {
			return err
		}
		cp.chunk.emit(OpTypeCast, cp.chunk.addString(n.Type.Name), 0, cp.line(n))
		return nil
	case *ast.FunctionCall:
		cp.chunk.emit(OpLoadThis, 0, 0, cp.line(n))
		return cp.compileCall(n.Name, n.Args, n)
	case *ast.MethodCall:
		if err := cp.compile(n.Base); err != nil {
			return err
		}
		return cp.compileCall(n.Name, n.Args, n)
	default:
		return &CompileError{Message: fmt.Sprintf("bytecode: unsupported node %T", e)}
	}
}

func (cp *compiler) compileVariable(n *ast.Variable) error {
	switch n.Kind.String() {
	case "$this":
		cp.chunk.emit(OpLoadThis, 0, 0, cp.line(n))
	case "$index":
		cp.chunk.emit(OpLoadIndex, 0, 0, cp.line(n))
	case "$total":
		cp.chunk.emit(OpLoadTotal, 0, 0, cp.line(n))
	default:
		return &CompileError{Message: "unknown special variable"}
	}
	return nil
}

// typeNameCalls are call-style forms whose single argument names a type
// rather than an expression to evaluate (x.ofType(Patient), x.is(Patient),
// x.as(Patient)); the argument's raw AST shape (a bare Identifier or
// dotted Path) is read for its name at compile time instead of being
// compiled as a property-navigation expression, mirroring
// internal/evaluator's typeArgName.
var typeNameCalls = map[string]bool{"ofType": true, "is": true, "as": true}

func typeNameFromArg(arg ast.Expression) (string, bool) {
	switch a := arg.(type) {
	case *ast.Identifier:
		return a.Name, true
	case *ast.Path:
		return a.Name, true
	default:
		return "", false
	}
}

func (cp *compiler) compileCall(name string, args []ast.Expression, n ast.Node) error {
	if cp.knownFunction != nil && !cp.knownFunction(name) {
		return &CompileError{Message: fmt.Sprintf("unknown function %q", name)}
	}
	if name == "iif" {
		return cp.compileIif(args, n)
	}
	if typeNameCalls[name] && len(args) == 1 {
		typeName, ok := typeNameFromArg(args[0])
		if !ok {
			return &CompileError{Message: fmt.Sprintf("%s() requires a type name argument", name)}
		}
		cp.chunk.emit(OpConst, cp.chunk.addConstant(value.Str(typeName)), 0, cp.line(n))
		cp.chunk.emit(OpCall, cp.chunk.addString(name), 1, cp.line(n))
		return nil
	}
	if lambdaFunctions[name] && len(args) >= 1 {
		lambdaChunk, err := compileLambdaBody(args[0])
		if err != nil {
			return err
		}
		idx := cp.chunk.addLambda(lambdaChunk)
		cp.chunk.emit(OpLambdaCall, cp.chunk.addString(name), idx, cp.line(n))
		return nil
	}
	for _, a := range args {
		if err := cp.compile(a); err != nil {
			return err
		}
	}
	cp.chunk.emit(OpCall, cp.chunk.addString(name), len(args), cp.line(n))
	return nil
}

// compileIif lowers iif(cond, then[, else]) into a real branch instead of
// evaluating every argument eagerly like a plain call: SPEC_FULL.md §5
// requires iif to short-circuit the way the tree-walker's evalIif already
// does, so only the taken branch is ever executed. compile() has already
// pushed iif's call base before reaching here ($this for a FunctionCall,
// the compiled receiver for a MethodCall); iif never reads that value, so
// it is popped immediately.
func (cp *compiler) compileIif(args []ast.Expression, n ast.Node) error {
	if len(args) < 2 || len(args) > 3 {
		return &CompileError{Message: fmt.Sprintf("iif() requires 2 or 3 arguments, got %d", len(args))}
	}
	cp.chunk.emit(OpPop, 0, 0, cp.line(n))
	if err := cp.compile(args[0]); err != nil {
		return err
	}
	jumpToElse := cp.chunk.emit(OpJumpIfFalse, 0, 0, cp.line(n))
	if err := cp.compile(args[1]); err != nil {
		return err
	}
	jumpToEnd := cp.chunk.emit(OpJump, 0, 0, cp.line(n))
	cp.chunk.patchJumpTarget(jumpToElse, len(cp.chunk.Code))
	if len(args) == 3 {
		if err := cp.compile(args[2]); err != nil {
			return err
		}
	} else {
		cp.chunk.emit(OpConst, cp.chunk.addConstant(value.Empty), 0, cp.line(n))
	}
	cp.chunk.patchJumpTarget(jumpToEnd, len(cp.chunk.Code))
	return nil
}

// compileLambdaBody compiles a higher-order function's argument (either an
// explicit Lambda node or a bare implicit-$this expression, per
// SPEC_FULL.md open question #2 the two share a scope frame so the
// compiled chunk doesn't need to distinguish them) into its own Chunk.
func compileLambdaBody(arg ast.Expression) (*Chunk, error) {
	body := arg
	if l, ok := arg.(*ast.Lambda); ok {
		body = l.Body
	}
	sub := newChunk()
	scp := &compiler{chunk: sub, knownFunction: nil}
	if err := scp.compile(body); err != nil {
		return nil, err
	}
	sub.emit(OpReturn, 0, 0, 0)
	sub.MaxStack = estimateMaxStack(sub)
	return sub, nil
}

// parseIntLiteral parses an integer literal's source text. It reports
// overflow rather than erroring: an out-of-range literal compiles to an
// Empty constant, matching the tree-walker's evalIntLiteral.
func parseIntLiteral(raw string) (v int64, overflow bool, err error) {
	v, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("bytecode: malformed integer literal %q", raw)
	}
	return v, false, nil
}

// estimateMaxStack computes the chunk's peak stack depth via abstract
// interpretation of the instruction stream, matching the teacher's
// bytecode compiler's approach of precomputing stack sizing instead of
// growing the VM stack dynamically during execution.
func estimateMaxStack(c *Chunk) int {
	depth, max := 0, 0
	push := func(n int) {
		depth += n
		if depth > max {
			max = depth
		}
	}
	for _, ins := range c.Code {
		switch ins.Op() {
		case OpConst, OpLoadThis, OpLoadIndex, OpLoadTotal, OpLoadVar, OpLoadEnv:
			push(1)
		case OpPath, OpUnary, OpTypeCheck, OpTypeCast:
			// pop 1, push 1: no net change
		case OpIndex, OpBinary:
			push(-1) // pop 2 push 1
		case OpCall:
			push(-ins.B()) // pop B args (base already below them), push 1 result
		case OpLambdaCall:
			// pop base, push 1 result
		case OpPop:
			push(-1)
		case OpDefineVar:
			push(-1)
		case OpMakeSingleton:
			// no net change
		case OpJumpIfFalse:
			push(-1) // always pops the branch condition
		case OpJump, OpJumpIfEmpty, OpReturn, OpNop:
			// control flow / no net stack effect modeled here
		}
	}
	if max < 1 {
		max = 1
	}
	return max
}
