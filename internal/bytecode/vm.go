package bytecode

import (
	"fmt"
	"time"

	"github.com/octofhir/fhirpath-go/internal/evaluator"
	"github.com/octofhir/fhirpath-go/internal/registry"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/value"
)

// RuntimeError wraps a failure raised while executing a Chunk: a bad
// operand type, an unsupported opcode sequence, or a propagated error
// from the registry/evaluator helpers the VM shares.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

// vm is one execution of a Chunk. It is deliberately unexported: Run is
// the only entry point, mirroring the teacher's interp package exposing a
// single Execute function rather than a reusable machine value.
type vm struct {
	stack []value.Value
	ctx   *evaluator.Context
}

// Run executes chunk to completion and returns its single result value,
// the top of the stack after OpReturn. ctx supplies the registry, model
// provider, and root/%-variable bindings; this is the same
// evaluator.Context the tree-walker uses, so a host can switch between
// WithBytecode(true/false) without reconfiguring anything.
func Run(chunk *Chunk, ctx *evaluator.Context) (value.Value, error) {
	m := &vm{stack: make([]value.Value, 0, chunk.MaxStack+4), ctx: ctx}
	sc := scope.Root().WithThis(ctx.Root)
	return m.exec(chunk, sc)
}

func (m *vm) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *vm) pop() value.Value {
	n := len(m.stack)
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v
}

// popN returns the top n stack values in their original left-to-right
// order (i.e. popN(2) after pushing A then B returns [A, B]).
func (m *vm) popN(n int) []value.Value {
	k := len(m.stack)
	out := make([]value.Value, n)
	copy(out, m.stack[k-n:])
	m.stack = m.stack[:k-n]
	return out
}

func (m *vm) exec(chunk *Chunk, sc *scope.Scope) (value.Value, error) {
	ip := 0
	for ip < len(chunk.Code) {
		ins := chunk.Code[ip]
		switch ins.Op() {
		case OpNop:
			// no-op
		case OpConst:
			m.push(chunk.Constants[ins.A()])
		case OpLoadThis:
			v, _ := sc.This()
			m.push(v)
		case OpLoadIndex:
			i, ok := sc.Index()
			if !ok {
				m.push(value.Empty)
			} else {
				m.push(value.Int(int64(i)))
			}
		case OpLoadTotal:
			v, _ := sc.Total()
			m.push(v)
		case OpLoadVar, OpLoadEnv:
			name := chunk.Strings[ins.A()]
			v, err := m.loadEnv(name, sc)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpPath:
			base := m.pop()
			name := chunk.Strings[ins.A()]
			if ip > 0 && chunk.Code[ip-1].Op() == OpLoadThis && base.Kind == value.KindResource {
				// A bare identifier naming the input's own resourceType
				// matches the input itself, as in evalIdentifier.
				if rt := base.Resource().ResourceType(); rt != "" && rt == name {
					m.push(base)
					break
				}
			}
			v, err := evaluator.NavigateProperty(base, name, m.ctx)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpIndex:
			idx := m.pop()
			base := m.pop()
			v, err := indexValue(base, idx)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpUnary:
			operand := m.pop()
			v, err := evaluator.UnaryOp(chunk.Strings[ins.A()], operand)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpBinary:
			right := m.pop()
			left := m.pop()
			v, err := m.binary(chunk.Strings[ins.A()], left, right)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpTypeCheck:
			operand := m.pop()
			v, err := typeCheck(operand, chunk.Strings[ins.A()], m.ctx)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpTypeCast:
			operand := m.pop()
			v, err := typeCast(operand, chunk.Strings[ins.A()], m.ctx)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpCall:
			name := chunk.Strings[ins.A()]
			argc := ins.B()
			args := m.popN(argc)
			base := m.pop()
			v, err := m.call(name, base, args, sc)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpLambdaCall:
			name := chunk.Strings[ins.A()]
			lambda := chunk.Lambdas[ins.B()]
			base := m.pop()
			v, err := m.callLambda(name, base, lambda, sc)
			if err != nil {
				return value.Value{}, err
			}
			m.push(v)
		case OpDefineVar:
			// Reserved: the compiler currently lowers defineVariable()
			// through the generic OpCall path (see compileCall), so this
			// opcode is not emitted today. Handled defensively in case a
			// future compiler revision emits it directly: pop the bound
			// value only, leaving name resolution to the caller.
			m.pop()
		case OpMakeSingleton:
			// no-op: collections are already flattened by value.Coll
		case OpPop:
			m.pop()
		case OpJump:
			ip = ins.A()
			continue
		case OpJumpIfFalse:
			// Branches to A unless v is exactly boolean true: an empty or
			// non-boolean condition takes the same path as false, matching
			// the tree-walker's iif/asBool handling.
			v := m.pop()
			b, ok := evaluator.AsBool(v)
			if !(ok && b) {
				ip = ins.A()
				continue
			}
		case OpJumpIfEmpty:
			v := m.pop()
			if v.IsEmpty() {
				ip = ins.A()
				continue
			}
			m.push(v)
		case OpReturn:
			if len(m.stack) == 0 {
				return value.Empty, nil
			}
			return m.pop(), nil
		default:
			return value.Value{}, &RuntimeError{Message: fmt.Sprintf("unhandled opcode %s", ins.Op())}
		}
		ip++
	}
	if len(m.stack) == 0 {
		return value.Empty, nil
	}
	return m.pop(), nil
}

func (m *vm) loadEnv(name string, sc *scope.Scope) (value.Value, error) {
	if v, ok := sc.Get(name); ok {
		return v, nil
	}
	switch name {
	case "resource", "rootResource":
		return m.ctx.Root, nil
	case "context":
		return m.ctx.ContextValue(), nil
	case "ucum":
		return value.Str("http://unitsofmeasure.org"), nil
	default:
		return value.Empty, nil
	}
}

func indexValue(base, idxVal value.Value) (value.Value, error) {
	idx, ok := idxVal.Singleton()
	if !ok || idx.Kind != value.KindInteger {
		return value.Empty, nil
	}
	items := base.Items()
	i := int(idx.Int())
	if i < 0 || i >= len(items) {
		return value.Empty, nil
	}
	return items[i], nil
}

// binary dispatches and/or/xor/implies to the shared Logic* helpers (the
// compiled chunk has already evaluated both operands eagerly, so no
// short-circuit happens here — see the LogicAnd doc comment for why this
// is semantically safe) and everything else to evaluator.BinaryOp, the
// same implementation the tree-walker uses.
func (m *vm) binary(op string, left, right value.Value) (value.Value, error) {
	switch op {
	case "and":
		return evaluator.LogicAnd(left, right), nil
	case "or":
		return evaluator.LogicOr(left, right), nil
	case "xor":
		return evaluator.LogicXor(left, right), nil
	case "implies":
		return evaluator.LogicImplies(left, right), nil
	}
	return evaluator.BinaryOp(op, left, right)
}

func typeCheck(v value.Value, typeName string, c *evaluator.Context) (value.Value, error) {
	if v.IsEmpty() {
		return value.Empty, nil
	}
	item, ok := v.Singleton()
	if !ok {
		return value.Value{}, &RuntimeError{Message: "is operator requires a singleton operand"}
	}
	return value.Bool(evaluator.MatchesTypeName(item, typeName, c.ModelProvider)), nil
}

func typeCast(v value.Value, typeName string, c *evaluator.Context) (value.Value, error) {
	if v.IsEmpty() {
		return value.Empty, nil
	}
	item, ok := v.Singleton()
	if !ok {
		return value.Value{}, &RuntimeError{Message: "as operator requires a singleton operand"}
	}
	if !evaluator.MatchesTypeName(item, typeName, c.ModelProvider) {
		return value.Empty, nil
	}
	return item, nil
}

// call dispatches a plain OpCall. Type-name special forms (ofType/is/as)
// arrive here with their type name already pushed as a string constant by
// compileCall, so they don't need the AST-shape inspection
// internal/evaluator's calls.go does for the tree-walking path.
func (m *vm) call(name string, base value.Value, args []value.Value, sc *scope.Scope) (value.Value, error) {
	switch name {
	case "ofType":
		typeName := argString(args, 0)
		return evaluator.OfType(base, typeName, m.ctx), nil
	case "is":
		typeName := argString(args, 0)
		return typeCheck(base, typeName, m.ctx)
	case "as":
		typeName := argString(args, 0)
		return typeCast(base, typeName, m.ctx)
	case "defineVariable":
		if len(args) < 1 || len(args) > 2 {
			return value.Value{}, &registry.ArityError{Func: "defineVariable", Got: len(args), Min: 1, Max: 2}
		}
		bound := base
		if len(args) == 2 {
			bound = args[1]
		}
		return evaluator.DefineVariableValue(base, args[0], bound, sc)
	case "trace":
		var label value.Value
		if len(args) > 0 {
			label = args[0]
		}
		return evaluator.TraceValue(base, label, m.ctx), nil
	case "iif":
		// Reserved: compileIif lowers iif() to a real branch so its
		// arguments are never eagerly evaluated onto the arg list handed
		// to OpCall. Kept for any chunk built by a future compiler that
		// still routes iif through the generic call path.
		return m.iif(base, args)
	case "today":
		t := time.Now()
		return value.DateVal(value.Temporal{Time: t, Precision: value.PrecisionDay, HasTZ: false}), nil
	case "now":
		t := time.Now()
		return value.DateTimeVal(value.Temporal{Time: t, Precision: value.PrecisionMillisecond, HasTZ: true}), nil
	case "timeOfDay":
		t := time.Now()
		return value.TimeVal(value.Temporal{Time: t, Precision: value.PrecisionMillisecond, HasTZ: true}), nil
	}
	return m.ctx.Registry.Evaluate(name, base, registry.Args(args))
}

func argString(args []value.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	s, ok := args[i].Singleton()
	if !ok || s.Kind != value.KindString {
		return ""
	}
	return s.Str()
}

func (m *vm) iif(base value.Value, args []value.Value) (value.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return value.Value{}, &registry.ArityError{Func: "iif", Got: len(args), Min: 2, Max: 3}
	}
	cond := args[0]
	b, ok := evaluator.AsBool(cond)
	if ok && b {
		return args[1], nil
	}
	if ok && !b || cond.IsEmpty() {
		if len(args) == 3 {
			return args[2], nil
		}
		return value.Empty, nil
	}
	return value.Empty, nil
}

// callLambda runs lambda once per base's element against a fresh
// $this/$index-bound child scope, delegating the per-element iteration
// protocol (where/select/all/exists/repeat/aggregate/sort's distinct
// accumulation rules) to the registry, exactly like the tree-walker's
// callLambdaFunction.
func (m *vm) callLambda(name string, base value.Value, lambda *Chunk, sc *scope.Scope) (value.Value, error) {
	return m.ctx.Registry.EvaluateLambda(name, base, func(el value.Value, idx int) (value.Value, error) {
		elScope := sc.WithThis(el).WithIndex(idx)
		return m.exec(lambda, elScope)
	})
}
