package ast

// BinaryOp covers every infix operator in spec.md §4.2's precedence table
// except `is`/`as` (which take a type specifier, not an expression, on the
// right and so get their own node kind below): `|`, `*`, `/`, `div`, `mod`,
// `+`, `-`, `&`, `<`, `<=`, `>`, `>=`, `=`, `!=`, `~`, `!~`, `in`,
// `contains`, `and`, `or`, `xor`, `implies`.
type BinaryOp struct {
	BaseNode
	Op    string
	Left  Expression
	Right Expression
}

func (*BinaryOp) expressionNode() {}
func (b *BinaryOp) String() string {
	return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")"
}

// UnaryOp covers prefix `+`, `-`, and `not` (parsed as a unary keyword; the
// grammar treats `not` as a function call in strict FHIRPath, but this
// engine also accepts it as a unary operator token for symmetry with `+`/
// `-`; see internal/parser).
type UnaryOp struct {
	BaseNode
	Op      string
	Operand Expression
}

func (*UnaryOp) expressionNode() {}
func (u *UnaryOp) String() string { return "(" + u.Op + u.Operand.String() + ")" }

// TypeSpecifier names a type by its (optional) namespace and identifier,
// e.g. `FHIR.Patient` or plain `Patient`/`Integer`.
type TypeSpecifier struct {
	BaseNode
	Namespace string
	Name      string
}

func (t *TypeSpecifier) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// TypeCheck is the `expr is Type` operator.
type TypeCheck struct {
	BaseNode
	Expr Expression
	Type *TypeSpecifier
}

func (*TypeCheck) expressionNode() {}
func (t *TypeCheck) String() string { return "(" + t.Expr.String() + " is " + t.Type.String() + ")" }

// TypeCast is the `expr as Type` operator.
type TypeCast struct {
	BaseNode
	Expr Expression
	Type *TypeSpecifier
}

func (*TypeCast) expressionNode() {}
func (t *TypeCast) String() string { return "(" + t.Expr.String() + " as " + t.Type.String() + ")" }
