package ast

// EmptyLiteral is the `{}` literal: the empty collection.
type EmptyLiteral struct {
	BaseNode
}

func (*EmptyLiteral) expressionNode() {}
func (*EmptyLiteral) String() string  { return "{}" }

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	BaseNode
	Value bool
}

func (*BoolLiteral) expressionNode() {}
func (b *BoolLiteral) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// IntLiteral is an integer literal. Raw keeps the original source text
// (the value is parsed on demand, matching the tokenizer's zero-copy
// contract) so no precision is lost before evaluation needs it.
type IntLiteral struct {
	BaseNode
	Raw string
}

func (*IntLiteral) expressionNode() {}
func (i *IntLiteral) String() string { return i.Raw }

// DecimalLiteral is a decimal literal, kept as source text until a
// Decimal value is constructed (cockroachdb/apd parses arbitrary precision
// directly from a string, so no intermediate float64 round-trip is ever
// introduced).
type DecimalLiteral struct {
	BaseNode
	Raw string
}

func (*DecimalLiteral) expressionNode() {}
func (d *DecimalLiteral) String() string { return d.Raw }

// StringLiteral is a 'single quoted' string literal. Raw is the token text
// including quotes; Value is the escape-decoded content.
type StringLiteral struct {
	BaseNode
	Raw   string
	Value string
}

func (*StringLiteral) expressionNode() {}
func (s *StringLiteral) String() string { return s.Raw }

// TemporalKind distinguishes the three @-literal shapes.
type TemporalKind int

const (
	TemporalDate TemporalKind = iota
	TemporalDateTime
	TemporalTime
)

// TemporalLiteral is an @-prefixed date/dateTime/time literal.
type TemporalLiteral struct {
	BaseNode
	Raw  string
	Kind TemporalKind
}

func (*TemporalLiteral) expressionNode() {}
func (t *TemporalLiteral) String() string { return t.Raw }

// QuantityLiteral is `<number> '<unit>'` or `<number> <time-unit-word>`.
type QuantityLiteral struct {
	BaseNode
	ValueRaw string
	Unit     string
	// UnitQuoted is true when Unit came from a 'quoted' UCUM string rather
	// than a bare calendar-duration keyword (year, month, week, ...).
	UnitQuoted bool
}

func (*QuantityLiteral) expressionNode() {}
func (q *QuantityLiteral) String() string {
	if q.UnitQuoted {
		return q.ValueRaw + " '" + q.Unit + "'"
	}
	return q.ValueRaw + " " + q.Unit
}
