// Package value implements the FHIRPath runtime value model: a tagged
// union (spec.md §3.4) covering Empty, Boolean, Integer, Decimal, String,
// the three temporal kinds, Quantity, Collection, Resource, and TypeInfo.
package value

import (
	"github.com/cockroachdb/apd/v3"
	"github.com/tidwall/gjson"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindEmpty Kind = iota
	KindBoolean
	KindInteger
	KindDecimal
	KindString
	KindDate
	KindDateTime
	KindTime
	KindQuantity
	KindCollection
	KindResource
	KindTypeInfo
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindDecimal:
		return "Decimal"
	case KindString:
		return "String"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindTime:
		return "Time"
	case KindQuantity:
		return "Quantity"
	case KindCollection:
		return "Collection"
	case KindResource:
		return "Resource"
	case KindTypeInfo:
		return "TypeInfo"
	default:
		return "Unknown"
	}
}

// Value is the single runtime type every expression evaluates to. Exactly
// one of the typed fields is meaningful, selected by Kind; this mirrors the
// teacher's bytecode.Value{Data, Type} shape but spells out a field per
// kind instead of an interface{} payload, since FHIRPath's value set is
// closed and fixed (spec.md §3.4 lists every variant).
type Value struct {
	Kind Kind

	boolVal  bool
	intVal   int64
	decVal   *apd.Decimal
	strVal   string
	temporal Temporal
	quantity Quantity
	items    []Value
	resource Resource
	typeInfo TypeInfo
}

// Empty is the canonical empty value (the `{}` result of most FHIRPath
// operations applied to no input).
var Empty = Value{Kind: KindEmpty}

// IsEmpty reports whether v carries no value: either the Empty variant, or
// a zero-length Collection. SPEC_FULL.md open question #1 keeps the two
// variants distinguishable internally but equivalent at this boundary.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty || (v.Kind == KindCollection && len(v.items) == 0)
}

func Bool(b bool) Value { return Value{Kind: KindBoolean, boolVal: b} }

func (v Value) Bool() bool { return v.boolVal }

func Int(i int64) Value { return Value{Kind: KindInteger, intVal: i} }

func (v Value) Int() int64 { return v.intVal }

func Str(s string) Value { return Value{Kind: KindString, strVal: s} }

func (v Value) Str() string { return v.strVal }

func Coll(items []Value) Value {
	if len(items) == 1 && items[0].Kind != KindCollection {
		return items[0]
	}
	flat := make([]Value, 0, len(items))
	for _, it := range items {
		if it.Kind == KindCollection {
			flat = append(flat, it.items...)
			continue
		}
		if it.IsEmpty() {
			continue
		}
		flat = append(flat, it)
	}
	return Value{Kind: KindCollection, items: flat}
}

// Items returns v's elements as a flat slice: a single non-empty value of
// length 1, the Collection's elements, or nil for Empty. This is the
// normalized iteration surface every evaluator rule operates over (spec.md
// §3.4: "most operations treat a singleton and a one-element collection
// identically").
func (v Value) Items() []Value {
	switch v.Kind {
	case KindEmpty:
		return nil
	case KindCollection:
		return v.items
	default:
		return []Value{v}
	}
}

func (v Value) Len() int {
	if v.Kind == KindEmpty {
		return 0
	}
	if v.Kind == KindCollection {
		return len(v.items)
	}
	return 1
}

// Singleton returns v's single element and true if v carries exactly one
// value (either a bare scalar or a one-element Collection).
func (v Value) Singleton() (Value, bool) {
	items := v.Items()
	if len(items) != 1 {
		return Value{}, false
	}
	return items[0], true
}

func TypeInfoVal(t TypeInfo) Value { return Value{Kind: KindTypeInfo, typeInfo: t} }

func (v Value) TypeInfo() TypeInfo { return v.typeInfo }
