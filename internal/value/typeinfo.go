package value

// TypeInfo names a FHIRPath/FHIR type: a namespace ("System" or "FHIR")
// plus a simple name, the value `type()` and `is`/`as`/`ofType` operate
// over (spec.md §4.5, §6.1).
type TypeInfo struct {
	Namespace string
	Name      string
}

func (t TypeInfo) String() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// System type names, for values with no ModelProvider-backed schema.
const (
	SystemNamespace = "System"
	FHIRNamespace   = "FHIR"
)

// TypeOf returns the System.* TypeInfo for v's primitive kind. Resource
// values are classified by the ModelProvider instead (internal/
// modelprovider), since their type depends on schema, not on the runtime
// Kind tag.
func TypeOf(v Value) TypeInfo {
	switch v.Kind {
	case KindBoolean:
		return TypeInfo{Namespace: SystemNamespace, Name: "Boolean"}
	case KindInteger:
		return TypeInfo{Namespace: SystemNamespace, Name: "Integer"}
	case KindDecimal:
		return TypeInfo{Namespace: SystemNamespace, Name: "Decimal"}
	case KindString:
		return TypeInfo{Namespace: SystemNamespace, Name: "String"}
	case KindDate:
		return TypeInfo{Namespace: SystemNamespace, Name: "Date"}
	case KindDateTime:
		return TypeInfo{Namespace: SystemNamespace, Name: "DateTime"}
	case KindTime:
		return TypeInfo{Namespace: SystemNamespace, Name: "Time"}
	case KindQuantity:
		return TypeInfo{Namespace: SystemNamespace, Name: "Quantity"}
	default:
		return TypeInfo{}
	}
}
