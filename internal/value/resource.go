package value

import "github.com/tidwall/gjson"

// Resource is an opaque, read-only JSON-like node (spec.md §3.4): a FHIR
// resource, a BackboneElement, or any nested JSON object/array reached by
// navigating one. It wraps gjson.Result, which already provides the
// indexed/keyed navigation and type sniffing this engine needs without a
// hand-rolled JSON tree (replacing the teacher's internal/jsonvalue, which
// this corpus otherwise would have pushed us toward).
type Resource struct {
	result gjson.Result
}

// NewResource parses raw JSON into a root Resource.
func NewResource(raw []byte) Resource {
	return Resource{result: gjson.ParseBytes(raw)}
}

func ResourceFromResult(r gjson.Result) Resource { return Resource{result: r} }

func ResourceVal(r Resource) Value { return Value{Kind: KindResource, resource: r} }

func (v Value) Resource() Resource { return v.resource }

func (r Resource) Raw() gjson.Result { return r.result }

// Get navigates to the child named name. For an object this is the member
// value; for an array FHIRPath property access has no meaning and Get
// returns an invalid Result (IsObject()/IsArray() are both false on the
// result, which callers treat as "property not found").
func (r Resource) Get(name string) gjson.Result {
	if !r.result.IsObject() {
		return gjson.Result{}
	}
	return r.result.Get(gjsonEscape(name))
}

// gjsonEscape escapes gjson path metacharacters (. * ? # |) in a literal
// FHIR property name, since property names are looked up verbatim, never
// as a path expression.
func gjsonEscape(name string) string {
	special := false
	for _, r := range name {
		switch r {
		case '.', '*', '?', '#', '|', '@', '\\':
			special = true
		}
	}
	if !special {
		return name
	}
	out := make([]byte, 0, len(name)*2)
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '.', '*', '?', '#', '|', '@', '\\':
			out = append(out, '\\')
		}
		out = append(out, name[i])
	}
	return string(out)
}

// ResourceType returns the FHIR resourceType discriminator of an object
// node, or "" if absent (a BackboneElement, not a resource root).
func (r Resource) ResourceType() string {
	if !r.result.IsObject() {
		return ""
	}
	return r.result.Get("resourceType").String()
}

// IsArray/IsObject classify the underlying JSON node's shape, used by
// path navigation to decide whether a property lookup should implicitly
// iterate (spec.md §4.5: navigating into an array property yields a
// Collection of its elements).
func (r Resource) IsArray() bool  { return r.result.IsArray() }
func (r Resource) IsObject() bool { return r.result.IsObject() }
