// Package modelprovider implements the FHIRPath Model Provider interface
// (spec.md §6.1): schema-driven type introspection consumed by `is`/`as`/
// `ofType` and by path navigation's cardinality expectations. Concrete
// StructureDefinition-backed providers are external collaborators per
// spec.md §1; DefaultProvider below is a minimal implementation good
// enough to run spec.md §8's scenarios against plain JSON resources.
package modelprovider

import "github.com/octofhir/fhirpath-go/internal/value"

// ModelProvider is consulted by the evaluator for type classification
// questions a tree-walk over plain JSON cannot answer on its own.
type ModelProvider interface {
	IsResourceType(name string) bool
	IsSubtypeOf(typeName, baseName string) bool
	GetBaseType(typeName string) (string, bool)
	GetProperties(typeName string) []string
	FHIRVersion() string
}

// DefaultProvider classifies by Go-level JSON kind and the FHIR
// `resourceType` discriminator only; it has no StructureDefinition (no
// inheritance graph, no element cardinality/type-choice reflection), which
// is the scope spec.md §1 and §6.1 leave external.
type DefaultProvider struct {
	resourceTypes map[string]bool
}

// NewDefault builds a DefaultProvider recognizing the given resource type
// names (typically seeded from whatever resources the host actually
// passes in, since there is no schema package to enumerate them from).
func NewDefault(resourceTypes ...string) *DefaultProvider {
	p := &DefaultProvider{resourceTypes: map[string]bool{}}
	for _, rt := range resourceTypes {
		p.resourceTypes[rt] = true
	}
	return p
}

func (p *DefaultProvider) IsResourceType(name string) bool { return p.resourceTypes[name] }

// IsSubtypeOf has no inheritance graph to consult; it only recognizes
// reflexive subtyping (a type is a subtype of itself) and the System-type
// numeric widening FHIRPath itself specifies (Integer is a subtype of
// Decimal for `is`/`as` purposes).
func (p *DefaultProvider) IsSubtypeOf(typeName, baseName string) bool {
	if typeName == baseName {
		return true
	}
	if baseName == "Decimal" && typeName == "Integer" {
		return true
	}
	return false
}

func (p *DefaultProvider) GetBaseType(typeName string) (string, bool) { return "", false }

func (p *DefaultProvider) GetProperties(typeName string) []string { return nil }

func (p *DefaultProvider) FHIRVersion() string { return "R4" }

// ClassifyResource returns the TypeInfo for a Resource value: its FHIR
// resourceType if it is a resource root, or a generic "FHIR.BackboneElement"
// for a nested object/array with no discriminator.
func ClassifyResource(r value.Resource) value.TypeInfo {
	if rt := r.ResourceType(); rt != "" {
		return value.TypeInfo{Namespace: value.FHIRNamespace, Name: rt}
	}
	if r.IsArray() {
		return value.TypeInfo{Namespace: value.FHIRNamespace, Name: "List"}
	}
	return value.TypeInfo{Namespace: value.FHIRNamespace, Name: "BackboneElement"}
}
