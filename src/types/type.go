package types

import (
	"fmt"
	"strings"
)

// Category is the broad kind a Type belongs to (§3).
type Category int

const (
	Primitive Category = iota
	Container
	Reference
	Function
	Unknown
)

func (c Category) String() string {
	switch c {
	case Primitive:
		return "Primitive"
	case Container:
		return "Container"
	case Reference:
		return "Reference"
	case Function:
		return "Function"
	default:
		return "Unknown"
	}
}

// Feature is a named boolean property registered per type (§3, §4.1).
type Feature string

const (
	FeatNumeric   Feature = "numeric"
	FeatSequence  Feature = "sequence"
	FeatMapping   Feature = "mapping"
	FeatContainer Feature = "container"
	FeatMutable   Feature = "mutable"
	FeatReference Feature = "reference"
	FeatIndexable Feature = "indexable"
	FeatCallable  Feature = "callable"
)

// Kind distinguishes composite shapes within a Category. Bare primitives
// and the list/dict/function "base" sentinels use KindPlain.
type Kind int

const (
	KindPlain Kind = iota
	KindList
	KindDict
	KindFunc
	KindClass
	KindInstance
	KindPtr
)

// Type is one interned type. Two Types are equal iff their Signature
// strings are equal (§3 invariant); the registry guarantees at most one
// *Type exists per signature for the lifetime of a Registry.
type Type struct {
	Name      string
	Category  Category
	Kind      Kind
	ID        int
	Signature string

	// Composite components. Populated only for the relevant Kind.
	Elem   *Type   // KindList
	Key    *Type   // KindDict
	Val    *Type   // KindDict
	Ret    *Type   // KindFunc
	Params []*Type // KindFunc
	Class  *Type   // KindInstance: owning class type

	features map[Feature]bool
}

// HasFeature reports whether f is set on t. Feature checks are positive
// only: an unset flag always means "no", never "unknown" (§3 invariant).
func (t *Type) HasFeature(f Feature) bool {
	if t == nil {
		return false
	}
	return t.features[f]
}

// IsAny reports whether t is the `any` escape-hatch type (or its `object`
// alias, which is interned to the identical *Type — see Registry.GetPrimitive).
func (t *Type) IsAny() bool {
	return t != nil && t.ID == IDAny
}

func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	return t.Signature
}

// signature builds the canonical interning key for a composite type.
func listSignature(elem *Type) string   { return fmt.Sprintf("list<%s>", elem.Signature) }
func dictSignature(k, v *Type) string   { return fmt.Sprintf("dict<%s,%s>", k.Signature, v.Signature) }
func funcSignature(ret *Type, ps []*Type) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Signature
	}
	return fmt.Sprintf("func(%s)->%s", strings.Join(names, ","), ret.Signature)
}
func instanceSignature(class *Type) string { return fmt.Sprintf("instance<%s>", class.Name) }
func classSignature(name string) string    { return fmt.Sprintf("class<%s>", name) }
