package types

import (
	"strconv"
	"strings"
)

// Registry interns every Type for one compilation. It replaces the
// source design's process-global singleton (Design Notes §9: "Singleton
// registries → explicit context") with a value callers construct once per
// compilation and thread through C1-C10 explicitly. A Registry is not
// safe for concurrent mutation; C10's parallel function-header pass
// completes registry population before any worker goroutine reads it
// concurrently (§5: "no concurrent access is permitted by contract").
type Registry struct {
	bySignature map[string]*Type
	byID        map[int]*Type

	nextListID int
	nextDictID int
	nextFuncID int
	nextInstID int
}

// NewRegistry constructs a Registry with every primitive and base
// sentinel from §6's ID schema already interned.
func NewRegistry() *Registry {
	r := &Registry{
		bySignature: make(map[string]*Type, 32),
		byID:        make(map[int]*Type, 32),
		nextListID:  IDListRangeStart,
		nextDictID:  IDDictRangeStart,
		nextFuncID:  IDFuncRangeStart,
		nextInstID:  IDInstRangeStart,
	}
	r.seedPrimitives()
	return r
}

func (r *Registry) intern(t *Type) *Type {
	if existing, ok := r.bySignature[t.Signature]; ok {
		return existing
	}
	r.bySignature[t.Signature] = t
	r.byID[t.ID] = t
	return t
}

func (r *Registry) seedPrimitives() {
	prims := []struct {
		name     string
		id       int
		cat      Category
		features []Feature
	}{
		{"void", IDNone, Primitive, nil},
		{"int", IDInt, Primitive, []Feature{FeatNumeric}},
		{"double", IDDouble, Primitive, []Feature{FeatNumeric}},
		{"bool", IDBool, Primitive, []Feature{FeatNumeric}},
		{"string", IDString, Primitive, []Feature{FeatSequence, FeatIndexable}},
		{"any", IDAny, Unknown, nil},
		{"list_base", IDListBase, Container, []Feature{FeatSequence, FeatContainer, FeatMutable, FeatReference, FeatIndexable}},
		{"dict_base", IDDictBase, Container, []Feature{FeatMapping, FeatContainer, FeatMutable, FeatReference, FeatIndexable}},
		{"func_base", IDFuncBase, Function, []Feature{FeatCallable, FeatReference}},
		{"ptr", IDPtrRangeStart, Primitive, nil},
		{"ptr_int", IDPtrRangeStart + 1, Primitive, nil},
		{"ptr_double", IDPtrRangeStart + 2, Primitive, nil},
	}
	for _, p := range prims {
		t := &Type{
			Name:      p.name,
			Category:  p.cat,
			Kind:      KindPlain,
			ID:        p.id,
			Signature: p.name,
			features:  make(map[Feature]bool, len(p.features)),
		}
		for _, f := range p.features {
			t.features[f] = true
		}
		r.intern(t)
	}
	// "object" is resolved (Design Notes, open question) as a pure alias
	// of `any`: same *Type, no distinct ID or signature entry of its own.
	r.bySignature["object"] = r.bySignature["any"]
}

// GetPrimitive returns the canonical instance for a primitive name.
// Unknown names are an error — callers that want any's permissive
// behavior for unrecognized text should use ParseSignature instead.
func (r *Registry) GetPrimitive(name string) (*Type, error) {
	if t, ok := r.bySignature[name]; ok && t.Kind == KindPlain {
		return t, nil
	}
	return nil, &UnknownTypeError{Name: name}
}

// GetList interns (or returns the existing) list<elem> type.
func (r *Registry) GetList(elem *Type) *Type {
	sig := listSignature(elem)
	if t, ok := r.bySignature[sig]; ok {
		return t
	}
	id := r.nextListID
	r.nextListID++
	t := &Type{
		Name:      sig,
		Category:  Container,
		Kind:      KindList,
		ID:        id,
		Signature: sig,
		Elem:      elem,
		features: map[Feature]bool{
			FeatSequence: true, FeatContainer: true, FeatMutable: true,
			FeatReference: true, FeatIndexable: true,
		},
	}
	return r.intern(t)
}

// GetDict interns (or returns the existing) dict<key,val> type.
func (r *Registry) GetDict(key, val *Type) *Type {
	sig := dictSignature(key, val)
	if t, ok := r.bySignature[sig]; ok {
		return t
	}
	id := r.nextDictID
	r.nextDictID++
	t := &Type{
		Name:      sig,
		Category:  Container,
		Kind:      KindDict,
		ID:        id,
		Signature: sig,
		Key:       key,
		Val:       val,
		features: map[Feature]bool{
			FeatMapping: true, FeatContainer: true, FeatMutable: true,
			FeatReference: true, FeatIndexable: true,
		},
	}
	return r.intern(t)
}

// GetFunction interns (or returns the existing) function type with the
// given return and parameter types.
func (r *Registry) GetFunction(ret *Type, params []*Type) *Type {
	sig := funcSignature(ret, params)
	if t, ok := r.bySignature[sig]; ok {
		return t
	}
	id := r.nextFuncID
	r.nextFuncID++
	t := &Type{
		Name:      sig,
		Category:  Function,
		Kind:      KindFunc,
		ID:        id,
		Signature: sig,
		Ret:       ret,
		Params:    append([]*Type(nil), params...),
		features:  map[Feature]bool{FeatCallable: true, FeatReference: true},
	}
	return r.intern(t)
}

// GetClass interns (or returns the existing) class type named name.
func (r *Registry) GetClass(name string) *Type {
	sig := classSignature(name)
	if t, ok := r.bySignature[sig]; ok {
		return t
	}
	t := &Type{
		Name:      name,
		Category:  Reference,
		Kind:      KindClass,
		ID:        IDClass,
		Signature: sig,
		features:  map[Feature]bool{FeatReference: true, FeatMutable: true},
	}
	return r.intern(t)
}

// GetInstance interns (or returns the existing) instance type of class.
// Each class gets exactly one instance ID, allocated from the 500+ range
// (§6) the first time its class is instantiated.
func (r *Registry) GetInstance(class *Type) *Type {
	sig := instanceSignature(class)
	if t, ok := r.bySignature[sig]; ok {
		return t
	}
	id := r.nextInstID
	r.nextInstID++
	t := &Type{
		Name:      class.Name,
		Category:  Reference,
		Kind:      KindInstance,
		ID:        id,
		Signature: sig,
		Class:     class,
		features: map[Feature]bool{
			FeatReference: true, FeatMutable: true,
		},
	}
	return r.intern(t)
}

// TypeByID reverse-looks-up a Type by its numeric ID. Maintained eagerly:
// every Get*/intern call above registers into byID before returning.
func (r *Registry) TypeByID(id int) (*Type, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// TypeByIDOrAny is TypeByID with the not-found case collapsed to `any`,
// for callers (C2/C3 result-type lookups) where an unrecognized ID
// should degrade gracefully rather than force an error return.
func (r *Registry) TypeByIDOrAny(id int) *Type {
	if t, ok := r.byID[id]; ok {
		return t
	}
	any, _ := r.GetPrimitive("any")
	return any
}

// ParseSignature accepts "int", "list<T>", "dict<K,V>" and recursively
// nested forms thereof. Unknown or malformed text returns `any` rather
// than an error (§4.1): whatever text the parser hands the type system
// as a declared annotation must resolve to
// *something*, and any is the documented fallback.
func (r *Registry) ParseSignature(s string) *Type {
	s = strings.TrimSpace(s)
	if t, ok := r.bySignature[s]; ok && t.Kind == KindPlain {
		return t
	}
	if strings.HasPrefix(s, "list<") && strings.HasSuffix(s, ">") {
		inner := s[len("list<") : len(s)-1]
		return r.GetList(r.ParseSignature(inner))
	}
	if strings.HasPrefix(s, "dict<") && strings.HasSuffix(s, ">") {
		inner := s[len("dict<") : len(s)-1]
		parts := splitTopLevelComma(inner)
		if len(parts) == 2 {
			return r.GetDict(r.ParseSignature(parts[0]), r.ParseSignature(parts[1]))
		}
	}
	any, _ := r.GetPrimitive("any")
	return any
}

// splitTopLevelComma splits s on commas that are not nested inside angle
// brackets, so "dict<int,list<int,string>>"'s inner text splits into
// ["int", "list<int,string>"] rather than three pieces.
func splitTopLevelComma(s string) []string {
	depth := 0
	last := 0
	var parts []string
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// RegisterFeature sets feature on the interned type currently named
// typeName (a primitive or container-base name). Used to extend the
// built-in feature set without touching the seeding table.
func (r *Registry) RegisterFeature(typeName string, feature Feature, value bool) error {
	t, ok := r.bySignature[typeName]
	if !ok {
		return &UnknownTypeError{Name: typeName}
	}
	if t.features == nil {
		t.features = make(map[Feature]bool, 1)
	}
	t.features[feature] = value
	return nil
}

// HasFeature is the free-function form of (*Type).HasFeature, kept for
// symmetry with the other registry-level queries in §4.1's public API.
func (r *Registry) HasFeature(t *Type, feature Feature) bool {
	return t.HasFeature(feature)
}

// CanConvert reports whether a value of type from can be used where to is
// expected, per §4.1: equal signatures, either side any, both numeric, or
// an explicit conversion-table entry (delegated to an *OpRegistry since
// the conversion table lives in C2, not C1).
func (r *Registry) CanConvert(from, to *Type, ops *OpRegistry) bool {
	if from == nil || to == nil {
		return false
	}
	if from.Signature == to.Signature {
		return true
	}
	if from.IsAny() || to.IsAny() {
		return true
	}
	if from.HasFeature(FeatNumeric) && to.HasFeature(FeatNumeric) {
		return true
	}
	if ops != nil {
		if _, ok := ops.conversions[convKey{from.ID, to.ID}]; ok {
			return true
		}
	}
	return false
}

// UnknownTypeError is returned by GetPrimitive (and anything else that
// must distinguish "not found" from "resolved to any") for a name the
// registry has never seen.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return "unknown type name " + strconv.Quote(e.Name)
}
