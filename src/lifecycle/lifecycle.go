// Package lifecycle implements the object lifecycle manager (C6): the
// decision matrix that decides, for every value flowing through the
// generator, whether it needs a runtime copy, an incref, a decref, or
// wrapping a raw scalar into a reference-counted object (§4.6).
package lifecycle

import "tplc/src/types"

// Source is where a value came from.
type Source int

const (
	Literal Source = iota
	BinaryOp
	UnaryOp
	FunctionReturn
	LocalVariable
	Parameter
	IndexAccess
	AttributeAccess
	Temporary
)

// Destination is where a value is headed. Named Dest* throughout to stay
// distinct from the same-named Source constants above (Parameter and
// Temporary are valid values of both enums).
type Destination int

const (
	DestReturn Destination = iota
	DestAssignment
	DestParameter
	DestTemporary
	DestStorage
)

// isFreshlyProduced reports whether src is a value the generator itself
// just built (a literal, an operator result, or a call result) as
// opposed to one it's merely forwarding (a variable, parameter, or
// container/attribute read).
func isFreshlyProduced(src Source) bool {
	switch src {
	case Literal, BinaryOp, UnaryOp, FunctionReturn:
		return true
	default:
		return false
	}
}

// NeedsCopy implements §4.6's needs_copy row: false for non-reference
// primitives and for freshly produced values; true when a forwarded
// LocalVariable/Parameter reaches Return/Storage, and true for any
// IndexAccess/AttributeAccess read headed anywhere but a Temporary.
func NeedsCopy(t *types.Type, src Source, dst Destination) bool {
	if !t.HasFeature(types.FeatReference) {
		return false
	}
	if isFreshlyProduced(src) {
		return false
	}
	switch src {
	case LocalVariable, Parameter:
		return dst == DestReturn || dst == DestStorage
	case IndexAccess, AttributeAccess:
		return dst != DestTemporary
	}
	return false
}

// NeedsIncref implements §4.6's needs_incref row: false for non-reference
// types; true when the destination is Assignment/Storage/Parameter; true
// when the destination is Return and the source reads from
// LocalVariable/Parameter/IndexAccess/AttributeAccess; always false for a
// Temporary destination.
func NeedsIncref(t *types.Type, src Source, dst Destination) bool {
	if !t.HasFeature(types.FeatReference) {
		return false
	}
	if dst == DestTemporary {
		return false
	}
	switch dst {
	case DestAssignment, DestStorage, DestParameter:
		return true
	case DestReturn:
		switch src {
		case LocalVariable, Parameter, IndexAccess, AttributeAccess:
			return true
		}
	}
	return false
}

// NeedsDecref implements §4.6's needs_decref row: true for reference
// types whose source is a BinaryOp/UnaryOp/FunctionReturn temporary that
// must be released at the end of the statement that produced it.
func NeedsDecref(t *types.Type, src Source) bool {
	if !t.HasFeature(types.FeatReference) {
		return false
	}
	switch src {
	case BinaryOp, UnaryOp, FunctionReturn:
		return true
	}
	return false
}

// NeedsWrapping implements §4.6's needs_wrapping row: true exactly when
// the SSA value is a raw scalar (rawIsScalar, decided by the caller from
// the IR value's own LLVM type) but the declared type is a reference
// type, meaning a create_int/create_double/create_bool call must box it
// first.
func NeedsWrapping(t *types.Type, rawIsScalar bool) bool {
	return rawIsScalar && t.HasFeature(types.FeatReference)
}

// Wrapper performs the actual create_int/create_double/create_bool IR
// call on behalf of AdjustObject/HandleReturnValue. Kept as an injected
// interface, the same way loopctx.Emitter is, so this package carries no
// LLVM dependency.
type Wrapper interface {
	Wrap(v interface{}, t *types.Type) interface{}
	Copy(v interface{}, t *types.Type) interface{}
	Incref(v interface{}, t *types.Type) interface{}
	Decref(v interface{}, t *types.Type)
}

// AdjustObject implements §4.6's adjust_object: applies wrap, then copy,
// then incref, in that order, and returns the final adjusted value.
// rawIsScalar tells NeedsWrapping whether v is presently a bare scalar
// rather than an already-boxed object pointer.
func AdjustObject(w Wrapper, v interface{}, t *types.Type, src Source, dst Destination, rawIsScalar bool) interface{} {
	if NeedsWrapping(t, rawIsScalar) {
		v = w.Wrap(v, t)
	}
	if NeedsCopy(t, src, dst) {
		v = w.Copy(v, t)
	}
	if NeedsIncref(t, src, dst) {
		v = w.Incref(v, t)
	}
	return v
}

// HandleReturnValue implements §4.6's handle_return_value: the returned
// object must carry the function's *declared* return type ID, not the
// expression's — the fix for container pass-through, where a `list`
// parameter returned unmodified must still present as `list` even though
// the runtime value underneath may have started life tagged as
// something narrower (e.g. an `int` placeholder on an empty-container
// fast path). Retyper performs the actual runtime retagging call.
type Retyper interface {
	Retag(v interface{}, declared *types.Type) interface{}
}

// HandleReturnValue adjusts v (already evaluated with source src) for a
// Return destination and, if fnReturnType differs from exprType, retags
// it to fnReturnType.
func HandleReturnValue(w Wrapper, r Retyper, v interface{}, fnReturnType, exprType *types.Type, src Source, rawIsScalar bool) interface{} {
	v = AdjustObject(w, v, exprType, src, DestReturn, rawIsScalar)
	if fnReturnType != nil && exprType != nil && fnReturnType.Signature != exprType.Signature {
		v = r.Retag(v, fnReturnType)
	}
	return v
}

// TempList tracks every produced reference-typed temporary (§4.6's
// "temporary tracking"): every value whose source is BinaryOp/UnaryOp/
// FunctionReturn is appended here as it's produced, and released with a
// decref at the next statement boundary or function exit.
type TempList struct {
	entries []tempEntry
}

type tempEntry struct {
	value interface{}
	typ   *types.Type
}

// Track records v as a temporary if NeedsDecref says its source requires
// release later.
func (tl *TempList) Track(v interface{}, t *types.Type, src Source) {
	if NeedsDecref(t, src) {
		tl.entries = append(tl.entries, tempEntry{value: v, typ: t})
	}
}

// Flush emits a decref for every tracked temporary via w, then clears
// the list. Call at each statement boundary and once more on function
// exit.
func (tl *TempList) Flush(w Wrapper) {
	for _, e := range tl.entries {
		w.Decref(e.value, e.typ)
	}
	tl.entries = tl.entries[:0]
}

// Untrack removes v from the list without decref-ing it, if present. A
// return statement calls this on its own result before flushing the rest
// of the statement's temporaries: ownership of that value is passing to
// the caller, not being released here.
func (tl *TempList) Untrack(v interface{}) {
	for i, e := range tl.entries {
		if e.value == v {
			tl.entries = append(tl.entries[:i], tl.entries[i+1:]...)
			return
		}
	}
}
