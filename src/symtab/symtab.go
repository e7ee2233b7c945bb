// Package symtab implements the symbol table and scoping component (C4):
// a lexically scoped name -> (ssa-value, type) mapping, plus the
// function-AST lookup table C3 (return-type inference) and C8 (call
// lowering) both need. Writes are routed through a loopctx.Tracker so
// that assignments inside a loop body feed the phi-merging protocol
// without the rest of the generator needing to know about it (§4.4).
package symtab

import (
	"fmt"

	"tplc/src/ast"
	"tplc/src/infer"
	"tplc/src/loopctx"
	"tplc/src/types"
)

// Binding is what one name resolves to in a scope: the SSA value
// currently backing it and its static type. Value is opaque to symtab,
// the same way it is to loopctx — the code generator is the only package
// that knows it's really an llvm.Value.
type Binding struct {
	Value interface{}
	Type  *types.Type
}

type scope struct {
	vars map[string]*Binding
}

func newScope() *scope {
	return &scope{vars: make(map[string]*Binding)}
}

// Table is one function's symbol table: a stack of scopes plus the
// shared, program-wide function-AST table. Construct one Table per
// function being generated (function parameters occupy its bottom
// scope, per the teacher's "parameters at the bottom of the stack"
// convention), sharing the same *Funcs across every Table in a module.
type Table struct {
	scopes []*scope
	loops  *loopctx.Tracker
	funcs  *Funcs
}

// New returns a Table with a single, empty root scope.
func New(funcs *Funcs, loops *loopctx.Tracker) *Table {
	return &Table{scopes: []*scope{newScope()}, loops: loops, funcs: funcs}
}

// PushScope implements §4.4's push_scope.
func (t *Table) PushScope() {
	t.scopes = append(t.scopes, newScope())
}

// PopScope implements §4.4's pop_scope. Popping the root scope is a
// programmer error in the caller and panics rather than silently
// corrupting the stack.
func (t *Table) PopScope() {
	if len(t.scopes) <= 1 {
		panic("symtab: PopScope called on root scope")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// CurrentDepth implements §4.4's current_depth.
func (t *Table) CurrentDepth() int {
	return len(t.scopes)
}

// Set implements §4.4's set(name, value, type): writes to the top scope,
// routed through the loop tracker first (§4.5 step 3) so a write inside
// a loop body also becomes a pending phi update. The ordinary scope
// write still happens regardless of interception — straight-line reads
// within the same iteration always see the latest assignment directly.
func (t *Table) Set(name string, value interface{}, typ *types.Type) {
	if t.loops != nil {
		t.loops.InterceptSet(name, value)
	}
	top := t.scopes[len(t.scopes)-1]
	top.vars[name] = &Binding{Value: value, Type: typ}
}

// Get implements §4.4's get(name): searches from the innermost scope
// outward.
func (t *Table) Get(name string) (*Binding, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if b, ok := t.scopes[i].vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// LookupVar satisfies infer.Env, letting the inferencer consult this
// table's current bindings without importing symtab.
func (t *Table) LookupVar(name string) (*types.Type, bool) {
	b, ok := t.Get(name)
	if !ok {
		return nil, false
	}
	return b.Type, true
}

// LookupFunc satisfies infer.Env by delegating to the shared Funcs table.
func (t *Table) LookupFunc(name string) (infer.FuncSignature, bool) {
	return t.funcs.Signature(name)
}

// Dump implements §4.4's dump, mainly for diagnostics/tests: the name ->
// type mapping visible at each scope depth, innermost first.
func (t *Table) Dump() []map[string]string {
	out := make([]map[string]string, len(t.scopes))
	for i := len(t.scopes) - 1; i >= 0; i-- {
		m := make(map[string]string, len(t.scopes[i].vars))
		for name, b := range t.scopes[i].vars {
			m[name] = b.Type.String()
		}
		out[len(t.scopes)-1-i] = m
	}
	return out
}

// Funcs is the program-wide function-AST table: define_function_ast and
// find_function_ast from §4.4, plus the resolved FuncSignature each
// function needs once C3 has inferred its return type. Shared by
// reference across every Table in a compilation (one per module, not
// per function).
type Funcs struct {
	asts map[string]*ast.FuncDef
	sigs map[string]infer.FuncSignature
}

// NewFuncs returns an empty function table.
func NewFuncs() *Funcs {
	return &Funcs{asts: make(map[string]*ast.FuncDef), sigs: make(map[string]infer.FuncSignature)}
}

// DefineFunctionAST implements §4.4's define_function_ast.
func (f *Funcs) DefineFunctionAST(name string, fn *ast.FuncDef) error {
	if _, exists := f.asts[name]; exists {
		return fmt.Errorf("function %q already defined", name)
	}
	f.asts[name] = fn
	return nil
}

// FindFunctionAST implements §4.4's find_function_ast.
func (f *Funcs) FindFunctionAST(name string) (*ast.FuncDef, bool) {
	fn, ok := f.asts[name]
	return fn, ok
}

// SetSignature records a function's resolved parameter/return types,
// once C3 has computed them, for later LookupFunc/Signature calls (e.g.
// from within another function's body, or a recursive call to itself).
func (f *Funcs) SetSignature(name string, sig infer.FuncSignature) {
	f.sigs[name] = sig
}

// Signature returns a function's resolved signature, if known.
func (f *Funcs) Signature(name string) (infer.FuncSignature, bool) {
	sig, ok := f.sigs[name]
	return sig, ok
}
