// Package infer implements the type inferencer (C3): a set of pure
// functions over an AST node, consulting the type registry (C1) and the
// operation registry (C2), that produce the node's static Type. Results
// are cached on the node itself via ast.Expr's monotone Cached/SetCached
// pair, so a node is inferred at most once per compilation.
package infer

import (
	"fmt"
	"math"

	"tplc/src/ast"
	"tplc/src/types"
)

// FuncSignature is the declared shape of a function, as known prior to
// lowering its body: its parameter types (already resolved, declared-or-
// any) and its inferred-or-declared return type.
type FuncSignature struct {
	Params []*types.Type
	Ret    *types.Type
}

// Env is the lookup surface the inferencer needs from the symbol table
// (C4) without depending on its package: a variable's current static
// type, and a function's declared signature. Keeping this as a narrow
// interface rather than importing package symtab keeps C3 a function of
// "AST plus C1/C2 plus whatever environment the caller supplies" per
// spec, instead of hard-wiring it to one scope implementation.
type Env interface {
	LookupVar(name string) (*types.Type, bool)
	LookupFunc(name string) (FuncSignature, bool)
}

// Inferencer holds the two registries every inference rule consults.
type Inferencer struct {
	Reg *types.Registry
	Ops *types.OpRegistry
}

// New builds an Inferencer over reg and ops.
func New(reg *types.Registry, ops *types.OpRegistry) *Inferencer {
	return &Inferencer{Reg: reg, Ops: ops}
}

// Error reports an expression the inferencer could not type, carrying
// its source position for the diagnostic layer.
type Error struct {
	Pos     ast.Pos
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Col, e.Message)
}

// Infer returns e's static type, consulting and populating e's cache.
// Safe to call repeatedly on the same node: the second call returns the
// cached value without re-walking children.
func (inf *Inferencer) Infer(e ast.Expr, env Env) (*types.Type, error) {
	if cached := e.Cached(); cached != nil {
		return cached.(*types.Type), nil
	}
	t, err := inf.infer(e, env)
	if err != nil {
		return nil, err
	}
	e.SetCached(t)
	return t, nil
}

func (inf *Inferencer) infer(e ast.Expr, env Env) (*types.Type, error) {
	switch n := e.(type) {
	case *ast.Number:
		return inf.Reg.GetPrimitive("int")
	case *ast.Float:
		return inf.Reg.GetPrimitive("double")
	case *ast.Str:
		return inf.Reg.GetPrimitive("string")
	case *ast.Bool:
		return inf.Reg.GetPrimitive("bool")
	case *ast.NoneLit:
		return inf.Reg.GetPrimitive("void")

	case *ast.Var:
		if t, ok := env.LookupVar(n.Name); ok {
			return t, nil
		}
		return nil, &Error{Pos: n.Position(), Message: fmt.Sprintf("undefined name %q", n.Name)}

	case *ast.Compare:
		if _, err := inf.Infer(n.L, env); err != nil {
			return nil, err
		}
		if _, err := inf.Infer(n.R, env); err != nil {
			return nil, err
		}
		return inf.Reg.GetPrimitive("bool")

	case *ast.Binary:
		lt, err := inf.Infer(n.L, env)
		if err != nil {
			return nil, err
		}
		rt, err := inf.Infer(n.R, env)
		if err != nil {
			return nil, err
		}
		if d, ok := inf.Ops.Binary(n.Op, lt, rt); ok {
			return inf.Reg.TypeByIDOrAny(d.ResultID), nil
		}
		pl, pr := inf.Ops.FindOperablePath(n.Op, lt, rt)
		if d, ok := inf.Ops.Binary(n.Op, pl, pr); ok {
			return inf.Reg.TypeByIDOrAny(d.ResultID), nil
		}
		return nil, &Error{Pos: n.Position(), Message: fmt.Sprintf("no operation %q for %s and %s", n.Op, lt, rt)}

	case *ast.Unary:
		ot, err := inf.Infer(n.Operand, env)
		if err != nil {
			return nil, err
		}
		if n.Op == "not" {
			return inf.Reg.GetPrimitive("bool")
		}
		if d, ok := inf.Ops.Unary(n.Op, ot); ok {
			return inf.Reg.TypeByIDOrAny(d.ResultID), nil
		}
		return ot, nil

	case *ast.ListLit:
		return inf.inferListLit(n, env)

	case *ast.DictLit:
		return inf.inferDictLit(n, env)

	case *ast.Index:
		return inf.inferIndex(n, env)

	case *ast.Call:
		return inf.inferCall(n, env)

	case *ast.Attribute:
		if _, err := inf.Infer(n.Obj, env); err != nil {
			return nil, err
		}
		any, _ := inf.Reg.GetPrimitive("any")
		return any, nil
	}
	return nil, &Error{Pos: e.Position(), Message: fmt.Sprintf("infer: unhandled expression %T", e)}
}

// inferListLit implements §4.3's rule: the element type is the most
// frequent element type if it covers at least 75% of elements, else the
// common super-type of all element types, else `any`.
func (inf *Inferencer) inferListLit(n *ast.ListLit, env Env) (*types.Type, error) {
	if len(n.Elems) == 0 {
		any, _ := inf.Reg.GetPrimitive("any")
		return inf.Reg.GetList(any), nil
	}
	elemTypes := make([]*types.Type, len(n.Elems))
	counts := make(map[string]int, len(n.Elems))
	for i, el := range n.Elems {
		t, err := inf.Infer(el, env)
		if err != nil {
			return nil, err
		}
		elemTypes[i] = t
		counts[t.Signature]++
	}
	var mode *types.Type
	modeCount := 0
	for _, t := range elemTypes {
		if c := counts[t.Signature]; c > modeCount {
			modeCount = c
			mode = t
		}
	}
	if float64(modeCount)/float64(len(elemTypes)) >= 0.75 {
		return inf.Reg.GetList(mode), nil
	}
	return inf.Reg.GetList(inf.commonSuperType(elemTypes)), nil
}

// inferDictLit implements §4.3's dict rule: common super-type of keys
// crossed with common super-type of values; the empty literal is
// dict<any, any>.
func (inf *Inferencer) inferDictLit(n *ast.DictLit, env Env) (*types.Type, error) {
	if len(n.Pairs) == 0 {
		any, _ := inf.Reg.GetPrimitive("any")
		return inf.Reg.GetDict(any, any), nil
	}
	keyTypes := make([]*types.Type, len(n.Pairs))
	valTypes := make([]*types.Type, len(n.Pairs))
	for i, kv := range n.Pairs {
		kt, err := inf.Infer(kv.Key, env)
		if err != nil {
			return nil, err
		}
		vt, err := inf.Infer(kv.Value, env)
		if err != nil {
			return nil, err
		}
		keyTypes[i] = kt
		valTypes[i] = vt
	}
	return inf.Reg.GetDict(inf.commonSuperType(keyTypes), inf.commonSuperType(valTypes)), nil
}

// commonSuperType returns the one type every element of ts can stand in
// for: the shared type if they all agree, double if they're all
// numeric, else any.
func (inf *Inferencer) commonSuperType(ts []*types.Type) *types.Type {
	if len(ts) == 0 {
		any, _ := inf.Reg.GetPrimitive("any")
		return any
	}
	first := ts[0]
	allSame := true
	allNumeric := true
	for _, t := range ts {
		if t.Signature != first.Signature {
			allSame = false
		}
		if !t.HasFeature(types.FeatNumeric) {
			allNumeric = false
		}
	}
	if allSame {
		return first
	}
	if allNumeric {
		d, _ := inf.Reg.GetPrimitive("double")
		return d
	}
	any, _ := inf.Reg.GetPrimitive("any")
	return any
}

// inferIndex implements §4.3: string[int] -> string, list[int] -> elem
// type, dict[K] -> value type, driven by C2's index table.
func (inf *Inferencer) inferIndex(n *ast.Index, env Env) (*types.Type, error) {
	ct, err := inf.Infer(n.Container, env)
	if err != nil {
		return nil, err
	}
	kt, err := inf.Infer(n.Key, env)
	if err != nil {
		return nil, err
	}
	switch ct.Kind {
	case types.KindList:
		return ct.Elem, nil
	case types.KindDict:
		return ct.Val, nil
	}
	if d, ok := inf.Ops.Index(ct, kt); ok && d.ResultID != 0 {
		return inf.Reg.TypeByIDOrAny(d.ResultID), nil
	}
	any, _ := inf.Reg.GetPrimitive("any")
	return any, nil
}

// inferCall implements §4.3's call rule: a bare-name callee resolves
// through the environment's function table; anything else recurses on
// the callee's own (function) type and extracts its return type; if
// neither yields an answer, the result is `any`.
func (inf *Inferencer) inferCall(n *ast.Call, env Env) (*types.Type, error) {
	for _, a := range n.Args {
		if _, err := inf.Infer(a, env); err != nil {
			return nil, err
		}
	}
	if v, ok := n.Callee.(*ast.Var); ok {
		if sig, ok := env.LookupFunc(v.Name); ok {
			return sig.Ret, nil
		}
	}
	ct, err := inf.Infer(n.Callee, env)
	if err != nil {
		return nil, err
	}
	if ct.Kind == types.KindFunc {
		return ct.Ret, nil
	}
	any, _ := inf.Reg.GetPrimitive("any")
	return any, nil
}

// nameHeuristicHints maps a substring a `get_`/`create_` function name
// might contain to the primitive/container it most likely returns. Used
// only as the last-resort fallback in InferReturnType, when the body has
// no return statements to unify over.
var nameHeuristicHints = []struct {
	substr string
	build  func(r *types.Registry) *types.Type
}{
	{"list", func(r *types.Registry) *types.Type { any, _ := r.GetPrimitive("any"); return r.GetList(any) }},
	{"dict", func(r *types.Registry) *types.Type {
		any, _ := r.GetPrimitive("any")
		return r.GetDict(any, any)
	}},
	{"string", func(r *types.Registry) *types.Type { t, _ := r.GetPrimitive("string"); return t }},
	{"str", func(r *types.Registry) *types.Type { t, _ := r.GetPrimitive("string"); return t }},
	{"double", func(r *types.Registry) *types.Type { t, _ := r.GetPrimitive("double"); return t }},
	{"float", func(r *types.Registry) *types.Type { t, _ := r.GetPrimitive("double"); return t }},
	{"bool", func(r *types.Registry) *types.Type { t, _ := r.GetPrimitive("bool"); return t }},
	{"int", func(r *types.Registry) *types.Type { t, _ := r.GetPrimitive("int"); return t }},
}

// InferReturnType implements §4.3's return-type-inference rule: scan the
// function body for `return` statements; if any carry a value, unify
// their types, with the special case that a returned expression which is
// exactly a parameter name preserves that parameter's declared static
// type verbatim (this is what keeps a `list` parameter returned unchanged
// from losing its element type to unification). With no returns, the
// `get_`/`create_` name heuristic is tried; otherwise the result is any.
func (inf *Inferencer) InferReturnType(fn *ast.FuncDef, env Env, paramTypes map[string]*types.Type) (*types.Type, error) {
	var returnTypes []*types.Type
	var walkErr error
	var walk func(stmts []ast.Stmt)
	walk = func(stmts []ast.Stmt) {
		for _, s := range stmts {
			if walkErr != nil {
				return
			}
			switch st := s.(type) {
			case *ast.Return:
				if st.Value == nil {
					none, _ := inf.Reg.GetPrimitive("void")
					returnTypes = append(returnTypes, none)
					continue
				}
				if v, ok := st.Value.(*ast.Var); ok {
					if pt, ok := paramTypes[v.Name]; ok {
						returnTypes = append(returnTypes, pt)
						continue
					}
				}
				t, err := inf.Infer(st.Value, env)
				if err != nil {
					walkErr = err
					return
				}
				returnTypes = append(returnTypes, t)
			case *ast.If:
				walk(st.Then)
				walk(st.Else)
			case *ast.While:
				walk(st.Body)
			}
		}
	}
	walk(fn.Body)
	if walkErr != nil {
		return nil, walkErr
	}
	if len(returnTypes) > 0 {
		return inf.commonSuperType(returnTypes), nil
	}
	if n := toLower(fn.Name); indexOf(n, "get_") == 0 || indexOf(n, "create_") == 0 {
		for _, hint := range nameHeuristicHints {
			if containsFold(fn.Name, hint.substr) {
				return hint.build(inf.Reg), nil
			}
		}
	}
	any, _ := inf.Reg.GetPrimitive("any")
	return any, nil
}

func containsFold(s, substr string) bool {
	ls, lsub := toLower(s), toLower(substr)
	return indexOf(ls, lsub) >= 0
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

// classifyLiteralNumber implements §4.3's literal-classification note
// for callers constructing a Number/Float tag from raw parsed text
// without a parser's guidance: zero fractional part and 32-bit range ->
// int, else double. The builder (ast.NewNumber/NewFloat) takes an
// already-tagged value; this helper exists for producers that start from
// an untyped float64 and need the same rule applied.
func classifyLiteralNumber(v float64) (isInt bool) {
	return v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32
}
