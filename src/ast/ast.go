// Package ast defines the syntax tree shape consumed by the code generator.
//
// ast is the interface between parsing and code generation: a tagged
// sum type per node kind, one Go type per grammar production, so the
// code generator can switch on concrete type instead of an int tag.
package ast

// Pos is the source position of a node, carried through for diagnostics.
type Pos struct {
	Line int
	Col  int
}

// InferredType is set by the type inferencer (infer.Infer) and cached on
// the node. It is declared here, rather than in package types, so that
// ast does not import types; callers type-assert to *types.Type.
type InferredType interface{}

// Expr is any expression node. Every concrete expression type embeds
// exprBase, which carries position and the monotone inference cache.
type Expr interface {
	exprNode()
	Position() Pos
	// Cached returns the cached inferred type, or nil if not yet set.
	Cached() InferredType
	// SetCached sets the inference cache. Once set with a non-nil value
	// it must not be overwritten with a different value (§3 invariant:
	// "the cache is monotone").
	SetCached(InferredType)
}

type exprBase struct {
	Pos    Pos
	cached InferredType
}

func (e *exprBase) Position() Pos            { return e.Pos }
func (e *exprBase) Cached() InferredType     { return e.cached }
func (e *exprBase) SetCached(t InferredType) { e.cached = t }

// Number is an integer literal. The parser (src/frontend) is responsible for
// deciding whether a literal is Number or Float; the inferencer trusts
// this tag rather than re-deriving it from the text (§4.3: "Literals are
// tagged at parse time with the intended type").
type Number struct {
	exprBase
	Value int64
}

func (*Number) exprNode() {}

// Float is a floating point literal.
type Float struct {
	exprBase
	Value float64
}

func (*Float) exprNode() {}

// Str is a string literal.
type Str struct {
	exprBase
	Value string
}

func (*Str) exprNode() {}

// Bool is a boolean literal.
type Bool struct {
	exprBase
	Value bool
}

func (*Bool) exprNode() {}

// NoneLit is the `None` literal.
type NoneLit struct {
	exprBase
}

func (*NoneLit) exprNode() {}

// Var is a bare identifier reference.
type Var struct {
	exprBase
	Name string
}

func (*Var) exprNode() {}

// ListLit is a `[e1, e2, ...]` literal.
type ListLit struct {
	exprBase
	Elems []Expr
}

func (*ListLit) exprNode() {}

// KV is one dict-literal key/value pair.
type KV struct {
	Key   Expr
	Value Expr
}

// DictLit is a `{k1: v1, k2: v2, ...}` literal.
type DictLit struct {
	exprBase
	Pairs []KV
}

func (*DictLit) exprNode() {}

// Binary is a binary arithmetic/bitwise/concatenation expression, e.g. `a + b`.
type Binary struct {
	exprBase
	Op  string
	L   Expr
	R   Expr
}

func (*Binary) exprNode() {}

// Unary is a unary expression, e.g. `-a` or `not a`.
type Unary struct {
	exprBase
	Op      string
	Operand Expr
}

func (*Unary) exprNode() {}

// CompareOps is the set of relational/equality/membership operators that
// always produce bool (§4.3).
var CompareOps = map[string]bool{
	"<": true, ">": true, "<=": true, ">=": true,
	"==": true, "!=": true, "is": true, "in": true,
}

// Compare is a comparison expression. Kept distinct from Binary because
// its result type is unconditionally bool (§4.3), unlike Binary which
// consults the operation registry.
type Compare struct {
	exprBase
	Op string
	L  Expr
	R  Expr
}

func (*Compare) exprNode() {}

// Index is a subscript expression, e.g. `xs[i]` or `d["k"]`.
type Index struct {
	exprBase
	Container Expr
	Key       Expr
}

func (*Index) exprNode() {}

// Call is a function-call expression. Callee is an expression so that
// higher-order calls (`f()()`) are representable; C8 special-cases the
// common case where Callee is a bare *Var naming a known function.
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func (*Call) exprNode() {}

// Attribute is a `obj.name` field/method access.
type Attribute struct {
	exprBase
	Obj  Expr
	Name string
}

func (*Attribute) exprNode() {}

// Stmt is any statement node.
type Stmt interface {
	stmtNode()
	Position() Pos
}

type stmtBase struct {
	Pos Pos
}

func (s *stmtBase) Position() Pos { return s.Pos }

// ExprStmt is an expression evaluated for effect, e.g. a bare call.
type ExprStmt struct {
	stmtBase
	X Expr
}

func (*ExprStmt) stmtNode() {}

// Assign is `target = value`, where target is a plain name.
type Assign struct {
	stmtBase
	Target string
	Value  Expr
}

func (*Assign) stmtNode() {}

// IndexAssign is `container[key] = value`.
type IndexAssign struct {
	stmtBase
	Container Expr
	Key       Expr
	Value     Expr
}

func (*IndexAssign) stmtNode() {}

// AttrAssign is `obj.name = value`.
type AttrAssign struct {
	stmtBase
	Obj   Expr
	Name  string
	Value Expr
}

func (*AttrAssign) stmtNode() {}

// Return is `return expr` or a bare `return`.
type Return struct {
	stmtBase
	Value Expr // nil for a bare return
}

func (*Return) stmtNode() {}

// If is `if cond: then [else: else_]`.
type If struct {
	stmtBase
	Cond Expr
	Then []Stmt
	Else []Stmt // nil if no else clause
}

func (*If) stmtNode() {}

// While is `while cond: body`.
type While struct {
	stmtBase
	Cond Expr
	Body []Stmt
}

func (*While) stmtNode() {}

// Pass is a no-op statement.
type Pass struct {
	stmtBase
}

func (*Pass) stmtNode() {}

// Print is a `print(a, b, ...)` statement.
type Print struct {
	stmtBase
	Args []Expr
}

func (*Print) stmtNode() {}

// Import records a module name; it emits no IR in the core (§4.9).
type Import struct {
	stmtBase
	Module string
}

func (*Import) stmtNode() {}

// Param is one declared function/method parameter.
type Param struct {
	Name         string
	DeclaredType string // "" if untyped (resolves to `any`, §4.9)
}

// FuncDef declares a top-level function or a class method.
type FuncDef struct {
	stmtBase
	Name           string
	Params         []Param
	DeclaredReturn string // "" if return type must be inferred
	Body           []Stmt
	// IsMethod is true when this FuncDef is a class method; C9 then
	// synthesizes an implicit leading `self` parameter of the owning
	// instance type (§4.12).
	IsMethod bool
}

func (*FuncDef) stmtNode() {}

// ClassDef declares a user class: its instance fields and its methods.
type ClassDef struct {
	stmtBase
	Name    string
	Fields  []Param
	Methods []*FuncDef
}

func (*ClassDef) stmtNode() {}

// Program is the root of a compilation unit: an ordered sequence of
// top-level function, class and global-variable-introducing statements.
type Program struct {
	Decls []Stmt
}
