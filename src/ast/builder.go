package ast

// The constructors below exist so the parser (src/frontend) and tests
// hand-assembling a tree can build nodes without repeating the
// exprBase/stmtBase boilerplate. None of this is part of the
// core's contract; it is scaffolding for the black-box producer side of
// the ast.Expr / ast.Stmt interfaces.

func NewNumber(v int64, pos Pos) *Number { return &Number{exprBase: exprBase{Pos: pos}, Value: v} }
func NewFloat(v float64, pos Pos) *Float { return &Float{exprBase: exprBase{Pos: pos}, Value: v} }
func NewStr(v string, pos Pos) *Str      { return &Str{exprBase: exprBase{Pos: pos}, Value: v} }
func NewBool(v bool, pos Pos) *Bool      { return &Bool{exprBase: exprBase{Pos: pos}, Value: v} }
func NewNone(pos Pos) *NoneLit           { return &NoneLit{exprBase: exprBase{Pos: pos}} }
func NewVar(name string, pos Pos) *Var   { return &Var{exprBase: exprBase{Pos: pos}, Name: name} }

func NewListLit(elems []Expr, pos Pos) *ListLit {
	return &ListLit{exprBase: exprBase{Pos: pos}, Elems: elems}
}

func NewDictLit(pairs []KV, pos Pos) *DictLit {
	return &DictLit{exprBase: exprBase{Pos: pos}, Pairs: pairs}
}

func NewBinary(op string, l, r Expr, pos Pos) Expr {
	if CompareOps[op] {
		return &Compare{exprBase: exprBase{Pos: pos}, Op: op, L: l, R: r}
	}
	return &Binary{exprBase: exprBase{Pos: pos}, Op: op, L: l, R: r}
}

func NewUnary(op string, operand Expr, pos Pos) *Unary {
	return &Unary{exprBase: exprBase{Pos: pos}, Op: op, Operand: operand}
}

func NewIndex(container, key Expr, pos Pos) *Index {
	return &Index{exprBase: exprBase{Pos: pos}, Container: container, Key: key}
}

func NewCall(callee Expr, args []Expr, pos Pos) *Call {
	return &Call{exprBase: exprBase{Pos: pos}, Callee: callee, Args: args}
}

func NewAttribute(obj Expr, name string, pos Pos) *Attribute {
	return &Attribute{exprBase: exprBase{Pos: pos}, Obj: obj, Name: name}
}

func NewExprStmt(x Expr, pos Pos) *ExprStmt {
	return &ExprStmt{stmtBase: stmtBase{Pos: pos}, X: x}
}

func NewAssign(target string, value Expr, pos Pos) *Assign {
	return &Assign{stmtBase: stmtBase{Pos: pos}, Target: target, Value: value}
}

func NewIndexAssign(container, key, value Expr, pos Pos) *IndexAssign {
	return &IndexAssign{stmtBase: stmtBase{Pos: pos}, Container: container, Key: key, Value: value}
}

func NewAttrAssign(obj Expr, name string, value Expr, pos Pos) *AttrAssign {
	return &AttrAssign{stmtBase: stmtBase{Pos: pos}, Obj: obj, Name: name, Value: value}
}

func NewReturn(value Expr, pos Pos) *Return {
	return &Return{stmtBase: stmtBase{Pos: pos}, Value: value}
}

func NewIf(cond Expr, then, els []Stmt, pos Pos) *If {
	return &If{stmtBase: stmtBase{Pos: pos}, Cond: cond, Then: then, Else: els}
}

func NewWhile(cond Expr, body []Stmt, pos Pos) *While {
	return &While{stmtBase: stmtBase{Pos: pos}, Cond: cond, Body: body}
}

func NewPrint(args []Expr, pos Pos) *Print {
	return &Print{stmtBase: stmtBase{Pos: pos}, Args: args}
}

func NewPass(pos Pos) *Pass { return &Pass{stmtBase: stmtBase{Pos: pos}} }

func NewImportStmt(module string, pos Pos) *Import {
	return &Import{stmtBase: stmtBase{Pos: pos}, Module: module}
}

func NewFuncDef(name string, params []Param, ret string, body []Stmt, pos Pos) *FuncDef {
	return &FuncDef{stmtBase: stmtBase{Pos: pos}, Name: name, Params: params, DeclaredReturn: ret, Body: body}
}

func NewClassDef(name string, fields []Param, methods []*FuncDef, pos Pos) *ClassDef {
	return &ClassDef{stmtBase: stmtBase{Pos: pos}, Name: name, Fields: fields, Methods: methods}
}
