package frontend

import (
	"testing"

	"tplc/src/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return prog
}

func TestParseAssignAndPrint(t *testing.T) {
	prog := mustParse(t, "x = 1 + 2\nprint(x)\n")
	if len(prog.Decls) != 2 {
		t.Fatalf("got %d decls, want 2", len(prog.Decls))
	}
	assign, ok := prog.Decls[0].(*ast.Assign)
	if !ok {
		t.Fatalf("decl 0 is %T, want *ast.Assign", prog.Decls[0])
	}
	if assign.Target != "x" {
		t.Fatalf("assign target = %q, want x", assign.Target)
	}
	bin, ok := assign.Value.(*ast.Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("assign value = %#v, want Binary +", assign.Value)
	}
	printStmt, ok := prog.Decls[1].(*ast.Print)
	if !ok || len(printStmt.Args) != 1 {
		t.Fatalf("decl 1 = %#v, want Print with 1 arg", prog.Decls[1])
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n"
	prog := mustParse(t, src)
	top, ok := prog.Decls[0].(*ast.If)
	if !ok {
		t.Fatalf("decl 0 is %T, want *ast.If", prog.Decls[0])
	}
	if len(top.Then) != 1 {
		t.Fatalf("then has %d stmts, want 1", len(top.Then))
	}
	if len(top.Else) != 1 {
		t.Fatalf("else has %d stmts, want 1 (nested elif)", len(top.Else))
	}
	nested, ok := top.Else[0].(*ast.If)
	if !ok {
		t.Fatalf("elif desugars to %T, want *ast.If", top.Else[0])
	}
	if len(nested.Else) != 1 {
		t.Fatalf("nested else has %d stmts, want 1", len(nested.Else))
	}
}

func TestParseWhileLoop(t *testing.T) {
	prog := mustParse(t, "while x < 10:\n    x = x + 1\n")
	w, ok := prog.Decls[0].(*ast.While)
	if !ok {
		t.Fatalf("decl 0 is %T, want *ast.While", prog.Decls[0])
	}
	cmp, ok := w.Cond.(*ast.Compare)
	if !ok || cmp.Op != "<" {
		t.Fatalf("cond = %#v, want Compare <", w.Cond)
	}
}

func TestParseFuncDefWithTypesAndReturn(t *testing.T) {
	src := "def add(a: int, b: int) -> int:\n    return a + b\n"
	prog := mustParse(t, src)
	fn, ok := prog.Decls[0].(*ast.FuncDef)
	if !ok {
		t.Fatalf("decl 0 is %T, want *ast.FuncDef", prog.Decls[0])
	}
	if fn.Name != "add" || fn.DeclaredReturn != "int" || len(fn.Params) != 2 {
		t.Fatalf("fn = %#v", fn)
	}
	if fn.Params[0].DeclaredType != "int" || fn.Params[1].DeclaredType != "int" {
		t.Fatalf("params = %#v", fn.Params)
	}
	ret, ok := fn.Body[0].(*ast.Return)
	if !ok || ret.Value == nil {
		t.Fatalf("body[0] = %#v, want Return with value", fn.Body[0])
	}
}

func TestParseListDictTypeAnnotation(t *testing.T) {
	src := "def f(xs: list<int>, d: dict<string,int>):\n    pass\n"
	prog := mustParse(t, src)
	fn := prog.Decls[0].(*ast.FuncDef)
	if fn.Params[0].DeclaredType != "list<int>" {
		t.Fatalf("param 0 type = %q, want list<int>", fn.Params[0].DeclaredType)
	}
	if fn.Params[1].DeclaredType != "dict<string,int>" {
		t.Fatalf("param 1 type = %q, want dict<string,int>", fn.Params[1].DeclaredType)
	}
}

func TestParseClassWithFieldsAndMethods(t *testing.T) {
	src := "class Point:\n    x: int\n    y: int\n\n    def magnitude(self) -> int:\n        return self.x\n"
	prog := mustParse(t, src)
	cd, ok := prog.Decls[0].(*ast.ClassDef)
	if !ok {
		t.Fatalf("decl 0 is %T, want *ast.ClassDef", prog.Decls[0])
	}
	if cd.Name != "Point" || len(cd.Fields) != 2 || len(cd.Methods) != 1 {
		t.Fatalf("class = %#v", cd)
	}
	if !cd.Methods[0].IsMethod {
		t.Fatalf("method IsMethod = false, want true")
	}
}

func TestParseIndexAndAttributeAssign(t *testing.T) {
	prog := mustParse(t, "xs[0] = 1\nobj.field = 2\n")
	idxAssign, ok := prog.Decls[0].(*ast.IndexAssign)
	if !ok {
		t.Fatalf("decl 0 is %T, want *ast.IndexAssign", prog.Decls[0])
	}
	if _, ok := idxAssign.Container.(*ast.Var); !ok {
		t.Fatalf("container = %#v, want *ast.Var", idxAssign.Container)
	}
	attrAssign, ok := prog.Decls[1].(*ast.AttrAssign)
	if !ok {
		t.Fatalf("decl 1 is %T, want *ast.AttrAssign", prog.Decls[1])
	}
	if attrAssign.Name != "field" {
		t.Fatalf("attr name = %q, want field", attrAssign.Name)
	}
}

func TestParseListAndDictLiterals(t *testing.T) {
	prog := mustParse(t, "xs = [1, 2, 3]\nd = {\"a\": 1, \"b\": 2}\n")
	assign := prog.Decls[0].(*ast.Assign)
	list, ok := assign.Value.(*ast.ListLit)
	if !ok || len(list.Elems) != 3 {
		t.Fatalf("xs value = %#v, want 3-elem ListLit", assign.Value)
	}
	dictAssign := prog.Decls[1].(*ast.Assign)
	dict, ok := dictAssign.Value.(*ast.DictLit)
	if !ok || len(dict.Pairs) != 2 {
		t.Fatalf("d value = %#v, want 2-pair DictLit", dictAssign.Value)
	}
}

func TestParseCallAndIndexChain(t *testing.T) {
	prog := mustParse(t, "y = f(1, 2)[0].field\n")
	assign := prog.Decls[0].(*ast.Assign)
	attr, ok := assign.Value.(*ast.Attribute)
	if !ok || attr.Name != "field" {
		t.Fatalf("value = %#v, want Attribute field", assign.Value)
	}
	idx, ok := attr.Obj.(*ast.Index)
	if !ok {
		t.Fatalf("attr.Obj = %#v, want *ast.Index", attr.Obj)
	}
	call, ok := idx.Container.(*ast.Call)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("idx.Container = %#v, want 2-arg Call", idx.Container)
	}
}

func TestParseImportStatement(t *testing.T) {
	prog := mustParse(t, "import math\n")
	imp, ok := prog.Decls[0].(*ast.Import)
	if !ok || imp.Module != "math" {
		t.Fatalf("decl 0 = %#v, want Import math", prog.Decls[0])
	}
}

func TestParseSyntaxErrorReported(t *testing.T) {
	_, err := Parse("x = \n")
	if err == nil {
		t.Fatalf("expected a syntax error for a missing right-hand side")
	}
}
