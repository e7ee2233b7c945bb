package infer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tplc/src/ast"
	"tplc/src/infer"
	"tplc/src/types"
)

type fakeEnv struct {
	vars  map[string]*types.Type
	funcs map[string]infer.FuncSignature
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{vars: map[string]*types.Type{}, funcs: map[string]infer.FuncSignature{}}
}

func (e *fakeEnv) LookupVar(name string) (*types.Type, bool) {
	t, ok := e.vars[name]
	return t, ok
}

func (e *fakeEnv) LookupFunc(name string) (infer.FuncSignature, bool) {
	s, ok := e.funcs[name]
	return s, ok
}

func newInferencer() (*infer.Inferencer, *types.Registry) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	return infer.New(r, ops), r
}

func TestInferLiterals(t *testing.T) {
	inf, _ := newInferencer()
	env := newFakeEnv()

	n := ast.NewNumber(3, ast.Pos{})
	typ, err := inf.Infer(n, env)
	require.NoError(t, err)
	assert.Equal(t, "int", typ.Signature)

	f := ast.NewFloat(3.5, ast.Pos{})
	typ, err = inf.Infer(f, env)
	require.NoError(t, err)
	assert.Equal(t, "double", typ.Signature)

	s := ast.NewStr("hi", ast.Pos{})
	typ, err = inf.Infer(s, env)
	require.NoError(t, err)
	assert.Equal(t, "string", typ.Signature)
}

func TestInferBinaryPromotesToDouble(t *testing.T) {
	inf, _ := newInferencer()
	env := newFakeEnv()

	e := ast.NewBinary("+", ast.NewNumber(1, ast.Pos{}), ast.NewFloat(2.0, ast.Pos{}), ast.Pos{})
	typ, err := inf.Infer(e, env)
	require.NoError(t, err)
	assert.Equal(t, "double", typ.Signature)
}

func TestInferCompareAlwaysBool(t *testing.T) {
	inf, _ := newInferencer()
	env := newFakeEnv()

	e := ast.NewBinary("<", ast.NewNumber(1, ast.Pos{}), ast.NewNumber(2, ast.Pos{}), ast.Pos{})
	typ, err := inf.Infer(e, env)
	require.NoError(t, err)
	assert.Equal(t, "bool", typ.Signature)
}

func TestInferListLiteralMajorityType(t *testing.T) {
	inf, r := newInferencer()
	env := newFakeEnv()

	elems := []ast.Expr{
		ast.NewNumber(1, ast.Pos{}), ast.NewNumber(2, ast.Pos{}),
		ast.NewNumber(3, ast.Pos{}), ast.NewStr("x", ast.Pos{}),
	}
	lit := ast.NewListLit(elems, ast.Pos{})
	typ, err := inf.Infer(lit, env)
	require.NoError(t, err)
	intT, _ := r.GetPrimitive("int")
	assert.Equal(t, r.GetList(intT).Signature, typ.Signature, "3/4 = 75%% int should win the majority rule")
}

func TestInferListLiteralFallsBackToSuperTypeThenAny(t *testing.T) {
	inf, r := newInferencer()
	env := newFakeEnv()

	mixedNumeric := ast.NewListLit([]ast.Expr{ast.NewNumber(1, ast.Pos{}), ast.NewFloat(1.5, ast.Pos{})}, ast.Pos{})
	typ, err := inf.Infer(mixedNumeric, env)
	require.NoError(t, err)
	dblT, _ := r.GetPrimitive("double")
	assert.Equal(t, r.GetList(dblT).Signature, typ.Signature)

	mixedIncompatible := ast.NewListLit([]ast.Expr{ast.NewNumber(1, ast.Pos{}), ast.NewStr("x", ast.Pos{})}, ast.Pos{})
	typ, err = inf.Infer(mixedIncompatible, env)
	require.NoError(t, err)
	anyT, _ := r.GetPrimitive("any")
	assert.Equal(t, r.GetList(anyT).Signature, typ.Signature)
}

func TestInferDictLiteralEmpty(t *testing.T) {
	inf, r := newInferencer()
	env := newFakeEnv()

	lit := ast.NewDictLit(nil, ast.Pos{})
	typ, err := inf.Infer(lit, env)
	require.NoError(t, err)
	anyT, _ := r.GetPrimitive("any")
	assert.Equal(t, r.GetDict(anyT, anyT).Signature, typ.Signature)
}

func TestInferIndexListElementType(t *testing.T) {
	inf, r := newInferencer()
	env := newFakeEnv()
	strT, _ := r.GetPrimitive("string")
	env.vars["xs"] = r.GetList(strT)

	idx := ast.NewIndex(ast.NewVar("xs", ast.Pos{}), ast.NewNumber(0, ast.Pos{}), ast.Pos{})
	typ, err := inf.Infer(idx, env)
	require.NoError(t, err)
	assert.Equal(t, "string", typ.Signature)
}

func TestInferCallByName(t *testing.T) {
	inf, r := newInferencer()
	env := newFakeEnv()
	strT, _ := r.GetPrimitive("string")
	env.funcs["greet"] = infer.FuncSignature{Params: nil, Ret: strT}

	call := ast.NewCall(ast.NewVar("greet", ast.Pos{}), nil, ast.Pos{})
	typ, err := inf.Infer(call, env)
	require.NoError(t, err)
	assert.Equal(t, "string", typ.Signature)
}

func TestInferReturnTypePreservesParameterPassThrough(t *testing.T) {
	inf, r := newInferencer()
	env := newFakeEnv()
	intT, _ := r.GetPrimitive("int")
	listOfInt := r.GetList(intT)
	env.vars["xs"] = listOfInt

	fn := ast.NewFuncDef("identity", []ast.Param{{Name: "xs", DeclaredType: "list<int>"}}, "",
		[]ast.Stmt{ast.NewReturn(ast.NewVar("xs", ast.Pos{}), ast.Pos{})}, ast.Pos{})

	ret, err := inf.InferReturnType(fn, env, map[string]*types.Type{"xs": listOfInt})
	require.NoError(t, err)
	assert.Equal(t, listOfInt.Signature, ret.Signature, "returning a parameter verbatim must preserve its declared type")
}

func TestInferReturnTypeNameHeuristicFallback(t *testing.T) {
	inf, _ := newInferencer()
	env := newFakeEnv()

	fn := ast.NewFuncDef("get_list", nil, "", nil, ast.Pos{})
	ret, err := inf.InferReturnType(fn, env, nil)
	require.NoError(t, err)
	assert.Equal(t, types.KindList, ret.Kind)
}

func TestInferReturnTypeUnifiesBranches(t *testing.T) {
	inf, r := newInferencer()
	env := newFakeEnv()

	fn := ast.NewFuncDef("pick", nil, "", []ast.Stmt{
		ast.NewIf(ast.NewBool(true, ast.Pos{}),
			[]ast.Stmt{ast.NewReturn(ast.NewNumber(1, ast.Pos{}), ast.Pos{})},
			[]ast.Stmt{ast.NewReturn(ast.NewFloat(2.0, ast.Pos{}), ast.Pos{})},
			ast.Pos{}),
	}, ast.Pos{})

	ret, err := inf.InferReturnType(fn, env, nil)
	require.NoError(t, err)
	dblT, _ := r.GetPrimitive("double")
	assert.Equal(t, dblT.Signature, ret.Signature)
}

func TestInferUndefinedVariableErrors(t *testing.T) {
	inf, _ := newInferencer()
	env := newFakeEnv()

	_, err := inf.Infer(ast.NewVar("missing", ast.Pos{}), env)
	require.Error(t, err)
	var ierr *infer.Error
	require.ErrorAs(t, err, &ierr)
}

func TestInferCachesMonotonically(t *testing.T) {
	inf, _ := newInferencer()
	env := newFakeEnv()

	n := ast.NewNumber(1, ast.Pos{})
	first, err := inf.Infer(n, env)
	require.NoError(t, err)
	second, err := inf.Infer(n, env)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
