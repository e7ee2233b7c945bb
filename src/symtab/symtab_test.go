package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tplc/src/ast"
	"tplc/src/infer"
	"tplc/src/loopctx"
	"tplc/src/symtab"
	"tplc/src/types"
)

func TestTableSetGetAcrossScopes(t *testing.T) {
	r := types.NewRegistry()
	intT, _ := r.GetPrimitive("int")
	funcs := symtab.NewFuncs()
	tab := symtab.New(funcs, loopctx.NewTracker())

	tab.Set("x", "v1", intT)
	b, ok := tab.Get("x")
	require.True(t, ok)
	assert.Equal(t, "v1", b.Value)

	tab.PushScope()
	tab.Set("y", "v2", intT)
	_, ok = tab.Get("x")
	assert.True(t, ok, "inner scope must see outer bindings")
	tab.PopScope()

	_, ok = tab.Get("y")
	assert.False(t, ok, "y must not be visible after its scope is popped")
}

func TestTablePopRootScopePanics(t *testing.T) {
	tab := symtab.New(symtab.NewFuncs(), loopctx.NewTracker())
	assert.Panics(t, func() { tab.PopScope() })
}

func TestTableSetRoutesThroughLoopTracker(t *testing.T) {
	r := types.NewRegistry()
	intT, _ := r.GetPrimitive("int")
	tracker := loopctx.NewTracker()
	tab := symtab.New(symtab.NewFuncs(), tracker)

	tracker.EnterLoop("header", "exit")
	tracker.CreatePhisForScope(map[string]loopctx.VarSeed{"i": {Type: intT}}, noopEmitter{})

	tab.Set("i", "newval", intT)
	b, ok := tab.Get("i")
	require.True(t, ok)
	assert.Equal(t, "newval", b.Value, "straight-line read sees the latest write directly")
}

type noopEmitter struct{}

func (noopEmitter) CreatePhi(t *types.Type, header loopctx.BlockRef) loopctx.SSAValue { return "phi" }
func (noopEmitter) AddIncoming(phi, val loopctx.SSAValue, pred loopctx.BlockRef)       {}

func TestFuncsDefineAndFind(t *testing.T) {
	funcs := symtab.NewFuncs()
	fn := ast.NewFuncDef("f", nil, "", nil, ast.Pos{})
	require.NoError(t, funcs.DefineFunctionAST("f", fn))

	_, err := funcs.DefineFunctionAST("f", fn)
	assert.Error(t, err, "redefining a function must fail")

	got, ok := funcs.FindFunctionAST("f")
	require.True(t, ok)
	assert.Same(t, fn, got)
}

func TestTableSatisfiesInferEnv(t *testing.T) {
	r := types.NewRegistry()
	strT, _ := r.GetPrimitive("string")
	funcs := symtab.NewFuncs()
	funcs.SetSignature("greet", infer.FuncSignature{Ret: strT})
	tab := symtab.New(funcs, loopctx.NewTracker())
	tab.Set("name", "ssa1", strT)

	var env infer.Env = tab
	vt, ok := env.LookupVar("name")
	require.True(t, ok)
	assert.Equal(t, strT, vt)

	sig, ok := env.LookupFunc("greet")
	require.True(t, ok)
	assert.Equal(t, strT, sig.Ret)
}
