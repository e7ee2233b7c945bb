package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tplc/src/types"
)

func TestOpRegistrySeededArithmetic(t *testing.T) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	intT, _ := r.GetPrimitive("int")
	dblT, _ := r.GetPrimitive("double")

	d, ok := ops.Binary("+", intT, intT)
	require.True(t, ok)
	assert.Equal(t, types.IDInt, d.ResultID)

	d, ok = ops.Binary("/", intT, intT)
	require.True(t, ok)
	assert.Equal(t, types.IDDouble, d.ResultID, "int/int must promote to double")

	d, ok = ops.Binary("+", intT, dblT)
	require.True(t, ok)
	assert.Equal(t, types.IDDouble, d.ResultID)
}

func TestOpRegistryStringAndListOps(t *testing.T) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	strT, _ := r.GetPrimitive("string")
	intT, _ := r.GetPrimitive("int")
	listT := r.GetList(intT)

	d, ok := ops.Binary("+", strT, strT)
	require.True(t, ok)
	assert.Equal(t, types.IDString, d.ResultID)

	d, ok = ops.Binary("*", strT, intT)
	require.True(t, ok)
	assert.Equal(t, types.IDString, d.ResultID)

	d, ok = ops.Binary("+", listT, listT)
	require.True(t, ok)
	assert.Equal(t, types.IDListBase, d.ResultID)
}

func TestFindOperablePathCoercesBothSides(t *testing.T) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	boolT, _ := r.GetPrimitive("bool")
	dblT, _ := r.GetPrimitive("double")

	// bool + bool has no descriptor, directly or by coercing one side, so
	// both sides are coerced onto the first candidate, double. (int + double
	// has its own direct descriptor and comes back unchanged.)
	l, rr := ops.FindOperablePath("+", boolT, boolT)
	assert.Equal(t, dblT.Signature, l.Signature)
	assert.Equal(t, dblT.Signature, rr.Signature)
}

func TestFindOperablePathNoPathReturnsInputsUnchanged(t *testing.T) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	strT, _ := r.GetPrimitive("string")
	boolT, _ := r.GetPrimitive("bool")

	l, rr := ops.FindOperablePath("+", strT, boolT)
	assert.Equal(t, strT, l)
	assert.Equal(t, boolT, rr)
}

func TestFindBestConversionDirectAndOneHop(t *testing.T) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	intT, _ := r.GetPrimitive("int")
	dblT, _ := r.GetPrimitive("double")
	boolT, _ := r.GetPrimitive("bool")

	d, ok := ops.FindBestConversion(intT, dblT)
	require.True(t, ok)
	assert.Equal(t, 1, d.Cost)

	d, ok = ops.FindBestConversion(dblT, intT)
	require.True(t, ok)
	assert.Equal(t, 2, d.Cost)

	// bool -> bool has no direct entry, and the one-hop search through
	// the other candidates finds none either.
	_, ok = ops.FindBestConversion(boolT, boolT)
	assert.False(t, ok, "identical from/to has no conversion table entry, only the fast CanConvert path")
}

func TestIndexOpsStringAndList(t *testing.T) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	strT, _ := r.GetPrimitive("string")
	intT, _ := r.GetPrimitive("int")
	listT := r.GetList(intT)

	d, ok := ops.Index(strT, intT)
	require.True(t, ok)
	assert.Equal(t, types.IDString, d.ResultID)

	_, ok = ops.Index(listT, intT)
	require.True(t, ok)
}

func TestUnaryOps(t *testing.T) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	intT, _ := r.GetPrimitive("int")
	boolT, _ := r.GetPrimitive("bool")

	d, ok := ops.Unary("-", intT)
	require.True(t, ok)
	assert.Equal(t, types.IDInt, d.ResultID)

	d, ok = ops.Unary("not", boolT)
	require.True(t, ok)
	assert.Equal(t, types.IDBool, d.ResultID)
}
