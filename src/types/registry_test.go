package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tplc/src/types"
)

func TestRegistryInterningIsIdentity(t *testing.T) {
	r := types.NewRegistry()

	intA, err := r.GetPrimitive("int")
	require.NoError(t, err)
	intB, err := r.GetPrimitive("int")
	require.NoError(t, err)
	assert.Same(t, intA, intB, "two queries for the same signature must return the identical *Type")

	listA := r.GetList(intA)
	listB := r.GetList(intB)
	assert.Same(t, listA, listB)
}

func TestRegistryGetPrimitiveUnknown(t *testing.T) {
	r := types.NewRegistry()
	_, err := r.GetPrimitive("nope")
	require.Error(t, err)
	var unk *types.UnknownTypeError
	assert.ErrorAs(t, err, &unk)
}

func TestRegistryObjectAliasesAny(t *testing.T) {
	r := types.NewRegistry()
	any, err := r.GetPrimitive("any")
	require.NoError(t, err)
	obj, err := r.GetPrimitive("object")
	require.NoError(t, err)
	assert.Same(t, any, obj)
}

func TestRegistryListDictIDsAreStable(t *testing.T) {
	r := types.NewRegistry()
	intT, _ := r.GetPrimitive("int")
	strT, _ := r.GetPrimitive("string")

	listInt := r.GetList(intT)
	assert.GreaterOrEqual(t, listInt.ID, types.IDListRangeStart)
	assert.LessOrEqual(t, listInt.ID, types.IDListRangeEnd)

	dictIntStr := r.GetDict(intT, strT)
	assert.GreaterOrEqual(t, dictIntStr.ID, types.IDDictRangeStart)
	assert.LessOrEqual(t, dictIntStr.ID, types.IDDictRangeEnd)

	assert.Equal(t, types.IDListBase, types.BaseTypeID(listInt.ID))
	assert.Equal(t, types.IDDictBase, types.BaseTypeID(dictIntStr.ID))
}

func TestRegistryParseSignatureNested(t *testing.T) {
	r := types.NewRegistry()
	dt := r.ParseSignature("dict<int,list<string>>")
	require.Equal(t, types.KindDict, dt.Kind)
	assert.Equal(t, "int", dt.Key.Signature)
	require.Equal(t, types.KindList, dt.Val.Kind)
	assert.Equal(t, "string", dt.Val.Elem.Signature)
}

func TestRegistryParseSignatureMalformedFallsBackToAny(t *testing.T) {
	r := types.NewRegistry()
	got := r.ParseSignature("not a real type<<")
	assert.True(t, got.IsAny())
}

func TestRegistryClassAndInstance(t *testing.T) {
	r := types.NewRegistry()
	class := r.GetClass("Point")
	assert.Equal(t, types.IDClass, class.ID)

	inst1 := r.GetInstance(class)
	inst2 := r.GetInstance(class)
	assert.Same(t, inst1, inst2)
	assert.GreaterOrEqual(t, inst1.ID, types.IDInstRangeStart)
	assert.Equal(t, types.IDInstBase, types.BaseTypeID(inst1.ID))
}

func TestCanConvertNumericAndAny(t *testing.T) {
	r := types.NewRegistry()
	ops := types.NewOpRegistry(r)
	intT, _ := r.GetPrimitive("int")
	dblT, _ := r.GetPrimitive("double")
	anyT, _ := r.GetPrimitive("any")
	strT, _ := r.GetPrimitive("string")

	assert.True(t, r.CanConvert(intT, dblT, ops))
	assert.True(t, r.CanConvert(strT, anyT, ops))
	assert.True(t, r.CanConvert(strT, strT, ops))
	assert.False(t, r.CanConvert(strT, intT, ops))
}

func TestBaseTypeIDRangesAndIdempotence(t *testing.T) {
	ids := []int{types.IDNone, types.IDInt, types.IDDouble, types.IDBool, types.IDString,
		types.IDListBase, types.IDDictBase, types.IDAny, types.IDFuncBase, types.IDClass, types.IDInstBase,
		150, 250, 350, 600}
	for _, id := range ids {
		b := types.BaseTypeID(id)
		assert.Equal(t, b, types.BaseTypeID(b), "base_type_id must be idempotent for id=%d", id)
	}
}
