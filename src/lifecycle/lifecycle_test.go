package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tplc/src/lifecycle"
	"tplc/src/types"
)

type fakeWrapper struct {
	wrapped, copied, increfed []string
	decrefed                  []string
}

func (w *fakeWrapper) Wrap(v interface{}, t *types.Type) interface{} {
	w.wrapped = append(w.wrapped, v.(string))
	return v.(string) + "|wrapped"
}
func (w *fakeWrapper) Copy(v interface{}, t *types.Type) interface{} {
	w.copied = append(w.copied, v.(string))
	return v.(string) + "|copied"
}
func (w *fakeWrapper) Incref(v interface{}, t *types.Type) interface{} {
	w.increfed = append(w.increfed, v.(string))
	return v.(string) + "|increfed"
}
func (w *fakeWrapper) Decref(v interface{}, t *types.Type) {
	w.decrefed = append(w.decrefed, v.(string))
}

func listType(t *testing.T) *types.Type {
	r := types.NewRegistry()
	intT, _ := r.GetPrimitive("int")
	return r.GetList(intT)
}

func primType(t *testing.T) *types.Type {
	r := types.NewRegistry()
	p, _ := r.GetPrimitive("int")
	return p
}

func TestNeedsCopyLocalVariableToReturn(t *testing.T) {
	lt := listType(t)
	assert.True(t, lifecycle.NeedsCopy(lt, lifecycle.LocalVariable, lifecycle.DestReturn))
	assert.False(t, lifecycle.NeedsCopy(lt, lifecycle.LocalVariable, lifecycle.DestAssignment))
}

func TestNeedsCopyFreshlyProducedNever(t *testing.T) {
	lt := listType(t)
	assert.False(t, lifecycle.NeedsCopy(lt, lifecycle.BinaryOp, lifecycle.DestReturn))
	assert.False(t, lifecycle.NeedsCopy(lt, lifecycle.Literal, lifecycle.DestStorage))
}

func TestNeedsCopyNonReferencePrimitiveNever(t *testing.T) {
	pt := primType(t)
	assert.False(t, lifecycle.NeedsCopy(pt, lifecycle.LocalVariable, lifecycle.DestReturn))
}

func TestNeedsCopyIndexAccessAnywhereButTemporary(t *testing.T) {
	lt := listType(t)
	assert.True(t, lifecycle.NeedsCopy(lt, lifecycle.IndexAccess, lifecycle.DestAssignment))
	assert.False(t, lifecycle.NeedsCopy(lt, lifecycle.IndexAccess, lifecycle.DestTemporary))
}

func TestNeedsIncref(t *testing.T) {
	lt := listType(t)
	assert.True(t, lifecycle.NeedsIncref(lt, lifecycle.Literal, lifecycle.DestAssignment))
	assert.True(t, lifecycle.NeedsIncref(lt, lifecycle.LocalVariable, lifecycle.DestReturn))
	assert.False(t, lifecycle.NeedsIncref(lt, lifecycle.BinaryOp, lifecycle.DestReturn))
	assert.False(t, lifecycle.NeedsIncref(lt, lifecycle.Literal, lifecycle.DestTemporary))
}

func TestNeedsDecrefOnlyForTemporariesFromOps(t *testing.T) {
	lt := listType(t)
	assert.True(t, lifecycle.NeedsDecref(lt, lifecycle.BinaryOp))
	assert.True(t, lifecycle.NeedsDecref(lt, lifecycle.FunctionReturn))
	assert.False(t, lifecycle.NeedsDecref(lt, lifecycle.LocalVariable))
}

func TestNeedsWrapping(t *testing.T) {
	lt := listType(t)
	pt := primType(t)
	assert.True(t, lifecycle.NeedsWrapping(lt, true))
	assert.False(t, lifecycle.NeedsWrapping(lt, false))
	assert.False(t, lifecycle.NeedsWrapping(pt, true))
}

func TestAdjustObjectAppliesWrapCopyIncrefInOrder(t *testing.T) {
	lt := listType(t)
	w := &fakeWrapper{}
	result := lifecycle.AdjustObject(w, "v", lt, lifecycle.LocalVariable, lifecycle.DestReturn, true)
	assert.Equal(t, "v|wrapped|copied|increfed", result)
}

func TestTempListFlushDecrefsAndClears(t *testing.T) {
	lt := listType(t)
	w := &fakeWrapper{}
	tl := &lifecycle.TempList{}
	tl.Track("temp1", lt, lifecycle.BinaryOp)
	tl.Track("keepme", lt, lifecycle.LocalVariable) // not tracked: wrong source
	tl.Flush(w)
	assert.Equal(t, []string{"temp1"}, w.decrefed)

	w.decrefed = nil
	tl.Flush(w)
	assert.Empty(t, w.decrefed, "flush must clear the list")
}

type fakeRetyper struct{ retagged []string }

func (r *fakeRetyper) Retag(v interface{}, declared *types.Type) interface{} {
	r.retagged = append(r.retagged, v.(string))
	return v.(string) + "|retagged"
}

func TestHandleReturnValueRetagsOnMismatch(t *testing.T) {
	r := types.NewRegistry()
	intT, _ := r.GetPrimitive("int")
	listIntT := r.GetList(intT)
	listAnyT := r.GetList(mustAny(r))

	w := &fakeWrapper{}
	rt := &fakeRetyper{}
	out := lifecycle.HandleReturnValue(w, rt, "v", listIntT, listAnyT, lifecycle.LocalVariable, false)
	assert.Contains(t, out, "retagged")
	assert.Equal(t, []string{"v|copied|increfed"}, rt.retagged)
}

func mustAny(r *types.Registry) *types.Type {
	a, _ := r.GetPrimitive("any")
	return a
}
