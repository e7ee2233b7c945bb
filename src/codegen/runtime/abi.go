// Package rtabi is the runtime ABI emitter (C7): one call-site helper per
// runtime function, each backed by an external declaration that is
// created at most once per module and cached by name, following the
// teacher's genPrintf/genAtoi/genAtof pattern but generalized into a
// single get_or_create_function cache instead of one hand-written
// function per extern (§4.7). The runtime object itself (C11) is
// contract-only: this package only ever *declares* these symbols, it
// never defines them — the object file the declarations resolve against
// is produced from the embedded source in package runtimec and linked by
// an external toolchain, out of this module's scope (§1).
package rtabi

import (
	"fmt"

	"tinygo.org/x/go-llvm"
)

// Emitter caches one llvm.Value (the declared function) and its
// llvm.Type (the declared signature) per runtime symbol name.
type Emitter struct {
	ctx    llvm.Context
	mod    llvm.Module
	fns    map[string]llvm.Value
	sigs   map[string]llvm.Type
	objPtr llvm.Type
}

// NewEmitter returns an Emitter that declares functions into mod using
// types built against ctx.
func NewEmitter(ctx llvm.Context, mod llvm.Module) *Emitter {
	return &Emitter{
		ctx:    ctx,
		mod:    mod,
		fns:    make(map[string]llvm.Value, 32),
		sigs:   make(map[string]llvm.Type, 32),
		objPtr: llvm.PointerType(ctx.Int8Type(), 0),
	}
}

// ObjectPtrType returns the `object*` LLVM type: an opaque pointer, since
// the runtime's object layout is a C11 contract detail the core never
// inspects directly.
func (e *Emitter) ObjectPtrType() llvm.Type { return e.objPtr }

// GetOrCreateFunction implements §4.7's get_or_create_function: returns
// the cached declaration for name if one exists, erroring if its cached
// signature conflicts with fnType; otherwise declares and caches a new
// external function.
func (e *Emitter) GetOrCreateFunction(name string, fnType llvm.Type) (llvm.Value, error) {
	if fn, ok := e.fns[name]; ok {
		if e.sigs[name] != fnType {
			return llvm.Value{}, fmt.Errorf("rtabi: %q already declared with a conflicting signature", name)
		}
		return fn, nil
	}
	fn := llvm.AddFunction(e.mod, name, fnType)
	fn.SetLinkage(llvm.ExternalLinkage)
	e.fns[name] = fn
	e.sigs[name] = fnType
	return fn, nil
}

func (e *Emitter) fn1(name string, param llvm.Type, ret llvm.Type) (llvm.Value, error) {
	return e.GetOrCreateFunction(name, llvm.FunctionType(ret, []llvm.Type{param}, false))
}

func (e *Emitter) fn2(name string, p1, p2, ret llvm.Type) (llvm.Value, error) {
	return e.GetOrCreateFunction(name, llvm.FunctionType(ret, []llvm.Type{p1, p2}, false))
}

func (e *Emitter) fn3(name string, p1, p2, p3, ret llvm.Type) (llvm.Value, error) {
	return e.GetOrCreateFunction(name, llvm.FunctionType(ret, []llvm.Type{p1, p2, p3}, false))
}

// --- Creation (§6) ---

func (e *Emitter) CreateInt() (llvm.Value, error) {
	return e.fn1("create_int", e.ctx.Int32Type(), e.objPtr)
}

func (e *Emitter) CreateDouble() (llvm.Value, error) {
	return e.fn1("create_double", e.ctx.DoubleType(), e.objPtr)
}

func (e *Emitter) CreateBool() (llvm.Value, error) {
	return e.fn1("create_bool", e.ctx.Int1Type(), e.objPtr)
}

func (e *Emitter) CreateString() (llvm.Value, error) {
	return e.fn1("create_string", llvm.PointerType(e.ctx.Int8Type(), 0), e.objPtr)
}

func (e *Emitter) CreateList() (llvm.Value, error) {
	return e.fn2("create_list", e.ctx.Int32Type(), e.ctx.Int32Type(), e.objPtr)
}

func (e *Emitter) CreateDict() (llvm.Value, error) {
	return e.fn2("create_dict", e.ctx.Int32Type(), e.ctx.Int32Type(), e.objPtr)
}

func (e *Emitter) GetNone() (llvm.Value, error) {
	return e.GetOrCreateFunction("get_none", llvm.FunctionType(e.objPtr, nil, false))
}

func (e *Emitter) CreateFunction() (llvm.Value, error) {
	voidPtr := llvm.PointerType(e.ctx.Int8Type(), 0)
	return e.fn2("create_function", voidPtr, e.ctx.Int32Type(), e.objPtr)
}

// --- Lifecycle (§6) ---

func (e *Emitter) Incref() (llvm.Value, error) {
	return e.GetOrCreateFunction("incref", llvm.FunctionType(e.ctx.VoidType(), []llvm.Type{e.objPtr}, false))
}

func (e *Emitter) Decref() (llvm.Value, error) {
	return e.GetOrCreateFunction("decref", llvm.FunctionType(e.ctx.VoidType(), []llvm.Type{e.objPtr}, false))
}

func (e *Emitter) ObjectCopy() (llvm.Value, error) {
	return e.fn2("object_copy", e.objPtr, e.ctx.Int32Type(), e.objPtr)
}

// --- Lists (§6) ---

func (e *Emitter) ListGetItem() (llvm.Value, error) {
	return e.fn2("list_get_item", e.objPtr, e.objPtr, e.objPtr)
}

func (e *Emitter) StringGetItem() (llvm.Value, error) {
	return e.fn2("string_get_item", e.objPtr, e.objPtr, e.objPtr)
}

func (e *Emitter) ListSetItem() (llvm.Value, error) {
	return e.fn3("list_set_item", e.objPtr, e.objPtr, e.objPtr, e.ctx.VoidType())
}

func (e *Emitter) ListAppend() (llvm.Value, error) {
	return e.fn2("list_append", e.objPtr, e.objPtr, e.ctx.VoidType())
}

func (e *Emitter) ListLen() (llvm.Value, error) {
	return e.fn1("list_len", e.objPtr, e.ctx.Int32Type())
}

// --- Dicts (§6) ---

func (e *Emitter) DictGetItem() (llvm.Value, error) {
	return e.fn2("dict_get_item", e.objPtr, e.objPtr, e.objPtr)
}

func (e *Emitter) DictSetItem() (llvm.Value, error) {
	return e.fn3("dict_set_item", e.objPtr, e.objPtr, e.objPtr, e.ctx.VoidType())
}

func (e *Emitter) DictKeys() (llvm.Value, error) {
	return e.fn1("dict_keys", e.objPtr, e.objPtr)
}

func (e *Emitter) DictLen() (llvm.Value, error) {
	return e.fn1("dict_len", e.objPtr, e.ctx.Int32Type())
}

// --- Arithmetic / comparison (§6) ---

// CompareOpCode is the op_code argument to object_compare.
type CompareOpCode int32

const (
	CmpEQ CompareOpCode = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// CompareOpCodes maps the ast.Compare operator spellings to their §6
// op_code values.
var CompareOpCodes = map[string]CompareOpCode{
	"==": CmpEQ, "!=": CmpNE, "<": CmpLT, "<=": CmpLE, ">": CmpGT, ">=": CmpGE,
}

func (e *Emitter) objectBinary(name string) (llvm.Value, error) {
	return e.fn2(name, e.objPtr, e.objPtr, e.objPtr)
}

func (e *Emitter) ObjectAdd() (llvm.Value, error)      { return e.objectBinary("object_add") }
func (e *Emitter) ObjectSubtract() (llvm.Value, error) { return e.objectBinary("object_subtract") }
func (e *Emitter) ObjectMultiply() (llvm.Value, error) { return e.objectBinary("object_multiply") }
func (e *Emitter) ObjectDivide() (llvm.Value, error)   { return e.objectBinary("object_divide") }
func (e *Emitter) ObjectModulo() (llvm.Value, error)   { return e.objectBinary("object_modulo") }

func (e *Emitter) ObjectNegate() (llvm.Value, error) {
	return e.fn1("object_negate", e.objPtr, e.objPtr)
}

func (e *Emitter) ObjectNot() (llvm.Value, error) {
	return e.fn1("object_not", e.objPtr, e.objPtr)
}

func (e *Emitter) ObjectCompare() (llvm.Value, error) {
	return e.fn3("object_compare", e.objPtr, e.objPtr, e.ctx.Int32Type(), e.objPtr)
}

// --- Conversions (§6) ---

func (e *Emitter) ConvertIntToDouble() (llvm.Value, error) {
	return e.fn1("convert_int_to_double", e.objPtr, e.objPtr)
}

func (e *Emitter) ConvertDoubleToInt() (llvm.Value, error) {
	return e.fn1("convert_double_to_int", e.objPtr, e.objPtr)
}

func (e *Emitter) ConvertToBool() (llvm.Value, error) {
	return e.fn1("convert_to_bool", e.objPtr, e.objPtr)
}

func (e *Emitter) ConvertToString() (llvm.Value, error) {
	return e.fn1("convert_to_string", e.objPtr, e.objPtr)
}

// --- Invocation (§6) ---

func (e *Emitter) CallFunction() (llvm.Value, error) {
	argv := llvm.PointerType(e.objPtr, 0)
	return e.fn3("call_function", e.objPtr, e.ctx.Int32Type(), argv, e.objPtr)
}

func (e *Emitter) CallFunctionNoargs() (llvm.Value, error) {
	return e.fn1("call_function_noargs", e.objPtr, e.objPtr)
}

func (e *Emitter) ObjectToExitCode() (llvm.Value, error) {
	return e.fn1("object_to_exit_code", e.objPtr, e.ctx.Int32Type())
}

// --- Type check / error (§6) ---

func (e *Emitter) CheckType() (llvm.Value, error) {
	return e.fn2("check_type", e.objPtr, e.ctx.Int32Type(), e.ctx.Int1Type())
}

func (e *Emitter) EnsureType() (llvm.Value, error) {
	return e.fn2("ensure_type", e.objPtr, e.ctx.Int32Type(), e.objPtr)
}

func (e *Emitter) RuntimeError() (llvm.Value, error) {
	cstr := llvm.PointerType(e.ctx.Int8Type(), 0)
	return e.fn2("runtime_error", cstr, e.ctx.Int32Type(), e.ctx.VoidType())
}

func (e *Emitter) PrintObject() (llvm.Value, error) {
	return e.GetOrCreateFunction("print_object", llvm.FunctionType(e.ctx.VoidType(), []llvm.Type{e.objPtr}, false))
}

func (e *Emitter) printPrimitive(name string, param llvm.Type) (llvm.Value, error) {
	return e.GetOrCreateFunction(name, llvm.FunctionType(e.ctx.VoidType(), []llvm.Type{param}, false))
}

func (e *Emitter) PrintInt() (llvm.Value, error) {
	return e.printPrimitive("print_int", e.ctx.Int32Type())
}
func (e *Emitter) PrintDouble() (llvm.Value, error) {
	return e.printPrimitive("print_double", e.ctx.DoubleType())
}
func (e *Emitter) PrintBool() (llvm.Value, error) {
	return e.printPrimitive("print_bool", e.ctx.Int1Type())
}
func (e *Emitter) PrintString() (llvm.Value, error) {
	return e.printPrimitive("print_string", llvm.PointerType(e.ctx.Int8Type(), 0))
}

// --- User classes (§4.12 supplement) ---

func (e *Emitter) InstanceAlloc() (llvm.Value, error) {
	return e.fn2("instance_alloc", e.ctx.Int32Type(), e.ctx.Int32Type(), e.objPtr)
}

func (e *Emitter) InstanceGetField() (llvm.Value, error) {
	return e.fn2("instance_get_field", e.objPtr, e.ctx.Int32Type(), e.objPtr)
}

func (e *Emitter) InstanceSetField() (llvm.Value, error) {
	return e.fn3("instance_set_field", e.objPtr, e.ctx.Int32Type(), e.objPtr, e.ctx.VoidType())
}
