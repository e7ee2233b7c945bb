package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"tplc/src/ast"
	rtabi "tplc/src/codegen/runtime"
	"tplc/src/lifecycle"
	"tplc/src/types"
)

// exprResult is what genExpr returns for every expression kind: the
// emitted object* value, its inferred type, and the lifecycle Source tag
// C9 needs to decide what adjustment a consuming context requires (§4.6).
type exprResult struct {
	Value  llvm.Value
	Type   *types.Type
	Source lifecycle.Source
}

// produce records a freshly-evaluated result in the function's temporary
// list (appending is a no-op for non-reference types or sources the
// lifecycle rules don't decref — see lifecycle.NeedsDecref) and returns
// it as an exprResult.
func (fg *funcGen) produce(v llvm.Value, t *types.Type, src lifecycle.Source) exprResult {
	fg.temps.Track(v, t, src)
	return exprResult{Value: v, Type: t, Source: src}
}

// genExpr is C8: dispatches on concrete AST expression type, emits IR,
// and returns the produced value tagged with its inferred type and
// lifecycle source.
func (fg *funcGen) genExpr(e ast.Expr) (exprResult, error) {
	switch n := e.(type) {
	case *ast.Number:
		return fg.genNumber(n)
	case *ast.Float:
		return fg.genFloat(n)
	case *ast.Str:
		return fg.genStr(n)
	case *ast.Bool:
		return fg.genBool(n)
	case *ast.NoneLit:
		return fg.genNone(n)
	case *ast.Var:
		return fg.genVar(n)
	case *ast.Binary:
		return fg.genBinary(n)
	case *ast.Compare:
		return fg.genCompare(n)
	case *ast.Unary:
		return fg.genUnary(n)
	case *ast.ListLit:
		return fg.genListLit(n)
	case *ast.DictLit:
		return fg.genDictLit(n)
	case *ast.Index:
		return fg.genIndex(n)
	case *ast.Call:
		return fg.genCall(n)
	case *ast.Attribute:
		return fg.genAttribute(n)
	default:
		return exprResult{}, fmt.Errorf("codegen: unhandled expression type %T", e)
	}
}

func (fg *funcGen) genNumber(n *ast.Number) (exprResult, error) {
	t, _ := fg.g.Reg.GetPrimitive("int")
	raw := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(n.Value), true)
	fn, err := fg.g.RT.CreateInt()
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, []llvm.Value{raw}, "")
	return fg.produce(v, t, lifecycle.Literal), nil
}

func (fg *funcGen) genFloat(n *ast.Float) (exprResult, error) {
	t, _ := fg.g.Reg.GetPrimitive("double")
	raw := llvm.ConstFloat(fg.g.Ctx.DoubleType(), n.Value)
	fn, err := fg.g.RT.CreateDouble()
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, []llvm.Value{raw}, "")
	return fg.produce(v, t, lifecycle.Literal), nil
}

func (fg *funcGen) genStr(n *ast.Str) (exprResult, error) {
	t, _ := fg.g.Reg.GetPrimitive("string")
	raw := fg.b.CreateGlobalStringPtr(n.Value, "")
	fn, err := fg.g.RT.CreateString()
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, []llvm.Value{raw}, "")
	return fg.produce(v, t, lifecycle.Literal), nil
}

func (fg *funcGen) genBool(n *ast.Bool) (exprResult, error) {
	t, _ := fg.g.Reg.GetPrimitive("bool")
	val := uint64(0)
	if n.Value {
		val = 1
	}
	raw := llvm.ConstInt(fg.g.Ctx.Int1Type(), val, false)
	fn, err := fg.g.RT.CreateBool()
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, []llvm.Value{raw}, "")
	return fg.produce(v, t, lifecycle.Literal), nil
}

func (fg *funcGen) genNone(n *ast.NoneLit) (exprResult, error) {
	t, _ := fg.g.Reg.GetPrimitive("void")
	fn, err := fg.g.RT.GetNone()
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, nil, "")
	return fg.produce(v, t, lifecycle.Literal), nil
}

func (fg *funcGen) genVar(n *ast.Var) (exprResult, error) {
	b, ok := fg.syms.Get(n.Name)
	if !ok {
		return exprResult{}, fmt.Errorf("codegen: undefined variable %q", n.Name)
	}
	v := b.Value.(llvm.Value)
	return fg.produce(v, b.Type, lifecycle.LocalVariable), nil
}

// coerce emits the conversion IR for from -> to per the descriptor C2
// names, returning the unchanged value if no conversion is registered
// (the caller has already confirmed one exists via FindOperablePath).
func (fg *funcGen) coerce(v llvm.Value, from, to *types.Type) (llvm.Value, error) {
	if from.Signature == to.Signature {
		return v, nil
	}
	desc, ok := fg.g.Ops.Conversion(from, to)
	if !ok {
		return v, nil
	}
	fn, err := fg.runtimeFunc(desc.RuntimeFn)
	if err != nil {
		return llvm.Value{}, err
	}
	return fg.b.CreateCall(fn, []llvm.Value{v}, ""), nil
}

// runtimeFunc resolves a §6 runtime function name to its rtabi
// declaration. Grouped in one place since C2's descriptors name the
// runtime function as a bare string rather than an rtabi method value.
func (fg *funcGen) runtimeFunc(name string) (llvm.Value, error) {
	rt := fg.g.RT
	switch name {
	case "object_add":
		return rt.ObjectAdd()
	case "object_subtract":
		return rt.ObjectSubtract()
	case "object_multiply":
		return rt.ObjectMultiply()
	case "object_divide":
		return rt.ObjectDivide()
	case "object_modulo":
		return rt.ObjectModulo()
	case "object_negate":
		return rt.ObjectNegate()
	case "object_not":
		return rt.ObjectNot()
	case "convert_int_to_double":
		return rt.ConvertIntToDouble()
	case "convert_double_to_int":
		return rt.ConvertDoubleToInt()
	case "convert_to_bool":
		return rt.ConvertToBool()
	case "convert_to_string":
		return rt.ConvertToString()
	case "list_get_item":
		return rt.ListGetItem()
	case "dict_get_item":
		return rt.DictGetItem()
	case "string_get_item":
		return rt.StringGetItem()
	case "list_set_item":
		return rt.ListSetItem()
	case "dict_set_item":
		return rt.DictSetItem()
	case "list_append":
		return rt.ListAppend()
	default:
		return llvm.Value{}, fmt.Errorf("codegen: unknown runtime function %q", name)
	}
}

func (fg *funcGen) genBinary(n *ast.Binary) (exprResult, error) {
	l, err := fg.genExpr(n.L)
	if err != nil {
		return exprResult{}, err
	}
	r, err := fg.genExpr(n.R)
	if err != nil {
		return exprResult{}, err
	}

	ltyp, rtyp := l.Type, r.Type
	lv, rv := l.Value, r.Value

	desc, ok := fg.g.Ops.Binary(n.Op, ltyp, rtyp)
	if !ok {
		cl, cr := fg.g.Ops.FindOperablePath(n.Op, ltyp, rtyp)
		if lv, err = fg.coerce(lv, ltyp, cl); err != nil {
			return exprResult{}, err
		}
		if rv, err = fg.coerce(rv, rtyp, cr); err != nil {
			return exprResult{}, err
		}
		ltyp, rtyp = cl, cr
		desc, ok = fg.g.Ops.Binary(n.Op, ltyp, rtyp)
		if !ok {
			return exprResult{}, fmt.Errorf("codegen: no operation descriptor for %q on (%s, %s)", n.Op, ltyp, rtyp)
		}
	}

	fn, err := fg.runtimeFunc(desc.RuntimeFn)
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, []llvm.Value{lv, rv}, "")
	resultType := fg.g.Reg.TypeByIDOrAny(desc.ResultID)
	return fg.produce(v, resultType, lifecycle.BinaryOp), nil
}

func (fg *funcGen) genCompare(n *ast.Compare) (exprResult, error) {
	l, err := fg.genExpr(n.L)
	if err != nil {
		return exprResult{}, err
	}
	r, err := fg.genExpr(n.R)
	if err != nil {
		return exprResult{}, err
	}
	opCode, ok := rtabi.CompareOpCodes[n.Op]
	if !ok {
		return exprResult{}, fmt.Errorf("codegen: unsupported comparison operator %q", n.Op)
	}
	fn, err := fg.g.RT.ObjectCompare()
	if err != nil {
		return exprResult{}, err
	}
	codeVal := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(opCode), false)
	v := fg.b.CreateCall(fn, []llvm.Value{l.Value, r.Value, codeVal}, "")
	boolT, _ := fg.g.Reg.GetPrimitive("bool")
	return fg.produce(v, boolT, lifecycle.BinaryOp), nil
}

func (fg *funcGen) genUnary(n *ast.Unary) (exprResult, error) {
	operand, err := fg.genExpr(n.Operand)
	if err != nil {
		return exprResult{}, err
	}
	desc, ok := fg.g.Ops.Unary(n.Op, operand.Type)
	if !ok {
		return operand, nil
	}
	fn, err := fg.runtimeFunc(desc.RuntimeFn)
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, []llvm.Value{operand.Value}, "")
	resultType := fg.g.Reg.TypeByIDOrAny(desc.ResultID)
	return fg.produce(v, resultType, lifecycle.UnaryOp), nil
}

func (fg *funcGen) genListLit(n *ast.ListLit) (exprResult, error) {
	elemVals := make([]llvm.Value, 0, len(n.Elems))
	for _, e := range n.Elems {
		r, err := fg.genExpr(e)
		if err != nil {
			return exprResult{}, err
		}
		elemVals = append(elemVals, r.Value)
	}
	listT, err := fg.infer.Infer(n, fg.syms)
	if err != nil {
		return exprResult{}, err
	}

	fn, err := fg.g.RT.CreateList()
	if err != nil {
		return exprResult{}, err
	}
	capc := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(len(n.Elems)), false)
	elemID := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(listT.Elem.ID), false)
	list := fg.b.CreateCall(fn, []llvm.Value{capc, elemID}, "")

	setFn, err := fg.g.RT.ListSetItem()
	if err != nil {
		return exprResult{}, err
	}
	for i, v := range elemVals {
		idxFn, err := fg.g.RT.CreateInt()
		if err != nil {
			return exprResult{}, err
		}
		idx := fg.b.CreateCall(idxFn, []llvm.Value{llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(i), false)}, "")
		fg.b.CreateCall(setFn, []llvm.Value{list, idx, v}, "")
	}
	return fg.produce(list, listT, lifecycle.BinaryOp), nil
}

func (fg *funcGen) genDictLit(n *ast.DictLit) (exprResult, error) {
	dictT, err := fg.infer.Infer(n, fg.syms)
	if err != nil {
		return exprResult{}, err
	}

	capacity := len(n.Pairs)
	if capacity < 8 {
		capacity = 8
	} else {
		capacity = capacity * 3 / 2
	}
	fn, err := fg.g.RT.CreateDict()
	if err != nil {
		return exprResult{}, err
	}
	capc := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(capacity), false)
	keyID := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(dictT.Key.ID), false)
	dict := fg.b.CreateCall(fn, []llvm.Value{capc, keyID}, "")

	setFn, err := fg.g.RT.DictSetItem()
	if err != nil {
		return exprResult{}, err
	}
	for _, kv := range n.Pairs {
		kr, err := fg.genExpr(kv.Key)
		if err != nil {
			return exprResult{}, err
		}
		vr, err := fg.genExpr(kv.Value)
		if err != nil {
			return exprResult{}, err
		}
		fg.b.CreateCall(setFn, []llvm.Value{dict, kr.Value, vr.Value}, "")
	}
	return fg.produce(dict, dictT, lifecycle.BinaryOp), nil
}

func (fg *funcGen) genIndex(n *ast.Index) (exprResult, error) {
	container, err := fg.genExpr(n.Container)
	if err != nil {
		return exprResult{}, err
	}
	key, err := fg.genExpr(n.Key)
	if err != nil {
		return exprResult{}, err
	}

	resultT, err := fg.infer.Infer(n, fg.syms)
	if err != nil {
		return exprResult{}, err
	}

	var runtimeFn string
	switch container.Type.Kind {
	case types.KindList:
		runtimeFn = "list_get_item"
	case types.KindDict:
		runtimeFn = "dict_get_item"
	default:
		if desc, ok := fg.g.Ops.Index(container.Type, key.Type); ok {
			runtimeFn = desc.RuntimeFn
		} else {
			runtimeFn = "list_get_item"
		}
	}
	fn, err := fg.runtimeFunc(runtimeFn)
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, []llvm.Value{container.Value, key.Value}, "")
	return fg.produce(v, resultT, lifecycle.IndexAccess), nil
}

// prepareArgument coerces a call argument value to its callee-declared
// parameter type and applies C6's lifecycle adjustment for the
// Parameter destination.
func (fg *funcGen) prepareArgument(r exprResult, declared *types.Type) llvm.Value {
	v := r.Value
	if declared != nil && !declared.IsAny() && r.Type.Signature != declared.Signature {
		if cv, err := fg.coerce(v, r.Type, declared); err == nil {
			v = cv
		}
	}
	return lifecycle.AdjustObject(fg.wrapper, v, r.Type, r.Source, lifecycle.DestParameter, false).(llvm.Value)
}

func (fg *funcGen) genCall(n *ast.Call) (exprResult, error) {
	// Method call: Callee is obj.name and obj resolves to a user-class
	// instance (§4.12). Static dispatch only, no vtables.
	if attr, ok := n.Callee.(*ast.Attribute); ok {
		objR, err := fg.genExpr(attr.Obj)
		if err != nil {
			return exprResult{}, err
		}
		if objR.Type.Kind == types.KindInstance {
			className := objR.Type.Class.Name
			if mangled, ok := fg.g.methodName(className, attr.Name); ok {
				return fg.emitDirectCall(mangled, append([]exprResult{objR}, fg.evalArgsOrNil(n.Args)...))
			}
		}
	}

	if callee, ok := n.Callee.(*ast.Var); ok {
		if _, ok := fg.g.lookupFunctionValue(callee.Name); ok {
			args, err := fg.evalArgs(n.Args)
			if err != nil {
				return exprResult{}, err
			}
			return fg.emitDirectCall(callee.Name, args)
		}
	}

	// Higher-order call: evaluate the callee expression and dispatch
	// through call_function with a stack argv (§4.8).
	calleeR, err := fg.genExpr(n.Callee)
	if err != nil {
		return exprResult{}, err
	}
	args, err := fg.evalArgs(n.Args)
	if err != nil {
		return exprResult{}, err
	}
	return fg.emitIndirectCall(calleeR, args)
}

func (fg *funcGen) evalArgs(exprs []ast.Expr) ([]exprResult, error) {
	out := make([]exprResult, 0, len(exprs))
	for _, e := range exprs {
		r, err := fg.genExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (fg *funcGen) evalArgsOrNil(exprs []ast.Expr) []exprResult {
	out, err := fg.evalArgs(exprs)
	if err != nil {
		return nil
	}
	return out
}

func (fg *funcGen) emitDirectCall(mangled string, args []exprResult) (exprResult, error) {
	fnVal, ok := fg.g.lookupFunctionValue(mangled)
	if !ok {
		return exprResult{}, fmt.Errorf("codegen: undeclared function %q", mangled)
	}
	sig, _ := fg.g.Funcs.Signature(mangled)
	vals := make([]llvm.Value, len(args))
	for i, a := range args {
		var declared *types.Type
		if i < len(sig.Params) {
			declared = sig.Params[i]
		}
		vals[i] = fg.prepareArgument(a, declared)
	}
	v := fg.b.CreateCall(fnVal, vals, "")
	retT := sig.Ret
	if retT == nil {
		retT, _ = fg.g.Reg.GetPrimitive("any")
	}
	return fg.produce(v, retT, lifecycle.FunctionReturn), nil
}

func (fg *funcGen) emitIndirectCall(callee exprResult, args []exprResult) (exprResult, error) {
	objPtr := fg.g.RT.ObjectPtrType()
	var argv llvm.Value
	argc := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(len(args)), false)
	if len(args) == 0 {
		fn, err := fg.g.RT.CallFunctionNoargs()
		if err != nil {
			return exprResult{}, err
		}
		v := fg.b.CreateCall(fn, []llvm.Value{callee.Value}, "")
		any, _ := fg.g.Reg.GetPrimitive("any")
		return fg.produce(v, any, lifecycle.FunctionReturn), nil
	}
	slot := fg.b.CreateAlloca(llvm.ArrayType(objPtr, len(args)), "")
	for i, a := range args {
		idx := []llvm.Value{
			llvm.ConstInt(fg.g.Ctx.Int32Type(), 0, false),
			llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(i), false),
		}
		ptr := fg.b.CreateGEP(slot, idx, "")
		fg.b.CreateStore(fg.prepareArgument(a, nil), ptr)
	}
	argv = fg.b.CreateGEP(slot, []llvm.Value{
		llvm.ConstInt(fg.g.Ctx.Int32Type(), 0, false),
		llvm.ConstInt(fg.g.Ctx.Int32Type(), 0, false),
	}, "")
	fn, err := fg.g.RT.CallFunction()
	if err != nil {
		return exprResult{}, err
	}
	v := fg.b.CreateCall(fn, []llvm.Value{callee.Value, argc, argv}, "")
	any, _ := fg.g.Reg.GetPrimitive("any")
	return fg.produce(v, any, lifecycle.FunctionReturn), nil
}

func (fg *funcGen) genAttribute(n *ast.Attribute) (exprResult, error) {
	objR, err := fg.genExpr(n.Obj)
	if err != nil {
		return exprResult{}, err
	}
	any, _ := fg.g.Reg.GetPrimitive("any")
	if objR.Type.Kind != types.KindInstance {
		return fg.produce(objR.Value, any, lifecycle.AttributeAccess), nil
	}
	ci, ok := fg.g.classes[objR.Type.Class.Name]
	if !ok {
		return fg.produce(objR.Value, any, lifecycle.AttributeAccess), nil
	}
	slot, ok := ci.slots[n.Name]
	if !ok {
		return exprResult{}, fmt.Errorf("codegen: class %q has no field %q", objR.Type.Class.Name, n.Name)
	}
	fn, err := fg.g.RT.InstanceGetField()
	if err != nil {
		return exprResult{}, err
	}
	slotc := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(slot), false)
	v := fg.b.CreateCall(fn, []llvm.Value{objR.Value, slotc}, "")
	return fg.produce(v, any, lifecycle.AttributeAccess), nil
}
