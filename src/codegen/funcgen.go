package codegen

import (
	"tinygo.org/x/go-llvm"

	"tplc/src/ast"
	"tplc/src/infer"
	"tplc/src/lifecycle"
	"tplc/src/loopctx"
	"tplc/src/symtab"
	"tplc/src/types"
)

// funcGen is the per-function lowering state: one LLVM builder, the
// function's own symbol table and loop tracker, and the temporary list
// that statement boundaries flush (§5, "reference counting (generated
// code)"). Variables live as plain SSA values bound in syms, not
// alloca/load/store slots: loopctx (C5) constructs phi nodes directly at
// loop headers instead of relying on a later mem2reg pass, so a variable's
// binding is just "the current object* value", updated through Set.
type funcGen struct {
	g    *Generator
	b    llvm.Builder
	fn   llvm.Value
	node *ast.FuncDef // nil for the synthesized main

	syms  *symtab.Table
	loops *loopctx.Tracker
	infer *infer.Inferencer
	temps *lifecycle.TempList

	retType *types.Type

	wrapper lifecycle.Wrapper
	retyper lifecycle.Retyper
	emit    loopctx.Emitter
}

// newFuncGen opens fn's entry block, binds its parameters (plus an
// implicit leading self for methods) as plain SSA values, and returns a
// funcGen ready to lower node's body. For main, node is nil and the
// caller lowers its own statement list directly.
func newFuncGen(g *Generator, b llvm.Builder, fn llvm.Value, node *ast.FuncDef, sig infer.FuncSignature, selfType *types.Type) *funcGen {
	loops := loopctx.NewTracker()
	syms := symtab.New(g.Funcs, loops)
	fg := &funcGen{
		g: g, b: b, fn: fn, node: node,
		syms:  syms,
		loops: loops,
		infer: infer.New(g.Reg, g.Ops),
		temps: &lifecycle.TempList{},
	}
	fg.wrapper = &objectWrapper{fg: fg}
	fg.retyper = identityRetyper{}
	fg.emit = &llvmLoopEmitter{b: b, objPtr: g.RT.ObjectPtrType()}
	if sig.Ret != nil {
		fg.retType = sig.Ret
	} else {
		void, _ := g.Reg.GetPrimitive("void")
		fg.retType = void
	}

	entry := llvm.AddBasicBlock(fn, "")
	b.SetInsertPointAtEnd(entry)

	names := make([]string, 0, len(fn.Params()))
	if selfType != nil {
		names = append(names, "self")
	}
	if node != nil {
		names = append(names, paramNames(node.Params)...)
	}
	for i, p := range fn.Params() {
		var pt *types.Type
		if i < len(sig.Params) {
			pt = sig.Params[i]
		} else {
			pt, _ = g.Reg.GetPrimitive("any")
		}
		name := "arg"
		if i < len(names) {
			name = names[i]
		}
		p.SetName(name)
		syms.Set(name, p, pt)
	}
	return fg
}

// genBody lowers node's statement list, falling back to an implicit
// `return None` when control reaches the end without an explicit return
// (§4.9).
func (fg *funcGen) genBody() error {
	terminated, err := fg.genStmtList(fg.node.Body)
	if err != nil {
		return err
	}
	if !terminated {
		none, err := fg.g.RT.GetNone()
		if err != nil {
			return err
		}
		v := fg.b.CreateCall(none, nil, "")
		fg.b.CreateRet(v)
	}
	return nil
}

// llvmLoopEmitter implements loopctx.Emitter against a real builder: every
// phi has type object* since that is the uniform value representation
// this backend uses (§6).
type llvmLoopEmitter struct {
	b      llvm.Builder
	objPtr llvm.Type
}

func (e *llvmLoopEmitter) CreatePhi(t *types.Type, header loopctx.BlockRef) loopctx.SSAValue {
	bb := header.(llvm.BasicBlock)
	cur := e.b.GetInsertBlock()
	e.b.SetInsertPointAtEnd(bb)
	phi := e.b.CreatePHI(e.objPtr, "")
	if !cur.IsNil() {
		e.b.SetInsertPointAtEnd(cur)
	}
	return phi
}

func (e *llvmLoopEmitter) AddIncoming(phi, val loopctx.SSAValue, pred loopctx.BlockRef) {
	p := phi.(llvm.Value)
	p.AddIncoming([]llvm.Value{val.(llvm.Value)}, []llvm.BasicBlock{pred.(llvm.BasicBlock)})
}

// objectWrapper implements lifecycle.Wrapper against the runtime ABI
// (C7): Wrap boxes a raw native scalar into an object* via the matching
// create_* call, Copy/Incref/Decref call straight through.
type objectWrapper struct {
	fg *funcGen
}

func (w *objectWrapper) Wrap(v interface{}, t *types.Type) interface{} {
	val := v.(llvm.Value)
	rt := w.fg.g.RT
	var fn llvm.Value
	var err error
	switch t.ID {
	case types.IDInt:
		fn, err = rt.CreateInt()
	case types.IDDouble:
		fn, err = rt.CreateDouble()
	case types.IDBool:
		fn, err = rt.CreateBool()
	case types.IDString:
		fn, err = rt.CreateString()
	default:
		return val
	}
	if err != nil {
		return val
	}
	return w.fg.b.CreateCall(fn, []llvm.Value{val}, "")
}

func (w *objectWrapper) Copy(v interface{}, t *types.Type) interface{} {
	fn, err := w.fg.g.RT.ObjectCopy()
	if err != nil {
		return v
	}
	idc := llvm.ConstInt(w.fg.g.Ctx.Int32Type(), uint64(t.ID), false)
	return w.fg.b.CreateCall(fn, []llvm.Value{v.(llvm.Value), idc}, "")
}

func (w *objectWrapper) Incref(v interface{}, t *types.Type) interface{} {
	fn, err := w.fg.g.RT.Incref()
	if err == nil {
		w.fg.b.CreateCall(fn, []llvm.Value{v.(llvm.Value)}, "")
	}
	return v
}

func (w *objectWrapper) Decref(v interface{}, t *types.Type) {
	fn, err := w.fg.g.RT.Decref()
	if err == nil {
		w.fg.b.CreateCall(fn, []llvm.Value{v.(llvm.Value)}, "")
	}
}

// identityRetyper implements lifecycle.Retyper as a no-op: the object
// representation already carries its own dynamic type_id from the site
// that created it, so "re-tagging" a return value to its declared type
// is bookkeeping for the Go-side *types.Type, not an IR-level operation.
type identityRetyper struct{}

func (identityRetyper) Retag(v interface{}, declared *types.Type) interface{} { return v }
