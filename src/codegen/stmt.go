package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"tplc/src/ast"
	"tplc/src/lifecycle"
	"tplc/src/loopctx"
	"tplc/src/types"
)

// genStmt is C9: dispatches on concrete AST statement type and emits IR.
// It reports whether the statement unconditionally transfers control out
// of the current block (a Return, or an If whose every arm returns), so
// callers know not to fall through to a successor block that was never
// wired.
func (fg *funcGen) genStmt(s ast.Stmt) (bool, error) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		_, err := fg.genExpr(n.X)
		return false, err
	case *ast.Assign:
		return false, fg.genAssign(n)
	case *ast.IndexAssign:
		return false, fg.genIndexAssign(n)
	case *ast.AttrAssign:
		return false, fg.genAttrAssign(n)
	case *ast.Return:
		return fg.genReturn(n)
	case *ast.If:
		return fg.genIf(n)
	case *ast.While:
		return fg.genWhile(n)
	case *ast.Pass:
		return false, nil
	case *ast.Print:
		return false, fg.genPrint(n)
	case *ast.Import:
		return false, nil
	default:
		return false, fmt.Errorf("codegen: unsupported statement %T", s)
	}
}

// genStmtList lowers a statement block, flushing the function's
// temporary list at every statement boundary (§4.6) so a reference
// produced mid-expression never outlives the statement that built it.
// Stops early, without flushing the terminating statement's own
// temporaries again, the moment a statement reports it terminated the
// block.
func (fg *funcGen) genStmtList(stmts []ast.Stmt) (bool, error) {
	for _, s := range stmts {
		terminated, err := fg.genStmt(s)
		if err != nil {
			return false, err
		}
		if terminated {
			return true, nil
		}
		fg.temps.Flush(fg.wrapper)
	}
	return false, nil
}

// genAssign lowers `target = value`: the old binding, if any and of a
// reference type, is decref'd once the new value has replaced it, since
// nothing else in the generated IR will ever release it otherwise.
func (fg *funcGen) genAssign(n *ast.Assign) error {
	old, existed := fg.syms.Get(n.Target)
	r, err := fg.genExpr(n.Value)
	if err != nil {
		return err
	}
	v := lifecycle.AdjustObject(fg.wrapper, r.Value, r.Type, r.Source, lifecycle.DestAssignment, false).(llvm.Value)
	if existed && old.Type.HasFeature(types.FeatReference) {
		if ov, ok := old.Value.(llvm.Value); ok && ov != v {
			fg.wrapper.Decref(ov, old.Type)
		}
	}
	fg.syms.Set(n.Target, v, r.Type)
	return nil
}

// prepareStored adjusts a value headed into a container slot or instance
// field. It applies wrap and copy but deliberately skips incref: list_set_item/
// dict_set_item/instance_set_field (C11) already incref the stored value
// and decref whatever they displace, so an extra compiler-side incref
// here would just leak a reference.
func (fg *funcGen) prepareStored(v llvm.Value, t *types.Type, src lifecycle.Source) llvm.Value {
	out := v
	if lifecycle.NeedsWrapping(t, false) {
		out = fg.wrapper.Wrap(out, t).(llvm.Value)
	}
	if lifecycle.NeedsCopy(t, src, lifecycle.DestStorage) {
		out = fg.wrapper.Copy(out, t).(llvm.Value)
	}
	return out
}

// genIndexAssign lowers `container[key] = value`.
func (fg *funcGen) genIndexAssign(n *ast.IndexAssign) error {
	container, err := fg.genExpr(n.Container)
	if err != nil {
		return err
	}
	key, err := fg.genExpr(n.Key)
	if err != nil {
		return err
	}
	val, err := fg.genExpr(n.Value)
	if err != nil {
		return err
	}

	runtimeFn := "list_set_item"
	if container.Type.Kind == types.KindDict {
		runtimeFn = "dict_set_item"
	}
	fn, err := fg.runtimeFunc(runtimeFn)
	if err != nil {
		return err
	}
	v := fg.prepareStored(val.Value, val.Type, val.Source)
	fg.b.CreateCall(fn, []llvm.Value{container.Value, key.Value, v}, "")
	return nil
}

// genAttrAssign lowers `obj.name = value` (§4.12).
func (fg *funcGen) genAttrAssign(n *ast.AttrAssign) error {
	objR, err := fg.genExpr(n.Obj)
	if err != nil {
		return err
	}
	val, err := fg.genExpr(n.Value)
	if err != nil {
		return err
	}
	if objR.Type.Kind != types.KindInstance {
		return fmt.Errorf("codegen: attribute assignment target is not a class instance")
	}
	ci, ok := fg.g.classes[objR.Type.Class.Name]
	if !ok {
		return fmt.Errorf("codegen: unknown class %q", objR.Type.Class.Name)
	}
	slot, ok := ci.slots[n.Name]
	if !ok {
		return fmt.Errorf("codegen: class %q has no field %q", objR.Type.Class.Name, n.Name)
	}
	fn, err := fg.g.RT.InstanceSetField()
	if err != nil {
		return err
	}
	v := fg.prepareStored(val.Value, val.Type, val.Source)
	slotc := llvm.ConstInt(fg.g.Ctx.Int32Type(), uint64(slot), false)
	fg.b.CreateCall(fn, []llvm.Value{objR.Value, slotc, v}, "")
	return nil
}

// genReturn lowers `return expr` / a bare `return` (§4.6's
// handle_return_value). The returned value is pulled out of the
// function's temporary list before the rest of it is flushed, since
// ownership is passing to the caller rather than being released here;
// the flush must still happen before CreateRet, since nothing may follow
// a terminator in the same block.
func (fg *funcGen) genReturn(n *ast.Return) (bool, error) {
	var adjusted llvm.Value
	if n.Value == nil {
		none, err := fg.g.RT.GetNone()
		if err != nil {
			return false, err
		}
		adjusted = fg.b.CreateCall(none, nil, "")
	} else {
		r, err := fg.genExpr(n.Value)
		if err != nil {
			return false, err
		}
		fg.temps.Untrack(r.Value)
		adjusted = lifecycle.HandleReturnValue(fg.wrapper, fg.retyper, r.Value, fg.retType, r.Type, r.Source, false).(llvm.Value)
	}
	fg.temps.Flush(fg.wrapper)
	fg.b.CreateRet(adjusted)
	return true, nil
}

// genPrint lowers `print(args...)`, one print_object call per argument
// (C11's print_object already appends its own newline, so this does not
// try to join multiple arguments onto one line).
func (fg *funcGen) genPrint(n *ast.Print) error {
	fn, err := fg.g.RT.PrintObject()
	if err != nil {
		return err
	}
	for _, a := range n.Args {
		r, err := fg.genExpr(a)
		if err != nil {
			return err
		}
		fg.b.CreateCall(fn, []llvm.Value{r.Value}, "")
	}
	return nil
}

// genCondition evaluates e and reduces it to a native i1 by way of
// convert_to_bool + object_to_exit_code, the latter reused here purely
// for its TYPE_BOOL case (o->u.as_bool ? 1 : 0): composing two existing
// ABI entries rather than adding a dedicated unboxing symbol.
func (fg *funcGen) genCondition(e ast.Expr) (llvm.Value, error) {
	r, err := fg.genExpr(e)
	if err != nil {
		return llvm.Value{}, err
	}
	convFn, err := fg.g.RT.ConvertToBool()
	if err != nil {
		return llvm.Value{}, err
	}
	boxed := fg.b.CreateCall(convFn, []llvm.Value{r.Value}, "")
	exitFn, err := fg.g.RT.ObjectToExitCode()
	if err != nil {
		return llvm.Value{}, err
	}
	raw := fg.b.CreateCall(exitFn, []llvm.Value{boxed}, "")
	decFn, err := fg.g.RT.Decref()
	if err != nil {
		return llvm.Value{}, err
	}
	fg.b.CreateCall(decFn, []llvm.Value{boxed}, "")
	zero := llvm.ConstInt(fg.g.Ctx.Int32Type(), 0, false)
	return fg.b.CreateICmp(llvm.IntNE, raw, zero, ""), nil
}

// genIf lowers `if cond: then [else: else_]` (§4.9). if/else bodies
// share the enclosing function's scope rather than pushing their own:
// this is a Python-like function-scoped language, where a name
// assigned inside an if-arm is visible afterward in the same function.
func (fg *funcGen) genIf(n *ast.If) (bool, error) {
	cond, err := fg.genCondition(n.Cond)
	if err != nil {
		return false, err
	}
	fg.temps.Flush(fg.wrapper)

	thenBB := llvm.AddBasicBlock(fg.fn, "")
	hasElse := len(n.Else) > 0
	var elseBB llvm.BasicBlock
	if hasElse {
		elseBB = llvm.AddBasicBlock(fg.fn, "")
	}
	mergeBB := llvm.AddBasicBlock(fg.fn, "")

	if hasElse {
		fg.b.CreateCondBr(cond, thenBB, elseBB)
	} else {
		fg.b.CreateCondBr(cond, thenBB, mergeBB)
	}

	fg.b.SetInsertPointAtEnd(thenBB)
	thenTerm, err := fg.genStmtList(n.Then)
	if err != nil {
		return false, err
	}
	if !thenTerm {
		fg.b.CreateBr(mergeBB)
	}

	elseTerm := false
	if hasElse {
		fg.b.SetInsertPointAtEnd(elseBB)
		elseTerm, err = fg.genStmtList(n.Else)
		if err != nil {
			return false, err
		}
		if !elseTerm {
			fg.b.CreateBr(mergeBB)
		}
	}

	fg.b.SetInsertPointAtEnd(mergeBB)
	if hasElse && thenTerm && elseTerm {
		fg.b.CreateUnreachable()
		return true, nil
	}
	return false, nil
}

// collectAssignedNames finds every plain-variable assignment target
// textually inside stmts, recursing into nested if/while bodies but not
// into nested function or class definitions (their own scope, not
// flattened into this one). The result seeds genWhile's phi set: only
// names assigned somewhere in the loop body need a header phi at all.
func collectAssignedNames(stmts []ast.Stmt) map[string]bool {
	out := make(map[string]bool)
	var walk func([]ast.Stmt)
	walk = func(ss []ast.Stmt) {
		for _, s := range ss {
			switch st := s.(type) {
			case *ast.Assign:
				out[st.Target] = true
			case *ast.If:
				walk(st.Then)
				walk(st.Else)
			case *ast.While:
				walk(st.Body)
			}
		}
	}
	walk(stmts)
	return out
}

// genWhile lowers `while cond: body` by driving loopctx (C5) through its
// documented protocol: create the header's phis from every variable the
// body reassigns that already has a pre-loop value, seed their incoming
// edge from the preheader, rebind each name's symbol-table entry to its
// own phi so reads inside the body see the merged value, then apply
// whatever the body left pending as the back-edge before leaving the
// loop context. After the loop each of those names is bound to its
// header phi again, the only value for it that dominates the exit block;
// inside an enclosing loop that write also becomes the outer loop's
// pending update for the name.
func (fg *funcGen) genWhile(n *ast.While) (bool, error) {
	preBB := fg.b.GetInsertBlock()
	headerBB := llvm.AddBasicBlock(fg.fn, "")
	bodyBB := llvm.AddBasicBlock(fg.fn, "")
	exitBB := llvm.AddBasicBlock(fg.fn, "")

	fg.b.CreateBr(headerBB)
	fg.loops.EnterLoop(headerBB, exitBB)

	assigned := collectAssignedNames(n.Body)
	seeds := make(map[string]loopctx.VarSeed, len(assigned))
	preVals := make(map[string]llvm.Value, len(assigned))
	for name := range assigned {
		b, ok := fg.syms.Get(name)
		if !ok {
			continue
		}
		pv, ok := b.Value.(llvm.Value)
		if !ok {
			continue
		}
		seeds[name] = loopctx.VarSeed{Type: b.Type, PreLoopValue: pv}
		preVals[name] = pv
	}
	fg.loops.CreatePhisForScope(seeds, fg.emit)
	for name, pv := range preVals {
		fg.loops.SeedIncoming(name, pv, preBB, fg.emit)
	}

	fg.b.SetInsertPointAtEnd(headerBB)
	phis := make(map[string]llvm.Value, len(seeds))
	for name, seed := range seeds {
		phi, ok := fg.loops.Phi(name)
		if !ok {
			continue
		}
		phis[name] = phi.(llvm.Value)
		fg.syms.Set(name, phi.(llvm.Value), seed.Type)
	}

	cond, err := fg.genCondition(n.Cond)
	if err != nil {
		return false, err
	}
	fg.temps.Flush(fg.wrapper)
	fg.b.CreateCondBr(cond, bodyBB, exitBB)

	fg.b.SetInsertPointAtEnd(bodyBB)
	bodyTerm, err := fg.genStmtList(n.Body)
	if err != nil {
		return false, err
	}
	if !bodyTerm {
		latch := fg.b.GetInsertBlock()
		fg.loops.ApplyPendingUpdates(latch, fg.emit)
		fg.b.CreateBr(headerBB)
	}
	fg.loops.LeaveLoop(exitBB)

	fg.b.SetInsertPointAtEnd(exitBB)
	for name, phi := range phis {
		fg.syms.Set(name, phi, seeds[name].Type)
	}
	return false, nil
}
