// Package codegen is the module-level orchestrator (C10) plus the
// expression (C8) and statement (C9) lowering it drives. It is the one
// package that actually touches tinygo.org/x/go-llvm: everything it
// builds funnels through rtabi (C7) for the runtime calls and through
// loopctx/lifecycle (C5/C6) for the SSA and reference-counting
// decisions those packages already make in an LLVM-agnostic way.
package codegen

import (
	"errors"
	"fmt"
	"sync"

	"tinygo.org/x/go-llvm"

	"tplc/src/ast"
	rtabi "tplc/src/codegen/runtime"
	"tplc/src/diag"
	"tplc/src/infer"
	"tplc/src/symtab"
	"tplc/src/types"
)

// reservedFunctionNames mirrors the teacher's list: names the generated
// code may not redeclare because the runtime or the synthesized entry
// point already owns them.
var reservedFunctionNames = map[string]bool{
	"main": true, "printf": true, "atoi": true, "atof": true,
}

// Options configures one compilation. Trimmed from the teacher's
// util.Options to what an LLVM-object-file-only backend needs; the
// architecture/OS/vendor triple fields are still consulted by
// genTargetTriple (grounded on the teacher's own function of that name).
type Options struct {
	SourceName string
	Out        string
	Threads    int
	Verbose    bool
	TargetArch string
	TargetOS   string
	TargetVnd  string
}

// classInfo records a user class's field layout (§4.12): fields are
// resolved to slot indices at class-definition time so instance_get_field/
// instance_set_field can address them by integer slot rather than name.
type classInfo struct {
	class    *types.Type
	instance *types.Type
	slots    map[string]int
}

// Generator is C10's per-module state: one LLVM context and module, the
// runtime ABI cache, and the two type registries, all threaded through
// every function this package lowers. A Generator is not safe for
// concurrent use except for the specific parallel function-body pass in
// Generate, which gives every worker its own llvm.Builder (§5).
type Generator struct {
	Ctx llvm.Context
	Mod llvm.Module
	RT  *rtabi.Emitter
	Reg *types.Registry
	Ops *types.OpRegistry

	Funcs *symtab.Funcs
	Sink  *diag.Sink

	fnValues map[string]llvm.Value
	methods  map[string]string // "Class.method" -> mangled LLVM name
	classes  map[string]*classInfo
	mu       sync.Mutex
}

// NewGenerator builds a fresh module named name and seeds it with the
// runtime ABI emitter.
func NewGenerator(name string, reg *types.Registry, ops *types.OpRegistry, sink *diag.Sink) *Generator {
	ctx := llvm.NewContext()
	mod := ctx.NewModule(name)
	return &Generator{
		Ctx:      ctx,
		Mod:      mod,
		RT:       rtabi.NewEmitter(ctx, mod),
		Reg:      reg,
		Ops:      ops,
		Funcs:    symtab.NewFuncs(),
		Sink:     sink,
		fnValues: make(map[string]llvm.Value, 16),
		methods:  make(map[string]string, 8),
		classes:  make(map[string]*classInfo, 4),
	}
}

// Dispose releases the underlying LLVM context. Callers own the Module
// they read out of Generate; Dispose must only run after EmitToMemoryBuffer
// or m.String() has already been called.
func (g *Generator) Dispose() { g.Ctx.Dispose() }

func mangleMethod(class, method string) string { return class + "." + method }

// methodName reports the mangled LLVM function name for a class method,
// if one was declared.
func (g *Generator) methodName(class, method string) (string, bool) {
	n, ok := g.methods[mangleMethod(class, method)]
	return n, ok
}

// declareFunctionHeader declares fn's LLVM signature. Every parameter and
// the return value are the uniform object* representation (§6): this is
// a dynamically-typed source language, so there is no native-typed
// overload to choose between the way the teacher's genFuncHeader did for
// VSL's int/float parameters.
func (g *Generator) declareFunctionHeader(mangledName string, paramCount int, selfParam bool) (llvm.Value, error) {
	if reservedFunctionNames[mangledName] {
		return llvm.Value{}, fmt.Errorf("codegen: duplicate function name %q, %s is a reserved function name", mangledName, mangledName)
	}

	objPtr := g.RT.ObjectPtrType()
	n := paramCount
	if selfParam {
		n++
	}
	ptypes := make([]llvm.Type, n)
	for i := range ptypes {
		ptypes[i] = objPtr
	}
	ftyp := llvm.FunctionType(objPtr, ptypes, false)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.fnValues[mangledName]; ok {
		return llvm.Value{}, fmt.Errorf("codegen: duplicate declaration, function %q already declared", mangledName)
	}
	fn := llvm.AddFunction(g.Mod, mangledName, ftyp)
	g.fnValues[mangledName] = fn
	return fn, nil
}

func (g *Generator) lookupFunctionValue(name string) (llvm.Value, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn, ok := g.fnValues[name]
	return fn, ok
}

// resolveParamType resolves one declared (or absent) parameter/return
// annotation to a *types.Type, defaulting to any (§4.9).
func (g *Generator) resolveParamType(declared string) *types.Type {
	if declared == "" {
		any, _ := g.Reg.GetPrimitive("any")
		return any
	}
	return g.Reg.ParseSignature(declared)
}

// declareClass registers a ClassDef's type and field-slot table, then
// declares LLVM headers for every method with the implicit leading self
// parameter (§4.12).
func (g *Generator) declareClass(cd *ast.ClassDef) error {
	class := g.Reg.GetClass(cd.Name)
	instance := g.Reg.GetInstance(class)
	slots := make(map[string]int, len(cd.Fields))
	for i, f := range cd.Fields {
		slots[f.Name] = i
	}
	ci := &classInfo{class: class, instance: instance, slots: slots}
	g.mu.Lock()
	g.classes[cd.Name] = ci
	g.mu.Unlock()

	for _, m := range cd.Methods {
		mangled := mangleMethod(cd.Name, m.Name)
		fn, err := g.declareFunctionHeader(mangled, len(m.Params), true)
		if err != nil {
			return err
		}
		names := append([]string{"self"}, paramNames(m.Params)...)
		for i, p := range fn.Params() {
			p.SetName(names[i])
		}
		g.mu.Lock()
		g.methods[mangleMethod(cd.Name, m.Name)] = mangled
		g.mu.Unlock()
		if err := g.Funcs.DefineFunctionAST(mangled, m); err != nil {
			return err
		}
	}
	return nil
}

func paramNames(ps []ast.Param) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

// funcSignature computes a function's infer.FuncSignature: declared
// parameter types (or any), and the declared or inferred return type.
func (g *Generator) funcSignature(fn *ast.FuncDef, selfType *types.Type) (infer.FuncSignature, error) {
	params := make([]*types.Type, 0, len(fn.Params)+1)
	env := &paramEnv{types: make(map[string]*types.Type, len(fn.Params)+1)}
	if selfType != nil {
		params = append(params, selfType)
		env.types["self"] = selfType
	}
	paramTypesByName := make(map[string]*types.Type, len(fn.Params))
	for _, p := range fn.Params {
		t := g.resolveParamType(p.DeclaredType)
		params = append(params, t)
		env.types[p.Name] = t
		paramTypesByName[p.Name] = t
	}

	var ret *types.Type
	if fn.DeclaredReturn != "" {
		ret = g.resolveParamType(fn.DeclaredReturn)
	} else {
		inf := infer.New(g.Reg, g.Ops)
		t, err := inf.InferReturnType(fn, env, paramTypesByName)
		if err != nil {
			return infer.FuncSignature{}, err
		}
		ret = t
	}
	return infer.FuncSignature{Params: params, Ret: ret}, nil
}

// paramEnv is a throwaway infer.Env used only to resolve a function's own
// signature before its body has a real symbol table.
type paramEnv struct {
	types map[string]*types.Type
}

func (e *paramEnv) LookupVar(name string) (*types.Type, bool) {
	t, ok := e.types[name]
	return t, ok
}
func (e *paramEnv) LookupFunc(name string) (infer.FuncSignature, bool) {
	return infer.FuncSignature{}, false
}

// Generate is C10: declares every function header (and class), lowers
// every function body, synthesizes main from the program's top-level
// statements, and verifies the module. Signature-inference errors and
// lowering or verification failures inside a function body are recorded
// in g.Sink, and a function whose body failed is erased from the module.
// Generate returns an error for a duplicate declaration, for a lowering
// error in the top-level statements (main), and when the finished module
// fails LLVM verification.
func (g *Generator) Generate(prog *ast.Program, opt Options) error {
	var topLevel []ast.Stmt
	var funcDefs []*ast.FuncDef
	var classDefs []*ast.ClassDef

	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.FuncDef:
			funcDefs = append(funcDefs, n)
		case *ast.ClassDef:
			classDefs = append(classDefs, n)
		default:
			topLevel = append(topLevel, d)
		}
	}

	for _, cd := range classDefs {
		if err := g.declareClass(cd); err != nil {
			return err
		}
	}

	for _, fn := range funcDefs {
		if err := g.Funcs.DefineFunctionAST(fn.Name, fn); err != nil {
			return err
		}
		if _, err := g.declareFunctionHeader(fn.Name, len(fn.Params), false); err != nil {
			return err
		}
		fnVal, _ := g.lookupFunctionValue(fn.Name)
		names := paramNames(fn.Params)
		for i, p := range fnVal.Params() {
			p.SetName(names[i])
		}
	}

	// Resolve every signature before any body lowers, so forward/mutually
	// recursive calls resolve against a complete signature table.
	for _, fn := range funcDefs {
		sig, err := g.funcSignature(fn, nil)
		if err != nil {
			g.Sink.Report(diag.Diagnostic{Message: err.Error(), Line: fn.Pos.Line, Col: fn.Pos.Col, IsTypeError: true})
			continue
		}
		g.Funcs.SetSignature(fn.Name, sig)
	}
	for _, cd := range classDefs {
		ci := g.classes[cd.Name]
		for _, m := range cd.Methods {
			sig, err := g.funcSignature(m, ci.instance)
			if err != nil {
				g.Sink.Report(diag.Diagnostic{Message: err.Error(), Line: m.Pos.Line, Col: m.Pos.Col, IsTypeError: true})
				continue
			}
			g.Funcs.SetSignature(mangleMethod(cd.Name, m.Name), sig)
		}
	}

	type bodyJob struct {
		mangled string
		fn      *ast.FuncDef
		self    *types.Type
	}
	jobs := make([]bodyJob, 0, len(funcDefs)+len(classDefs))
	for _, fn := range funcDefs {
		jobs = append(jobs, bodyJob{mangled: fn.Name, fn: fn})
	}
	for _, cd := range classDefs {
		ci := g.classes[cd.Name]
		for _, m := range cd.Methods {
			jobs = append(jobs, bodyJob{mangled: mangleMethod(cd.Name, m.Name), fn: m, self: ci.instance})
		}
	}

	threads := opt.Threads
	if threads < 1 {
		threads = 1
	}
	if threads > len(jobs) {
		threads = len(jobs)
	}

	lowerOne := func(j bodyJob) error {
		fnVal, ok := g.lookupFunctionValue(j.mangled)
		if !ok {
			return fmt.Errorf("codegen: no declaration for function %q", j.mangled)
		}
		sig, _ := g.Funcs.Signature(j.mangled)
		b := g.Ctx.NewBuilder()
		defer b.Dispose()
		fg := newFuncGen(g, b, fnVal, j.fn, sig, j.self)
		if err := fg.genBody(); err != nil {
			g.Sink.Report(diag.Diagnostic{Message: err.Error(), Line: j.fn.Pos.Line, Col: j.fn.Pos.Col})
			fnVal.EraseFromParentAsFunction()
			return nil
		}
		if llvm.VerifyFunction(fnVal, llvm.PrintMessageAction) != nil {
			g.Sink.Report(diag.Diagnostic{Message: fmt.Sprintf("function %q failed IR verification", j.mangled), Line: j.fn.Pos.Line, Col: j.fn.Pos.Col})
			fnVal.EraseFromParentAsFunction()
		}
		return nil
	}

	if threads <= 1 || len(jobs) <= 1 {
		for _, j := range jobs {
			if err := lowerOne(j); err != nil {
				return err
			}
		}
	} else {
		// Worker-pool split across threads, mirroring the teacher's
		// start/end/residual division in GenLLVM.
		l := len(jobs)
		n := l / threads
		res := l % threads
		start := 0
		end := n

		var wg sync.WaitGroup
		cerr := make(chan error, threads)
		wg.Add(threads)
		for i := 0; i < threads; i++ {
			if i < res {
				end++
			}
			go func(jobs []bodyJob) {
				defer wg.Done()
				for _, j := range jobs {
					if err := lowerOne(j); err != nil {
						cerr <- err
					}
				}
			}(jobs[start:end])
			start = end
			end += n
		}
		wg.Wait()
		close(cerr)
		for err := range cerr {
			if err != nil {
				return err
			}
		}
	}

	if err := g.genMain(topLevel); err != nil {
		return err
	}

	if opt.Verbose {
		fmt.Println("LLVM IR:")
		g.Mod.Dump()
	}

	if err := llvm.VerifyModule(g.Mod, llvm.PrintMessageAction); err != nil {
		return err
	}
	return nil
}

// genMain synthesizes the implicit entry point: lower every top-level
// statement in a fresh function scope, then return 0 (§4.10). Unlike
// ordinary functions, main's LLVM signature is the native `i32 main()`
// the C runtime/linker expects, not the uniform object* ABI.
func (g *Generator) genMain(topLevel []ast.Stmt) error {
	i32 := g.Ctx.Int32Type()
	ftyp := llvm.FunctionType(i32, nil, false)
	fn := llvm.AddFunction(g.Mod, "main", ftyp)

	b := g.Ctx.NewBuilder()
	defer b.Dispose()

	fg := newFuncGen(g, b, fn, nil, infer.FuncSignature{}, nil)
	if _, err := fg.genStmtList(topLevel); err != nil {
		return err
	}
	if fg.b.GetInsertBlock().LastInstruction().IsNil() || !isTerminator(fg.b.GetInsertBlock().LastInstruction()) {
		b.CreateRet(llvm.ConstInt(i32, 0, false))
	}
	return nil
}

func isTerminator(v llvm.Value) bool {
	if v.IsNil() {
		return false
	}
	switch v.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Unreachable:
		return true
	default:
		return false
	}
}

// genTargetTriple picks the LLVM target machine triple from Options,
// grounded on the teacher's function of the same name: arch, vendor and
// OS are joined as given, with x86_64, unknown and linux for any field
// left empty.
func genTargetTriple(opt *Options) (llvm.Target, string, error) {
	arch := opt.TargetArch
	if arch == "" {
		arch = "x86_64"
	}
	osName := opt.TargetOS
	if osName == "" {
		osName = "linux"
	}
	vendor := opt.TargetVnd
	if vendor == "" {
		vendor = "unknown"
	}
	triple := fmt.Sprintf("%s-%s-%s", arch, vendor, osName)
	t, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return llvm.Target{}, "", errors.New("codegen: unsupported target triple " + triple + ": " + err.Error())
	}
	return t, triple, nil
}

// EmitObject runs target-machine selection and returns the compiled
// module as object-file bytes, mirroring the teacher's
// EmitToMemoryBuffer tail of GenLLVM; writing them to a file is left to
// the caller (the driver writes them to its -o path).
func (g *Generator) EmitObject(opt Options) ([]byte, error) {
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	t, triple, err := genTargetTriple(&opt)
	if err != nil {
		return nil, err
	}
	tm := t.CreateTargetMachine(triple, "generic", "",
		llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()
	g.Mod.SetDataLayout(td.String())
	g.Mod.SetTarget(tm.Triple())

	buf, err := tm.EmitToMemoryBuffer(g.Mod, llvm.ObjectFile)
	if err != nil {
		return nil, err
	}
	if buf.IsNil() {
		return nil, errors.New("codegen: could not emit compiled code to memory")
	}
	return buf.Bytes(), nil
}
