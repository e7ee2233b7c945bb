// Package loopctx implements the loop-variable tracker (C5): it lets the
// statement generator (C9) preserve SSA single-assignment discipline
// across loop iterations without itself knowing anything about phi
// nodes. The tracker only manages protocol state (which variables are
// live across a loop, what their pending per-iteration value is); the
// actual IR phi-node creation is delegated to an Emitter the caller
// supplies, so this package carries no LLVM dependency and is directly
// testable with a fake.
package loopctx

import "tplc/src/types"
import "tplc/src/util"

// SSAValue is an opaque handle to whatever the code generator's IR
// builder considers a value (an llvm.Value in this compiler). loopctx
// never inspects it, only threads it through to Emitter.
type SSAValue = interface{}

// BlockRef is an opaque handle to a basic block, for the same reason.
type BlockRef = interface{}

// Emitter performs the actual IR-level phi-node work on behalf of the
// tracker. The statement generator supplies one implementation backed by
// the active llvm.Builder.
type Emitter interface {
	CreatePhi(t *types.Type, header BlockRef) SSAValue
	AddIncoming(phi SSAValue, val SSAValue, pred BlockRef)
}

// VarSeed is one live variable's type and pre-loop value, the input to
// CreatePhisForScope.
type VarSeed struct {
	Type         *types.Type
	PreLoopValue SSAValue
}

type pendingEntry struct {
	value SSAValue
}

type loopContext struct {
	header BlockRef
	exit   BlockRef

	phis     map[string]SSAValue
	phiTypes map[string]*types.Type
	pending  map[string]pendingEntry
}

// Tracker is one loop-context stack, scoped to the function currently
// being generated. A fresh Tracker is created per function.
type Tracker struct {
	stack util.Stack
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) current() *loopContext {
	if v := t.stack.Peek(); v != nil {
		return v.(*loopContext)
	}
	return nil
}

// EnterLoop records header/exit blocks for a new loop and pushes it as
// the innermost active context (§4.5 step 1). Any variable already live
// across an enclosing loop is propagated into the new context so that a
// write to it from inside the new loop is still intercepted, even before
// the new loop creates a phi of its own for it (step 5).
func (t *Tracker) EnterLoop(header, exit BlockRef) {
	lc := &loopContext{
		header:   header,
		exit:     exit,
		phis:     make(map[string]SSAValue),
		phiTypes: make(map[string]*types.Type),
		pending:  make(map[string]pendingEntry),
	}
	if outer := t.current(); outer != nil {
		for name, typ := range outer.phiTypes {
			lc.phiTypes[name] = typ
		}
	}
	t.stack.Push(lc)
}

// CreatePhisForScope inserts one phi per live variable named in seeds at
// the top of the current loop's header block (§4.5 step 2). The caller
// must follow with SeedIncoming for each name to wire the pre-loop
// incoming edge, since the tracker does not know which block precedes
// the loop.
func (t *Tracker) CreatePhisForScope(seeds map[string]VarSeed, emit Emitter) {
	lc := t.current()
	if lc == nil {
		return
	}
	for name, seed := range seeds {
		phi := emit.CreatePhi(seed.Type, lc.header)
		lc.phis[name] = phi
		lc.phiTypes[name] = seed.Type
	}
}

// SeedIncoming wires the pre-loop incoming edge of name's phi from
// preLoopBlock with val, completing the seeding CreatePhisForScope began.
func (t *Tracker) SeedIncoming(name string, val SSAValue, preLoopBlock BlockRef, emit Emitter) {
	lc := t.current()
	if lc == nil {
		return
	}
	if phi, ok := lc.phis[name]; ok {
		emit.AddIncoming(phi, val, preLoopBlock)
	}
}

// InterceptSet implements §4.5 step 3: if name has a phi (or is a
// propagated outer-loop variable) in any enclosing loop context,
// innermost first, record v as that context's pending update rather than
// (or in addition to) an ordinary symbol-table write. Reports whether any
// context intercepted the write; a false result means the caller's
// ordinary symbol-table write is the only effect.
func (t *Tracker) InterceptSet(name string, v SSAValue) bool {
	intercepted := false
	for i := 1; i <= t.stack.Size(); i++ {
		item := t.stack.Get(i)
		if item == nil {
			continue
		}
		lc := item.(*loopContext)
		if _, tracked := lc.phiTypes[name]; !tracked {
			continue
		}
		lc.pending[name] = pendingEntry{value: v}
		intercepted = true
	}
	return intercepted
}

// ApplyPendingUpdates implements §4.5 step 4: wires every pending update
// recorded on the innermost context as an incoming edge of its phi from
// block, then clears it. Call this immediately before emitting the
// branch instruction that leaves block — a back-edge to the header, or a
// break/continue jump — so the value wired in is the last one written
// along that control path. Because it is called exactly once per actual
// branch out of block, no phi ever gains two incoming edges from the
// same predecessor (§4.5's correctness condition).
func (t *Tracker) ApplyPendingUpdates(block BlockRef, emit Emitter) {
	lc := t.current()
	if lc == nil {
		return
	}
	for name, pe := range lc.pending {
		if phi, ok := lc.phis[name]; ok {
			emit.AddIncoming(phi, pe.value, block)
		}
	}
	lc.pending = make(map[string]pendingEntry)
}

// LeaveLoop implements §4.5 steps 5-6: forwards any pending update still
// recorded for an outer-loop variable to the parent context as a pending
// update from exitBlock (merge_nested_loop_updates), then pops the
// context. Call after ApplyPendingUpdates has already wired this loop's
// own phis.
func (t *Tracker) LeaveLoop(exitBlock BlockRef) {
	lc := t.current()
	if lc == nil {
		return
	}
	t.stack.Pop()
	parent := t.current()
	if parent == nil {
		return
	}
	for name, pe := range lc.pending {
		if _, tracked := parent.phiTypes[name]; tracked {
			parent.pending[name] = pe
		}
	}
}

// Phi returns the innermost loop context's phi value for name, if
// CreatePhisForScope created one. The statement generator uses this to
// rebind name's symbol-table entry to the phi itself once it's created,
// so straight-line reads inside the loop body see the merged value
// instead of the stale pre-loop one.
func (t *Tracker) Phi(name string) (SSAValue, bool) {
	lc := t.current()
	if lc == nil {
		return nil, false
	}
	v, ok := lc.phis[name]
	return v, ok
}

// HasPhi reports whether name has a phi in the innermost loop context.
// Reads are never intercepted (§4.5's intent is to leave straight-line
// reads alone), so callers use this only to decide whether a write needs
// InterceptSet at all.
func (t *Tracker) HasPhi(name string) bool {
	lc := t.current()
	if lc == nil {
		return false
	}
	_, ok := lc.phis[name]
	return ok
}

// Depth returns the current loop nesting depth, for diagnostics and for
// C9 to know whether it's inside a loop at all.
func (t *Tracker) Depth() int {
	return t.stack.Size()
}
