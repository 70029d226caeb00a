package engine

// snapshot is a full deep copy of everything Step mutates, captured at
// the top of every Step call so StepBack can restore it exactly.
// Grounded on TOMASSULLLERoriSimulator.py's save_state/
// restore_previous_state, which do the same thing with Python's
// copy.deepcopy over the whole simulator; Go's per-type clone() methods
// (spec.md §9 "Design Notes": index/id-based references keep clones
// trivial value copies) do the same job without relying on a generic
// deep-copy library.
type snapshot struct {
	instructions []*Instruction

	pc    int
	clock int

	stallCycles    int
	squashedTotal  int
	maxSpeculative int

	regs *registerFile
	mem  *memory
	rob  *reorderBuffer
	bus  cdb

	pools map[FUClass]*rsPool
}

func (e *CycleEngine) pushSnapshot() {
	e.history = append(e.history, e.snapshotState())
}

func (e *CycleEngine) snapshotState() *snapshot {
	instrs := make([]*Instruction, len(e.instructions))
	for i, instr := range e.instructions {
		instrs[i] = instr.clone()
	}
	pools := make(map[FUClass]*rsPool, len(e.pools))
	for class, pool := range e.pools {
		pools[class] = pool.clone()
	}
	return &snapshot{
		instructions:   instrs,
		pc:             e.pc,
		clock:          e.clock,
		stallCycles:    e.stallCycles,
		squashedTotal:  e.squashedTotal,
		maxSpeculative: e.maxSpeculative,
		regs:           e.regs.clone(),
		mem:            e.mem.clone(),
		rob:            e.rob.clone(),
		bus:            *e.bus.clone(),
		pools:          pools,
	}
}

// StepBack undoes the most recent Step, restoring the engine to exactly
// the state it was in before that call. Returns false if there is no
// history to pop (spec.md §6: "step-back at cycle 0 is a no-op").
func (e *CycleEngine) StepBack() bool {
	if len(e.history) == 0 {
		return false
	}
	snap := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	e.restoreState(snap)
	return true
}

func (e *CycleEngine) restoreState(snap *snapshot) {
	e.instructions = snap.instructions
	e.byID = make(map[int]*Instruction, len(snap.instructions))
	for _, instr := range snap.instructions {
		e.byID[instr.ID] = instr
	}

	e.pc = snap.pc
	e.clock = snap.clock
	e.stallCycles = snap.stallCycles
	e.squashedTotal = snap.squashedTotal
	e.maxSpeculative = snap.maxSpeculative

	e.regs = snap.regs
	e.mem = snap.mem
	e.rob = snap.rob
	e.bus = snap.bus
	e.pools = snap.pools
}

// HistoryDepth reports how many steps can currently be undone.
func (e *CycleEngine) HistoryDepth() int {
	return len(e.history)
}
