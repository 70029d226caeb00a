package engine

// CycleEngine is the four-stage Tomasulo pipeline described by
// spec.md §4.1: Issue, Execute, Write-Result, Commit, driven one cycle
// at a time by Step. It owns the instruction array, the four
// reservation-station pools, the reorder buffer, the register file, and
// memory exclusively (spec.md §5) — callers only ever read back copies
// through the query methods in query.go.
type CycleEngine struct {
	config Config

	instructions []*Instruction
	byID         map[int]*Instruction

	pc    int
	clock int

	stallCycles    int
	squashedTotal  int
	maxSpeculative int

	regs *registerFile
	mem  *memory
	rob  *reorderBuffer
	bus  cdb

	pools map[FUClass]*rsPool // keyed by ClassAddSub, ClassMulDiv, ClassLoad (shared LOAD/STORE), ClassBranch

	history []*snapshot
}

// NewEngine constructs an engine from a validated Config. Call
// LoadProgram before stepping.
func NewEngine(config Config) (*CycleEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	e := &CycleEngine{config: config}
	e.resetForNewProgram(nil)
	return e, nil
}

// LoadProgram installs a new ordered program and resets all mutable
// engine state, the way TOMASSULLLERoriSimulator.py's set_instructions
// -> reset_simulation_state does.
func (e *CycleEngine) LoadProgram(specs []Spec) {
	e.resetForNewProgram(specs)
}

func (e *CycleEngine) resetForNewProgram(specs []Spec) {
	e.instructions = make([]*Instruction, len(specs))
	e.byID = make(map[int]*Instruction, len(specs))
	for i, spec := range specs {
		instr := newInstruction(spec, e.config.latencyFor(spec.Op))
		e.instructions[i] = instr
		e.byID[spec.ID] = instr
	}

	e.pc = 0
	e.clock = 0
	e.stallCycles = 0
	e.squashedTotal = 0
	e.maxSpeculative = 0

	e.regs = newRegisterFile()
	e.mem = newMemory()
	e.rob = newReorderBuffer(e.config.ROBSize)
	e.bus = cdb{}

	e.pools = map[FUClass]*rsPool{
		ClassAddSub: newRSPool(ClassAddSub, e.config.AddSubStations),
		ClassMulDiv: newRSPool(ClassMulDiv, e.config.MulDivStations),
		ClassLoad:   newRSPool(ClassLoad, e.config.MemStations),
		ClassBranch: newRSPool(ClassBranch, e.config.BranchStations),
	}

	e.history = nil
}

func (e *CycleEngine) instrByID(id int) *Instruction {
	return e.byID[id]
}

func (e *CycleEngine) indexOfID(id int) int {
	for i, instr := range e.instructions {
		if instr.ID == id {
			return i
		}
	}
	return -1
}

// IsComplete reports whether every instruction has either committed or
// been squashed (spec.md §4.1 "Completion"). An empty program is
// complete immediately.
func (e *CycleEngine) IsComplete() bool {
	for _, instr := range e.instructions {
		if !instr.Squashed && instr.CommitCycle == Unset {
			return false
		}
	}
	return true
}

// Step advances the clock exactly one cycle, in the fixed intra-cycle
// order Commit, Write-Result, Execute, Issue (spec.md §4.1). It pushes a
// deep snapshot of the pre-step state first, so StepBack can undo it.
// Once IsComplete holds, Step does nothing: the clock stays put and no
// snapshot is pushed.
func (e *CycleEngine) Step() error {
	if e.IsComplete() {
		return nil
	}
	e.pushSnapshot()
	e.clock++

	readyAtStart := e.captureReadiness()

	var err error
	if serr := e.commitPhase(); serr != nil {
		err = serr
	}
	e.writeResultPhase()
	e.executePhase(readyAtStart)
	e.issuePhase()
	e.currentSpeculativeCount() // keep the speculative peak current every cycle

	return err
}

// RunToEnd steps until IsComplete or maxCycles is reached, returning a
// *SafetyCapError in the latter case (spec.md §7 kind 4). The engine is
// left in a valid, inspectable state either way.
func (e *CycleEngine) RunToEnd(maxCycles int) error {
	for !e.IsComplete() {
		if e.clock >= maxCycles {
			return &SafetyCapError{CycleCap: maxCycles}
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// captureReadiness snapshots, for every currently busy reservation
// station, whether it is ready to execute (both operands resolved) as
// of the START of this cycle — i.e. before this cycle's Write-Result
// phase runs.
//
// This one-cycle latch is what makes the Execute phase's "did this
// station just become ready, should it stamp exec_start now?" decision
// match spec.md §8 scenario 3 exactly: a CDB broadcast written during
// cycle N's Write-Result phase updates the waiting station's operand
// slots immediately (same cycle, since Write-Result runs before Execute
// in the fixed intra-cycle order), but the station is only treated as
// "ready to start executing" starting cycle N+1, because Execute
// consults this pre-captured snapshot rather than the station's live
// (already-broadcast-updated) state. Concretely, for a producer whose
// Write-Result phase runs at cycle N: the dependent's exec_start is
// N+1, matching "first write 5 / second exec_start 6" in scenario 3.
// Worked derivation lives in DESIGN.md under "Cycle engine".
func (e *CycleEngine) captureReadiness() map[string]bool {
	ready := make(map[string]bool)
	for _, pool := range e.pools {
		for _, rs := range pool.stations {
			if rs.busy {
				ready[rs.name] = rs.readyToExecute()
			}
		}
	}
	return ready
}

// issuePhase implements spec.md §4.1 Issue.
func (e *CycleEngine) issuePhase() {
	if e.pc >= len(e.instructions) {
		return
	}
	instr := e.instructions[e.pc]

	if instr.Squashed || instr.Issued() {
		e.pc++
		return
	}

	class := rsPoolOf(instr.Op)
	pool := e.pools[class]
	rs := pool.firstFree()
	if rs == nil {
		e.stallCycles++
		return
	}
	if e.rob.full() {
		e.stallCycles++
		return
	}

	qj, vj := e.resolveOperand(instr.Src1)
	qk, vk := e.resolveOperand(instr.Src2)

	rs.assign(instr, qj, vj, qk, vk)
	instr.ResidualLatency = instr.OriginalLatency
	instr.IssueCycle = e.clock

	branchID, speculative := e.findOpenBranch()
	if speculative {
		instr.Speculative = true
		instr.SpeculativeBranchID = branchID
	}
	e.rob.allocate(instr.ID, speculative)

	if instr.HasDest() {
		e.regs.setProducer(instr.Dest, rs.name)
	}

	e.pc++
}

// resolveOperand resolves one instruction source against the register
// file: an immediate resolves directly to a value, a register with no
// pending producer resolves to its architectural value, and a register
// with a pending producer resolves to that producer's tag (spec.md
// §4.1 Issue, "Resolve each source").
func (e *CycleEngine) resolveOperand(op Operand) (tag string, value float64) {
	if op.IsImmediate {
		return noProducer, op.Imm
	}
	v, t := e.regs.status(op.Reg)
	if t == noProducer {
		return noProducer, v
	}
	return t, 0
}

// findOpenBranch scans backward from just before the current program
// counter for the nearest issued, not-yet-committed branch — the
// instruction currently about to issue is speculative iff one exists.
// Grounded on TOMASSULLLERoriSimulator.py's backward scan in
// issue_from_instruction_queue (the "BUG FIX #3" comment there).
func (e *CycleEngine) findOpenBranch() (branchID int, found bool) {
	for i := e.pc - 1; i >= 0; i-- {
		prev := e.instructions[i]
		if prev.IsBranch() && prev.Issued() && prev.CommitCycle == Unset {
			return prev.ID, true
		}
	}
	return Unset, false
}

// executePhase implements spec.md §4.1 Execute.
func (e *CycleEngine) executePhase(readyAtStart map[string]bool) {
	for _, class := range poolOrder {
		pool := e.pools[class]
		for _, rs := range pool.stations {
			if !rs.busy {
				continue
			}
			instr := e.instrByID(rs.instrID)
			if instr.Squashed {
				continue
			}

			if instr.ExecStartCycle == Unset {
				if readyAtStart[rs.name] {
					instr.ExecStartCycle = e.clock
					e.tickLatency(instr, rs)
				}
				continue
			}
			if instr.ExecEndCycle == Unset {
				e.tickLatency(instr, rs)
			}
		}
	}
}

// tickLatency decrements an in-flight instruction's residual latency by
// one and, if it has drained, stamps exec_end and computes the result.
func (e *CycleEngine) tickLatency(instr *Instruction, rs *reservationStation) {
	instr.ResidualLatency--
	if instr.ResidualLatency > 0 {
		return
	}
	instr.ExecEndCycle = e.clock
	e.computeResult(instr, rs)
}

// computeResult evaluates an instruction naively per spec.md's
// Non-goals (no overflow/FP-exception semantics): arithmetic ops
// combine Vj/Vk, LOAD/STORE compute an effective address from Vj (the
// base register) plus the instruction's immediate offset, and
// branches are unconditionally taken (the fixed always-taken
// predictor, spec.md §9).
func (e *CycleEngine) computeResult(instr *Instruction, rs *reservationStation) {
	switch instr.Op {
	case OpADD:
		rs.result = rs.vj + rs.vk
	case OpSUB:
		rs.result = rs.vj - rs.vk
	case OpMUL:
		rs.result = rs.vj * rs.vk
	case OpDIV:
		if rs.vk == 0 {
			rs.result = 0 // spec.md §7 kind 3: division by zero yields 0
		} else {
			rs.result = rs.vj / rs.vk
		}
	case OpLOAD:
		addr := rs.vj + instr.Offset
		instr.MemAddr = addr
		rs.result = e.mem.load(int(addr))
	case OpSTORE:
		addr := rs.vj + instr.Offset
		instr.MemAddr = addr
		rs.result = rs.vk // the value to store, carried to Commit
	case OpBEQ, OpBNE:
		instr.BranchTaken = true
		instr.BranchResolved = true
	}
}

// poolOrder is the deterministic scan order Write-Result and Execute use
// across pools, so "at most one CDB write per cycle" has a single,
// reproducible winner when more than one station finishes in the same
// cycle.
var poolOrder = []FUClass{ClassAddSub, ClassMulDiv, ClassLoad, ClassBranch}

// writeResultPhase implements spec.md §4.1 Write-Result.
func (e *CycleEngine) writeResultPhase() {
	e.bus.clear()

	for _, class := range poolOrder {
		pool := e.pools[class]
		for _, rs := range pool.stations {
			if !rs.busy {
				continue
			}
			instr := e.instrByID(rs.instrID)
			if instr.ExecEndCycle == Unset || instr.WriteResultCycle != Unset {
				continue
			}
			if instr.Squashed {
				rs.free()
				continue
			}

			e.bus.publish(rs.name, rs.result)
			instr.WriteResultCycle = e.clock
			instr.Result = rs.result

			e.broadcastToStations(rs.name, rs.result)
			if instr.HasDest() {
				e.regs.clearProducerIfMatches(instr.Dest, rs.name)
			}
			return // at most one writer per cycle
		}
	}
}

func (e *CycleEngine) broadcastToStations(tag string, value float64) {
	for _, pool := range e.pools {
		for _, rs := range pool.stations {
			if !rs.busy {
				continue
			}
			if rs.qj == tag {
				rs.setVj(value)
			}
			if rs.qk == tag {
				rs.setVk(value)
			}
		}
	}
}

// commitPhase implements spec.md §4.1 Commit. It returns a
// *BranchTargetError if a taken branch's target id does not exist in
// the program (spec.md §7 kind 5), in which case nothing is mutated —
// the branch is left at the ROB head, retried every subsequent cycle —
// and the engine remains otherwise valid and inspectable.
func (e *CycleEngine) commitPhase() error {
	entry := e.rob.headEntry()
	if entry == nil {
		return nil
	}
	instr := e.instrByID(entry.instrID)
	if instr.WriteResultCycle == Unset {
		return nil
	}

	if instr.IsBranch() && instr.BranchTaken {
		if e.indexOfID(instr.BranchTargetID) == -1 {
			// spec.md §7 kind 5: commit is skipped entirely for this
			// instruction, nothing about it is mutated, and the engine
			// stays otherwise valid — the caller decides whether to
			// treat this as fatal.
			return &BranchTargetError{BranchID: instr.ID, TargetID: instr.BranchTargetID}
		}
	}

	instr.CommitCycle = e.clock

	switch {
	case instr.HasDest():
		e.regs.setValue(instr.Dest, instr.Result)
	case instr.Op == OpSTORE:
		e.mem.store(int(instr.MemAddr), instr.Result)
	case instr.IsBranch():
		e.resolveBranchCommit(instr)
	}

	e.freeRSForInstr(instr.ID)
	e.rob.commitHead()
	return nil
}

// resolveBranchCommit implements spec.md §4.1's branch-commit squash
// protocol: every still-in-flight instruction strictly between the
// branch and its target is squashed, the engine resumes issuing at the
// target, and the "speculative" flag is cleared on everything that
// depended on this branch. The target is already known to exist —
// commitPhase checks that before calling in.
func (e *CycleEngine) resolveBranchCommit(instr *Instruction) {
	if !instr.BranchTaken {
		return
	}

	targetIdx := e.indexOfID(instr.BranchTargetID)
	branchIdx := e.indexOfID(instr.ID)
	for i := branchIdx + 1; i < targetIdx; i++ {
		future := e.instructions[i]
		if future.CommitCycle != Unset || future.Squashed {
			continue
		}
		future.Squashed = true
		e.squashedTotal++
		e.freeRSForInstr(future.ID)
		e.rob.freeByInstr(future.ID)
	}
	e.pc = targetIdx

	for _, future := range e.instructions {
		if future.SpeculativeBranchID == instr.ID {
			future.Speculative = false
			future.SpeculativeBranchID = Unset
			e.rob.clearSpeculative(future.ID)
		}
	}
}

// freeRSForInstr frees whichever station (if any) is bound to instrID.
func (e *CycleEngine) freeRSForInstr(instrID int) {
	for _, pool := range e.pools {
		if rs := pool.findBusy(instrID); rs != nil {
			rs.free()
			return
		}
	}
}
