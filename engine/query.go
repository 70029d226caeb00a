package engine

import "sort"

// This file is the engine's read-only query surface (spec.md §6):
// internal/httpapi and cmd/tomasulo never reach into engine internals
// directly, they only ever see these exported view types.

// InstructionView is a read-only projection of one instruction's
// bookkeeping, safe to hand outside the package.
type InstructionView struct {
	ID             int
	Op             string
	Dest           string
	BranchTargetID int

	IssueCycle       int
	ExecStartCycle   int
	ExecEndCycle     int
	WriteResultCycle int
	CommitCycle      int

	BranchTaken    bool
	BranchResolved bool
	Squashed       bool
	Speculative    bool

	Result  float64
	MemAddr float64
}

func viewOf(instr *Instruction) InstructionView {
	return InstructionView{
		ID:               instr.ID,
		Op:               instr.Op.String(),
		Dest:             instr.Dest,
		BranchTargetID:   instr.BranchTargetID,
		IssueCycle:       instr.IssueCycle,
		ExecStartCycle:   instr.ExecStartCycle,
		ExecEndCycle:     instr.ExecEndCycle,
		WriteResultCycle: instr.WriteResultCycle,
		CommitCycle:      instr.CommitCycle,
		BranchTaken:      instr.BranchTaken,
		BranchResolved:   instr.BranchResolved,
		Squashed:         instr.Squashed,
		Speculative:      instr.Speculative,
		Result:           instr.Result,
		MemAddr:          instr.MemAddr,
	}
}

func instructionViews(instructions []*Instruction) []InstructionView {
	out := make([]InstructionView, len(instructions))
	for i, instr := range instructions {
		out[i] = viewOf(instr)
	}
	return out
}

// Instructions returns a snapshot of every instruction's current state,
// in program order.
func (e *CycleEngine) Instructions() []InstructionView {
	return instructionViews(e.instructions)
}

// RegisterView is a read-only projection of one register's RAT entry.
type RegisterView struct {
	Name        string
	Value       float64
	ProducerTag string
}

func registerViews(regs *registerFile) []RegisterView {
	names := regs.names()
	sort.Strings(names)
	out := make([]RegisterView, len(names))
	for i, name := range names {
		value, tag := regs.status(name)
		out[i] = RegisterView{Name: name, Value: value, ProducerTag: tag}
	}
	return out
}

// Registers returns every register the engine has observed, sorted by
// name for stable display/serialisation.
func (e *CycleEngine) Registers() []RegisterView {
	return registerViews(e.regs)
}

// StationView is a read-only projection of one reservation station.
type StationView struct {
	Name    string
	Class   string
	Busy    bool
	Op      string
	InstrID int
	Qj, Qk  string
	Vj, Vk  float64
}

func stationViews(pools map[FUClass]*rsPool) []StationView {
	var out []StationView
	for _, class := range poolOrder {
		for _, rs := range pools[class].stations {
			out = append(out, StationView{
				Name:    rs.name,
				Class:   class.String(),
				Busy:    rs.busy,
				Op:      rs.op.String(),
				InstrID: rs.instrID,
				Qj:      rs.qj,
				Qk:      rs.qk,
				Vj:      rs.vj,
				Vk:      rs.vk,
			})
		}
	}
	return out
}

// Stations returns every reservation station across all four pools, in
// a fixed pool-then-index order.
func (e *CycleEngine) Stations() []StationView {
	return stationViews(e.pools)
}

// MemoryAt reads one memory cell without mutating it.
func (e *CycleEngine) MemoryAt(addr int) float64 {
	return e.mem.load(addr)
}

// Metrics returns the current derived performance summary.
func (e *CycleEngine) Metrics() Metrics {
	return e.metrics()
}

// Clock returns the current cycle count.
func (e *CycleEngine) Clock() int { return e.clock }

// ProgramCounter returns the index of the next instruction to issue.
func (e *CycleEngine) ProgramCounter() int { return e.pc }

// ROBOccupancy reports the reorder buffer's (used, capacity) pair.
func (e *CycleEngine) ROBOccupancy() (used, capacity int) {
	return len(e.rob.entries), e.rob.size()
}

// CycleView is a full projection of engine state at one elapsed cycle,
// the per-entry shape of the `{cycles: […]}` history document described
// by spec.md §6's "Persisted state" paragraph.
type CycleView struct {
	Clock        int
	Instructions []InstructionView
	Registers    []RegisterView
	Stations     []StationView
	Metrics      Metrics
}

func cycleViewFromSnapshot(snap *snapshot) CycleView {
	current := speculativeCount(snap.instructions)
	return CycleView{
		Clock:        snap.clock,
		Instructions: instructionViews(snap.instructions),
		Registers:    registerViews(snap.regs),
		Stations:     stationViews(snap.pools),
		Metrics:      computeMetrics(snap.instructions, snap.clock, snap.stallCycles, snap.squashedTotal, current, snap.maxSpeculative),
	}
}

// CycleHistory replays the engine's snapshot stack (captured at the top
// of every Step) into one CycleView per past cycle, followed by a final
// entry for the current, live state — the source of truth
// internal/httpapi's `/cycles` endpoint renders, rather than a second,
// independently maintained history mechanism (SPEC_FULL.md, "Supplemented
// features from original_source/").
func (e *CycleEngine) CycleHistory() []CycleView {
	out := make([]CycleView, 0, len(e.history)+1)
	for _, snap := range e.history {
		out = append(out, cycleViewFromSnapshot(snap))
	}
	out = append(out, CycleView{
		Clock:        e.clock,
		Instructions: e.Instructions(),
		Registers:    e.Registers(),
		Stations:     e.Stations(),
		Metrics:      e.Metrics(),
	})
	return out
}
