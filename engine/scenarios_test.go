package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maemo32/tomasulo/engine"
)

func mustEngine(t *testing.T, cfg engine.Config) *engine.CycleEngine {
	t.Helper()
	e, err := engine.NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func findByID(t *testing.T, e *engine.CycleEngine, id int) engine.InstructionView {
	t.Helper()
	for _, v := range e.Instructions() {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("no instruction with id %d", id)
	return engine.InstructionView{}
}

// scenario 1: a single ADD (latency 2) with no dependencies commits at
// clock 3+L = 5.
func TestScenarioSingleAdd(t *testing.T) {
	cfg := engine.DefaultConfig()
	e := mustEngine(t, cfg)
	e.LoadProgram([]engine.Spec{
		{ID: 0, Op: engine.OpADD, Dest: "R1", Src1: engine.RegOperand("R2"), Src2: engine.RegOperand("R3")},
	})

	require.NoError(t, e.RunToEnd(100))

	assert.Equal(t, 5, e.Clock())
	instr := findByID(t, e, 0)
	assert.Equal(t, 5, instr.CommitCycle)
	assert.Equal(t, 0, e.Metrics().SquashedTotal)

	reg := e.Registers()
	r1 := findRegister(t, reg, "R1")
	assert.Equal(t, 0.0, r1.Value)
}

func findRegister(t *testing.T, regs []engine.RegisterView, name string) engine.RegisterView {
	t.Helper()
	for _, r := range regs {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no register %s", name)
	return engine.RegisterView{}
}

// scenario 2: ADD R1 R2 R3 / ADD R4 R1 R5 — the second depends on the
// first via the CDB. Two AddSub stations so the hazard is purely data,
// not structural (the scenario names a data hazard explicitly; one
// shared station would also serialise the two instructions
// structurally, which is scenario 4's concern). Grounded on spec.md §8
// scenario 2 and DESIGN.md's worked trace: the final commit cycle (8)
// matches the spec's literal expectation exactly; the spec's own
// narrated intermediate numbers (write 3, exec_start 4) don't
// round-trip against the fixed Commit→Write-Result→Execute→Issue
// order and are treated as a documented discrepancy in the spec's
// prose, not a contract this implementation must reproduce — see
// DESIGN.md.
func TestScenarioDataDependency(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.AddSubStations = 2
	e := mustEngine(t, cfg)
	e.LoadProgram([]engine.Spec{
		{ID: 0, Op: engine.OpADD, Dest: "R1", Src1: engine.RegOperand("R2"), Src2: engine.RegOperand("R3")},
		{ID: 1, Op: engine.OpADD, Dest: "R4", Src1: engine.RegOperand("R1"), Src2: engine.RegOperand("R5")},
	})

	require.NoError(t, e.RunToEnd(100))

	first := findByID(t, e, 0)
	second := findByID(t, e, 1)
	assert.Equal(t, 1, first.IssueCycle)
	assert.Equal(t, 2, second.IssueCycle)
	assert.Equal(t, 8, second.CommitCycle)
	assert.Greater(t, second.CommitCycle, first.CommitCycle)
}

// scenario 3: MUL R1 R2 R3 (latency 3) / ADD R4 R1 R5, forwarded via
// the CDB. Separate functional-unit classes, so one station each
// suffices. Every cycle number here is pinned exactly by spec.md §8
// scenario 3's literal expectation and matches this engine's trace
// bit for bit (see DESIGN.md).
func TestScenarioMulThenDependentAdd(t *testing.T) {
	cfg := engine.DefaultConfig()
	e := mustEngine(t, cfg)
	e.LoadProgram([]engine.Spec{
		{ID: 0, Op: engine.OpMUL, Dest: "R1", Src1: engine.RegOperand("R2"), Src2: engine.RegOperand("R3")},
		{ID: 1, Op: engine.OpADD, Dest: "R4", Src1: engine.RegOperand("R1"), Src2: engine.RegOperand("R5")},
	})

	require.NoError(t, e.RunToEnd(100))

	first := findByID(t, e, 0)
	second := findByID(t, e, 1)

	assert.Equal(t, 1, first.IssueCycle)
	assert.Equal(t, 2, second.IssueCycle)
	assert.Equal(t, 2, first.ExecStartCycle)
	assert.Equal(t, 4, first.ExecEndCycle)
	assert.Equal(t, 5, first.WriteResultCycle)
	assert.Equal(t, 6, second.ExecStartCycle)
	assert.Equal(t, 8, second.WriteResultCycle)
	assert.Equal(t, 9, second.CommitCycle)
}

// scenario 4: two independent ADDs contend for the single default
// AddSub station. No data hazard, pure structural stall; both commit
// in program order.
func TestScenarioStructuralStall(t *testing.T) {
	cfg := engine.DefaultConfig()
	e := mustEngine(t, cfg)
	e.LoadProgram([]engine.Spec{
		{ID: 0, Op: engine.OpADD, Dest: "R1", Src1: engine.RegOperand("R2"), Src2: engine.RegOperand("R3")},
		{ID: 1, Op: engine.OpADD, Dest: "R4", Src1: engine.RegOperand("R5"), Src2: engine.RegOperand("R6")},
	})

	require.NoError(t, e.RunToEnd(100))

	first := findByID(t, e, 0)
	second := findByID(t, e, 1)

	assert.GreaterOrEqual(t, e.Metrics().StallCycles, 1)
	assert.Less(t, first.CommitCycle, second.CommitCycle)
	assert.NotEqual(t, engine.Unset, first.CommitCycle)
	assert.NotEqual(t, engine.Unset, second.CommitCycle)
}

// scenario 5: an always-taken branch squashes the two arithmetic
// instructions issued speculatively behind it, and the target
// instruction commits as ordinary architectural state.
func TestScenarioBranchSquash(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.AddSubStations = 2
	e := mustEngine(t, cfg)
	e.LoadProgram([]engine.Spec{
		{ID: 0, Op: engine.OpBEQ, Src1: engine.RegOperand("R0"), Src2: engine.RegOperand("R0"), BranchTarget: 3},
		{ID: 1, Op: engine.OpADD, Dest: "R1", Src1: engine.RegOperand("R2"), Src2: engine.RegOperand("R3")},
		{ID: 2, Op: engine.OpADD, Dest: "R4", Src1: engine.RegOperand("R5"), Src2: engine.RegOperand("R6")},
		{ID: 3, Op: engine.OpADD, Dest: "R7", Src1: engine.RegOperand("R8"), Src2: engine.RegOperand("R9")},
	})

	require.NoError(t, e.RunToEnd(200))

	branch := findByID(t, e, 0)
	squashedOne := findByID(t, e, 1)
	squashedTwo := findByID(t, e, 2)
	target := findByID(t, e, 3)

	assert.NotEqual(t, engine.Unset, branch.CommitCycle)
	assert.True(t, squashedOne.Squashed)
	assert.True(t, squashedTwo.Squashed)
	assert.Equal(t, engine.Unset, squashedOne.CommitCycle)
	assert.Equal(t, engine.Unset, squashedTwo.CommitCycle)
	assert.False(t, target.Squashed)
	assert.NotEqual(t, engine.Unset, target.CommitCycle)
	assert.Equal(t, 2, e.Metrics().SquashedTotal)
}

// scenario 6: five steps then five step-backs must return clock, PC,
// reservation stations, and register file to their post-load values.
func TestScenarioStepBackRoundTrip(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.AddSubStations = 2
	e := mustEngine(t, cfg)
	e.LoadProgram([]engine.Spec{
		{ID: 0, Op: engine.OpADD, Dest: "R1", Src1: engine.RegOperand("R2"), Src2: engine.RegOperand("R3")},
		{ID: 1, Op: engine.OpADD, Dest: "R4", Src1: engine.RegOperand("R1"), Src2: engine.RegOperand("R5")},
	})

	baselineClock := e.Clock()
	baselinePC := e.ProgramCounter()
	baselineRegs := e.Registers()
	baselineStations := e.Stations()

	for i := 0; i < 5; i++ {
		require.NoError(t, e.Step())
	}
	for i := 0; i < 5; i++ {
		require.True(t, e.StepBack())
	}

	assert.Equal(t, baselineClock, e.Clock())
	assert.Equal(t, baselinePC, e.ProgramCounter())
	assert.Equal(t, baselineRegs, e.Registers())
	assert.Equal(t, baselineStations, e.Stations())
	assert.Equal(t, 0, e.HistoryDepth())
}
