package engine

// Metrics is the derived, point-in-time performance summary described
// by spec.md §2 ("Derived counters: IPC, stalls, squashed, peak
// in-flight speculative count") and computed the way
// TOMASSULLLERoriSimulator.py's calculate_ipc/get_total_squashed/
// get_current_speculative_count/get_bubble_cycles do.
type Metrics struct {
	Clock              int
	Committed          int
	StallCycles        int
	SquashedTotal       int
	SpeculativeCurrent int
	SpeculativePeak    int
	IPC                float64
}

// metrics computes the current Metrics snapshot. Empty-program IPC is
// defined as 0 per spec.md §8's boundary behaviour.
func (e *CycleEngine) metrics() Metrics {
	current := e.currentSpeculativeCount()
	return computeMetrics(e.instructions, e.clock, e.stallCycles, e.squashedTotal, current, e.maxSpeculative)
}

// currentSpeculativeCount counts in-flight (not committed, not
// squashed) instructions still marked speculative, and tracks the
// running peak the way get_current_speculative_count does.
func (e *CycleEngine) currentSpeculativeCount() int {
	count := speculativeCount(e.instructions)
	if count > e.maxSpeculative {
		e.maxSpeculative = count
	}
	return count
}

// speculativeCount is the pure (non-peak-tracking) half of
// currentSpeculativeCount, reusable against a historical snapshot's
// instruction slice where there is no running peak to update.
func speculativeCount(instructions []*Instruction) int {
	count := 0
	for _, instr := range instructions {
		if instr.Speculative && !instr.Squashed && instr.CommitCycle == Unset {
			count++
		}
	}
	return count
}

// computeMetrics is the pure computation behind metrics, reusable
// against both the live engine and a historical snapshot.
func computeMetrics(instructions []*Instruction, clock, stallCycles, squashedTotal, currentSpeculative, peakSpeculative int) Metrics {
	committed := 0
	for _, instr := range instructions {
		if instr.CommitCycle != Unset && !instr.Squashed {
			committed++
		}
	}
	ipc := 0.0
	if clock > 0 {
		ipc = float64(committed) / float64(clock)
	}
	return Metrics{
		Clock:              clock,
		Committed:          committed,
		StallCycles:        stallCycles,
		SquashedTotal:       squashedTotal,
		SpeculativeCurrent: currentSpeculative,
		SpeculativePeak:    peakSpeculative,
		IPC:                ipc,
	}
}
