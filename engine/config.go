package engine

// Config is the engine's construction-time configuration: reservation
// station pool sizes, per-class latencies, and the ROB size. Field names
// mirror TOMASSULLLERoriSimulator.py's constructor parameter list
// (add_fu_count, store_fu_count, mult_fu_count, branch_fu_count,
// add_sub_latency, load_latency, store_latency, mult_latency,
// div_latency, branch_latency), collapsed per SPEC_FULL.md §4's
// MulDiv/AddSub/MemOp/Branch pool split.
type Config struct {
	AddSubStations int
	MulDivStations int
	MemStations    int
	BranchStations int

	AddSubLatency int
	MulLatency    int
	DivLatency    int
	LoadLatency   int
	StoreLatency  int
	BranchLatency int

	ROBSize int
}

// DefaultConfig returns the latencies and pool sizes spec.md §8 uses for
// its worked scenarios: "ADD=2, LD=6, MUL=3, BRANCH=4, one RS per
// class."
func DefaultConfig() Config {
	return Config{
		AddSubStations: 1,
		MulDivStations: 1,
		MemStations:    1,
		BranchStations: 1,

		AddSubLatency: 2,
		MulLatency:    3,
		DivLatency:    3,
		LoadLatency:   6,
		StoreLatency:  6,
		BranchLatency: 4,

		ROBSize: 16,
	}
}

// latencyFor returns the configured latency for an opcode.
func (c Config) latencyFor(op Op) int {
	switch op {
	case OpADD, OpSUB:
		return c.AddSubLatency
	case OpMUL:
		return c.MulLatency
	case OpDIV:
		return c.DivLatency
	case OpLOAD:
		return c.LoadLatency
	case OpSTORE:
		return c.StoreLatency
	case OpBEQ, OpBNE:
		return c.BranchLatency
	default:
		return 1
	}
}

// stationsFor returns the configured pool size for an opcode's class.
func (c Config) stationsFor(op Op) int {
	switch rsPoolOf(op) {
	case ClassAddSub:
		return c.AddSubStations
	case ClassMulDiv:
		return c.MulDivStations
	case ClassLoad:
		return c.MemStations
	case ClassBranch:
		return c.BranchStations
	default:
		return 1
	}
}

// Validate checks the "all values are positive integers" constraint from
// spec.md §6.
func (c Config) Validate() error {
	fields := map[string]int{
		"add_sub_stations": c.AddSubStations,
		"mul_div_stations": c.MulDivStations,
		"mem_stations":     c.MemStations,
		"branch_stations":  c.BranchStations,
		"add_sub_latency":  c.AddSubLatency,
		"mul_latency":      c.MulLatency,
		"div_latency":      c.DivLatency,
		"load_latency":     c.LoadLatency,
		"store_latency":    c.StoreLatency,
		"branch_latency":   c.BranchLatency,
		"rob_size":         c.ROBSize,
	}
	for name, v := range fields {
		if v <= 0 {
			return &ConfigError{Field: name, Value: v}
		}
	}
	return nil
}
