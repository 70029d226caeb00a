package engine

// memory is a flat address->value mapping, per spec.md §3: "memory is a
// flat address→value mapping with no alignment or protection." A map
// rather than SupraX.go's fixed []uint64 array, since simulated programs
// only ever touch a handful of sparse test addresses (see SPEC_FULL.md
// §3).
type memory struct {
	cells map[int]float64
}

func newMemory() *memory {
	return &memory{cells: make(map[int]float64)}
}

// load reads an address, returning 0 for any address never written
// (spec.md §7 kind 3: "missing memory address: reads 0").
func (m *memory) load(addr int) float64 {
	return m.cells[addr]
}

func (m *memory) store(addr int, value float64) {
	m.cells[addr] = value
}

func (m *memory) clone() *memory {
	c := newMemory()
	for addr, v := range m.cells {
		c.cells[addr] = v
	}
	return c
}
