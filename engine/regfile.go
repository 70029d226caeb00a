package engine

// noProducer is the RAT sentinel meaning "this register holds
// architectural state, not a pending result" (spec.md §3: producer tag
// is either "none" or a reference to the producing RS/ROB entry).
const noProducer = ""

// registerStatus is one entry of the register file: the architectural
// value plus the tag of whatever is currently renaming it. Grounded on
// original_source/desktop_version/RegisterFile.py's RegisterStatus.
type registerStatus struct {
	value       float64
	producerTag string
}

// registerFile is the architectural register file plus the per-register
// alias table (RAT), combined the way spec.md §4.2 describes. Unknown
// registers are created on first write.
type registerFile struct {
	regs map[string]*registerStatus
}

func newRegisterFile() *registerFile {
	return &registerFile{regs: make(map[string]*registerStatus)}
}

// status returns (value, producerTag) for a register, auto-vivifying it
// to (0, noProducer) if it has never been referenced.
func (r *registerFile) status(name string) (float64, string) {
	s, ok := r.regs[name]
	if !ok {
		s = &registerStatus{producerTag: noProducer}
		r.regs[name] = s
	}
	return s.value, s.producerTag
}

// setProducer sets a register's producer tag, auto-vivifying it.
func (r *registerFile) setProducer(name, tag string) {
	s, ok := r.regs[name]
	if !ok {
		s = &registerStatus{producerTag: noProducer}
		r.regs[name] = s
	}
	s.producerTag = tag
}

// setValue sets a register's architectural value, auto-vivifying it.
func (r *registerFile) setValue(name string, value float64) {
	s, ok := r.regs[name]
	if !ok {
		s = &registerStatus{producerTag: noProducer}
		r.regs[name] = s
	}
	s.value = value
}

// clearProducerIfMatches clears a register's producer tag only if it
// still equals tag — the "stale producer leaves the tag" invariant from
// spec.md §3/§4.1.
func (r *registerFile) clearProducerIfMatches(name, tag string) {
	s, ok := r.regs[name]
	if !ok || s.producerTag != tag {
		return
	}
	s.producerTag = noProducer
}

// names returns every register name the file has observed, for the
// iterable-register-file query surface in spec.md §6. Order is not
// significant to callers; registerViews in query.go sorts them.
func (r *registerFile) names() []string {
	out := make([]string, 0, len(r.regs))
	for name := range r.regs {
		out = append(out, name)
	}
	return out
}

func (r *registerFile) clone() *registerFile {
	c := newRegisterFile()
	for name, s := range r.regs {
		cp := *s
		c.regs[name] = &cp
	}
	return c
}
