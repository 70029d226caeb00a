package engine

import "fmt"

// reservationStation is one slot of a functional-unit queue. Field
// names (Qj/Vj/Qk/Vk) follow
// original_source/desktop_version/ReservationStation.py; Go types
// replace Python's "None means unresolved" with an empty-string tag,
// since engine.go never needs to distinguish "no source operand" from
// "operand value is the zero value" — every op here has exactly two
// logical sources (LOAD/STORE carry the base register in Src1 and keep
// the displacement in the separate Offset field, see instruction.go).
//
// State machine (spec.md §4.3): FREE -> BUSY_WAITING (Qj or Qk set) ->
// BUSY_READY (both resolved) -> BUSY_EXECUTING (instr.ExecStartCycle
// stamped) -> FREE. The station itself holds no state machine field;
// the state is always derivable from (busy, qj, qk, instr.ExecStartCycle),
// which is what readyToExecute and the engine's execute phase consult.
type reservationStation struct {
	name string

	busy    bool
	op      Op
	instrID int // Unset when free

	qj, qk string  // producer tag pending, "" if resolved
	vj, vk float64 // resolved operand values

	result float64
}

func newReservationStation(class FUClass, index int) *reservationStation {
	rs := &reservationStation{name: fmt.Sprintf("RS_%s_%d", class, index+1)}
	rs.free()
	return rs
}

// assign binds an instruction to a free station. Only legal when !busy
// (spec.md §4.3).
func (rs *reservationStation) assign(instr *Instruction, qj string, vj float64, qk string, vk float64) {
	rs.busy = true
	rs.op = instr.Op
	rs.instrID = instr.ID
	rs.qj, rs.vj = qj, vj
	rs.qk, rs.vk = qk, vk
	rs.result = 0
}

// free idempotently resets the station to FREE.
func (rs *reservationStation) free() {
	rs.busy = false
	rs.instrID = Unset
	rs.qj, rs.qk = noProducer, noProducer
	rs.vj, rs.vk = 0, 0
	rs.result = 0
}

// readyToExecute reports whether both operand slots carry values
// (spec.md §4.3's BUSY_READY test).
func (rs *reservationStation) readyToExecute() bool {
	return rs.qj == noProducer && rs.qk == noProducer
}

// setVj stores a resolved value for operand j and clears its tag.
func (rs *reservationStation) setVj(v float64) {
	rs.vj = v
	rs.qj = noProducer
}

// setVk stores a resolved value for operand k and clears its tag.
func (rs *reservationStation) setVk(v float64) {
	rs.vk = v
	rs.qk = noProducer
}

func (rs *reservationStation) clone() *reservationStation {
	c := *rs
	return &c
}

// rsPool is one functional-unit class's fixed-size array of stations.
// Allocation always scans from index 0 (spec.md §4.1's "always the
// lowest-index free RS" tie-break).
type rsPool struct {
	class    FUClass
	stations []*reservationStation
}

func newRSPool(class FUClass, count int) *rsPool {
	p := &rsPool{class: class, stations: make([]*reservationStation, count)}
	for i := range p.stations {
		p.stations[i] = newReservationStation(class, i)
	}
	return p
}

// firstFree returns the lowest-index free station, or nil if the pool
// is exhausted (a structural stall, per spec.md §4.1).
func (p *rsPool) firstFree() *reservationStation {
	for _, rs := range p.stations {
		if !rs.busy {
			return rs
		}
	}
	return nil
}

func (p *rsPool) clone() *rsPool {
	c := &rsPool{class: p.class, stations: make([]*reservationStation, len(p.stations))}
	for i, rs := range p.stations {
		c.stations[i] = rs.clone()
	}
	return c
}

// findBusy returns the busy station bound to instrID, or nil.
func (p *rsPool) findBusy(instrID int) *reservationStation {
	for _, rs := range p.stations {
		if rs.busy && rs.instrID == instrID {
			return rs
		}
	}
	return nil
}
