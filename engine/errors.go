package engine

import "fmt"

// ConfigError reports an invalid Config field, per spec.md §6's "all
// values are positive integers" constraint. Shaped after
// ehrlich-b-go-ublk/errors.go's structured error style.
type ConfigError struct {
	Field string
	Value int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tomasulo: invalid config field %s=%d, must be positive", e.Field, e.Value)
}

// BranchTargetError reports spec.md §7 kind 5: a branch committed with
// a target id that does not exist in the loaded program. Commit is
// skipped for that instruction (no squash), and the engine remains in a
// valid, inspectable state; this error is surfaced to the caller of
// Step/RunToEnd rather than causing a panic.
type BranchTargetError struct {
	BranchID int
	TargetID int
}

func (e *BranchTargetError) Error() string {
	return fmt.Sprintf("tomasulo: branch %d targets unknown instruction id %d", e.BranchID, e.TargetID)
}

// SafetyCapError reports spec.md §7 kind 4: RunToEnd hit its cycle bound
// without the program completing.
type SafetyCapError struct {
	CycleCap int
}

func (e *SafetyCapError) Error() string {
	return fmt.Sprintf("tomasulo: simulation did not complete within %d cycles", e.CycleCap)
}
