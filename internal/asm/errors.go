package asm

import "fmt"

// ParseError reports a malformed program line: unknown opcode, wrong
// arity, or a non-integer branch target (spec.md §6/§7 kind 1). It
// carries the 1-based source line number and the offending text so the
// boundary layer can print a useful diagnostic.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("asm: line %d: %s: %q", e.Line, e.Msg, e.Text)
}
