// Package asm parses the reduced MIPS-like assembly text described by
// spec.md §6 into an ordered slice of engine.Spec records. It has no
// knowledge of the cycle engine beyond that record shape.
package asm

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/maemo32/tomasulo/engine"
)

var opcodeAliases = map[string]engine.Op{
	"ADD":   engine.OpADD,
	"SUB":   engine.OpSUB,
	"MUL":   engine.OpMUL,
	"DIV":   engine.OpDIV,
	"LD":    engine.OpLOAD,
	"LOAD":  engine.OpLOAD,
	"LW":    engine.OpLOAD,
	"ST":    engine.OpSTORE,
	"STORE": engine.OpSTORE,
	"SW":    engine.OpSTORE,
	"BEQ":   engine.OpBEQ,
	"BNE":   engine.OpBNE,
}

var registerPattern = regexp.MustCompile(`^[RF][0-9]+$`)
var offsetBasePattern = regexp.MustCompile(`^(-?[0-9]+(?:\.[0-9]+)?)\(([RF][0-9]+)\)$`)

// Parse reads a program from r, one instruction per line, and returns it
// as an ordered slice of engine.Spec with sequential 0-based ids.
// Blank lines and `#`-led lines are ignored; a trailing `#` introduces a
// line comment. Returns the first *ParseError encountered; no partial
// program is ever returned alongside an error.
func Parse(r io.Reader) ([]engine.Spec, error) {
	var specs []engine.Spec
	scanner := bufio.NewScanner(r)

	lineNo := 0
	nextID := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		text := stripComment(raw)
		if text == "" {
			continue
		}

		spec, err := parseLine(text, nextID)
		if err != nil {
			pe, ok := err.(*ParseError)
			if !ok {
				return nil, errors.Wrapf(err, "asm: line %d", lineNo)
			}
			pe.Line = lineNo
			return nil, pe
		}
		specs = append(specs, spec)
		nextID++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "asm: reading program")
	}
	return specs, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func parseLine(text string, id int) (engine.Spec, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return engine.Spec{}, &ParseError{Text: text, Msg: "expected at least an opcode and one operand"}
	}

	op, ok := opcodeAliases[strings.ToUpper(fields[0])]
	if !ok {
		return engine.Spec{}, &ParseError{Text: text, Msg: "unknown opcode " + fields[0]}
	}

	switch op {
	case engine.OpLOAD, engine.OpSTORE:
		return parseMemoryOp(op, fields, text, id)
	case engine.OpBEQ, engine.OpBNE:
		return parseBranch(op, fields, text, id)
	default:
		return parseArithmetic(op, fields, text, id)
	}
}

func parseArithmetic(op engine.Op, fields []string, text string, id int) (engine.Spec, error) {
	if len(fields) != 4 {
		return engine.Spec{}, &ParseError{Text: text, Msg: "expected OP DEST SRC1 SRC2"}
	}
	if !registerPattern.MatchString(fields[1]) {
		return engine.Spec{}, &ParseError{Text: text, Msg: "destination must be a register"}
	}
	src1, err := parseOperand(fields[2])
	if err != nil {
		return engine.Spec{}, &ParseError{Text: text, Msg: err.Error()}
	}
	src2, err := parseOperand(fields[3])
	if err != nil {
		return engine.Spec{}, &ParseError{Text: text, Msg: err.Error()}
	}
	return engine.Spec{
		ID:           id,
		Op:           op,
		Dest:         fields[1],
		Src1:         src1,
		Src2:         src2,
		BranchTarget: engine.Unset,
	}, nil
}

func parseMemoryOp(op engine.Op, fields []string, text string, id int) (engine.Spec, error) {
	if len(fields) != 3 {
		return engine.Spec{}, &ParseError{Text: text, Msg: "expected OP REG OFFSET(BASE)"}
	}
	if !registerPattern.MatchString(fields[1]) {
		return engine.Spec{}, &ParseError{Text: text, Msg: "expected a register operand"}
	}
	m := offsetBasePattern.FindStringSubmatch(fields[2])
	if m == nil {
		return engine.Spec{}, &ParseError{Text: text, Msg: "expected OFFSET(BASE) form"}
	}
	offset, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return engine.Spec{}, &ParseError{Text: text, Msg: "malformed offset"}
	}

	spec := engine.Spec{
		ID:           id,
		Op:           op,
		Src1:         engine.RegOperand(m[2]),
		Src2:         engine.ImmOperand(0),
		Offset:       offset,
		BranchTarget: engine.Unset,
	}
	if op == engine.OpLOAD {
		spec.Dest = fields[1]
	} else {
		// STORE: fields[1] names the register holding the value to
		// write, carried as the second operand slot; Src1 already holds
		// the base register.
		spec.Src2 = engine.RegOperand(fields[1])
	}
	return spec, nil
}

func parseBranch(op engine.Op, fields []string, text string, id int) (engine.Spec, error) {
	if len(fields) != 4 {
		return engine.Spec{}, &ParseError{Text: text, Msg: "expected OP TARGET SRC1 SRC2"}
	}
	target, err := strconv.Atoi(fields[1])
	if err != nil || target < 0 {
		return engine.Spec{}, &ParseError{Text: text, Msg: "branch target must be a non-negative integer instruction id"}
	}
	src1, err := parseOperand(fields[2])
	if err != nil {
		return engine.Spec{}, &ParseError{Text: text, Msg: err.Error()}
	}
	src2, err := parseOperand(fields[3])
	if err != nil {
		return engine.Spec{}, &ParseError{Text: text, Msg: err.Error()}
	}
	return engine.Spec{
		ID:           id,
		Op:           op,
		Src1:         src1,
		Src2:         src2,
		BranchTarget: target,
	}, nil
}

func parseOperand(tok string) (engine.Operand, error) {
	if registerPattern.MatchString(tok) {
		return engine.RegOperand(tok), nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return engine.Operand{}, errors.Errorf("operand %q is neither a register nor a numeric literal", tok)
	}
	return engine.ImmOperand(v), nil
}
