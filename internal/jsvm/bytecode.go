package jsvm

import "webcore/internal/jsvalue"

// Bytecode is a compiled function body: a flat instruction stream plus
// the constant and name pools it indexes into. Every operand that
// refers into Consts or Names is a 16-bit index, per spec §4.I; jump
// operands are signed 16-bit offsets relative to the instruction
// immediately following the jump's operand.
type Bytecode struct {
	Code      []byte
	Consts    []jsvalue.JsVal
	Names     []string
	NumLocals int
}

func newBytecode() *Bytecode {
	return &Bytecode{}
}

func (b *Bytecode) emit(op Opcode) int {
	pos := len(b.Code)
	b.Code = append(b.Code, byte(op))
	return pos
}

func (b *Bytecode) emitOperand(v int) {
	b.Code = append(b.Code, byte(uint16(v)>>8), byte(uint16(v)))
}

// emitWithOperand appends op followed by a single 16-bit operand and
// returns the byte offset of the operand itself, so callers can patch
// forward jumps once their target is known.
func (b *Bytecode) emitWithOperand(op Opcode, operand int) int {
	b.emit(op)
	operandPos := len(b.Code)
	b.emitOperand(operand)
	return operandPos
}

func (b *Bytecode) patchOperand(operandPos, v int) {
	b.Code[operandPos] = byte(uint16(v) >> 8)
	b.Code[operandPos+1] = byte(uint16(v))
}

func readOperand(code []byte, pos int) int {
	return int(int16(uint16(code[pos])<<8 | uint16(code[pos+1])))
}

// ReadSignedOperand exposes the jump-offset decode to other packages
// (internal/jsjit, to resolve a backward jump's loop-header target
// without re-deriving the VM's own operand encoding).
func ReadSignedOperand(code []byte, pos int) int { return readOperand(code, pos) }

func readUOperand(code []byte, pos int) int {
	return int(uint16(code[pos])<<8 | uint16(code[pos+1]))
}

func (b *Bytecode) addConst(v jsvalue.JsVal) int {
	b.Consts = append(b.Consts, v)
	return len(b.Consts) - 1
}

func (b *Bytecode) internName(name string) int {
	for i, n := range b.Names {
		if n == name {
			return i
		}
	}
	b.Names = append(b.Names, name)
	return len(b.Names) - 1
}
