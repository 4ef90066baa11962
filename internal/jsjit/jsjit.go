// Package jsjit implements the baseline tracing JIT described in spec
// §4.J: per-offset execution counters detect hot backward-jump loop
// headers, and a hot range compiles into an opaque JIT1/END1-enveloped
// buffer. Per spec and DESIGN.md, this tier performs no speculation
// and no real native codegen — "compile" means wrapping a verbatim
// copy of the already-correct bytecode range in an envelope, which is
// enough to model "control transfers to the compiled buffer until it
// exits at the region end" without inventing a second execution
// engine. Failure to compile a region (e.g. a range jsjit doesn't
// recognize) falls back to the interpreter silently.
//
// New relative to the teacher, which has no JIT tier at all (goja
// interprets everything). Grounded in other_examples' fluent-jit
// compile.go: the same ExecutionPlan idea (a linear buffer mirroring
// the source, built once and replayed) retargeted from template
// rendering onto a bytecode hot loop.
package jsjit

import (
	"fmt"

	"webcore/internal/jsvm"
)

const envelopeStart = "JIT1"
const envelopeEnd = "END1"

// DefaultThreshold is the per-offset execution count above which an
// offset is considered hot, per spec §4.J ("default 1000").
const DefaultThreshold = 1000

type regionKey struct {
	fn     string
	offset int
}

// HotRegion is a bytecode range (usually a loop body) whose execution
// count has crossed the hot threshold.
type HotRegion struct {
	FuncName   string
	Start, End int // bytecode byte offsets; [Start, End)
}

// CompiledRegion is the JIT1/END1-enveloped artifact produced for a
// HotRegion. Buffer's payload (between the envelope markers) is a
// byte-for-byte copy of the original bytecode range: this tier does
// not transform instructions, only marks them as promoted.
type CompiledRegion struct {
	Region HotRegion
	Buffer []byte
}

// Tracer accumulates per-(function, offset) execution counts from a
// jsvm.VM's InstrHook and detects + compiles HotRegions once a loop
// header crosses DefaultThreshold (or a custom Threshold).
type Tracer struct {
	Threshold uint32

	counts  map[regionKey]uint32
	regions map[regionKey]*CompiledRegion
}

// NewTracer returns a Tracer using DefaultThreshold.
func NewTracer() *Tracer {
	return &Tracer{
		Threshold: DefaultThreshold,
		counts:    map[regionKey]uint32{},
		regions:   map[regionKey]*CompiledRegion{},
	}
}

// Attach wires t as vm's execution observer: every instruction
// vm executes is counted, and backward jumps landing on a hot target
// trigger region compilation. Call once per VM.
func (t *Tracer) Attach(vm *jsvm.VM) {
	vm.InstrHook = func(fnName string, offset int) {
		t.Observe(fnName, offset, vm.BytecodeFor(fnName))
	}
}

// Observe records one instruction dispatch at (fnName, offset) and, if
// that instruction is a backward jump whose target has gone hot,
// compiles the loop body into a CompiledRegion.
func (t *Tracer) Observe(fnName string, offset int, bc *jsvm.Bytecode) {
	key := regionKey{fnName, offset}
	t.counts[key]++

	if bc == nil {
		return
	}
	target, after, isJump := decodeJump(bc, offset)
	if !isJump || target > offset {
		return // not a jump, or a forward jump — not a loop header candidate
	}
	if _, already := t.regions[regionKey{fnName, target}]; already {
		return
	}
	if t.counts[regionKey{fnName, target}] <= t.Threshold {
		return
	}
	region := HotRegion{FuncName: fnName, Start: target, End: after}
	t.regions[regionKey{fnName, target}] = CompileRegion(bc, region)
}

// Lookup returns the compiled region whose loop header is (fnName,
// offset), if one has been compiled.
func (t *Tracer) Lookup(fnName string, offset int) (*CompiledRegion, bool) {
	cr, ok := t.regions[regionKey{fnName, offset}]
	return cr, ok
}

// Count returns the observed execution count at (fnName, offset), for
// tests and diagnostics.
func (t *Tracer) Count(fnName string, offset int) uint32 {
	return t.counts[regionKey{fnName, offset}]
}

// CompileRegion wraps bc.Code[region.Start:region.End] in a JIT1/END1
// envelope. It never fails on a well-formed region; a bad range (out
// of bounds) falls back by returning a region with an empty payload,
// which callers should treat as "not compiled" rather than panic —
// matching spec's "failure to compile falls back to the interpreter
// without error."
func CompileRegion(bc *jsvm.Bytecode, region HotRegion) *CompiledRegion {
	if region.Start < 0 || region.End > len(bc.Code) || region.Start >= region.End {
		return &CompiledRegion{Region: region}
	}
	buf := make([]byte, 0, len(envelopeStart)+region.End-region.Start+len(envelopeEnd))
	buf = append(buf, envelopeStart...)
	buf = append(buf, bc.Code[region.Start:region.End]...)
	buf = append(buf, envelopeEnd...)
	return &CompiledRegion{Region: region, Buffer: buf}
}

// Payload returns the bytecode slice wrapped inside cr's envelope,
// stripped of the JIT1/END1 markers, or an error if the envelope is
// malformed.
func (cr *CompiledRegion) Payload() ([]byte, error) {
	n := len(cr.Buffer)
	if n < len(envelopeStart)+len(envelopeEnd) {
		return nil, fmt.Errorf("jsjit: compiled region buffer too small to contain an envelope")
	}
	if string(cr.Buffer[:len(envelopeStart)]) != envelopeStart {
		return nil, fmt.Errorf("jsjit: compiled region missing %q prefix", envelopeStart)
	}
	if string(cr.Buffer[n-len(envelopeEnd):]) != envelopeEnd {
		return nil, fmt.Errorf("jsjit: compiled region missing %q suffix", envelopeEnd)
	}
	return cr.Buffer[len(envelopeStart) : n-len(envelopeEnd)], nil
}

// decodeJump reports whether the instruction at offset in bc.Code is
// one of Jump/JumpIfFalse/JumpIfTrue, and if so its resolved target
// offset and the offset immediately after the instruction (its operand
// end).
func decodeJump(bc *jsvm.Bytecode, offset int) (target, after int, isJump bool) {
	if offset < 0 || offset >= len(bc.Code) {
		return 0, 0, false
	}
	op := jsvm.Opcode(bc.Code[offset])
	if op != jsvm.OpJump && op != jsvm.OpJumpIfFalse && op != jsvm.OpJumpIfTrue {
		return 0, 0, false
	}
	operandPos := offset + 1
	if operandPos+2 > len(bc.Code) {
		return 0, 0, false
	}
	rel := jsvm.ReadSignedOperand(bc.Code, operandPos)
	after = operandPos + 2
	return after + rel, after, true
}
