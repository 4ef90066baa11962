package jsvm

// FunctionState mirrors spec §4.H's function lifecycle:
// Parsed -> Compiling -> Compiled, or Dead once unreachable.
type FunctionState uint8

const (
	StateParsed FunctionState = iota
	StateCompiling
	StateCompiled
	StateDead
)

// CompiledFunction wraps a parsed function with its lazy-compilation
// state: the AST is kept as-is until the call counter reaches the
// compile threshold (default 1, i.e. compile on first call), at which
// point Bytecode is produced once and memoized. Functions that are
// never called stay Parsed forever and never pay compilation cost.
type CompiledFunction struct {
	AST       *Function
	State     FunctionState
	CallCount uint32
	Threshold uint32
	Bytecode  *Bytecode
}

// NewCompiledFunction registers fn as Parsed with the default
// immediate-compile threshold.
func NewCompiledFunction(fn *Function) *CompiledFunction {
	return &CompiledFunction{AST: fn, State: StateParsed, Threshold: 1}
}

// ensureCompiled increments the call counter and compiles the function
// exactly once, the moment the counter reaches Threshold.
func (f *CompiledFunction) ensureCompiled(interner StringInterner) (*Bytecode, error) {
	if f.State == StateCompiled {
		return f.Bytecode, nil
	}
	f.CallCount++
	if f.CallCount < f.Threshold {
		return nil, nil
	}
	f.State = StateCompiling
	bc, err := Compile(interner, f.AST)
	if err != nil {
		return nil, err
	}
	f.Bytecode = bc
	f.State = StateCompiled
	return bc, nil
}
