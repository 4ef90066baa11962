package jsvm

import (
	"fmt"

	"webcore/internal/jsvalue"
)

// frame is a single call's activation record: spec §4.I says "frame on
// call pushes (return address, base, function id); return pops to
// caller and leaves the result on the stack." The return address and
// caller link are Go's own call stack here — exec recurses into Call
// for OpCall rather than threading an explicit frame chain — so frame
// only needs to track what a nested Go call can't supply for free: the
// function being run and where its locals start on the shared stack.
type frame struct {
	fn   *CompiledFunction
	bc   *Bytecode
	base int // stack index where this frame's locals begin
}

// VM executes compiled (or, below the lazy-compile threshold,
// un-compiled) functions against a single value stack and a flat
// global table. Property access resolves against an object arena,
// matching spec §4.H's "objects live in an arena indexed by u32."
type VM struct {
	globals   map[string]jsvalue.JsVal
	functions map[string]*CompiledFunction
	objects   *jsvalue.Arena
	arrays    *jsvalue.ArrayArena
	strings   []string
	stringIdx map[string]uint32

	stack []jsvalue.JsVal

	// InstrHook, if set, is invoked once per bytecode instruction
	// dispatched (function name + byte offset of the opcode), letting
	// an external tracer (internal/jsjit) build per-offset execution
	// counts without jsvm depending on jsjit.
	InstrHook func(fnName string, offset int)
}

// New returns an empty VM.
func New() *VM {
	return &VM{
		globals:   map[string]jsvalue.JsVal{},
		functions: map[string]*CompiledFunction{},
		objects:   jsvalue.NewArena(),
		arrays:    jsvalue.NewArrayArena(),
		stringIdx: map[string]uint32{},
	}
}

// Objects exposes the VM's object arena, e.g. for a host bridge to
// create objects backing DOM elements.
func (vm *VM) Objects() *jsvalue.Arena { return vm.objects }

// Arrays exposes the VM's array arena.
func (vm *VM) Arrays() *jsvalue.ArrayArena { return vm.arrays }

// Define registers fn under its own name, Parsed and uncompiled.
func (vm *VM) Define(fn *Function) *CompiledFunction {
	cf := NewCompiledFunction(fn)
	vm.functions[fn.Name] = cf
	return cf
}

// SetGlobal assigns a global binding.
func (vm *VM) SetGlobal(name string, v jsvalue.JsVal) { vm.globals[name] = v }

// GetGlobal reads a global binding.
func (vm *VM) GetGlobal(name string) jsvalue.JsVal { return vm.globals[name] }

// BytecodeFor returns name's compiled bytecode, or nil if it hasn't
// been compiled yet (still Parsed, or below its lazy-compile
// threshold). Exposed for internal/jsjit to decode jump targets from
// the same InstrHook callback the VM already drives.
func (vm *VM) BytecodeFor(name string) *Bytecode {
	if cf, ok := vm.functions[name]; ok {
		return cf.Bytecode
	}
	return nil
}

// InternString implements StringInterner: string literals are interned
// into one VM-wide table so a StringHandle JsVal resolves the same way
// regardless of which function's bytecode or tree-walk produced it.
func (vm *VM) InternString(s string) uint32 {
	if id, ok := vm.stringIdx[s]; ok {
		return id
	}
	id := uint32(len(vm.strings))
	vm.strings = append(vm.strings, s)
	vm.stringIdx[s] = id
	return id
}

func (vm *VM) resolveString(handle uint32) string {
	if int(handle) >= len(vm.strings) {
		return ""
	}
	return vm.strings[handle]
}

// ResolveString exposes resolveString to callers outside the package
// that hold a jsvalue.JsVal string handle (e.g. a ScriptHost rendering
// an eval() result to text) and need the literal it was interned from.
func (vm *VM) ResolveString(handle uint32) string {
	return vm.resolveString(handle)
}

// Call invokes the named function with args, compiling it first if its
// call counter has reached the lazy-compilation threshold (function.go),
// else falling back to the tree-walking tier (treewalk.go).
func (vm *VM) Call(name string, args []jsvalue.JsVal) (jsvalue.JsVal, error) {
	cf, ok := vm.functions[name]
	if !ok {
		return jsvalue.Undefined(), fmt.Errorf("jsvm: call to undefined function %q", name)
	}
	bc, err := cf.ensureCompiled(vm)
	if err != nil {
		return jsvalue.Undefined(), err
	}
	if bc == nil {
		return vm.interpretTree(cf.AST, args)
	}
	return vm.runBytecode(cf, bc, args)
}

func (vm *VM) runBytecode(cf *CompiledFunction, bc *Bytecode, args []jsvalue.JsVal) (jsvalue.JsVal, error) {
	base := len(vm.stack)
	for i := 0; i < bc.NumLocals; i++ {
		if i < len(args) {
			vm.stack = append(vm.stack, args[i])
		} else {
			vm.stack = append(vm.stack, jsvalue.Undefined())
		}
	}
	fr := &frame{fn: cf, bc: bc, base: base}
	result, err := vm.exec(fr)
	vm.stack = vm.stack[:base]
	return result, err
}

func (vm *VM) push(v jsvalue.JsVal) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() jsvalue.JsVal {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek() jsvalue.JsVal { return vm.stack[len(vm.stack)-1] }

// exec runs fr's bytecode to completion (a Return or Halt) and returns
// the function's result value.
func (vm *VM) exec(fr *frame) (jsvalue.JsVal, error) {
	code := fr.bc.Code
	pc := 0
	fnName := fr.fn.AST.Name

	for pc < len(code) {
		if vm.InstrHook != nil {
			vm.InstrHook(fnName, pc)
		}
		op := Opcode(code[pc])
		opStart := pc
		pc++

		switch op {
		case OpLoadConst:
			idx := readUOperand(code, pc)
			pc += 2
			vm.push(fr.bc.Consts[idx])

		case OpLoadLocal:
			slot := readUOperand(code, pc)
			pc += 2
			vm.push(vm.stack[fr.base+slot])

		case OpLoadGlobal:
			idx := readUOperand(code, pc)
			pc += 2
			vm.push(vm.globals[fr.bc.Names[idx]])

		case OpLoadUndefined:
			vm.push(jsvalue.Undefined())
		case OpLoadNull:
			vm.push(jsvalue.Null())
		case OpLoadTrue:
			vm.push(jsvalue.Bool(true))
		case OpLoadFalse:
			vm.push(jsvalue.Bool(false))
		case OpLoadZero:
			vm.push(jsvalue.Number(0))
		case OpLoadOne:
			vm.push(jsvalue.Number(1))

		case OpStoreLocal:
			slot := readUOperand(code, pc)
			pc += 2
			vm.stack[fr.base+slot] = vm.peek()

		case OpStoreGlobal:
			idx := readUOperand(code, pc)
			pc += 2
			vm.globals[fr.bc.Names[idx]] = vm.peek()

		case OpGetProperty:
			idx := readUOperand(code, pc)
			pc += 2
			obj := vm.pop()
			name := fr.bc.Names[idx]
			vm.push(vm.getProperty(obj, name))

		case OpSetProperty:
			idx := readUOperand(code, pc)
			pc += 2
			obj := vm.pop()
			name := fr.bc.Names[idx]
			vm.setProperty(obj, name, vm.peek())

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			r := vm.pop()
			l := vm.pop()
			v, err := vm.arith(op, l, r)
			if err != nil {
				return jsvalue.Undefined(), err
			}
			vm.push(v)

		case OpLt, OpLe, OpGt, OpGe, OpEq, OpNe, OpStrictEq, OpStrictNe:
			r := vm.pop()
			l := vm.pop()
			vm.push(vm.compare(op, l, r))

		case OpJump:
			offset := readOperand(code, pc)
			pc += 2
			pc += offset

		case OpJumpIfFalse:
			offset := readOperand(code, pc)
			pc += 2
			if !vm.pop().IsTruthy(vm.resolveString) {
				pc += offset
			}

		case OpJumpIfTrue:
			offset := readOperand(code, pc)
			pc += 2
			if vm.pop().IsTruthy(vm.resolveString) {
				pc += offset
			}

		case OpCall:
			nameIdx := readUOperand(code, pc)
			pc += 2
			argc := readUOperand(code, pc)
			pc += 2
			args := make([]jsvalue.JsVal, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = vm.pop()
			}
			result, err := vm.Call(fr.bc.Names[nameIdx], args)
			if err != nil {
				return jsvalue.Undefined(), err
			}
			vm.push(result)

		case OpReturn:
			return vm.pop(), nil

		case OpHalt:
			return jsvalue.Undefined(), nil

		case OpPop:
			vm.pop()

		case OpNewArray:
			count := readUOperand(code, pc)
			pc += 2
			elems := make([]jsvalue.JsVal, count)
			for i := count - 1; i >= 0; i-- {
				elems[i] = vm.pop()
			}
			arr := jsvalue.NewArray(elems)
			handle := vm.arrays.New(arr)
			vm.push(jsvalue.ArrayHandle(handle))

		default:
			return jsvalue.Undefined(), fmt.Errorf("jsvm: unknown opcode %d at offset %d", op, opStart)
		}
	}
	return jsvalue.Undefined(), nil
}

func (vm *VM) getProperty(obj jsvalue.JsVal, name string) jsvalue.JsVal {
	if obj.TypeOf() != jsvalue.TypeObject {
		return jsvalue.Undefined()
	}
	o := vm.objects.Get(obj.Handle())
	if o == nil {
		return jsvalue.Undefined()
	}
	v, _ := o.Get(vm.InternString(name))
	return v
}

func (vm *VM) setProperty(obj jsvalue.JsVal, name string, v jsvalue.JsVal) {
	if obj.TypeOf() != jsvalue.TypeObject {
		return
	}
	o := vm.objects.Get(obj.Handle())
	if o == nil {
		return
	}
	o.Set(vm.InternString(name), v)
}

func (vm *VM) arith(op Opcode, l, r jsvalue.JsVal) (jsvalue.JsVal, error) {
	lf, rf := l.ToNumber(vm.resolveString), r.ToNumber(vm.resolveString)
	switch op {
	case OpAdd:
		return jsvalue.Number(lf + rf), nil
	case OpSub:
		return jsvalue.Number(lf - rf), nil
	case OpMul:
		return jsvalue.Number(lf * rf), nil
	case OpDiv:
		return jsvalue.Number(lf / rf), nil
	case OpMod:
		return jsvalue.Number(floatMod(lf, rf)), nil
	default:
		return jsvalue.Undefined(), fmt.Errorf("jsvm: not an arithmetic opcode: %s", op)
	}
}

func floatMod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	return m
}

func (vm *VM) compare(op Opcode, l, r jsvalue.JsVal) jsvalue.JsVal {
	switch op {
	case OpStrictEq:
		return jsvalue.Bool(l == r)
	case OpStrictNe:
		return jsvalue.Bool(l != r)
	case OpEq:
		return jsvalue.Bool(l == r)
	case OpNe:
		return jsvalue.Bool(l != r)
	}
	lf, rf := l.ToNumber(vm.resolveString), r.ToNumber(vm.resolveString)
	switch op {
	case OpLt:
		return jsvalue.Bool(lf < rf)
	case OpLe:
		return jsvalue.Bool(lf <= rf)
	case OpGt:
		return jsvalue.Bool(lf > rf)
	case OpGe:
		return jsvalue.Bool(lf >= rf)
	}
	return jsvalue.Bool(false)
}
