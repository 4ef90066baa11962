package jsvm

import (
	"testing"

	"webcore/internal/jsvalue"
)

// add(a, b) { return a + b; }
func addFunc() *Function {
	return &Function{
		Name:   "add",
		Params: []string{"a", "b"},
		Body: &Block{Stmts: []Stmt{
			&ReturnStmt{Value: &BinaryExpr{Op: "+", Left: &Ident{Name: "a"}, Right: &Ident{Name: "b"}}},
		}},
	}
}

func TestCallCompilesOnFirstCallByDefault(t *testing.T) {
	vm := New()
	cf := vm.Define(addFunc())
	if cf.State != StateParsed {
		t.Fatalf("expected newly defined function to start Parsed")
	}
	result, err := vm.Call("add", []jsvalue.JsVal{jsvalue.Number(2), jsvalue.Number(3)})
	if err != nil {
		t.Fatal(err)
	}
	if result.Float64() != 5 {
		t.Fatalf("expected 2+3=5, got %v", result.Float64())
	}
	if cf.State != StateCompiled {
		t.Fatalf("expected function compiled after reaching default threshold 1")
	}
}

func TestLazyCompilationRespectsHigherThreshold(t *testing.T) {
	vm := New()
	cf := vm.Define(addFunc())
	cf.Threshold = 3
	vm.Call("add", []jsvalue.JsVal{jsvalue.Number(1), jsvalue.Number(1)})
	if cf.State == StateCompiled {
		t.Fatalf("expected function to remain uncompiled below threshold")
	}
	vm.Call("add", []jsvalue.JsVal{jsvalue.Number(1), jsvalue.Number(1)})
	if cf.State == StateCompiled {
		t.Fatalf("expected function to remain uncompiled on second call (still below threshold)")
	}
	result, err := vm.Call("add", []jsvalue.JsVal{jsvalue.Number(10), jsvalue.Number(20)})
	if err != nil {
		t.Fatal(err)
	}
	if cf.State != StateCompiled {
		t.Fatalf("expected function to compile on reaching threshold")
	}
	if result.Float64() != 30 {
		t.Fatalf("expected 10+20=30 on the compiling call, got %v", result.Float64())
	}
}

func TestCompileIsMemoizedAcrossCalls(t *testing.T) {
	vm := New()
	cf := vm.Define(addFunc())
	vm.Call("add", []jsvalue.JsVal{jsvalue.Number(1), jsvalue.Number(1)})
	first := cf.Bytecode
	vm.Call("add", []jsvalue.JsVal{jsvalue.Number(2), jsvalue.Number(2)})
	if cf.Bytecode != first {
		t.Fatalf("expected bytecode to be compiled exactly once and reused")
	}
}

// fact(n) { if (n <= 1) { return 1; } return n * fact(n - 1); }
func factFunc() *Function {
	return &Function{
		Name:   "fact",
		Params: []string{"n"},
		Body: &Block{Stmts: []Stmt{
			&IfStmt{
				Cond: &BinaryExpr{Op: "<=", Left: &Ident{Name: "n"}, Right: &NumberLit{Value: 1}},
				Then: &Block{Stmts: []Stmt{&ReturnStmt{Value: &NumberLit{Value: 1}}}},
			},
			&ReturnStmt{Value: &BinaryExpr{
				Op:   "*",
				Left: &Ident{Name: "n"},
				Right: &CallExpr{Callee: "fact", Args: []Expr{
					&BinaryExpr{Op: "-", Left: &Ident{Name: "n"}, Right: &NumberLit{Value: 1}},
				}},
			}}},
		},
	}
}

func TestRecursiveCallAndControlFlow(t *testing.T) {
	vm := New()
	vm.Define(factFunc())
	result, err := vm.Call("fact", []jsvalue.JsVal{jsvalue.Number(5)})
	if err != nil {
		t.Fatal(err)
	}
	if result.Float64() != 120 {
		t.Fatalf("expected 5! = 120, got %v", result.Float64())
	}
}

// sumLoop(n) { var total = 0; var i = 0; while (i < n) { total = total + i; i = i + 1; } return total; }
func sumLoopFunc() *Function {
	return &Function{
		Name:   "sumLoop",
		Params: []string{"n"},
		Body: &Block{Stmts: []Stmt{
			&VarDecl{Name: "total", Init: &NumberLit{Value: 0}},
			&VarDecl{Name: "i", Init: &NumberLit{Value: 0}},
			&WhileStmt{
				Cond: &BinaryExpr{Op: "<", Left: &Ident{Name: "i"}, Right: &Ident{Name: "n"}},
				Body: &Block{Stmts: []Stmt{
					&ExprStmt{X: &AssignExpr{Target: &Ident{Name: "total"}, Value: &BinaryExpr{Op: "+", Left: &Ident{Name: "total"}, Right: &Ident{Name: "i"}}}},
					&ExprStmt{X: &AssignExpr{Target: &Ident{Name: "i"}, Value: &BinaryExpr{Op: "+", Left: &Ident{Name: "i"}, Right: &NumberLit{Value: 1}}}},
				}},
			},
			&ReturnStmt{Value: &Ident{Name: "total"}},
		}},
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	vm := New()
	vm.Define(sumLoopFunc())
	result, err := vm.Call("sumLoop", []jsvalue.JsVal{jsvalue.Number(5)})
	if err != nil {
		t.Fatal(err)
	}
	if result.Float64() != 10 { // 0+1+2+3+4
		t.Fatalf("expected sum 0..4 = 10, got %v", result.Float64())
	}
}

func TestObjectPropertyGetSet(t *testing.T) {
	vm := New()
	handle := vm.Objects().New()
	obj := jsvalue.ObjectHandle(handle)
	vm.setProperty(obj, "x", jsvalue.Number(7))
	if got := vm.getProperty(obj, "x"); got.Float64() != 7 {
		t.Fatalf("expected property x=7, got %v", got)
	}
}

func TestGlobalStoreAndLoad(t *testing.T) {
	vm := New()
	vm.Define(&Function{
		Name: "setg",
		Body: &Block{Stmts: []Stmt{
			&ExprStmt{X: &AssignExpr{Target: &Ident{Name: "counter"}, Value: &NumberLit{Value: 42}}},
		}},
	})
	if _, err := vm.Call("setg", nil); err != nil {
		t.Fatal(err)
	}
	if got := vm.GetGlobal("counter"); got.Float64() != 42 {
		t.Fatalf("expected global counter=42, got %v", got)
	}
}

func TestInstrHookObservesEveryInstruction(t *testing.T) {
	vm := New()
	vm.Define(addFunc())
	var offsets []int
	vm.InstrHook = func(fnName string, offset int) {
		offsets = append(offsets, offset)
	}
	if _, err := vm.Call("add", []jsvalue.JsVal{jsvalue.Number(1), jsvalue.Number(1)}); err != nil {
		t.Fatal(err)
	}
	if len(offsets) == 0 {
		t.Fatalf("expected InstrHook to observe at least one instruction")
	}
	// add's body is straight-line code, so every instruction from
	// offset 0 through the first Return is dispatched exactly once.
	bc := vm.BytecodeFor("add")
	var want []int
	for pc := 0; pc < len(bc.Code); {
		want = append(want, pc)
		op := Opcode(bc.Code[pc])
		if op == OpReturn {
			break
		}
		pc += 1 + 2*operandWidth(op)
	}
	if len(offsets) != len(want) {
		t.Fatalf("observed offsets %v, want %v", offsets, want)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Fatalf("observed offsets %v, want %v", offsets, want)
		}
	}
}
