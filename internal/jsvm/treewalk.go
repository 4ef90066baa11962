package jsvm

import (
	"fmt"
	"math"

	"webcore/internal/jsvalue"
)

// interpretTree evaluates fn's AST directly, without compiling to
// bytecode. This is the sub-threshold tier: per spec §4.I-lazy, a
// function is only compiled once its call counter reaches the
// configured threshold, so any call before that point must still run
// somehow. With the spec's default threshold of 1 this path is never
// taken in practice; it exists so a higher threshold is actually
// honorable rather than just a counter nobody reads.
//
// This tier supports the same statement/expression set as the
// compiler with two exceptions: property access (MemberExpr, read or
// assigned) and array literals (ArrayLit) are not supported, since
// resolving handles against the VM's object arena
// from a tree walk (rather than a flat stack) isn't worth the
// complexity for a tier meant to be rarely exercised.
func (vm *VM) interpretTree(fn *Function, args []jsvalue.JsVal) (jsvalue.JsVal, error) {
	env := map[string]jsvalue.JsVal{}
	for i, p := range fn.Params {
		if i < len(args) {
			env[p] = args[i]
		} else {
			env[p] = jsvalue.Undefined()
		}
	}
	ret, _, err := vm.treeExecBlock(fn.Body, env)
	if err != nil {
		return jsvalue.Undefined(), err
	}
	if ret == nil {
		return jsvalue.Undefined(), nil
	}
	return *ret, nil
}

// treeExecBlock runs stmts in env, returning a non-nil *JsVal the
// moment a ReturnStmt is hit (propagated up through nested blocks).
func (vm *VM) treeExecBlock(b *Block, env map[string]jsvalue.JsVal) (*jsvalue.JsVal, bool, error) {
	for _, s := range b.Stmts {
		ret, brk, err := vm.treeExecStmt(s, env)
		if err != nil || ret != nil || brk {
			return ret, brk, err
		}
	}
	return nil, false, nil
}

func (vm *VM) treeExecStmt(s Stmt, env map[string]jsvalue.JsVal) (*jsvalue.JsVal, bool, error) {
	switch n := s.(type) {
	case *ExprStmt:
		_, err := vm.treeEval(n.X, env)
		return nil, false, err

	case *VarDecl:
		if n.Init != nil {
			v, err := vm.treeEval(n.Init, env)
			if err != nil {
				return nil, false, err
			}
			env[n.Name] = v
		} else {
			env[n.Name] = jsvalue.Undefined()
		}
		return nil, false, nil

	case *Block:
		return vm.treeExecBlock(n, env)

	case *IfStmt:
		cond, err := vm.treeEval(n.Cond, env)
		if err != nil {
			return nil, false, err
		}
		if cond.IsTruthy(vm.resolveString) {
			return vm.treeExecStmt(n.Then, env)
		}
		if n.Else != nil {
			return vm.treeExecStmt(n.Else, env)
		}
		return nil, false, nil

	case *WhileStmt:
		for {
			cond, err := vm.treeEval(n.Cond, env)
			if err != nil {
				return nil, false, err
			}
			if !cond.IsTruthy(vm.resolveString) {
				return nil, false, nil
			}
			ret, _, err := vm.treeExecStmt(n.Body, env)
			if err != nil || ret != nil {
				return ret, false, err
			}
		}

	case *ReturnStmt:
		if n.Value == nil {
			u := jsvalue.Undefined()
			return &u, false, nil
		}
		v, err := vm.treeEval(n.Value, env)
		if err != nil {
			return nil, false, err
		}
		return &v, false, err

	default:
		return nil, false, fmt.Errorf("jsvm: treewalk: unsupported statement %T", s)
	}
}

func (vm *VM) treeEval(e Expr, env map[string]jsvalue.JsVal) (jsvalue.JsVal, error) {
	switch n := e.(type) {
	case *NumberLit:
		return jsvalue.Number(n.Value), nil
	case *StringLit:
		return jsvalue.StringHandle(vm.InternString(n.Value)), nil
	case *BoolLit:
		return jsvalue.Bool(n.Value), nil
	case *NullLit:
		return jsvalue.Null(), nil
	case *UndefinedLit:
		return jsvalue.Undefined(), nil
	case *Ident:
		if v, ok := env[n.Name]; ok {
			return v, nil
		}
		return vm.globals[n.Name], nil
	case *AssignExpr:
		v, err := vm.treeEval(n.Value, env)
		if err != nil {
			return jsvalue.Undefined(), err
		}
		id, ok := n.Target.(*Ident)
		if !ok {
			return jsvalue.Undefined(), fmt.Errorf("jsvm: treewalk: unsupported assignment target %T", n.Target)
		}
		if _, ok := env[id.Name]; ok {
			env[id.Name] = v
		} else {
			vm.globals[id.Name] = v
		}
		return v, nil
	case *BinaryExpr:
		l, err := vm.treeEval(n.Left, env)
		if err != nil {
			return jsvalue.Undefined(), err
		}
		r, err := vm.treeEval(n.Right, env)
		if err != nil {
			return jsvalue.Undefined(), err
		}
		return vm.applyBinary(n.Op, l, r)
	case *CallExpr:
		args := make([]jsvalue.JsVal, len(n.Args))
		for i, a := range n.Args {
			v, err := vm.treeEval(a, env)
			if err != nil {
				return jsvalue.Undefined(), err
			}
			args[i] = v
		}
		return vm.Call(n.Callee, args)
	default:
		return jsvalue.Undefined(), fmt.Errorf("jsvm: treewalk: unsupported expression %T", e)
	}
}

func (vm *VM) applyBinary(op string, l, r jsvalue.JsVal) (jsvalue.JsVal, error) {
	switch op {
	case "+":
		return jsvalue.Number(l.ToNumber(vm.resolveString) + r.ToNumber(vm.resolveString)), nil
	case "-":
		return jsvalue.Number(l.ToNumber(vm.resolveString) - r.ToNumber(vm.resolveString)), nil
	case "*":
		return jsvalue.Number(l.ToNumber(vm.resolveString) * r.ToNumber(vm.resolveString)), nil
	case "/":
		return jsvalue.Number(l.ToNumber(vm.resolveString) / r.ToNumber(vm.resolveString)), nil
	case "%":
		return jsvalue.Number(math.Mod(l.ToNumber(vm.resolveString), r.ToNumber(vm.resolveString))), nil
	case "<":
		return jsvalue.Bool(l.ToNumber(vm.resolveString) < r.ToNumber(vm.resolveString)), nil
	case "<=":
		return jsvalue.Bool(l.ToNumber(vm.resolveString) <= r.ToNumber(vm.resolveString)), nil
	case ">":
		return jsvalue.Bool(l.ToNumber(vm.resolveString) > r.ToNumber(vm.resolveString)), nil
	case ">=":
		return jsvalue.Bool(l.ToNumber(vm.resolveString) >= r.ToNumber(vm.resolveString)), nil
	case "==", "===":
		return jsvalue.Bool(l == r), nil
	case "!=", "!==":
		return jsvalue.Bool(l != r), nil
	default:
		return jsvalue.Undefined(), fmt.Errorf("jsvm: treewalk: unsupported operator %q", op)
	}
}
