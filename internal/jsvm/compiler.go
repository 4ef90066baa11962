package jsvm

import (
	"fmt"

	"webcore/internal/jsvalue"
)

// StringInterner resolves a string literal to a stable handle id in
// the host's shared string table (internal/jsvm.VM implements this).
// The compiler interns string literals through it at compile time
// rather than keeping a per-function string pool, so a StringHandle
// JsVal produced by one function's bytecode resolves identically
// whether it ends up in a global, a returned value, or another
// function's locals.
type StringInterner interface {
	InternString(s string) uint32
}

// compiler holds the state needed to turn one Function's AST into a
// Bytecode: a constant pool, a name pool, and a flat local-slot
// assignment (params first, then each VarDecl in source order — no
// block scoping, matching the "locals indexed from a frame base" frame
// layout spec §4.I describes rather than a lexical-scope stack).
type compiler struct {
	bc       *Bytecode
	locals   map[string]int
	interner StringInterner
}

// Compile turns fn's AST into bytecode. It is called at most once per
// function, memoized by the VM's lazy-compilation counter (see
// function.go), matching spec §4.I-lazy.
func Compile(interner StringInterner, fn *Function) (*Bytecode, error) {
	c := &compiler{bc: newBytecode(), locals: map[string]int{}, interner: interner}
	for _, p := range fn.Params {
		c.declareLocal(p)
	}
	if err := c.compileBlock(fn.Body); err != nil {
		return nil, err
	}
	// Implicit `return undefined` if control falls off the end.
	c.bc.emit(OpLoadUndefined)
	c.bc.emit(OpReturn)
	c.bc.NumLocals = len(c.locals)
	return c.bc, nil
}

func (c *compiler) declareLocal(name string) int {
	if slot, ok := c.locals[name]; ok {
		return slot
	}
	slot := len(c.locals)
	c.locals[name] = slot
	return slot
}

func (c *compiler) compileBlock(b *Block) error {
	for _, s := range b.Stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileStmt(s Stmt) error {
	switch n := s.(type) {
	case *ExprStmt:
		if err := c.compileExpr(n.X); err != nil {
			return err
		}
		c.bc.emit(OpPop)
		return nil

	case *VarDecl:
		slot := c.declareLocal(n.Name)
		if n.Init != nil {
			if err := c.compileExpr(n.Init); err != nil {
				return err
			}
		} else {
			c.bc.emit(OpLoadUndefined)
		}
		c.bc.emitWithOperand(OpStoreLocal, slot)
		c.bc.emit(OpPop)
		return nil

	case *Block:
		return c.compileBlock(n)

	case *IfStmt:
		if err := c.compileExpr(n.Cond); err != nil {
			return err
		}
		jumpElse := c.bc.emitWithOperand(OpJumpIfFalse, 0)
		if err := c.compileStmt(n.Then); err != nil {
			return err
		}
		if n.Else == nil {
			c.bc.patchOperand(jumpElse, len(c.bc.Code)-(jumpElse+2))
			return nil
		}
		jumpEnd := c.bc.emitWithOperand(OpJump, 0)
		c.bc.patchOperand(jumpElse, len(c.bc.Code)-(jumpElse+2))
		if err := c.compileStmt(n.Else); err != nil {
			return err
		}
		c.bc.patchOperand(jumpEnd, len(c.bc.Code)-(jumpEnd+2))
		return nil

	case *WhileStmt:
		loopStart := len(c.bc.Code)
		if err := c.compileExpr(n.Cond); err != nil {
			return err
		}
		jumpExit := c.bc.emitWithOperand(OpJumpIfFalse, 0)
		if err := c.compileStmt(n.Body); err != nil {
			return err
		}
		backPos := c.bc.emitWithOperand(OpJump, 0)
		c.bc.patchOperand(backPos, loopStart-(backPos+2))
		c.bc.patchOperand(jumpExit, len(c.bc.Code)-(jumpExit+2))
		return nil

	case *ReturnStmt:
		if n.Value != nil {
			if err := c.compileExpr(n.Value); err != nil {
				return err
			}
		} else {
			c.bc.emit(OpLoadUndefined)
		}
		c.bc.emit(OpReturn)
		return nil

	default:
		return fmt.Errorf("jsvm: compiler: unsupported statement %T", s)
	}
}

var binaryOps = map[string]Opcode{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"==": OpEq, "!=": OpNe, "===": OpStrictEq, "!==": OpStrictNe,
}

func (c *compiler) compileExpr(e Expr) error {
	switch n := e.(type) {
	case *NumberLit:
		switch n.Value {
		case 0:
			c.bc.emit(OpLoadZero)
		case 1:
			c.bc.emit(OpLoadOne)
		default:
			idx := c.bc.addConst(jsvalue.Number(n.Value))
			c.bc.emitWithOperand(OpLoadConst, idx)
		}
		return nil

	case *StringLit:
		handle := c.interner.InternString(n.Value)
		idx := c.bc.addConst(jsvalue.StringHandle(handle))
		c.bc.emitWithOperand(OpLoadConst, idx)
		return nil

	case *BoolLit:
		if n.Value {
			c.bc.emit(OpLoadTrue)
		} else {
			c.bc.emit(OpLoadFalse)
		}
		return nil

	case *NullLit:
		c.bc.emit(OpLoadNull)
		return nil

	case *UndefinedLit:
		c.bc.emit(OpLoadUndefined)
		return nil

	case *Ident:
		if slot, ok := c.locals[n.Name]; ok {
			c.bc.emitWithOperand(OpLoadLocal, slot)
			return nil
		}
		idx := c.bc.internName(n.Name)
		c.bc.emitWithOperand(OpLoadGlobal, idx)
		return nil

	case *BinaryExpr:
		if err := c.compileExpr(n.Left); err != nil {
			return err
		}
		if err := c.compileExpr(n.Right); err != nil {
			return err
		}
		op, ok := binaryOps[n.Op]
		if !ok {
			return fmt.Errorf("jsvm: compiler: unsupported operator %q", n.Op)
		}
		c.bc.emit(op)
		return nil

	case *AssignExpr:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		switch t := n.Target.(type) {
		case *Ident:
			if slot, ok := c.locals[t.Name]; ok {
				c.bc.emitWithOperand(OpStoreLocal, slot)
				return nil
			}
			idx := c.bc.internName(t.Name)
			c.bc.emitWithOperand(OpStoreGlobal, idx)
			return nil
		case *MemberExpr:
			if err := c.compileExpr(t.Object); err != nil {
				return err
			}
			idx := c.bc.internName(t.Property)
			c.bc.emitWithOperand(OpSetProperty, idx)
			return nil
		default:
			return fmt.Errorf("jsvm: compiler: invalid assignment target %T", n.Target)
		}

	case *MemberExpr:
		if err := c.compileExpr(n.Object); err != nil {
			return err
		}
		idx := c.bc.internName(n.Property)
		c.bc.emitWithOperand(OpGetProperty, idx)
		return nil

	case *CallExpr:
		for _, a := range n.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		nameIdx := c.bc.internName(n.Callee)
		c.bc.emit(OpCall)
		c.bc.emitOperand(nameIdx)
		c.bc.emitOperand(len(n.Args))
		return nil

	case *ArrayLit:
		for _, el := range n.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.bc.emitWithOperand(OpNewArray, len(n.Elements))
		return nil

	default:
		return fmt.Errorf("jsvm: compiler: unsupported expression %T", e)
	}
}
