package scripthost

import (
	"fmt"
	"time"

	"github.com/dop251/goja"

	"webcore/internal/jsvalue"
	"webcore/internal/scheduler"
)

// GojaHost is the reference ScriptHost used only to parity-test
// VMHost's semantics (typeof/truthiness/ToNumber, control flow) —
// the teacher embeds goja wholesale (pkg/js.Engine) rather than
// building its own VM, so goja is kept on as this core's independent
// second engine implementation instead of being discarded outright.
type GojaHost struct{}

// NewGojaHost returns a GojaHost. It carries no state of its own; each
// Context owns its runtime.
func NewGojaHost() *GojaHost { return &GojaHost{} }

type gojaTimer struct {
	due       time.Time
	interval  time.Duration
	repeating bool
	callback  goja.Callable
	cancelled bool
}

// gojaContext backs a Context's goja-specific state. ScriptHost's
// Context type is shared across hosts; GojaHost stashes its runtime
// and timers in a side table keyed by *Context instead of widening
// Context itself with fields VMHost never uses.
type gojaContext struct {
	vm     *goja.Runtime
	timers map[uint64]*gojaTimer
	nextID uint64
}

var gojaContexts = map[*Context]*gojaContext{}

// NewContext implements ScriptHost.
func (h *GojaHost) NewContext(pageURL string) *Context {
	ctx := &Context{PageURL: pageURL, timers: map[uint64]*Timer{}}
	gc := &gojaContext{vm: goja.New(), timers: map[uint64]*gojaTimer{}}
	registerConsole(gc.vm)
	registerTimers(gc)
	gojaContexts[ctx] = gc
	return ctx
}

// Exec implements ScriptHost.
func (h *GojaHost) Exec(ctx *Context, source string) error {
	gc, ok := gojaContexts[ctx]
	if !ok {
		return fmt.Errorf("scripthost: context not created by GojaHost")
	}
	_, err := gc.vm.RunString(source)
	return err
}

// Eval implements ScriptHost, converting goja's result to the same
// jsvalue.JsVal representation VMHost returns so callers can compare
// the two hosts' results directly in parity tests.
func (h *GojaHost) Eval(ctx *Context, source string) (jsvalue.JsVal, error) {
	gc, ok := gojaContexts[ctx]
	if !ok {
		return jsvalue.Undefined(), fmt.Errorf("scripthost: context not created by GojaHost")
	}
	v, err := gc.vm.RunString(source)
	if err != nil {
		return jsvalue.Undefined(), err
	}
	return toJsVal(v), nil
}

// ProcessTimers implements ScriptHost.
func (h *GojaHost) ProcessTimers(ctx *Context, now time.Time, sched *scheduler.Scheduler) int {
	gc, ok := gojaContexts[ctx]
	if !ok {
		return 0
	}
	enqueued := 0
	for id, t := range gc.timers {
		if t.cancelled || t.due.After(now) {
			continue
		}
		cb := t.callback
		sched.Enqueue(scheduler.UserVisible, "timer", nil, func(*scheduler.Scheduler) {
			_, _ = cb(goja.Undefined())
		})
		enqueued++
		if t.repeating {
			t.due = now.Add(t.interval)
		} else {
			delete(gc.timers, id)
		}
	}
	return enqueued
}

func registerConsole(vm *goja.Runtime) {
	console := vm.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value { return goja.Undefined() })
	console.Set("warn", func(call goja.FunctionCall) goja.Value { return goja.Undefined() })
	console.Set("error", func(call goja.FunctionCall) goja.Value { return goja.Undefined() })
	vm.Set("console", console)
}

// registerTimers installs setTimeout/setInterval/clearTimeout globals
// that record into gc.timers instead of firing immediately, so
// ProcessTimers drains them under the scheduler's control rather than
// goja's own event loop (which this engine does not run).
func registerTimers(gc *gojaContext) {
	gc.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return goja.ToValue(gc.schedule(call, false))
	})
	gc.vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return goja.ToValue(gc.schedule(call, true))
	})
	clear := func(call goja.FunctionCall) goja.Value {
		id := uint64(call.Argument(0).ToInteger())
		if t, ok := gc.timers[id]; ok {
			t.cancelled = true
		}
		return goja.Undefined()
	}
	gc.vm.Set("clearTimeout", clear)
	gc.vm.Set("clearInterval", clear)
}

func (gc *gojaContext) schedule(call goja.FunctionCall, repeating bool) uint64 {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		return 0
	}
	delayMS := call.Argument(1).ToInteger()
	delay := time.Duration(delayMS) * time.Millisecond
	gc.nextID++
	id := gc.nextID
	gc.timers[id] = &gojaTimer{
		due: time.Now().Add(delay), interval: delay, repeating: repeating, callback: fn,
	}
	return id
}

// toJsVal converts a goja.Value to this core's NaN-boxed jsvalue.JsVal
// for the subset of types both engines agree on (number, string,
// boolean, null/undefined); objects/arrays are reported as Undefined
// since the two arenas are not shared.
func toJsVal(v goja.Value) jsvalue.JsVal {
	if v == nil || goja.IsUndefined(v) {
		return jsvalue.Undefined()
	}
	if goja.IsNull(v) {
		return jsvalue.Null()
	}
	switch exported := v.Export().(type) {
	case int64:
		return jsvalue.Number(float64(exported))
	case float64:
		return jsvalue.Number(exported)
	case bool:
		return jsvalue.Bool(exported)
	case string:
		// GojaHost does not share VMHost's string interning table, so a
		// string result is boxed as handle 0: TypeOf() reports "string",
		// but the handle does not resolve to the string's contents.
		return jsvalue.StringHandle(0)
	default:
		return jsvalue.Undefined()
	}
}
