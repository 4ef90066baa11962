// Package scripthost implements the ScriptHost boundary (spec §6):
// new_context/exec/eval/process_timers, atop internal/jsvm +
// internal/jsjit. A second implementation, GojaHost, wraps goja
// directly as an independent reference host exercised in parity tests
// against VMHost.
package scripthost

import (
	"fmt"
	"time"

	"webcore/internal/jsjit"
	"webcore/internal/jsvalue"
	"webcore/internal/jsvm"
	"webcore/internal/scheduler"
)

// ScriptHost is the engine boundary a tab's renderer calls through:
// new_context/exec/eval/process_timers from spec §6.
type ScriptHost interface {
	NewContext(pageURL string) *Context
	Exec(ctx *Context, source string) error
	Eval(ctx *Context, source string) (jsvalue.JsVal, error)
	ProcessTimers(ctx *Context, now time.Time, sched *scheduler.Scheduler) int
}

// Timer is one pending setTimeout/setInterval registration.
type Timer struct {
	ID        uint64
	Due       time.Time
	Interval  time.Duration
	Repeating bool
	Callback  string // name of a jsvm-defined function
	cancelled bool
}

// Context is one page's script execution context: a document URL plus
// its pending timers, matching spec's new_context(document, page_url).
type Context struct {
	PageURL string
	vm      *jsvm.VM
	timers  map[uint64]*Timer
	nextID  uint64
}

// SetTimeout registers a one-shot timer firing callback (a function
// name already Define'd on this context's VM) after delay.
func (c *Context) SetTimeout(callback string, delay time.Duration) uint64 {
	return c.addTimer(callback, delay, 0, false)
}

// SetInterval registers a repeating timer.
func (c *Context) SetInterval(callback string, interval time.Duration) uint64 {
	return c.addTimer(callback, interval, interval, true)
}

// ClearTimer cancels a pending timer; a no-op if id is unknown or
// already fired (and not repeating).
func (c *Context) ClearTimer(id uint64) {
	if t, ok := c.timers[id]; ok {
		t.cancelled = true
		delete(c.timers, id)
	}
}

func (c *Context) addTimer(callback string, delay, interval time.Duration, repeating bool) uint64 {
	c.nextID++
	id := c.nextID
	c.timers[id] = &Timer{
		ID: id, Due: time.Now().Add(delay), Interval: interval,
		Repeating: repeating, Callback: callback,
	}
	return id
}

// VM exposes the underlying jsvm.VM, e.g. for a DOM bridge to
// Define host-backed functions before running scripts.
func (c *Context) VM() *jsvm.VM { return c.vm }

// VMHost is the production ScriptHost: source text is parsed into a
// jsvm.Function (internal/scripthost's own minimal parser, since jsvm
// carries no grammar of its own), compiled lazily, and executed
// through jsvm + jsjit exactly as spec.md's hot-loop JIT design
// prescribes.
type VMHost struct {
	tracer  *jsjit.Tracer
	counter uint64
}

// NewVMHost returns a VMHost sharing one jsjit.Tracer across every
// context it creates, so hot functions stay hot across navigations
// within the same renderer process.
func NewVMHost() *VMHost {
	return &VMHost{tracer: jsjit.NewTracer()}
}

// NewContext implements ScriptHost.
func (h *VMHost) NewContext(pageURL string) *Context {
	vm := jsvm.New()
	h.tracer.Attach(vm)
	return &Context{PageURL: pageURL, vm: vm, timers: map[uint64]*Timer{}}
}

// Exec implements ScriptHost: runs source as a top-level script,
// discarding any value it produces.
func (h *VMHost) Exec(ctx *Context, source string) error {
	_, err := h.run(ctx, source, false)
	return err
}

// Eval implements ScriptHost: runs source as a top-level script and
// returns the value of its last expression statement, or Undefined if
// the program ends in a non-expression statement.
func (h *VMHost) Eval(ctx *Context, source string) (jsvalue.JsVal, error) {
	return h.run(ctx, source, true)
}

func (h *VMHost) run(ctx *Context, source string, wantResult bool) (jsvalue.JsVal, error) {
	fn, err := ParseProgram(source)
	if err != nil {
		return jsvalue.Undefined(), fmt.Errorf("scripthost: parse: %w", err)
	}
	if wantResult {
		convertLastExprToReturn(fn.Body)
	}
	h.counter++
	fn.Name = fmt.Sprintf("__eval_%d", h.counter)
	ctx.vm.Define(fn)
	return ctx.vm.Call(fn.Name, nil)
}

// convertLastExprToReturn rewrites a trailing top-level ExprStmt into
// a ReturnStmt so eval's "returns the last expression" contract holds
// without requiring every caller to wrap their source in `return`.
func convertLastExprToReturn(b *jsvm.Block) {
	n := len(b.Stmts)
	if n == 0 {
		return
	}
	if es, ok := b.Stmts[n-1].(*jsvm.ExprStmt); ok {
		b.Stmts[n-1] = &jsvm.ReturnStmt{Value: es.X}
	}
}

// ProcessTimers implements ScriptHost: drains every timer whose Due
// time has passed, enqueuing its callback as a scheduler.UserVisible
// task (spec: "runs their callbacks as UserVisible tasks"). Repeating
// timers are rescheduled for their next interval. Returns the number
// of callbacks enqueued.
func (h *VMHost) ProcessTimers(ctx *Context, now time.Time, sched *scheduler.Scheduler) int {
	enqueued := 0
	for id, t := range ctx.timers {
		if t.cancelled || t.Due.After(now) {
			continue
		}
		callback := t.Callback
		sched.Enqueue(scheduler.UserVisible, "timer:"+callback, nil, func(*scheduler.Scheduler) {
			_, _ = ctx.vm.Call(callback, nil)
		})
		enqueued++
		if t.Repeating {
			t.Due = now.Add(t.Interval)
		} else {
			delete(ctx.timers, id)
		}
	}
	return enqueued
}
