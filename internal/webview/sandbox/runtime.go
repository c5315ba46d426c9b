package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// Runtime wraps a goja VM that emulates the parts of a mobile web view a
// portal page relies on: window messaging, the native bridge, timers,
// console and a read-only document.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	// State of the run in progress, nil between runs
	run *runState
}

// runState is everything scoped to a single Run call
type runState struct {
	ctx    context.Context
	bridge Bridge
	dom    *DOM

	document     *goja.Object
	listeners    map[string][]goja.Value
	docListeners map[string][]goja.Value

	queue     []*task
	seq       int
	clock     time.Duration
	nextTimer int64
	timers    int
	cancelled map[int64]bool

	result *Result
}

// task is a queued macrotask. Ordering is by virtual due time, then FIFO.
type task struct {
	name  string
	at    time.Duration
	seq   int
	timer int64
	run   func() error
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	r := &Runtime{
		vm:     goja.New(),
		config: config,
	}
	r.vm.SetMaxCallStackSize(1024)

	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// Run executes scripts in order against dom, then drains queued messages,
// lifecycle events and timers. Uncaught exceptions are collected in the
// result and do not stop later scripts. A timeout or cancelled context
// aborts the run and is returned together with the partial result.
func (r *Runtime) Run(ctx context.Context, bridge Bridge, dom *DOM, scripts ...Script) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dom == nil {
		dom = NewDOM(nil, "")
	}

	start := time.Now()
	st := &runState{
		ctx:          ctx,
		bridge:       bridge,
		dom:          dom,
		listeners:    make(map[string][]goja.Value),
		docListeners: make(map[string][]goja.Value),
		cancelled:    make(map[int64]bool),
		result: &Result{
			Console: []LogEntry{},
			Errors:  []ScriptError{},
		},
	}
	r.run = st
	defer func() { r.run = nil }()

	if err := r.injectDocument(st); err != nil {
		return nil, fmt.Errorf("failed to inject document: %w", err)
	}

	stop := r.watch(ctx)
	err := r.execute(st, scripts)
	stop()

	st.result.Duration = time.Since(start)
	return st.result, err
}

// watch interrupts the VM when the run budget or ctx expires. The returned
// func must be called once the run is over.
func (r *Runtime) watch(ctx context.Context) func() {
	vm := r.vm
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		timer := time.NewTimer(r.config.Timeout)
		defer timer.Stop()

		select {
		case <-timer.C:
			vm.Interrupt(ErrTimeout)
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	return func() {
		close(done)
		wg.Wait()
		vm.ClearInterrupt()
	}
}

func (r *Runtime) execute(st *runState, scripts []Script) error {
	for i, s := range scripts {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("script-%d", i)
		}

		val, err := r.vm.RunScript(name, s.Source)
		if err != nil {
			if abort := r.check(st, name, err); abort != nil {
				return abort
			}
			continue
		}
		st.result.Value = exportValue(val)
	}

	// Lifecycle events run after the page scripts, ahead of any timer
	// with a positive delay.
	st.push(&task{name: "DOMContentLoaded", at: st.clock, run: func() error {
		_ = st.document.Set("readyState", "interactive")
		return r.dispatch(st, st.docListeners, "DOMContentLoaded", r.newEvent("DOMContentLoaded"), "")
	}})
	st.push(&task{name: "load", at: st.clock, run: func() error {
		_ = st.document.Set("readyState", "complete")
		return r.dispatch(st, st.listeners, "load", r.newEvent("load"), "onload")
	}})

	return r.drain(st)
}

// drain runs queued tasks until none are left
func (r *Runtime) drain(st *runState) error {
	for len(st.queue) > 0 {
		if err := st.ctx.Err(); err != nil {
			return err
		}

		t := st.pop()
		if t.timer != 0 && st.cancelled[t.timer] {
			continue
		}
		if t.at > st.clock {
			st.clock = t.at
		}

		st.result.TasksRun++
		if abort := r.check(st, t.name, t.run()); abort != nil {
			return abort
		}
	}
	return nil
}

// check records a script failure and returns a non-nil error only when the
// run has to stop.
func (r *Runtime) check(st *runState, source string, err error) error {
	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("%s: %w", source, cause)
		}
		return fmt.Errorf("%s: %w", source, err)
	}

	msg := err.Error()
	var exc *goja.Exception
	if errors.As(err, &exc) && exc.Value() != nil {
		msg = exc.Value().String()
	}
	st.result.Errors = append(st.result.Errors, ScriptError{Source: source, Message: msg})
	return nil
}

func (st *runState) push(t *task) {
	st.seq++
	t.seq = st.seq
	st.queue = append(st.queue, t)
}

func (st *runState) pop() *task {
	best := 0
	for i, t := range st.queue[1:] {
		b := st.queue[best]
		if t.at < b.at || (t.at == b.at && t.seq < b.seq) {
			best = i + 1
		}
	}
	t := st.queue[best]
	st.queue = append(st.queue[:best], st.queue[best+1:]...)
	return t
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	vm := r.vm

	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	global := vm.GlobalObject()
	set := func(name string, value interface{}) error {
		return global.Set(name, value)
	}

	native := vm.NewObject()
	if err := native.Set("postMessage", r.nativePostMessage); err != nil {
		return err
	}

	steps := []struct {
		name  string
		value interface{}
	}{
		{"window", global},
		{"self", global},
		{"addEventListener", r.listenerFunc(func(st *runState) map[string][]goja.Value { return st.listeners }, true)},
		{"removeEventListener", r.listenerFunc(func(st *runState) map[string][]goja.Value { return st.listeners }, false)},
		{"postMessage", r.postMessage},
		{"ReactNativeWebView", native},
		{"setTimeout", r.timerFunc("setTimeout")},
		{"setInterval", r.timerFunc("setInterval")},
		{"clearTimeout", r.clearTimer},
		{"clearInterval", r.clearTimer},
	}
	for _, step := range steps {
		if err := set(step.name, step.value); err != nil {
			return fmt.Errorf("global %s: %w", step.name, err)
		}
	}

	if r.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error", "debug"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := set("console", console); err != nil {
			return err
		}
	}

	return nil
}

// postMessage queues a MessageEvent for window listeners
func (r *Runtime) postMessage(call goja.FunctionCall) goja.Value {
	st := r.run
	if st == nil {
		return goja.Undefined()
	}

	data := call.Argument(0)
	st.push(&task{name: "message", at: st.clock, run: func() error {
		ev := r.newEvent("message")
		_ = ev.Set("data", data)
		_ = ev.Set("origin", st.dom.Origin())
		_ = ev.Set("source", r.vm.GlobalObject())
		return r.dispatch(st, st.listeners, "message", ev, "onmessage")
	}})
	return goja.Undefined()
}

// nativePostMessage is window.ReactNativeWebView.postMessage. The payload is
// handed to the bridge unchanged; filtering by type is the host's job.
func (r *Runtime) nativePostMessage(call goja.FunctionCall) goja.Value {
	st := r.run
	if st == nil {
		return goja.Undefined()
	}

	st.result.Emitted++
	if st.bridge == nil {
		return goja.Undefined()
	}
	if err := st.bridge.Emit(st.ctx, "message", call.Argument(0).Export()); err != nil {
		panic(r.vm.NewGoError(err))
	}
	return goja.Undefined()
}

// listenerFunc builds add/removeEventListener over the registry chosen by pick
func (r *Runtime) listenerFunc(pick func(*runState) map[string][]goja.Value, add bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		st := r.run
		if st == nil {
			return goja.Undefined()
		}

		typ := call.Argument(0).String()
		fn := call.Argument(1)
		if _, ok := goja.AssertFunction(fn); !ok {
			return goja.Undefined()
		}

		registry := pick(st)
		current := registry[typ]
		idx := -1
		for i, existing := range current {
			if existing.SameAs(fn) {
				idx = i
				break
			}
		}

		switch {
		case add && idx < 0:
			registry[typ] = append(current, fn)
		case !add && idx >= 0:
			registry[typ] = append(current[:idx:idx], current[idx+1:]...)
		}
		return goja.Undefined()
	}
}

// dispatch calls the on<type> handler, when named, and every listener
// registered for typ. A throwing listener does not stop the others.
func (r *Runtime) dispatch(st *runState, registry map[string][]goja.Value, typ string, ev *goja.Object, handlerProp string) error {
	var targets []goja.Value
	if handlerProp != "" {
		if h := r.vm.GlobalObject().Get(handlerProp); h != nil {
			targets = append(targets, h)
		}
	}
	targets = append(targets, registry[typ]...)

	for _, target := range targets {
		fn, ok := goja.AssertFunction(target)
		if !ok {
			continue
		}
		_, err := fn(r.vm.GlobalObject(), ev)
		if abort := r.check(st, typ+" listener", err); abort != nil {
			return abort
		}
	}
	return nil
}

func (r *Runtime) newEvent(typ string) *goja.Object {
	ev := r.vm.NewObject()
	_ = ev.Set("type", typ)
	return ev
}

// timerFunc builds setTimeout/setInterval. Tasks run once on a virtual
// clock after the page scripts finish; intervals do not repeat.
func (r *Runtime) timerFunc(name string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		st := r.run
		if st == nil {
			return r.vm.ToValue(0)
		}
		if r.config.MaxTimers > 0 && st.timers >= r.config.MaxTimers {
			st.result.DroppedTimers++
			return r.vm.ToValue(0)
		}

		handler := call.Argument(0)
		delay := timerDelay(call.Argument(1))
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}

		run := func() error { return nil }
		if fn, ok := goja.AssertFunction(handler); ok {
			run = func() error {
				_, err := fn(goja.Undefined(), args...)
				return err
			}
		} else if !goja.IsUndefined(handler) && !goja.IsNull(handler) {
			src := handler.String()
			run = func() error {
				_, err := r.vm.RunString(src)
				return err
			}
		}

		st.timers++
		st.nextTimer++
		id := st.nextTimer
		st.push(&task{
			name:  name,
			at:    dueAt(st.clock, delay),
			timer: id,
			run:   run,
		})
		return r.vm.ToValue(id)
	}
}

// maxTimerDelay is the largest delay browsers honour, in milliseconds
const maxTimerDelay = 1<<31 - 1

// timerDelay reads a delay argument in milliseconds. Negative and NaN
// delays become 0; large ones are capped at maxTimerDelay.
func timerDelay(v goja.Value) int64 {
	ms := v.ToFloat()
	switch {
	case math.IsNaN(ms) || ms < 0:
		return 0
	case ms > maxTimerDelay:
		return maxTimerDelay
	}
	return int64(ms)
}

// dueAt returns clock plus delay milliseconds, capping the delay at
// maxTimerDelay and saturating instead of overflowing.
func dueAt(clock time.Duration, delay int64) time.Duration {
	if delay > maxTimerDelay {
		delay = maxTimerDelay
	}
	d := time.Duration(delay) * time.Millisecond
	if clock > math.MaxInt64-d {
		return math.MaxInt64
	}
	return clock + d
}

func (r *Runtime) clearTimer(call goja.FunctionCall) goja.Value {
	if st := r.run; st != nil {
		st.cancelled[call.Argument(0).ToInteger()] = true
	}
	return goja.Undefined()
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		st := r.run
		if st == nil {
			return goja.Undefined()
		}

		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		st.result.Console = append(st.result.Console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		return goja.Undefined()
	}
}

// injectDocument installs document and location for the current run
func (r *Runtime) injectDocument(st *runState) error {
	vm := r.vm
	dom := st.dom

	document := vm.NewObject()
	title := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(dom.Title())
	})
	setTitle := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		dom.SetTitle(call.Argument(0).String())
		return goja.Undefined()
	})
	if err := document.DefineAccessorProperty("title", title, setTitle, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
		return err
	}

	props := map[string]interface{}{
		"readyState": "loading",
		"URL":        dom.URL(),
		"getElementById": func(call goja.FunctionCall) goja.Value {
			return r.elementValue(dom.GetElementByID(call.Argument(0).String()))
		},
		"querySelector": func(call goja.FunctionCall) goja.Value {
			return r.elementValue(dom.QueryOne(call.Argument(0).String()))
		},
		"querySelectorAll": func(call goja.FunctionCall) goja.Value {
			elems := dom.Query(call.Argument(0).String())
			items := make([]interface{}, 0, len(elems))
			for _, e := range elems {
				items = append(items, r.elementValue(e))
			}
			return vm.NewArray(items...)
		},
		"addEventListener":    r.listenerFunc(func(st *runState) map[string][]goja.Value { return st.docListeners }, true),
		"removeEventListener": r.listenerFunc(func(st *runState) map[string][]goja.Value { return st.docListeners }, false),
	}
	for name, value := range props {
		if err := document.Set(name, value); err != nil {
			return err
		}
	}
	st.document = document

	if err := vm.Set("document", document); err != nil {
		return err
	}
	return vm.Set("location", r.location(dom))
}

func (r *Runtime) location(dom *DOM) *goja.Object {
	loc := r.vm.NewObject()
	_ = loc.Set("href", dom.URL())
	_ = loc.Set("origin", dom.Origin())
	if u := dom.url; u != nil {
		_ = loc.Set("protocol", u.Scheme+":")
		_ = loc.Set("host", u.Host)
		_ = loc.Set("hostname", u.Hostname())
		_ = loc.Set("pathname", u.Path)
		_ = loc.Set("search", queryPart(u.RawQuery))
	}
	return loc
}

func queryPart(raw string) string {
	if raw == "" {
		return ""
	}
	return "?" + raw
}

// elementValue creates a proxy for a DOM element snapshot
func (r *Runtime) elementValue(elem *Element) goja.Value {
	if elem == nil {
		return goja.Null()
	}

	vm := r.vm
	obj := vm.NewObject()
	_ = obj.Set("tagName", elem.TagName)
	_ = obj.Set("id", elem.ID)
	_ = obj.Set("className", elem.ClassName)
	_ = obj.Set("textContent", elem.TextContent)
	value, _ := elem.GetAttribute("value")
	_ = obj.Set("value", value)
	_ = obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := elem.GetAttribute(call.Argument(0).String()); ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		elem.SetAttribute(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	return obj
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset discards the VM and everything scripts defined on it
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = goja.New()
	r.vm.SetMaxCallStackSize(1024)
	return r.setupGlobals()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	return nil
}
