/*
Package sandbox runs portal page scripts inside a goja JavaScript runtime
that stands in for the mobile web view.

# Overview

A Runtime exposes the browser surface connect portals use to report back:

  - window / self, with addEventListener and removeEventListener
  - window.postMessage, delivered to "message" listeners as a queued task
  - window.ReactNativeWebView.postMessage, handed to the host Bridge
  - setTimeout / setInterval on a virtual clock (intervals fire once)
  - console capture
  - a read-only document and location built from the parsed page

Scripts run in document order. Uncaught exceptions are recorded and the next
script still runs. Once the scripts finish, queued tasks drain in due-time
order: DOMContentLoaded, load, messages and timers.

# Limits

Each run is bounded by Config.Timeout and by the caller's context; either
one interrupts the VM and the run returns ErrTimeout or the context error.
Config.MaxTimers caps the timers a page may schedule per run.

# Usage Example

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 4)
	if err != nil {
		return err
	}
	defer pool.Close()

	dom, _ := sandbox.ParseDOM(strings.NewReader(html), pageURL)
	result, err := pool.Run(ctx, bridge, dom, sandbox.Script{Name: "inline-0", Source: src})
*/
package sandbox
