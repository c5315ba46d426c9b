/*
Package webview stands in for the mobile web view that hosts a brokerage
connect portal.

A View loads the portal (inline HTML, or a URL fetched with resty), parses
it with goquery and runs its inline scripts in a pooled sandbox. Before any
page script runs, a listener is installed that forwards every non-empty
string window message to window.ReactNativeWebView.postMessage. Each string
that reaches the native side is wrapped as {"nativeEvent":{"data":...}} and
handed to connect.Handler, which classifies it and fires the callbacks.
Non-string payloads are counted and dropped.

	view := webview.New(pool, handler, logger, webview.WithRecorder(metrics))
	session, err := view.Render(ctx, webview.Page{URL: portalURL}, connect.Callbacks{
		OnSuccess: func(ev connect.SuccessEvent) { ... },
	})

External scripts (<script src>) are not loaded.
*/
package webview
