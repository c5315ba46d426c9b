package webview

import "github.com/GriffinCanCode/portalconnect/internal/webview/sandbox"

// listenerSource forwards non-empty string window messages to the native
// side. It runs ahead of the page scripts.
const listenerSource = `(function () {
  window.addEventListener("message", function (event) {
    if (event && event.data && typeof event.data === "string") {
      window.ReactNativeWebView.postMessage(event.data);
    }
  });
  true;
})();`

// listenerScript is the injected message listener
var listenerScript = sandbox.Script{Name: "injected-listener", Source: listenerSource}
