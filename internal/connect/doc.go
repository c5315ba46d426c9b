/*
Package connect turns messages posted by the embedded connect portal into typed events.

# Overview

The portal runs inside an embedded browser and reports its outcome by posting
plain strings to the host. This package recognizes three of them:

	SUCCESS:<authorization id>   → SuccessEvent
	ERROR:<status code>          → ErrorEvent
	ABANDONED                    → AbandonedEvent

Anything else is ignored. The browser emits plenty of unrelated traffic, so an
unrecognized message is not an error.

# Pipeline

 1. Normalize: pull the string payload out of the message envelope
 2. Classify: match the payload against the known prefixes
 3. Dispatch: invoke the one callback registered for the event kind

Handler runs all three steps and recovers from any panic along the way. Nothing
is kept between calls.

# Usage Example

	h := connect.NewHandler(logger)
	h.Handle(envelope, connect.Callbacks{
		OnSuccess: func(ev connect.SuccessEvent) {
			store(ev.AuthorizationID)
		},
		OnError: func(ev connect.ErrorEvent) {
			logger.Warn("portal failed", zap.Int("status", ev.StatusCode))
		},
	})
*/
package connect
