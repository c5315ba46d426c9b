package connect

import (
	"go.uber.org/zap"
)

// Callbacks holds the optional handlers for each event kind.
type Callbacks struct {
	OnSuccess   func(SuccessEvent)
	OnError     func(ErrorEvent)
	OnAbandoned func(AbandonedEvent)
}

// Outcome labels reported to an Observer.
const (
	OutcomeNone  = "none"
	OutcomePanic = "panic"
)

// Observer is told the outcome of every handled message.
type Observer interface {
	ObserveMessage(outcome string)
}

// Dispatch invokes the callback matching ev, if one is registered.
// It reports whether a callback ran.
func Dispatch(ev Event, cb Callbacks) bool {
	switch e := ev.(type) {
	case SuccessEvent:
		if cb.OnSuccess != nil {
			cb.OnSuccess(e)
			return true
		}
	case ErrorEvent:
		if cb.OnError != nil {
			cb.OnError(e)
			return true
		}
	case AbandonedEvent:
		if cb.OnAbandoned != nil {
			cb.OnAbandoned(e)
			return true
		}
	}
	return false
}

// Handler runs the normalize, classify and dispatch steps for inbound messages.
// It is safe for concurrent use.
type Handler struct {
	logger   *zap.Logger
	observer Observer
}

// Option configures a Handler.
type Option func(*Handler)

// WithObserver reports every outcome to o.
func WithObserver(o Observer) Option {
	return func(h *Handler) {
		h.observer = o
	}
}

// NewHandler creates a message handler. A nil logger disables diagnostics.
func NewHandler(logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{logger: logger.Named("connect")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle classifies raw and invokes the matching callback.
// It never panics; failures are logged and reported as no event.
func (h *Handler) Handle(raw any, cb Callbacks) (ev Event, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Error handling portal message", zap.Any("panic", r))
			h.observe(OutcomePanic)
			ev, ok = nil, false
		}
	}()

	ev, ok = Parse(raw)
	if !ok {
		h.observe(OutcomeNone)
		return nil, false
	}

	h.logger.Debug("Portal event received", zap.Stringer("kind", ev.Kind()))
	Dispatch(ev, cb)
	h.observe(ev.Kind().String())
	return ev, true
}

func (h *Handler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveMessage(outcome)
	}
}
