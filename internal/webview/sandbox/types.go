package sandbox

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox timeout exceeded")
	ErrClosed     = errors.New("sandbox runtime is closed")
)

// Config defines sandbox configuration
type Config struct {
	Timeout       time.Duration // Per-run budget for scripts and queued tasks
	MaxTimers     int           // Timers accepted per run, extra ones are dropped
	EnableConsole bool          // Capture console.log/warn/error
}

// DefaultConfig returns the configuration used when none is supplied
func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		MaxTimers:     64,
		EnableConsole: true,
	}
}

// Script is one page script in document order
type Script struct {
	Name   string
	Source string
}

// Result holds the outcome of one run
type Result struct {
	Value         interface{}   `json:"value,omitempty"`
	Console       []LogEntry    `json:"console"`
	Errors        []ScriptError `json:"errors"`
	Emitted       int           `json:"emitted"`
	TasksRun      int           `json:"tasks_run"`
	DroppedTimers int           `json:"dropped_timers"`
	Duration      time.Duration `json:"duration"`
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ScriptError is an uncaught exception raised by a script or a queued task.
// Scripts keep running after one of these, as in a browser.
type ScriptError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Bridge receives what page scripts hand to the native side
type Bridge interface {
	Emit(ctx context.Context, event string, data interface{}) error
}

// BridgeFunc adapts a function to Bridge
type BridgeFunc func(ctx context.Context, event string, data interface{}) error

// Emit calls f
func (f BridgeFunc) Emit(ctx context.Context, event string, data interface{}) error {
	return f(ctx, event, data)
}
