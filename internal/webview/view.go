package webview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/portalconnect/internal/connect"
	"github.com/GriffinCanCode/portalconnect/internal/shared/id"
	"github.com/GriffinCanCode/portalconnect/internal/webview/sandbox"
	"go.uber.org/zap"
)

// Render statuses reported to the Recorder
const (
	StatusOK         = "ok"
	StatusNoSource   = "no_source"
	StatusFetchError = "fetch_error"
	StatusParseError = "parse_error"
	StatusScriptFail = "script_error"
)

// Page is the portal to load. HTML wins over URL when both are set; URL
// then only provides the origin.
type Page struct {
	URL  string `json:"url,omitempty"`
	HTML string `json:"html,omitempty"`
}

// Session is the record of one render
type Session struct {
	ID             id.SessionID          `json:"id"`
	URL            string                `json:"url,omitempty"`
	Title          string                `json:"title"`
	Messages       []string              `json:"messages"`
	Events         []connect.Event       `json:"events"`
	Console        []sandbox.LogEntry    `json:"console"`
	ScriptErrors   []sandbox.ScriptError `json:"script_errors"`
	SkippedScripts []string              `json:"skipped_scripts,omitempty"`
	Ignored        int                   `json:"ignored"`
	Duration       time.Duration         `json:"duration"`
}

// Recorder receives render outcomes
type Recorder interface {
	RecordRender(status string, scripts time.Duration)
}

// Runner executes scripts against a page, normally a *sandbox.Pool
type Runner interface {
	Run(ctx context.Context, bridge sandbox.Bridge, dom *sandbox.DOM, scripts ...sandbox.Script) (*sandbox.Result, error)
}

// View plays the role of the embedded web view: it loads a portal page,
// runs it and routes what the page posts to the native side through the
// connect handler.
type View struct {
	runner   Runner
	fetcher  *Fetcher
	handler  *connect.Handler
	recorder Recorder
	logger   *zap.Logger
}

// Option configures a View
type Option func(*View)

// WithRecorder reports render outcomes to r
func WithRecorder(r Recorder) Option {
	return func(v *View) {
		v.recorder = r
	}
}

// WithFetcher replaces the default fetcher
func WithFetcher(f *Fetcher) Option {
	return func(v *View) {
		v.fetcher = f
	}
}

// New creates a View
func New(runner Runner, handler *connect.Handler, logger *zap.Logger, opts ...Option) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &View{
		runner:  runner,
		handler: handler,
		logger:  logger.Named("webview"),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.fetcher == nil {
		v.fetcher = NewFetcher(FetchConfig{Timeout: 15 * time.Second})
	}
	if v.handler == nil {
		v.handler = connect.NewHandler(logger)
	}
	return v
}

// Render loads page, runs its scripts with the message listener installed
// first and invokes cb for every classified message. When the scripts are
// aborted the partial session is returned together with the error.
func (v *View) Render(ctx context.Context, page Page, cb connect.Callbacks) (*Session, error) {
	if page.URL == "" && page.HTML == "" {
		v.record(StatusNoSource, 0)
		return nil, ErrNoSource
	}

	html := []byte(page.HTML)
	if len(html) == 0 {
		body, err := v.fetcher.Fetch(ctx, page.URL)
		if err != nil {
			v.record(StatusFetchError, 0)
			v.logger.Warn("Failed to fetch portal page", zap.String("url", page.URL), zap.Error(err))
			return nil, err
		}
		html = body
	}

	parsed, err := parsePage(html, page.URL, v.logger)
	if err != nil {
		v.record(StatusParseError, 0)
		return nil, err
	}

	session := &Session{
		ID:             id.NewSessionID(),
		URL:            page.URL,
		Title:          parsed.title,
		Messages:       []string{},
		Events:         []connect.Event{},
		Console:        []sandbox.LogEntry{},
		ScriptErrors:   []sandbox.ScriptError{},
		SkippedScripts: parsed.skipped,
	}
	logger := v.logger.With(zap.String("session_id", session.ID.String()))

	bridge := sandbox.BridgeFunc(func(_ context.Context, _ string, data interface{}) error {
		payload, ok := data.(string)
		if !ok {
			session.Ignored++
			logger.Debug("Ignoring non-string bridge message", zap.String("type", fmt.Sprintf("%T", data)))
			return nil
		}

		session.Messages = append(session.Messages, payload)
		envelope := connect.WebViewEvent{NativeEvent: connect.NativeEvent{Data: payload}}
		if ev, ok := v.handler.Handle(envelope, cb); ok {
			session.Events = append(session.Events, ev)
		}
		return nil
	})

	scripts := append([]sandbox.Script{listenerScript}, parsed.scripts...)
	result, runErr := v.runner.Run(ctx, bridge, parsed.dom, scripts...)
	if result != nil {
		session.Console = result.Console
		session.ScriptErrors = result.Errors
		session.Duration = result.Duration
	}

	if runErr != nil {
		v.record(StatusScriptFail, session.Duration)
		logger.Warn("Portal scripts aborted", zap.Error(runErr))
		if result == nil {
			return nil, fmt.Errorf("run portal scripts: %w", runErr)
		}
		return session, fmt.Errorf("run portal scripts: %w", runErr)
	}

	v.record(StatusOK, session.Duration)
	logger.Info("Portal rendered",
		zap.String("title", session.Title),
		zap.Int("scripts", len(parsed.scripts)),
		zap.Int("messages", len(session.Messages)),
		zap.Int("events", len(session.Events)),
		zap.Duration("duration", session.Duration))

	return session, nil
}

func (v *View) record(status string, scripts time.Duration) {
	if v.recorder != nil {
		v.recorder.RecordRender(status, scripts)
	}
}

// IsFetchError reports whether err came from retrieving the page
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
