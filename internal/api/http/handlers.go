package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/portalconnect/internal/api/middleware"
	"github.com/GriffinCanCode/portalconnect/internal/api/ws"
	"github.com/GriffinCanCode/portalconnect/internal/connect"
	"github.com/GriffinCanCode/portalconnect/internal/webview"
	"github.com/GriffinCanCode/portalconnect/internal/webview/sandbox"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxMessageBytes caps POST /v1/messages bodies
const maxMessageBytes = 64 << 10

// Renderer loads and runs a portal page
type Renderer interface {
	Render(ctx context.Context, page webview.Page, cb connect.Callbacks) (*webview.Session, error)
}

// Broadcaster pushes events to stream subscribers
type Broadcaster interface {
	Broadcast(sessionID string, ev connect.Event) (ws.Frame, error)
}

// StatusFunc reports runtime state for GET /v1/status
type StatusFunc func() gin.H

// Handlers contains all HTTP handlers
type Handlers struct {
	handler *connect.Handler
	view    Renderer
	hub     Broadcaster
	status  StatusFunc
	logger  *zap.Logger
}

// NewHandlers creates a new handler set. hub and status may be nil.
func NewHandlers(handler *connect.Handler, view Renderer, hub Broadcaster, status StatusFunc, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		handler: handler,
		view:    view,
		hub:     hub,
		status:  status,
		logger:  logger.Named("api"),
	}
}

// Register mounts the v1 routes
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	v1.GET("/status", h.Status)
	v1.POST("/messages", h.PostMessage)
	v1.POST("/portal/render", h.RenderPortal)
}

// Root describes the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "portalconnect",
	})
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports counters, pool occupancy and subscribers
func (h *Handlers) Status(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.status != nil {
		for k, v := range h.status() {
			body[k] = v
		}
	}
	c.JSON(http.StatusOK, body)
}

// PostMessage classifies one portal message. JSON bodies are decoded as a
// web view envelope; any other content type is taken as the raw message
// string. Responds 200 with the event or 204 when the message is not one.
func (h *Handlers) PostMessage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMessageBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too large"})
		return
	}

	var raw any = string(body)
	if strings.HasPrefix(c.ContentType(), "application/json") {
		raw, err = connect.DecodeEnvelope(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON envelope"})
			return
		}
	}

	ev, ok := h.handler.Handle(raw, connect.Callbacks{})
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	h.broadcast(c.Query("session_id"), ev, middleware.GetRequestID(c))
	c.JSON(http.StatusOK, ev)
}

// RenderRequest is the body of POST /v1/portal/render
type RenderRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// RenderPortal loads a portal page in the web view and returns the session
func (h *Handlers) RenderPortal(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.URL != "" {
		if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an absolute http(s) URL"})
			return
		}
	}

	session, err := h.view.Render(c.Request.Context(), webview.Page{URL: req.URL, HTML: req.HTML}, connect.Callbacks{})
	if session != nil {
		for _, ev := range session.Events {
			h.broadcast(session.ID.String(), ev, middleware.GetRequestID(c))
		}
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, session)
	case errors.Is(err, webview.ErrNoSource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case webview.IsFetchError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, sandbox.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "session": session})
	default:
		h.logger.Error("Render failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
	}
}

func (h *Handlers) broadcast(sessionID string, ev connect.Event, requestID string) {
	if h.hub == nil {
		return
	}
	if _, err := h.hub.Broadcast(sessionID, ev); err != nil {
		h.logger.Warn("Failed to broadcast event",
			zap.Stringer("kind", ev.Kind()),
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
