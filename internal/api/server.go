// Package api exposes the controller over HTTP with macaron.
//
//	POST /animate  {"color":"#RRGGBB","duration":300,"ease":"linear"}
//	POST /toggle
//	GET  /color
//	GET  /eases
//	GET  /metrics
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"gopkg.in/macaron.v1"

	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/controller"
	"github.com/RobertBroersma/dmx-hackathon/internal/ease"
	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
	"github.com/RobertBroersma/dmx-hackathon/internal/observability"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// Controller is the part of *controller.Handler the API drives.
type Controller interface {
	Animate(ctx context.Context, req controller.Request) (color.Color, error)
	Toggle(ctx context.Context) (color.Color, error)
	CurrentColor() color.Color
}

// ColorResponse is returned by every endpoint that reports a color.
type ColorResponse struct {
	Color string `json:"color"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Server serves the controller over HTTP.
type Server struct {
	ctrl    Controller
	metrics *observability.ApplicationMetrics
	logger  *logging.Logger
	m       *macaron.Macaron

	// lifetime bounds animations. It is replaced by the ctx given to Serve.
	lifetime context.Context
}

// NewServer wires the routes. metrics may be nil.
func NewServer(ctrl Controller, metrics *observability.ApplicationMetrics) *Server {
	s := &Server{
		ctrl:    ctrl,
		metrics: metrics,
		logger:  logging.WithComponent("api"),

		lifetime: context.Background(),
	}

	m := macaron.New()
	m.Use(macaron.Recovery())
	m.Use(s.accessLog)
	m.Use(macaron.Renderer())

	m.Post("/animate", s.animate)
	m.Post("/toggle", s.toggle)
	m.Get("/color", s.color)
	m.Get("/eases", s.eases)
	m.Get("/metrics", s.metricsSnapshot)

	s.m = m

	return s
}

// Handler returns the routes as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.m
}

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests. Request contexts derive from ctx, so a running animation stops
// at its next frame.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. Animations started
// through it run until they finish or ctx is done, whichever is first.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.lifetime = ctx

	srv := &http.Server{
		Handler:           s.m,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("HTTP API listening", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}

	return nil
}

func (s *Server) accessLog(ctx *macaron.Context) {
	began := time.Now()

	ctx.Next()

	elapsed := time.Since(began)
	status := ctx.Resp.Status()

	if s.metrics != nil {
		s.metrics.RecordRequest(ctx.Req.URL.Path, status, elapsed)
	}

	s.logger.Debug("request",
		"method", ctx.Req.Method,
		"path", ctx.Req.URL.Path,
		"status", status,
		"elapsed", elapsed)
}

func (s *Server) animate(ctx *macaron.Context) {
	var req controller.Request

	body, err := io.ReadAll(io.LimitReader(ctx.Req.Request.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}

	if err != nil || req == nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "body must be a JSON object"})
		return
	}

	// A client that goes away mid-fade does not stop the fixture halfway.
	actx, cancel := s.animationContext(ctx.Req.Context())
	defer cancel()

	c, err := s.ctrl.Animate(actx, req)
	if err != nil {
		s.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ColorResponse{Color: c.Hex()})
}

// animationContext keeps the values of reqCtx but is only cancelled when
// the server shuts down.
func (s *Server) animationContext(reqCtx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(reqCtx))
	stop := context.AfterFunc(s.lifetime, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Server) toggle(ctx *macaron.Context) {
	c, err := s.ctrl.Toggle(ctx.Req.Context())
	if err != nil {
		s.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ColorResponse{Color: c.Hex()})
}

func (s *Server) color(ctx *macaron.Context) {
	ctx.JSON(http.StatusOK, ColorResponse{Color: s.ctrl.CurrentColor().Hex()})
}

func (s *Server) eases(ctx *macaron.Context) {
	ctx.JSON(http.StatusOK, ease.Names())
}

func (s *Server) metricsSnapshot(ctx *macaron.Context) {
	snapshot := []observability.Metric{}
	if s.metrics != nil {
		snapshot = s.metrics.Collector().Snapshot()
	}

	ctx.JSON(http.StatusOK, snapshot)
}

func (s *Server) fail(ctx *macaron.Context, err error) {
	status := StatusFor(err)

	resp := ErrorResponse{Error: err.Error()}

	var invalid *controller.InvalidRequestError
	if errors.As(err, &invalid) {
		resp.Field = invalid.Field
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", ctx.Req.URL.Path, "error", err)
	}

	ctx.JSON(status, resp)
}

// StatusFor maps controller errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		invalid *controller.InvalidRequestError
		setLED  *controller.SetLEDError
	)

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &setLED):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
