// Package api serves the camera control surface: live parameter edits,
// selection and revert commands, raw input events and state inspection.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/config"
	"github.com/banshee-data/mapcam/internal/geo"
	"github.com/banshee-data/mapcam/internal/httputil"
	"github.com/banshee-data/mapcam/internal/inputbridge"
	"github.com/banshee-data/mapcam/internal/loop"
	"github.com/banshee-data/mapcam/internal/monitoring"
	"github.com/banshee-data/mapcam/internal/stream"
	"github.com/banshee-data/mapcam/internal/trace"
	"github.com/banshee-data/mapcam/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// commandTimeout bounds how long a handler waits for the frame loop.
const commandTimeout = 2 * time.Second

// FeatureSource lists and resolves points of interest. *poi.Store satisfies
// it.
type FeatureSource interface {
	Features(ctx context.Context) ([]geo.Feature, error)
	Feature(ctx context.Context, id string) (geo.Feature, error)
}

type Server struct {
	runner    *loop.Runner
	params    *config.Store
	features  FeatureSource
	recorder  *trace.Recorder
	publisher *stream.Publisher
}

// NewServer creates the API server. recorder and publisher may be nil.
func NewServer(runner *loop.Runner, params *config.Store, features FeatureSource, recorder *trace.Recorder, publisher *stream.Publisher) *Server {
	return &Server{
		runner:    runner,
		params:    params,
		features:  features,
		recorder:  recorder,
		publisher: publisher,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/camera/params", s.handleParams)
	mux.HandleFunc("/api/camera/state", s.handleState)
	mux.HandleFunc("/api/camera/select", s.handleSelect)
	mux.HandleFunc("/api/camera/revert", s.handleRevert)
	mux.HandleFunc("/api/camera/framing", s.handleFraming)
	mux.HandleFunc("/api/camera/input", s.handleInput)
	mux.HandleFunc("/api/camera/visibility", s.handleVisibility)
	mux.HandleFunc("/api/features", s.handleFeatures)
	mux.HandleFunc("/api/stream/stats", s.handleStreamStats)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/debug/camera/trace", s.handleTrace)
	return mux
}

// do runs fn on the frame loop and maps loop errors to HTTP responses. It
// reports whether fn ran successfully.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(*camera.Controller) error) bool {
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	err := s.runner.Do(ctx, fn)
	switch {
	case err == nil:
		return true
	case errors.Is(err, loop.ErrQueueFull), errors.Is(err, loop.ErrStopped):
		httputil.ServiceUnavailable(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.WriteJSONError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, geo.ErrInvalidFeature):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
	return false
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		body, err := httputil.ReadBody(r)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		if err := s.params.Apply(body); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		monitoring.Logf("[API] camera params updated (version %d): %s", s.params.Version(), bytes.TrimSpace(body))
	default:
		httputil.MethodNotAllowed(w)
		return
	}
	values, err := s.params.Values()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, values)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.runner.State())
}

type selectRequest struct {
	FeatureID string `json:"feature_id"`
}

type tokenResponse struct {
	Token uint64 `json:"token"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req selectRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.FeatureID == "" {
		httputil.BadRequest(w, "feature_id is required")
		return
	}
	f, err := s.features.Feature(r.Context(), req.FeatureID)
	if errors.Is(err, geo.ErrFeatureNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	var tok uint64
	if !s.do(w, r, func(c *camera.Controller) error {
		var err error
		tok, err = c.FocusFeature(f)
		return err
	}) {
		return
	}
	httputil.WriteJSONOK(w, tokenResponse{Token: tok})
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	s.handleScript(w, r, (*camera.Controller).Revert)
}

func (s *Server) handleFraming(w http.ResponseWriter, r *http.Request) {
	s.handleScript(w, r, (*camera.Controller).BeginInitialFraming)
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request, start func(*camera.Controller) uint64) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var tok uint64
	if !s.do(w, r, func(c *camera.Controller) error {
		tok = start(c)
		return nil
	}) {
		return
	}
	httputil.WriteJSONOK(w, tokenResponse{Token: tok})
}

// handleInput accepts one event object or an array of events. Events are
// queued; the response does not wait for the next frame.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	body, err := httputil.ReadBody(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	body = bytes.TrimSpace(body)

	var events []inputbridge.Event
	if len(body) > 0 && body[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			httputil.BadRequest(w, "invalid JSON: "+err.Error())
			return
		}
		for _, line := range raw {
			ev, err := inputbridge.Decode(line)
			if err != nil {
				httputil.BadRequest(w, err.Error())
				return
			}
			events = append(events, ev)
		}
	} else {
		ev, err := inputbridge.Decode(body)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		events = append(events, ev)
	}

	for _, ev := range events {
		if err := s.runner.Post(func(c *camera.Controller) {
			if err := inputbridge.Apply(c, ev); err != nil {
				monitoring.Logf("[API] input event %s: %v", ev.Type, err)
			}
		}); err != nil {
			httputil.ServiceUnavailable(w, err.Error())
			return
		}
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]int{"queued": len(events)})
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req visibilityRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Visible == nil {
		httputil.BadRequest(w, "visible is required")
		return
	}
	if !s.do(w, r, func(c *camera.Controller) error {
		c.SetVisible(*req.Visible)
		return nil
	}) {
		return
	}
	httputil.WriteJSONOK(w, map[string]bool{"visible": *req.Visible})
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	features, err := s.features.Features(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if features == nil {
		features = []geo.Feature{}
	}
	httputil.WriteJSONOK(w, features)
}

func (s *Server) handleStreamStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.publisher == nil {
		httputil.NotFound(w, "pose stream disabled")
		return
	}
	httputil.WriteJSONOK(w, s.publisher.Stats())
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

// handleTrace renders the recorded trace as an HTML chart, or as JSON with
// ?format=json. ?reset=1 starts a new recording after rendering.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.recorder == nil {
		httputil.NotFound(w, "trace recorder disabled")
		return
	}
	q := r.URL.Query()
	samples := s.recorder.Samples()
	sum := s.recorder.Summarize()

	if q.Get("format") == "json" {
		httputil.WriteJSONOK(w, map[string]interface{}{
			"summary": sum,
			"samples": samples,
		})
	} else {
		var buf bytes.Buffer
		subtitle := "run " + sum.RunID + " frames " + strconv.FormatUint(sum.FirstFrame, 10) + "-" + strconv.FormatUint(sum.LastFrame, 10)
		if err := trace.RenderChart(&buf, samples, subtitle); err != nil {
			httputil.InternalServerError(w, "render error: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}

	if q.Get("reset") == "1" {
		s.recorder.Reset()
	}
}
