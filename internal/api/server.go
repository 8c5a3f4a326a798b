// Package api exposes the monitoring session over HTTP. It is the stand-in
// for the viewer UI: port and baud selection, session start/stop, the current
// orientation snapshot, and a live tail of raw frames. The renderer-facing
// contract is read-only — nothing here mutates telemetry state directly.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/wycontir/rocketviewer/internal/db"
	"github.com/wycontir/rocketviewer/internal/monitor"
	"github.com/wycontir/rocketviewer/internal/serialport"
)

// ANSI escape codes used by the request logger.
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// PortLister enumerates serial ports; injected so tests do not touch real
// hardware.
type PortLister func() ([]string, error)

// Server wires the monitoring session and the sample store into HTTP
// handlers.
type Server struct {
	session   *monitor.Session
	store     *db.DB
	listPorts PortLister
}

// NewServer creates a Server. store may be nil when running without
// persistence; listPorts nil selects the real enumeration.
func NewServer(session *monitor.Session, store *db.DB, listPorts PortLister) *Server {
	if listPorts == nil {
		listPorts = serialport.ListPorts
	}
	return &Server{session: session, store: store, listPorts: listPorts}
}

// ServeMux returns the API route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/telemetry", s.handleTelemetry)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/ports", s.handlePorts)
	mux.HandleFunc("/api/samples", s.handleSamples)
	mux.HandleFunc("/api/session/start", s.handleStart)
	mux.HandleFunc("/api/session/stop", s.handleStop)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
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

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// TelemetrySnapshot is the renderer-facing view of the current state.
type TelemetrySnapshot struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	W    float64 `json:"w"`
	Time uint32  `json:"time"`
}

// handleTelemetry serves GET /api/telemetry: the latest accepted orientation,
// identity until the first frame lands.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := s.session.Snapshot()
	writeJSON(w, TelemetrySnapshot{
		X:    state.Quat.Imag,
		Y:    state.Quat.Jmag,
		Z:    state.Quat.Kmag,
		W:    state.Quat.Real,
		Time: state.Time,
	})
}

// handleStatus serves GET /api/status: session phase, port, counters, and
// the last transport error if the session aborted.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.session.Status())
}

// PortListResponse is the body of GET /api/ports.
type PortListResponse struct {
	Ports       []string `json:"ports"`
	BaudRates   []int    `json:"baud_rates"`
	DefaultBaud int      `json:"default_baud"`
}

func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ports, err := s.listPorts()
	if err != nil {
		log.Printf("error enumerating ports: %v", err)
		http.Error(w, "Failed to enumerate serial ports", http.StatusInternalServerError)
		return
	}
	if ports == nil {
		ports = []string{}
	}

	writeJSON(w, PortListResponse{
		Ports:       ports,
		BaudRates:   serialport.SupportedBaudRates,
		DefaultBaud: serialport.DefaultBaudRate,
	})
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "Persistence disabled", http.StatusNotFound)
		return
	}

	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	samples, err := s.store.RecentSamples(limit)
	if err != nil {
		log.Printf("error fetching samples: %v", err)
		http.Error(w, "Failed to fetch samples", http.StatusInternalServerError)
		return
	}
	if samples == nil {
		samples = []db.Sample{}
	}
	writeJSON(w, samples)
}

// StartRequest is the body of POST /api/session/start.
type StartRequest struct {
	PortPath string `json:"port_path"`
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits,omitempty"`
	StopBits int    `json:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PortPath == "" {
		http.Error(w, "Missing port_path", http.StatusBadRequest)
		return
	}

	opts := serialport.PortOptions{
		BaudRate: req.BaudRate,
		DataBits: req.DataBits,
		StopBits: req.StopBits,
		Parity:   req.Parity,
	}
	if _, err := opts.Normalize(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.session.Start(context.Background(), req.PortPath, opts); err != nil {
		if err == monitor.ErrAlreadyMonitoring {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		log.Printf("failed to start session: %v", err)
		http.Error(w, fmt.Sprintf("Failed to start session: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.session.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.session.Stop()
	writeJSON(w, s.session.Status())
}

// handleEvents serves GET /events: a Server-Sent Events stream of every
// complete frame as it comes off the wire, for live debugging.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	id, c := s.session.Subscribe()
	defer s.session.Unsubscribe(id)

	// initial ping to establish the stream
	fmt.Fprint(w, ": ping\n\n")
	flusher.Flush()

	for {
		select {
		case payload, ok := <-c:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
