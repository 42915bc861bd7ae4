// Package api exposes the kiosk's operator surface over HTTP: scan
// session control, the live cart, lane tuning, simulation object CRUD,
// and the count-event audit trail.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/checklane/kiosk.vision/internal/cart"
	"github.com/checklane/kiosk.vision/internal/config"
	"github.com/checklane/kiosk.vision/internal/db"
	"github.com/checklane/kiosk.vision/internal/monitoring"
	"github.com/checklane/kiosk.vision/internal/version"
	"github.com/checklane/kiosk.vision/internal/vision"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	lane  *vision.Lane
	cart  *cart.Cart
	db    *db.DB
	logf  func(format string, v ...interface{})

	mu        sync.Mutex
	tuning    *config.TuningConfig
	sessionID string
	overlay   []vision.TrackedDetection
}

// NewServer builds the operator server and wires the lane's sinks into
// the cart and the audit trail.
func NewServer(lane *vision.Lane, cartLedger *cart.Cart, database *db.DB, tuning *config.TuningConfig) *Server {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	s := &Server{
		lane:   lane,
		cart:   cartLedger,
		db:     database,
		logf:   monitoring.Prefixed("api"),
		tuning: tuning,
	}
	lane.SetSinks(s.handleCountEvent, nil)
	return s
}

// handleCountEvent routes one pipeline count into the cart and, when a
// session is open, the persistent audit trail.
func (s *Server) handleCountEvent(event vision.CountEvent) {
	s.cart.AddUnit(event.Label)

	s.mu.Lock()
	sessionID := s.sessionID
	s.mu.Unlock()
	if sessionID == "" || s.db == nil {
		return
	}

	record := &db.CountEventRecord{
		SessionID: sessionID,
		TrackID:   event.TrackID,
		Label:     event.Label,
		CountedAt: event.Timestamp,
	}
	if err := s.db.InsertCountEvent(record); err != nil {
		s.logf("failed to persist count event for %q: %v", event.Label, err)
	}
}

// Lane exposes the hosted lane for the frame loop and tests.
func (s *Server) Lane() *vision.Lane {
	return s.lane
}

// RecordFrame stores the latest annotated detections for the overlay
// endpoint. Called by the frame loop after each tick.
func (s *Server) RecordFrame(tracked []vision.TrackedDetection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = tracked
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
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scan/start", s.startScan)
	mux.HandleFunc("/api/scan/stop", s.stopScan)
	mux.HandleFunc("/api/cart", s.showCart)
	mux.HandleFunc("/api/cart/remove", s.removeCartUnit)
	mux.HandleFunc("/api/cart/clear", s.clearCart)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/config/preset", s.applyPreset)
	mux.HandleFunc("/api/sim/mode", s.handleSimMode)
	mux.HandleFunc("/api/sim/objects", s.handleSimObjects)
	mux.HandleFunc("/api/sim/objects/update", s.updateSimObject)
	mux.HandleFunc("/api/sim/objects/remove", s.removeSimObject)
	mux.HandleFunc("/api/products", s.handleProducts)
	mux.HandleFunc("/api/events", s.listEvents)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/overlay", s.showOverlay)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/debug/counts-chart", s.countsChart)
	return mux
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logf("failed to write response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
