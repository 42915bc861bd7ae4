package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/checklane/kiosk.vision/internal/config"
	"github.com/checklane/kiosk.vision/internal/db"
)

func (s *Server) startScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	now := time.Now()

	s.mu.Lock()
	if s.sessionID != "" {
		s.mu.Unlock()
		s.writeJSONError(w, http.StatusConflict, "a scan session is already active")
		return
	}
	var sessionID string
	if s.db != nil {
		session, err := s.db.CreateSession(now)
		if err != nil {
			s.mu.Unlock()
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to open session: %v", err))
			return
		}
		sessionID = session.ID
	}
	s.sessionID = sessionID
	s.mu.Unlock()

	s.cart.Clear()
	s.lane.StartScan(now)
	s.logf("scan started, session %s", sessionID)

	s.writeJSON(w, map[string]string{"session_id": sessionID, "status": "scanning"})
}

func (s *Server) stopScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.lane.StopScan()

	s.mu.Lock()
	sessionID := s.sessionID
	s.sessionID = ""
	s.mu.Unlock()

	items := s.cart.Items()
	total := s.cart.TotalCents()
	units := s.cart.UnitCount()

	if sessionID != "" && s.db != nil {
		if err := s.db.CloseSession(sessionID, time.Now(), total, units); err != nil {
			s.logf("failed to close session %s: %v", sessionID, err)
		}
	}
	s.logf("scan stopped, session %s: %d units, %d cents", sessionID, units, total)

	s.writeJSON(w, map[string]interface{}{
		"session_id":  sessionID,
		"items":       items,
		"total_cents": total,
		"unit_count":  units,
	})
}

func (s *Server) showCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"items":       s.cart.Items(),
		"total_cents": s.cart.TotalCents(),
		"unit_count":  s.cart.UnitCount(),
	})
}

func (s *Server) removeCartUnit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Label == "" {
		s.writeJSONError(w, http.StatusBadRequest, "body must be {\"label\": ...}")
		return
	}
	if err := s.cart.RemoveUnit(req.Label); err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"items":       s.cart.Items(),
		"total_cents": s.cart.TotalCents(),
	})
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.cart.Clear()
	s.writeJSON(w, map[string]string{"status": "cleared"})
}

// handleConfig serves the resolved tuning on GET and applies a partial
// update on POST. Updates are merged over the current config, validated,
// and installed atomically: a rejected update leaves the lane running on
// its previous settings.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		tuning := s.tuning
		s.mu.Unlock()
		s.writeJSON(w, map[string]interface{}{
			"config":  tuning,
			"presets": config.PresetNames(),
		})

	case http.MethodPost:
		var update config.TuningConfig
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid config JSON: %v", err))
			return
		}
		s.applyTuning(w, &update)

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) applyPreset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	name := r.URL.Query().Get("name")
	preset, err := config.Preset(name)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.applyTuning(w, preset)
}

func (s *Server) applyTuning(w http.ResponseWriter, update *config.TuningConfig) {
	s.mu.Lock()
	merged := s.tuning.Merge(update)
	s.mu.Unlock()

	if err := merged.Validate(); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.lane.Apply(merged.LaneSettings()); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.tuning = merged
	s.mu.Unlock()

	s.writeJSON(w, map[string]interface{}{"config": merged})
}

func (s *Server) handleSimMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]bool{"enabled": s.lane.SimulationMode()})

	case http.MethodPost:
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "body must be {\"enabled\": true|false}")
			return
		}
		s.lane.SetSimulationMode(req.Enabled)
		s.writeJSON(w, map[string]bool{"enabled": req.Enabled})

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleSimObjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]interface{}{"objects": s.lane.SimObjects()})

	case http.MethodPost:
		var req struct {
			Label  string  `json:"label"`
			X      float64 `json:"x"`
			Y      float64 `json:"y"`
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Label == "" {
			s.writeJSONError(w, http.StatusBadRequest, "body must include label, x, y, width, height")
			return
		}
		if req.Width <= 0 || req.Height <= 0 {
			s.writeJSONError(w, http.StatusBadRequest, "width and height must be positive")
			return
		}
		id := s.lane.AddSimObject(req.Label, req.X, req.Y, req.Width, req.Height)
		s.writeJSON(w, map[string]string{"id": id})

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) updateSimObject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req struct {
		ID     string   `json:"id"`
		Label  *string  `json:"label,omitempty"`
		X      *float64 `json:"x,omitempty"`
		Y      *float64 `json:"y,omitempty"`
		Width  *float64 `json:"width,omitempty"`
		Height *float64 `json:"height,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "body must include id")
		return
	}
	update := simUpdateFromRequest(req.Label, req.X, req.Y, req.Width, req.Height)
	if !s.lane.UpdateSimObject(req.ID, update) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no simulation object %q", req.ID))
		return
	}
	s.writeJSON(w, map[string]string{"id": req.ID, "status": "updated"})
}

func (s *Server) removeSimObject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "body must include id")
		return
	}
	if !s.lane.RemoveSimObject(req.ID) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no simulation object %q", req.ID))
		return
	}
	s.writeJSON(w, map[string]string{"id": req.ID, "status": "removed"})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		products, err := s.db.ListProducts()
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list products: %v", err))
			return
		}
		s.writeJSON(w, map[string]interface{}{"products": products})

	case http.MethodPost:
		var p db.Product
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid product JSON: %v", err))
			return
		}
		if err := s.db.UpsertProduct(&p); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		// The lane counts what the catalog names.
		labels, err := s.db.CatalogLabels()
		if err == nil {
			s.lane.ReplaceCatalog(labels)
		}
		s.writeJSON(w, p)

	case http.MethodDelete:
		label := r.URL.Query().Get("label")
		if label == "" {
			s.writeJSONError(w, http.StatusBadRequest, "label parameter required")
			return
		}
		deleted, err := s.db.DeleteProduct(label)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete product: %v", err))
			return
		}
		if !deleted {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no product with label %q", label))
			return
		}
		labels, err := s.db.CatalogLabels()
		if err == nil {
			s.lane.ReplaceCatalog(labels)
		}
		s.writeJSON(w, map[string]interface{}{"deleted": label})

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.mu.Lock()
		sessionID = s.sessionID
		s.mu.Unlock()
	}
	if sessionID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "no active session; pass session_id")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	events, err := s.db.CountEvents(sessionID, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to retrieve events: %v", err))
		return
	}
	s.writeJSON(w, map[string]interface{}{"session_id": sessionID, "events": events})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	sessions, err := s.db.ListSessions(0)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list sessions: %v", err))
		return
	}
	s.writeJSON(w, map[string]interface{}{"sessions": sessions})
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	total, byLabel, dwell, intervals := s.lane.Stats()
	s.writeJSON(w, map[string]interface{}{
		"total_count":     total,
		"counts_by_label": byLabel,
		"dwell_frames":    dwell,
		"count_intervals": intervals,
		"scanning":        s.lane.Scanning(),
	})
}

func (s *Server) showOverlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.Lock()
	overlay := s.overlay
	s.mu.Unlock()
	s.writeJSON(w, map[string]interface{}{"detections": overlay})
}
