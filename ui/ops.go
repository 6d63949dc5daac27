package ui

import (
	"encoding/json"
	"net/http"

	"worklog/app"
	"worklog/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// OpsServer is the internal operations endpoint, served on its own port so
// it never shares exposure with the user-facing API.
type OpsServer struct {
	router     *chi.Mux
	users      ports.UserRepository
	activities *app.ActivityService
}

// NewOpsServer creates the operations router
func NewOpsServer(users ports.UserRepository, activities *app.ActivityService) *OpsServer {
	s := &OpsServer{
		router:     chi.NewRouter(),
		users:      users,
		activities: activities,
	}
	s.setupRoutes()
	return s
}

func (s *OpsServer) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/ops/version", s.handleVersion)
	s.router.Post("/ops/activities/{id}/recalculate", s.handleRecalculate)
}

// Handler returns the ops HTTP handler
func (s *OpsServer) Handler() http.Handler {
	return s.router
}

func (s *OpsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *OpsServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// handleRecalculate re-derives session durations from stored timestamps for
// one activity. The repair runs with admin rights; this port is internal.
func (s *OpsServer) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid activity id"})
		return
	}

	admin, err := s.users.GetOrCreateDefaultUser(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	activity, err := s.activities.RecalculateAllDurations(r.Context(), admin, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
