package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gotier/app"
	"gotier/domain/core"
	apperrors "gotier/internal/errors"
	"gotier/internal/fingerprint"
	"gotier/internal/rebuild"
	"gotier/ports"
)

// Server is the build/admin JSON API. Unlike the catalog UI it can trigger
// builds, so it is wired separately and is not meant to face the public.
type Server struct {
	router          *chi.Mux
	build           *app.BuildService
	entries         ports.EntryRepository
	classifications ports.ClassificationRepository
	manager         *rebuild.Manager
	graph           *rebuild.Graph
	categoryHashes  map[string]core.Hash
}

// NewServer creates the build API server
func NewServer(build *app.BuildService, entries ports.EntryRepository, classifications ports.ClassificationRepository, graph *rebuild.Graph, manager *rebuild.Manager, categoryHashes map[string]core.Hash) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		build:           build,
		entries:         entries,
		classifications: classifications,
		manager:         manager,
		graph:           graph,
		categoryHashes:  categoryHashes,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/fingerprint", s.handleFingerprint)
	s.router.Post("/entries/{id}/build", s.handleBuildEntry)
	s.router.Get("/classifications/{id}", s.handleGetClassification)
	s.router.Post("/rebuild", s.handleRebuild)
	s.router.Get("/stale", s.handleStale)
}

// Handler exposes the router for mounting and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on the given address
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFingerprint returns the policy fingerprint the running service
// stamps onto every classification
func (s *Server) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	fp := s.build.Fingerprint()
	writeJSON(w, http.StatusOK, map[string]string{
		"fingerprint": fp.String(),
		"compact":     fp.Compact(),
	})
}

func (s *Server) handleBuildEntry(w http.ResponseWriter, r *http.Request) {
	entryID := core.EntryID(chi.URLParam(r, "id"))

	entry, err := s.entries.GetEntry(r.Context(), entryID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.build.BuildEntry(r.Context(), entry)
	if err != nil {
		writeError(w, err)
		return
	}

	evidenceHash, venues, snapshotVersion := s.build.GraphInputs(entry)
	if s.graph != nil {
		s.graph.Register(entryID, rebuild.Inputs{
			EvidenceHash:       evidenceHash,
			Category:           entry.Category,
			CategoryPolicyHash: s.categoryHashes[entry.Category],
			SnapshotVersion:    snapshotVersion,
			Venues:             venues,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"classification": result.Classification,
		"simulation":     result.Simulation,
		"screened_rows":  len(result.Screened),
	})
}

func (s *Server) handleGetClassification(w http.ResponseWriter, r *http.Request) {
	entryID := core.EntryID(chi.URLParam(r, "id"))

	classification, err := s.classifications.GetClassification(r.Context(), entryID)
	if err != nil {
		writeError(w, err)
		return
	}

	// A classification built under a different policy is served but flagged
	// stale rather than silently accepted.
	stale := fingerprint.VerifyFingerprint(classification.PolicyFingerprint, s.build.Fingerprint()) != nil

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"classification": classification,
		"stale":          stale,
	})
}

// handleRebuild recomputes every stale entry and reports the outcome
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	report, err := s.manager.Rebuild(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	failed := make(map[string]string, len(report.Failed))
	for id, ferr := range report.Failed {
		failed[id.String()] = ferr.Error()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rebuilt": report.Rebuilt,
		"failed":  failed,
	})
}

func (s *Server) handleStale(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"stale": s.graph.Stale()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	code := errorCode(err)
	writeJSON(w, statusForCode(code), map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}

// errorCode maps a pipeline error onto the application error code surfaced
// to clients. An AppError keeps the code it was constructed with.
func errorCode(err error) string {
	if apperrors.IsAppError(err) {
		return apperrors.GetCode(err)
	}
	switch {
	case core.IsNotFoundError(err):
		return apperrors.CodeNotFound
	case core.IsEvidenceError(err):
		return apperrors.CodeEvidenceInvalid
	case errors.Is(err, core.ErrInvalidPolicy):
		return apperrors.CodePolicyInvalid
	}
	return apperrors.CodeInternalError
}

func statusForCode(code string) int {
	switch code {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeEvidenceInvalid, apperrors.CodePolicyInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
