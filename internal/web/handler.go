package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/voxbl/friendsync/internal/runstore"
	"github.com/voxbl/friendsync/internal/syncer"
)

// SyncRunner is the pipeline surface the HTTP layer needs.
type SyncRunner interface {
	Run(ctx context.Context) (*syncer.Result, error)
}

// Handler exposes the sync pipeline over HTTP: trigger, run history, health.
type Handler struct {
	runner SyncRunner
	store  *runstore.Store

	// active is a semaphore enforcing at most one run at a time; the
	// pipeline is not designed for concurrent runs against the same repo.
	active chan struct{}
}

// NewHandler creates a new web handler
func NewHandler(runner SyncRunner, store *runstore.Store) *Handler {
	return &Handler{
		runner: runner,
		store:  store,
		active: make(chan struct{}, 1),
	}
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/sync", h.handleSync).Methods("POST")
	r.HandleFunc("/runs", h.handleRunList).Methods("GET")
	r.HandleFunc("/runs/{id}", h.handleRunDetail).Methods("GET")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleSync starts a pipeline run in the background. A second request while
// a run is active gets 409.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	select {
	case h.active <- struct{}{}:
	default:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a sync run is already in progress"})
		return
	}

	id := fmt.Sprintf("run-%d", time.Now().UnixNano())
	h.store.Create(id)

	go func() {
		defer func() { <-h.active }()

		result, err := h.runner.Run(context.Background())
		if err != nil {
			log.Printf("Run %s failed: %v", id, err)
			h.store.Fail(id, err.Error())
			return
		}
		h.store.Complete(id, result)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (h *Handler) handleRunList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, ok := h.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
