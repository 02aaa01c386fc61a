// Package v1 provides the dashboard REST API handlers.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/ballpark/internal/api/common"
	"github.com/stacklok/ballpark/internal/registry"
	"github.com/stacklok/ballpark/internal/service"
	"github.com/stacklok/ballpark/internal/session"
)

// maxStateBytes bounds the body of a session state update
const maxStateBytes = 64 << 10

// Routes defines the dashboard API routes with dependency injection
type Routes struct {
	service  service.DashboardService
	sessions *session.Store
}

// NewRoutes creates a new Routes instance. sessions may be nil to disable session routes.
func NewRoutes(svc service.DashboardService, sessions *session.Store) *Routes {
	return &Routes{
		service:  svc,
		sessions: sessions,
	}
}

// Router creates a new router for the dashboard API
func Router(svc service.DashboardService, sessions *session.Store) http.Handler {
	routes := NewRoutes(svc, sessions)

	r := chi.NewRouter()

	r.Get("/tabs", routes.listTabs)
	r.Get("/datasets", routes.listDatasets)
	r.Get("/datasets/{id}", routes.getDataset)
	r.Get("/panels/{id}", routes.getPanel)

	if sessions != nil {
		r.Get("/session/panels/{id}", routes.getSessionPanel)
		r.Put("/session/panels/{id}", routes.putSessionPanel)
	}

	return r
}

func (rt *Routes) listTabs(w http.ResponseWriter, r *http.Request) {
	tabs, err := rt.service.ListTabs(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, tabsResponse(tabs), http.StatusOK)
}

func (rt *Routes) listDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := rt.service.ListDatasets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, datasetsResponse(datasets), http.StatusOK)
}

func (rt *Routes) getDataset(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	ds, err := rt.service.GetDataset(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, ds.Table(), http.StatusOK)
}

// getPanel runs a panel for the state given in the query string, without touching the session
func (rt *Routes) getPanel(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := stateFromQuery(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := rt.service.GetPanel(r.Context(), id, state)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, view, http.StatusOK)
}

func (rt *Routes) getSessionPanel(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := rt.sessions.Load(r, id)
	if err != nil {
		slog.Debug("Ignoring unreadable panel state", "panel", id, "error", err)
		state = session.PanelState{}
	}

	view, err := rt.service.GetPanel(r.Context(), id, state)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, sessionPanelResponse{
		SessionID: rt.sessions.ID(r),
		State:     state,
		Panel:     view,
	}, http.StatusOK)
}

// putSessionPanel replaces the session state of a panel. The state is applied before
// it is stored, so an unknown panel or invalid search never reaches the cookie.
func (rt *Routes) putSessionPanel(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var state session.PanelState
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStateBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&state); err != nil {
		common.WriteErrorResponse(w, "invalid panel state: "+err.Error(), http.StatusBadRequest)
		return
	}
	if state.Threshold != nil && *state.Threshold < 0 {
		common.WriteErrorResponse(w, "threshold must not be negative", http.StatusBadRequest)
		return
	}

	view, err := rt.service.GetPanel(r.Context(), id, state)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	sessionID, err := rt.sessions.Save(w, r, id, state)
	if errors.Is(err, session.ErrStateTooLarge) {
		common.WriteErrorResponse(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		slog.Error("Failed to save session", "panel", id, "error", err)
		common.WriteErrorResponse(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, sessionPanelResponse{
		SessionID: sessionID,
		State:     state,
		Panel:     view,
	}, http.StatusOK)
}

// stateFromQuery reads team, min, name, metric and search
func stateFromQuery(r *http.Request) (session.PanelState, error) {
	threshold, err := common.QueryNonNegativeFloat(r, "min")
	if err != nil {
		return session.PanelState{}, err
	}
	q := r.URL.Query()
	return session.PanelState{
		Team:      q.Get("team"),
		Threshold: threshold,
		Names:     common.QueryValues(r, "name"),
		Metrics:   common.QueryList(r, "metric"),
		Search:    q.Get("search"),
	}, nil
}

// writeServiceError maps service errors onto HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var loadErr *registry.LoadError
	switch {
	case errors.Is(err, service.ErrPanelNotFound), errors.Is(err, service.ErrDatasetNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidQuery):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &loadErr):
		common.WriteErrorResponse(w, "dataset unavailable: "+loadErr.SourceID, http.StatusServiceUnavailable)
	default:
		slog.Error("Request failed", "error", err)
		common.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
	}
}
