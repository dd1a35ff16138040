// Package server exposes the lead session over HTTP for a browser front end.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/export"
	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/monitoring"
	"github.com/sells-group/hotleads/internal/pipeline"
)

// Session is the operator state the handlers drive.
type Session interface {
	Search(ctx context.Context, params model.SearchParams) (*model.Snapshot, error)
	Current() (model.Snapshot, bool)
	SetOutcomes(ctx context.Context, outcomes []model.Outcome) ([]pipeline.Change, model.Snapshot, error)
}

// Handler wires the HTTP API to a session and the outcome store.
type Handler struct {
	session  Session
	outcomes monitoring.OutcomeLister
	gatherer prometheus.Gatherer
	now      func() time.Time
}

// New constructs a handler. gatherer may be nil to disable /metrics.
func New(session Session, outcomes monitoring.OutcomeLister, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		session:  session,
		outcomes: outcomes,
		gatherer: gatherer,
		now:      time.Now,
	}
}

// Router builds the chi router with CORS for the given origins.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HandleHealth)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", h.HandleSearch)
		r.Get("/snapshot", h.HandleSnapshot)
		r.Put("/snapshot/outcomes", h.HandleSetOutcomes)
		r.Get("/snapshot/export.csv", h.HandleExportCSV)
		r.Get("/snapshot/export.xlsx", h.HandleExportXLSX)
		r.Get("/outcomes", h.HandleOutcomes)
	})
	return r
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type snapshotResponse struct {
	model.Snapshot
	SMSTemplate string `json:"sms_template"`
}

func newSnapshotResponse(s model.Snapshot) snapshotResponse {
	return snapshotResponse{Snapshot: s, SMSTemplate: s.SMSTemplate()}
}

// HandleSearch handles POST /api/search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var params model.SearchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	start := time.Now()
	snap, err := h.session.Search(r.Context(), params)
	if err != nil {
		zap.L().Warn("server: search failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("postal_code", params.PostalCode),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}

	zap.L().Info("server: search complete",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("snapshot_id", snap.ID),
		zap.Int("leads", len(snap.Leads)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	writeJSON(w, http.StatusOK, newSnapshotResponse(*snap))
}

// HandleSnapshot handles GET /api/snapshot.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.session.Current()
	if !ok {
		writeError(w, model.ErrNoData)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotResponse(snap))
}

type setOutcomesRequest struct {
	Outcomes []string `json:"outcomes"`
}

type setOutcomesResponse struct {
	Changes  []pipeline.Change `json:"changes"`
	Snapshot model.Snapshot    `json:"snapshot"`
}

// HandleSetOutcomes handles PUT /api/snapshot/outcomes. The body carries one
// outcome per row of the current snapshot.
func (h *Handler) HandleSetOutcomes(w http.ResponseWriter, r *http.Request) {
	var req setOutcomesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	outcomes := make([]model.Outcome, len(req.Outcomes))
	for i, s := range req.Outcomes {
		o, err := model.ParseOutcome(s)
		if err != nil {
			writeError(w, err)
			return
		}
		outcomes[i] = o
	}

	changes, snap, err := h.session.SetOutcomes(r.Context(), outcomes)
	if err != nil {
		zap.L().Warn("server: outcome update failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("applied", len(changes)),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []pipeline.Change{}
	}
	writeJSON(w, http.StatusOK, setOutcomesResponse{Changes: changes, Snapshot: snap})
}

// HandleExportCSV handles GET /api/snapshot/export.csv.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.session.Current()
	if !ok {
		writeError(w, model.ErrNoData)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snap.Title(h.now())+`.csv"`)
	if err := export.WriteCSV(w, snap); err != nil {
		zap.L().Error("server: csv export failed", zap.Error(err))
	}
}

// HandleExportXLSX handles GET /api/snapshot/export.xlsx.
func (h *Handler) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.session.Current()
	if !ok {
		writeError(w, model.ErrNoData)
		return
	}

	dir, err := os.MkdirTemp("", "hotleads-xlsx-")
	if err != nil {
		writeError(w, err)
		return
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	title := snap.Title(h.now())
	path := filepath.Join(dir, title+".xlsx")
	if err := export.WriteXLSX(path, snap); err != nil {
		zap.L().Error("server: xlsx export failed", zap.Error(err))
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+title+`.xlsx"`)
	http.ServeFile(w, r, path)
}

type outcomesResponse struct {
	Outcomes map[string]model.Outcome `json:"outcomes"`
}

// HandleOutcomes handles GET /api/outcomes.
func (h *Handler) HandleOutcomes(w http.ResponseWriter, r *http.Request) {
	all, err := h.outcomes.All(r.Context())
	if err != nil {
		zap.L().Error("server: list outcomes failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomesResponse{Outcomes: all})
}

type errorResponse struct {
	Error string `json:"error"`
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrGeocodeFailed):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, model.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), errorResponse{Error: model.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}
