// Package api exposes the scan, review, and commit entry points over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/engine"
	"github.com/Veraticus/subscout/internal/metrics"
	"github.com/Veraticus/subscout/internal/model"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 4 << 20

// Pipeline is the subset of the engine the API serves.
type Pipeline interface {
	Scan(ctx context.Context, req engine.ScanRequest) (*model.ScanResult, error)
	ImportAllNew(ctx context.Context, userID string, candidates []model.ClassifiedCandidate) (*engine.ImportResult, error)
	Commit(ctx context.Context, userID string, candidates []model.ClassifiedCandidate, decisions []model.ResolutionDecision) (*engine.CommitResult, error)
	ListSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error)
}

// Handler serves the HTTP API.
type Handler struct {
	pipeline      Pipeline
	defaultUserID string
}

// NewHandler creates a handler. Requests that name no user act as defaultUserID.
func NewHandler(pipeline Pipeline, defaultUserID string) *Handler {
	return &Handler{pipeline: pipeline, defaultUserID: defaultUserID}
}

// Router wires every route, including health and metrics.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(instrument)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/scan", h.Scan).Methods(http.MethodPost)
	v1.HandleFunc("/import-new", h.ImportNew).Methods(http.MethodPost)
	v1.HandleFunc("/commit", h.Commit).Methods(http.MethodPost)
	v1.HandleFunc("/subscriptions", h.ListSubscriptions).Methods(http.MethodGet)
	return r
}

type scanRequest struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	Days        int    `json:"days"`
}

type scanError struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

type importRequest struct {
	UserID     string                      `json:"user_id"`
	Candidates []model.ClassifiedCandidate `json:"candidates"`
}

type commitRequest struct {
	UserID     string                      `json:"user_id"`
	Candidates []model.ClassifiedCandidate `json:"candidates"`
	Decisions  []model.ResolutionDecision  `json:"decisions"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Scan runs one mailbox scan. A failed scan answers with success=false and a
// single user-facing message.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.pipeline.Scan(r.Context(), engine.ScanRequest{
		UserID:      h.userID(req.UserID),
		AccessToken: req.AccessToken,
		Days:        req.Days,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			common.LogError(r.Context(), err, "scan failed", common.Fields{"user_id": h.userID(req.UserID)})
		}
		respondJSON(w, status, scanError{Success: false, Error: common.UserMessage(err)})
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// ImportNew inserts every NEW candidate.
func (h *Handler) ImportNew(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.pipeline.ImportAllNew(r.Context(), h.userID(req.UserID), req.Candidates)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	common.LogInfo(r.Context(), "imported new subscriptions", common.Fields{"applied": res.Applied})
	respondJSON(w, http.StatusOK, res)
}

// Commit applies reviewed decisions.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.pipeline.Commit(r.Context(), h.userID(req.UserID), req.Candidates, req.Decisions)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	common.LogInfo(r.Context(), "committed decisions", common.Fields{
		"applied": res.Applied,
		"failed":  len(res.Failures),
	})
	respondJSON(w, http.StatusOK, res)
}

// ListSubscriptions returns the user's records.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.pipeline.ListSubscriptions(r.Context(), h.userID(r.URL.Query().Get("user_id")))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

func (h *Handler) userID(requested string) string {
	if id := strings.TrimSpace(requested); id != "" {
		return id
	}
	return h.defaultUserID
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotEntitled):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrMailboxUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency per route template.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		timer := prometheus.NewTimer(metrics.HTTPLatency.WithLabelValues(r.Method, endpoint))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		timer.ObserveDuration()

		metrics.HTTPRequests.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	})
}

// NewServer builds an http.Server for the handler.
func NewServer(addr string, h *Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
