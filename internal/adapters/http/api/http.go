// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/platecheck/internal/access"
	"github.com/okian/platecheck/internal/adapters/repository"
	service "github.com/okian/platecheck/internal/app"
	"github.com/okian/platecheck/internal/domain/model"
	"github.com/okian/platecheck/internal/domain/types"
)

const (
	defaultMaxUploadBytes  = 20 << 20
	defaultMaxBatchImages  = 100
	premiumPasswordHeader  = "X-Premium-Password"
	exportObjectHeader     = "X-Export-Object"
	multipartMemoryCeiling = 8 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ProcessImage(ctx context.Context, img model.Image, tier model.ModelTier) (*model.ComparisonRecord, error)
	SubmitBatch(ctx context.Context, id string, tier model.ModelTier, images []model.Image) (types.BatchStatus, bool, error)
	Batch(id string) (types.BatchStatus, error)

	History(ctx context.Context) []*model.ComparisonRecord
	HistoryPage(ctx context.Context, offset, limit int) ([]*model.ComparisonRecord, error)
	HistoryCount(ctx context.Context) int
	Record(ctx context.Context, id string) (*model.ComparisonRecord, error)
	Export(ctx context.Context, w io.Writer) error
}

// TierResolver maps the premium password header to a model tier.
type TierResolver interface {
	Tier(password string) (model.ModelTier, error)
}

// Uploader stores an export object and returns its key.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Option configures a Server.
type Option func(*Server)

// WithUploader enables ?upload=true on the CSV export.
func WithUploader(u Uploader) Option {
	return func(s *Server) {
		s.uploader = u
	}
}

// WithMaxUploadBytes caps a request body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithMaxBatchImages caps the number of files in one batch.
func WithMaxBatchImages(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatchImages = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	tiers    TierResolver
	uploader Uploader

	maxUploadBytes int64
	maxBatchImages int

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, tiers TierResolver, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		tiers:          tiers,
		maxUploadBytes: defaultMaxUploadBytes,
		maxBatchImages: defaultMaxBatchImages,
		healthHandler:  NewHealthHandler(statsProvider),
		statsHandler:   NewStatsHandler(statsProvider),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.statsHandler.server = s
	return s
}

// premiumEnabled reports whether a password can unlock the premium tier.
func (s *Server) premiumEnabled() bool {
	if g, ok := s.tiers.(interface{ Enabled() bool }); ok {
		return g.Enabled()
	}
	return s.tiers != nil
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /analyze", MetricsMiddleware(s.HandleAnalyze, "analyze"))
	mux.HandleFunc("POST /batches", MetricsMiddleware(s.HandleSubmitBatch, "batches"))
	mux.HandleFunc("GET /batches/{id}", MetricsMiddleware(s.HandleGetBatch, "batch"))
	mux.HandleFunc("GET /history", MetricsMiddleware(s.HandleHistory, "history"))
	mux.HandleFunc("GET /records/{id}", MetricsMiddleware(s.HandleGetRecord, "record"))
	mux.HandleFunc("GET /export.csv", MetricsMiddleware(s.HandleExport, "export"))
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps errors coming back from the service and its
// collaborators to a status and code.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, access.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, "wrong_password", WrapKind(op, ErrUnauthorized, err))
	case errors.Is(err, access.ErrPremiumDisabled):
		writeError(w, http.StatusForbidden, "premium_disabled", WrapKind(op, ErrUnauthorized, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrBatchNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrNoVisionProvider):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
	}
}

func (s *Server) tier(r *http.Request) (model.ModelTier, error) {
	password := r.Header.Get(premiumPasswordHeader)
	if s.tiers == nil {
		if password != "" {
			return "", access.ErrPremiumDisabled
		}
		return model.TierStandard, nil
	}
	return s.tiers.Tier(password)
}
