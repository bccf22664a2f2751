// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/okian/devstats/internal/domain/model"
	"github.com/okian/devstats/internal/domain/pipeline"
	"github.com/okian/devstats/internal/domain/types"
	"github.com/okian/devstats/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Options describes the dashboard controls.
	Options(ctx context.Context) (types.Options, error)
	// DefaultQuery is the selection used for fields a request leaves out.
	DefaultQuery(ctx context.Context) (pipeline.Query, error)

	// View computations. bins <= 0 selects the service default.
	Views(ctx context.Context, q pipeline.Query, bins int) (types.Views, error)
	TimeSeries(ctx context.Context, q pipeline.Query) (types.TimeSeries, error)
	TopCountries(ctx context.Context, q pipeline.Query) (types.TopCountries, error)
	Histogram(ctx context.Context, q pipeline.Query, bins int) (types.Histogram, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	optionsHandler *OptionsHandler
	viewsHandler   *ViewsHandler

	maxBins int
	logger  logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxHistogramBins caps the bins query parameter.
func WithMaxHistogramBins(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBins = n
		}
	}
}

// WithLogger sets the logger used for request errors.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxBins: 200}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.optionsHandler = NewOptionsHandler(deps, s.logger)
	s.viewsHandler = NewViewsHandler(deps, s.maxBins, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(path, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(path, MetricsMiddleware(RequestIDMiddleware(h), endpoint))
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/api/options", "options", s.optionsHandler.HandleGetOptions)
	route("/api/views", "views", s.viewsHandler.HandleViews)
	route("/api/timeseries", "timeseries", s.viewsHandler.HandleTimeSeries)
	route("/api/top", "top", s.viewsHandler.HandleTop)
	route("/api/histogram", "histogram", s.viewsHandler.HandleHistogram)
}

type errorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

// writeJSON encodes v before writing any header. On error w is untouched.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeResponse, err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
	return nil
}

// respond writes v with 200 OK, or a 500 when v cannot be encoded.
func respond(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, v any) {
	if err := writeJSON(w, http.StatusOK, v); err != nil {
		fail(ctx, w, log, Wrap(op, err))
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	resp := errorResponse{Code: code, Message: msg}
	var ve *validationError
	if errors.As(err, &ve) {
		resp.Fields = ve.fields
	}
	if err := writeJSON(w, status, resp); err != nil {
		http.Error(w, msg, status)
	}
}

// classify maps a domain error to its HTTP status and error code.
func classify(err error) (int, string) {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, model.ErrUnknownIndicator):
		return http.StatusBadRequest, "unknown_indicator"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, pipeline.ErrInvalidBins),
		errors.Is(err, pipeline.ErrInvalidLimit),
		errors.Is(err, pipeline.ErrInvalidSelection):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail logs server-side failures and writes the classified error.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.With(logger.String("requestID", RequestIDFromContext(ctx))).
			Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}
