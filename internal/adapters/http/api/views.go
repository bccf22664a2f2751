package api

import (
	"fmt"
	"net/http"

	"github.com/okian/devstats/internal/domain/pipeline"
	"github.com/okian/devstats/pkg/logger"
)

// ViewsHandler serves the three dashboard views.
type ViewsHandler struct {
	deps    Dependencies
	maxBins int
	logger  logger.Logger
}

// NewViewsHandler creates a new views handler.
func NewViewsHandler(deps Dependencies, maxBins int, log logger.Logger) *ViewsHandler {
	return &ViewsHandler{deps: deps, maxBins: maxBins, logger: log}
}

// HandleViews handles GET /api/views?continent=..&from=..&to=..&indicator=..
// and POST /api/views with a JSON selection. Both return all three views.
func (h *ViewsHandler) HandleViews(w http.ResponseWriter, r *http.Request) {
	const op = "api.views"
	var (
		req viewRequest
		err error
	)
	switch r.Method {
	case http.MethodGet:
		req, err = parseQueryRequest(r.URL.Query())
	case http.MethodPost:
		req, err = decodeBodyRequest(w, r)
	default:
		methodNotAllowed(w, op, http.MethodGet, http.MethodPost)
		return
	}
	if err != nil {
		fail(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}

	q, err := h.query(r, op, req)
	if err != nil {
		fail(r.Context(), w, h.logger, err)
		return
	}
	views, err := h.deps.Views(r.Context(), q, req.Bins)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	respond(r.Context(), w, h.logger, op, views)
}

// HandleTimeSeries handles GET /api/timeseries.
func (h *ViewsHandler) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	const op = "api.timeseries"
	q, _, ok := h.getQuery(w, r, op)
	if !ok {
		return
	}
	ts, err := h.deps.TimeSeries(r.Context(), q)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	respond(r.Context(), w, h.logger, op, ts)
}

// HandleTop handles GET /api/top.
func (h *ViewsHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.top"
	q, _, ok := h.getQuery(w, r, op)
	if !ok {
		return
	}
	top, err := h.deps.TopCountries(r.Context(), q)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	respond(r.Context(), w, h.logger, op, top)
}

// HandleHistogram handles GET /api/histogram.
func (h *ViewsHandler) HandleHistogram(w http.ResponseWriter, r *http.Request) {
	const op = "api.histogram"
	q, req, ok := h.getQuery(w, r, op)
	if !ok {
		return
	}
	hist, err := h.deps.Histogram(r.Context(), q, req.Bins)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	respond(r.Context(), w, h.logger, op, hist)
}

// getQuery parses a GET selection. On failure it has already written the
// response and returns ok == false.
func (h *ViewsHandler) getQuery(w http.ResponseWriter, r *http.Request, op string) (pipeline.Query, viewRequest, bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return pipeline.Query{}, viewRequest{}, false
	}
	req, err := parseQueryRequest(r.URL.Query())
	if err != nil {
		fail(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return pipeline.Query{}, viewRequest{}, false
	}
	q, err := h.query(r, op, req)
	if err != nil {
		fail(r.Context(), w, h.logger, err)
		return pipeline.Query{}, viewRequest{}, false
	}
	return q, req, true
}

// query validates req and resolves it against the dataset defaults.
func (h *ViewsHandler) query(r *http.Request, op string, req viewRequest) (pipeline.Query, error) {
	if err := validateStruct(&req); err != nil {
		return pipeline.Query{}, Wrap(op, err)
	}
	if req.Bins > h.maxBins {
		return pipeline.Query{}, WrapKind(op, ErrBadRequest, fmt.Errorf("bins must be at most %d", h.maxBins))
	}
	q, err := req.toQuery(r.Context(), h.deps)
	if err != nil {
		return pipeline.Query{}, Wrap(op, err)
	}
	return q, nil
}

func methodNotAllowed(w http.ResponseWriter, op string, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
}
