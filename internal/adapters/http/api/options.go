package api

import (
	"context"
	"net/http"

	"github.com/okian/devstats/internal/domain/types"
	"github.com/okian/devstats/pkg/logger"
)

// OptionsDependencies defines the interface for control metadata.
type OptionsDependencies interface {
	Options(ctx context.Context) (types.Options, error)
}

// OptionsHandler serves the dashboard control metadata.
type OptionsHandler struct {
	deps   OptionsDependencies
	logger logger.Logger
}

// NewOptionsHandler creates a new options handler.
func NewOptionsHandler(deps OptionsDependencies, log logger.Logger) *OptionsHandler {
	return &OptionsHandler{deps: deps, logger: log}
}

// HandleGetOptions handles GET /api/options: continents, year bounds and
// marks, indicator choices and the default selection.
func (h *OptionsHandler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	const op = "api.options"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, op, http.MethodGet)
		return
	}
	opts, err := h.deps.Options(r.Context())
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	respond(r.Context(), w, h.logger, op, opts)
}
