package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/okian/devstats/internal/domain/model"
	"github.com/okian/devstats/internal/domain/pipeline"
)

// maxBodyBytes caps POST /api/views bodies.
const maxBodyBytes = 64 << 10

// viewRequest is one dashboard selection as sent by a client. Nil pointers
// and a nil Continents mean "not sent" and fall back to the defaults; an
// empty, non-nil Continents is the empty selection.
type viewRequest struct {
	Continents pipeline.ContinentSelection `json:"continents"`
	From       *int                        `json:"from" validate:"omitempty,gte=0"`
	To         *int                        `json:"to" validate:"omitempty,gte=0"`
	Indicator  string                      `json:"indicator" validate:"omitempty,max=64"`
	Bins       int                         `json:"bins" validate:"gte=0"`
}

// parseQueryRequest reads a viewRequest from the URL query. continent may
// repeat or hold a comma-separated list; "continents" is accepted as an alias.
func parseQueryRequest(values url.Values) (viewRequest, error) {
	var req viewRequest

	for _, key := range []string{"continent", "continents"} {
		if vals, ok := values[key]; ok {
			if req.Continents == nil {
				req.Continents = make(pipeline.ContinentSelection, 0, len(vals))
			}
			req.Continents = append(req.Continents, vals...)
		}
	}

	var err error
	if req.From, err = intParam(values, "from"); err != nil {
		return req, err
	}
	if req.To, err = intParam(values, "to"); err != nil {
		return req, err
	}
	if bins, err := intParam(values, "bins"); err != nil {
		return req, err
	} else if bins != nil {
		req.Bins = *bins
	}
	req.Indicator = strings.TrimSpace(values.Get("indicator"))
	return req, nil
}

func intParam(values url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return &n, nil
}

// decodeBodyRequest reads a viewRequest from a JSON body.
func decodeBodyRequest(w http.ResponseWriter, r *http.Request) (viewRequest, error) {
	var req viewRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	return req, nil
}

// defaultsProvider supplies the initial dashboard selection.
type defaultsProvider interface {
	DefaultQuery(ctx context.Context) (pipeline.Query, error)
}

// toQuery fills unset fields of req from the dataset defaults.
func (req viewRequest) toQuery(ctx context.Context, defaults defaultsProvider) (pipeline.Query, error) {
	q, err := defaults.DefaultQuery(ctx)
	if err != nil {
		return pipeline.Query{}, err
	}
	if req.Continents != nil {
		q.Continents = req.Continents.Set()
	}
	if req.From != nil {
		q.Years.From = *req.From
	}
	if req.To != nil {
		q.Years.To = *req.To
	}
	if req.Indicator != "" {
		ind, err := model.ParseIndicator(req.Indicator)
		if err != nil {
			return pipeline.Query{}, err
		}
		q.Indicator = ind
	}
	return q, nil
}
