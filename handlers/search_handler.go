package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/upb/document-retrieval/models"
	"github.com/upb/document-retrieval/services"
	"github.com/upb/document-retrieval/services/search"
	"github.com/upb/document-retrieval/utils"
)

const (
	defaultTopK      = 10
	defaultThreshold = 0.5
)

// SearchService defines the interface for the query pipeline
type SearchService interface {
	Search(ctx context.Context, req search.Request) ([]models.ScoredResult, error)
}

// searchParams represents the validated /search query parameters
type searchParams struct {
	Text      string  `validate:"required"`
	TopK      int     `validate:"gte=1,lte=1000"`
	Threshold float64 `validate:"gte=0"`
}

// SearchHandler handles search HTTP requests
type SearchHandler struct {
	service  SearchService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(service SearchService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// HandleSearch handles GET /search
// Thin handler: parameter parsing and status mapping only; the pipeline owns
// admission, caching, retrieval and ranking.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID := r.Header.Get("user_id")
	if callerID == "" {
		_ = utils.WriteBadRequest(w, "Missing user_id header", nil)
		return
	}

	params, err := parseSearchParams(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if err := h.validate.Struct(params); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid search parameters", map[string]interface{}{
			"validation": err.Error(),
		})
		return
	}

	results, err := h.service.Search(ctx, search.Request{
		CallerID:  callerID,
		Text:      params.Text,
		TopK:      params.TopK,
		Threshold: params.Threshold,
	})
	if err != nil {
		h.writeSearchError(w, callerID, params.Text, err)
		return
	}

	if results == nil {
		results = []models.ScoredResult{}
	}
	_ = utils.WriteJSON(w, http.StatusOK, results)
}

// parseSearchParams extracts text, top_k and threshold from the query
// string. Malformed numeric parameters are a client error rather than being
// silently coerced, since coercion would alias distinct cache keys.
func parseSearchParams(r *http.Request) (searchParams, error) {
	q := r.URL.Query()
	params := searchParams{
		Text:      q.Get("text"),
		TopK:      defaultTopK,
		Threshold: defaultThreshold,
	}

	if params.Text == "" {
		return params, errMissingText
	}

	if raw := q.Get("top_k"); raw != "" {
		topK, err := strconv.Atoi(raw)
		if err != nil {
			return params, errInvalidTopK
		}
		params.TopK = topK
	}

	if raw := q.Get("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, errInvalidThreshold
		}
		params.Threshold = threshold
	}

	return params, nil
}

// writeSearchError maps pipeline errors onto HTTP statuses: validation 400,
// quota denial (including fail-closed store failures) 429, everything else a
// generic 500 logged with request context.
func (h *SearchHandler) writeSearchError(w http.ResponseWriter, callerID, query string, err error) {
	switch {
	case services.IsValidationError(err):
		_ = utils.WriteBadRequest(w, err.Error(), nil)
	case services.IsRateLimitError(err):
		_ = utils.WriteTooManyRequests(w, "Rate limit exceeded", nil)
	default:
		h.logger.Error("search request failed",
			zap.String("caller_id", callerID),
			zap.String("query", query),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
	}
}

// Parameter parsing errors
type paramError string

func (e paramError) Error() string { return string(e) }

const (
	errMissingText      = paramError("Missing 'text' parameter in query string")
	errInvalidTopK      = paramError("Invalid 'top_k' parameter: must be an integer")
	errInvalidThreshold = paramError("Invalid 'threshold' parameter: must be a number")
)
