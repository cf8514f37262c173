package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"synapse-backend/internal/service/search"
	"synapse-backend/pkg/api"
)

// SearchHandler serves the hybrid search endpoint.
type SearchHandler struct {
	service  *search.Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewSearchHandler creates the search HTTP handler.
func NewSearchHandler(service *search.Service, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes mounts the search endpoints.
func (h *SearchHandler) RegisterRoutes(r chi.Router) {
	r.Post("/search", h.HybridSearch)
}

func (h *SearchHandler) HybridSearch(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	result, err := h.service.HybridSearch(r.Context(), req.Query, req.TopK, req.Weights)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}
