package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"synapse-backend/internal/domain/graph"
	"synapse-backend/internal/repository"
	graphsvc "synapse-backend/internal/service/graph"
	"synapse-backend/pkg/api"
	appErrors "synapse-backend/pkg/errors"
	"synapse-backend/pkg/observability"
)

// GraphHandler serves node and edge CRUD plus the traversal operations.
type GraphHandler struct {
	service  *graphsvc.Service
	repo     repository.GraphRepository
	validate *validator.Validate
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewGraphHandler creates the graph HTTP handler.
func NewGraphHandler(service *graphsvc.Service, repo repository.GraphRepository,
	metrics *observability.Metrics, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		service:  service,
		repo:     repo,
		validate: validator.New(),
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes mounts the graph endpoints.
func (h *GraphHandler) RegisterRoutes(r chi.Router) {
	r.Post("/nodes", h.CreateNode)
	r.Get("/nodes/{nodeID}", h.GetNode)
	r.Delete("/nodes/{nodeID}", h.DeleteNode)
	r.Post("/edges", h.CreateEdge)
	r.Get("/edges", h.GetEdge)
	r.Patch("/edges/{edgeID}/properties", h.UpdateEdgeProperties)
	r.Post("/graph/neighbors", h.QueryNeighbors)
	r.Post("/graph/path", h.FindPath)
}

func (h *GraphHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req api.CreateNodeRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	node, err := h.repo.UpsertNode(r.Context(), req.Label, req.Name, graph.Properties(req.Properties))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, node)
}

func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.repo.FindNodeByID(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, node)
}

func (h *GraphHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteNode(r.Context(), chi.URLParam(r, "nodeID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusNoContent, nil)
}

// edgeResponse surfaces the entrenchment level alongside the raw edge, so
// clients do not dig it out of the properties map.
type edgeResponse struct {
	*graph.Edge
	EntrenchmentLevel string `json:"entrenchment_level"`
}

func newEdgeResponse(edge *graph.Edge) edgeResponse {
	return edgeResponse{Edge: edge, EntrenchmentLevel: edge.EntrenchmentLevel()}
}

func (h *GraphHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req api.CreateEdgeRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	weight := 1.0
	if req.Weight != nil {
		weight = *req.Weight
	}
	edge, err := h.repo.UpsertEdge(r.Context(), req.SourceID, req.TargetID, req.Relation,
		weight, graph.Properties(req.Properties), req.EdgeType)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, newEdgeResponse(edge))
}

// GetEdge looks up an edge by its identifying triple, passed as query
// parameters: ?source_id=...&target_id=...&relation=...
func (h *GraphHandler) GetEdge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sourceID, targetID, relation := q.Get("source_id"), q.Get("target_id"), q.Get("relation")
	if sourceID == "" || targetID == "" || relation == "" {
		api.ErrorWithCode(w, http.StatusBadRequest, appErrors.CodeMissingParameter,
			"source_id, target_id and relation are required")
		return
	}
	edge, err := h.repo.FindEdge(r.Context(), sourceID, targetID, relation)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, newEdgeResponse(edge))
}

func (h *GraphHandler) UpdateEdgeProperties(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateEdgePropertiesRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	edge, err := h.repo.UpdateEdgeProperties(r.Context(), chi.URLParam(r, "edgeID"),
		graph.Properties(req.Properties))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, newEdgeResponse(edge))
}

func (h *GraphHandler) QueryNeighbors(w http.ResponseWriter, r *http.Request) {
	var req api.NeighborsRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	filter, err := graph.ParseFilter(req.PropertiesFilter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	nodeID := req.NodeID
	if nodeID == "" {
		if req.NodeName == "" {
			api.ErrorWithCode(w, http.StatusBadRequest, appErrors.CodeMissingParameter,
				"node_id or node_name is required")
			return
		}
		node, err := h.repo.FindNodeByName(r.Context(), req.NodeName)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		nodeID = node.ID
	}

	start := time.Now()
	neighbors, err := h.service.QueryNeighbors(r.Context(), nodeID, graphsvc.NeighborOptions{
		Relation:          req.Relation,
		MaxDepth:          req.MaxDepth,
		Direction:         graph.Direction(req.Direction),
		Filter:            filter,
		IncludeSuperseded: req.IncludeSuperseded,
	})
	if h.metrics != nil {
		h.metrics.ObserveGraphQuery("neighbors", err, time.Since(start))
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]any{
		"neighbors": neighbors,
		"count":     len(neighbors),
	})
}

func (h *GraphHandler) FindPath(w http.ResponseWriter, r *http.Request) {
	var req api.PathRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	start := time.Now()
	result, err := h.service.FindPath(r.Context(), req.StartName, req.EndName, req.MaxDepth)
	if h.metrics != nil {
		h.metrics.ObserveGraphQuery("path", err, time.Since(start))
	}
	if err != nil {
		// A timed-out search still reports the paths confirmed before the
		// budget ran out.
		if appErrors.IsTimeout(err) && result != nil {
			api.Success(w, http.StatusGatewayTimeout, map[string]any{
				"error":   "path search exceeded its time budget",
				"code":    appErrors.CodePathTimeout,
				"partial": result,
			})
			return
		}
		writeError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}
