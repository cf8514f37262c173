package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appErrors "synapse-backend/pkg/errors"
)

// HTTPSearcher queries an external ranked index over HTTP. Both the
// semantic and the keyword index speak the same small JSON contract:
// POST {"query": ..., "top_k": ...} → {"results": [{"id": ..., "score": ...}]}.
type HTTPSearcher struct {
	url    string
	client *http.Client
}

// NewHTTPSearcher creates a searcher for the index at url.
func NewHTTPSearcher(url string) *HTTPSearcher {
	return &HTTPSearcher{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Results []ScoredItem `json:"results"`
}

func (s *HTTPSearcher) Search(ctx context.Context, query string, topK int) ([]ScoredItem, error) {
	body, err := json.Marshal(searchRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, appErrors.NewInternal("encode search request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.NewInternal("build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, appErrors.NewTransient("search index unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.NewTransient(
			fmt.Sprintf("search index returned status %d", resp.StatusCode), nil)
	}
	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, appErrors.NewTransient("decode search response", err)
	}
	return decoded.Results, nil
}

var _ Searcher = (*HTTPSearcher)(nil)
