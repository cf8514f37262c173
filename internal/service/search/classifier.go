package search

import "strings"

// QueryType selects which default weight profile applies to a query.
type QueryType string

const (
	// QueryStandard favors the semantic index.
	QueryStandard QueryType = "standard"
	// QueryRelational shifts weight toward the graph source for queries
	// asking about connections between things.
	QueryRelational QueryType = "relational"
)

// classify matches the query against the configured relational keywords,
// case-insensitively. A single hit is enough.
func classify(query string, keywords []string) QueryType {
	lowered := strings.ToLower(query)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return QueryRelational
		}
	}
	return QueryStandard
}
