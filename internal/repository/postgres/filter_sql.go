package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"synapse-backend/internal/domain/graph"
)

// filterToSQL renders a validated property filter as JSONB containment
// predicates against the given column. Each clause group becomes an OR of
// `properties @> doc` checks; groups are ANDed by the caller joining the
// returned fragments. Arguments are appended to args and referenced by
// position, continuing from the supplied offset.
func filterToSQL(filter graph.Filter, column string, args []any) (conds []string, outArgs []any, err error) {
	outArgs = args
	for _, group := range filter {
		parts := make([]string, 0, len(group))
		for _, clause := range group {
			doc, marshalErr := clauseDocument(clause)
			if marshalErr != nil {
				return nil, nil, marshalErr
			}
			outArgs = append(outArgs, doc)
			parts = append(parts, fmt.Sprintf("%s @> $%d::jsonb", column, len(outArgs)))
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}
	return conds, outArgs, nil
}

// clauseDocument builds the containment document for one clause:
// Equals → {key: value}, ArrayContainsOne → {key: [value]},
// ArrayContainsAll → {key: values}.
func clauseDocument(clause graph.Clause) ([]byte, error) {
	var value any
	switch clause.Kind {
	case graph.ClauseEquals:
		value = clause.Value
	case graph.ClauseArrayContainsOne:
		value = []any{clause.Value}
	case graph.ClauseArrayContainsAll:
		value = clause.Values
	default:
		return nil, fmt.Errorf("unknown filter clause kind %d", clause.Kind)
	}
	return json.Marshal(map[string]any{clause.Key: value})
}
