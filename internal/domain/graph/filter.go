package graph

import (
	"fmt"

	appErrors "synapse-backend/pkg/errors"
)

// ClauseKind identifies one variant of the property-filter mini-language.
type ClauseKind int

const (
	// ClauseEquals matches a scalar property equal to the given value.
	ClauseEquals ClauseKind = iota
	// ClauseArrayContainsOne matches an array property containing the value.
	ClauseArrayContainsOne
	// ClauseArrayContainsAll matches an array property containing all values.
	ClauseArrayContainsAll
)

// Clause is a single validated filter condition on one property key.
type Clause struct {
	Kind   ClauseKind
	Key    string
	Value  any   // Equals / ArrayContainsOne
	Values []any // ArrayContainsAll
}

// ClauseGroup is a set of clauses of which at least one must match.
// A scalar filter value expands into Equals-or-ArrayContainsOne, mirroring
// JSONB structural containment against either a scalar or an array property.
type ClauseGroup []Clause

// Filter is the validated AST of a properties filter: all groups must match.
type Filter []ClauseGroup

// ParseFilter validates a raw properties filter into a Filter AST.
// Supported shapes per key:
//   - scalar (string, number, bool): the property equals the value, or the
//     property is an array containing the value
//   - array of scalars: the property is an array containing all the values
//
// Anything else (nested objects, null, empty keys, empty or mixed arrays)
// is rejected with a validation error rather than silently matching nothing.
func ParseFilter(raw map[string]any) (Filter, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filter := make(Filter, 0, len(raw))
	for key, value := range raw {
		if key == "" {
			return nil, appErrors.NewValidation(appErrors.CodeInvalidFilter,
				"properties filter contains an empty key")
		}
		switch v := value.(type) {
		case string, bool, float64, int, int64, float32:
			filter = append(filter, ClauseGroup{
				{Kind: ClauseEquals, Key: key, Value: v},
				{Kind: ClauseArrayContainsOne, Key: key, Value: v},
			})
		case []any:
			if len(v) == 0 {
				return nil, appErrors.NewValidation(appErrors.CodeInvalidFilter,
					fmt.Sprintf("properties filter for %q is an empty array", key))
			}
			for _, item := range v {
				if !isScalar(item) {
					return nil, appErrors.NewValidation(appErrors.CodeInvalidFilter,
						fmt.Sprintf("properties filter for %q contains a non-scalar element", key))
				}
			}
			filter = append(filter, ClauseGroup{
				{Kind: ClauseArrayContainsAll, Key: key, Values: v},
			})
		default:
			return nil, appErrors.NewValidation(appErrors.CodeInvalidFilter,
				fmt.Sprintf("properties filter for %q has unsupported shape %T", key, value))
		}
	}
	return filter, nil
}

// Matches evaluates the filter against a properties map in memory.
// This mirrors the JSONB containment semantics used by the Postgres store
// and backs the in-memory repository used in tests.
func (f Filter) Matches(props Properties) bool {
	for _, group := range f {
		if !group.matches(props) {
			return false
		}
	}
	return true
}

func (g ClauseGroup) matches(props Properties) bool {
	for _, clause := range g {
		if clause.matches(props) {
			return true
		}
	}
	return false
}

func (c Clause) matches(props Properties) bool {
	value, ok := props[c.Key]
	if !ok {
		return false
	}
	switch c.Kind {
	case ClauseEquals:
		return scalarEqual(value, c.Value)
	case ClauseArrayContainsOne:
		return arrayContains(value, c.Value)
	case ClauseArrayContainsAll:
		for _, want := range c.Values {
			if !arrayContains(value, want) {
				return false
			}
		}
		return true
	}
	return false
}

func arrayContains(value, want any) bool {
	items, ok := value.([]any)
	if !ok {
		// values written from Go code may be typed slices
		if strs, isStr := value.([]string); isStr {
			for _, s := range strs {
				if scalarEqual(s, want) {
					return true
				}
			}
		}
		return false
	}
	for _, item := range items {
		if scalarEqual(item, want) {
			return true
		}
	}
	return false
}

// scalarEqual compares scalars with JSON number semantics: an int written
// from Go must compare equal to the float64 produced by JSON decoding.
func scalarEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, float64, int, int64, float32:
		return true
	}
	return false
}
