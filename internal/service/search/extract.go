package search

import (
	"strings"
	"unicode"
)

// extractEntities pulls likely entity mentions out of a query: quoted
// substrings verbatim, plus capitalized words. The first word of a
// sentence is capitalized by grammar rather than intent, so it only
// counts when it is at least minSentenceInitial runes long.
func extractEntities(query string, minSentenceInitial int) []string {
	seen := make(map[string]struct{})
	var entities []string
	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			return
		}
		key := strings.ToLower(candidate)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		entities = append(entities, candidate)
	}

	remainder := extractQuoted(query, add)

	sentenceStart := true
	for _, token := range strings.Fields(remainder) {
		word := strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		endsSentence := strings.ContainsAny(token, ".!?")
		if word == "" {
			continue
		}
		runes := []rune(word)
		if unicode.IsUpper(runes[0]) {
			if !sentenceStart || len(runes) >= minSentenceInitial {
				add(word)
			}
		}
		sentenceStart = endsSentence
	}
	return entities
}

// extractQuoted feeds double-quoted substrings to add and returns the
// query with those spans removed, so quoted text is not re-tokenized.
func extractQuoted(query string, add func(string)) string {
	var rest strings.Builder
	for {
		open := strings.IndexByte(query, '"')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(query[open+1:], '"')
		if closing < 0 {
			break
		}
		add(query[open+1 : open+1+closing])
		rest.WriteString(query[:open])
		rest.WriteByte(' ')
		query = query[open+closing+2:]
	}
	rest.WriteString(query)
	return rest.String()
}
