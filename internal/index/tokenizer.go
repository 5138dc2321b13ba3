package index

import (
	"regexp"
	"strings"
)

// MaxPrefixLen is the longest prefix registered for each token.
const MaxPrefixLen = 6

// minPrefixLen is the shortest prefix registered for each token.
const minPrefixLen = 2

var splitRegex = regexp.MustCompile(`[^0-9A-Za-z_]+`)

// Tokenize splits text on runs of characters outside [0-9A-Za-z_] and
// lowercases the pieces. Empty pieces are dropped.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	parts := splitRegex.Split(text, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, strings.ToLower(p))
		}
	}
	return tokens
}

// Expand returns the index terms for one token: the token itself followed
// by each prefix of length 2..min(len, MaxPrefixLen). A token of six
// characters or fewer therefore appears twice.
func Expand(token string) []string {
	terms := []string{token}
	limit := min(len(token), MaxPrefixLen)
	for i := minPrefixLen; i <= limit; i++ {
		terms = append(terms, token[:i])
	}
	return terms
}
