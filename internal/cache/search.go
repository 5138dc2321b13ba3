package cache

import (
	"sort"
	"strings"

	"github.com/Aman-CERP/livedoc/internal/index"
)

// Result is one ranked search hit.
type Result struct {
	index.Metadata
	Score int `json:"score"`
}

type queryKey struct {
	gen   uint64
	query string
	limit int
	page  int
}

// Search ranks entries matching every token of query.
//
// An empty query lists modules by key. Otherwise each query token must hit
// the index directly, or through its 6-character prefix when it is longer;
// any token without candidates yields no results. Scores are the summed
// posting counts, once per query token as written, so repeating a token
// repeats its weight. Results are ordered by score, then FQN, then key.
// Pages start at 1.
// The returned slice may be shared with later callers and must not be modified.
func (s *Store) Search(query string, limit, page int) []Result {
	if limit <= 0 {
		limit = s.searchLimit
	}
	if page < 1 {
		page = 1
	}

	gen := s.Current()
	key := queryKey{gen: gen.Seq, query: query, limit: limit, page: page}
	if s.results != nil {
		if hit, ok := s.results.Get(key); ok {
			return hit
		}
	}

	results := paginate(rank(gen.Index, query), limit, page)
	if s.results != nil {
		s.results.Add(key, results)
	}
	return results
}

func rank(ix *index.Index, query string) []Result {
	if strings.TrimSpace(query) == "" {
		keys := ix.ModuleKeys()
		out := make([]Result, len(keys))
		for i, k := range keys {
			out[i] = Result{Metadata: ix.Metadata[k]}
		}
		return out
	}

	tokens := index.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	var scores map[string]int
	for _, tok := range tokens {
		posting := ix.Lookup(tok)
		if len(posting) == 0 && len(tok) > index.MaxPrefixLen {
			posting = ix.Lookup(tok[:index.MaxPrefixLen])
		}
		if len(posting) == 0 {
			return nil
		}

		if scores == nil {
			scores = make(map[string]int, len(posting))
			for k, n := range posting {
				scores[k] = n
			}
			continue
		}
		for k := range scores {
			n, ok := posting[k]
			if !ok {
				delete(scores, k)
				continue
			}
			scores[k] += n
		}
		if len(scores) == 0 {
			return nil
		}
	}

	out := make([]Result, 0, len(scores))
	for k, n := range scores {
		out = append(out, Result{Metadata: ix.Metadata[k], Score: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.FQN != b.FQN {
			return a.FQN < b.FQN
		}
		return a.Key < b.Key
	})
	return out
}

// paginate expects limit and page >= 1. Pages past the end are empty; the
// bound is checked before multiplying so huge pages cannot overflow.
func paginate(results []Result, limit, page int) []Result {
	if len(results) == 0 || page-1 > (len(results)-1)/limit {
		return []Result{}
	}
	start := (page - 1) * limit
	end := min(start+limit, len(results))
	return results[start:end]
}
