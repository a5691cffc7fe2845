package recommend

import (
	"cmp"
	"slices"

	"github.com/smallnest/ragagents/rag/store"
)

// Recommendation is a ranked unseen movie
type Recommendation struct {
	Title   string
	Score   float64
	MovieID int
}

// ScoreUnseen adds each neighbor's score to every movie it rated that the
// query user has not rated.
func ScoreUnseen(query map[int]float64, neighbors []store.ScoredPoint) map[int]float64 {
	scores := make(map[int]float64)
	for _, n := range neighbors {
		for _, movie := range movieIDs(n.Payload["movie_id"]) {
			if _, seen := query[movie]; seen {
				continue
			}
			scores[movie] += n.Score
		}
	}
	return scores
}

// movieIDs reads the movie id list of a payload as stored in memory or
// decoded from JSON.
func movieIDs(v any) []int {
	switch ids := v.(type) {
	case []int:
		return ids
	case []uint32:
		out := make([]int, len(ids))
		for i, id := range ids {
			out[i] = int(id)
		}
		return out
	case []any:
		out := make([]int, 0, len(ids))
		for _, id := range ids {
			switch n := id.(type) {
			case int:
				out = append(out, n)
			case int64:
				out = append(out, int(n))
			case float64:
				out = append(out, int(n))
			}
		}
		return out
	}
	return nil
}

// Rank orders scores descending, keeps the best k and resolves titles from
// catalog. Equal scores keep catalog order; movies missing from the catalog
// are dropped after the cut, so fewer than k results may be returned.
func Rank(scores map[int]float64, catalog []Movie, k int) []Recommendation {
	if k <= 0 {
		return nil
	}
	pos := make(map[int]int, len(catalog))
	for i, m := range catalog {
		if _, dup := pos[m.ID]; !dup {
			pos[m.ID] = i
		}
	}
	order := func(id int) int {
		if p, ok := pos[id]; ok {
			return p
		}
		return len(catalog)
	}

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b int) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		if c := cmp.Compare(order(a), order(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(ids) > k {
		ids = ids[:k]
	}

	out := make([]Recommendation, 0, len(ids))
	for _, id := range ids {
		p, ok := pos[id]
		if !ok {
			continue
		}
		out = append(out, Recommendation{Title: catalog[p].Title, Score: scores[id], MovieID: id})
	}
	return out
}
