package recommend

import (
	"cmp"
	"math"
	"slices"

	"github.com/smallnest/ragagents/rag/store"
)

// UserMovieRating is the mean normalized rating of one user for one movie
type UserMovieRating struct {
	UserID  int
	MovieID int
	Rating  float64
}

// Normalize returns a copy of ratings as z-scores over all ratings, using
// the sample standard deviation. When the deviation is zero or undefined the
// values are only centred.
func Normalize(ratings []Rating) []Rating {
	out := slices.Clone(ratings)
	n := len(out)
	if n == 0 {
		return out
	}

	var sum float64
	for _, r := range out {
		sum += r.Rating
	}
	mean := sum / float64(n)

	std := 0.0
	if n > 1 {
		var sq float64
		for _, r := range out {
			d := r.Rating - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	for i := range out {
		out[i].Rating -= mean
		if std > 0 {
			out[i].Rating /= std
		}
	}
	return out
}

// Aggregate joins ratings with the catalog and averages repeated ratings of
// the same movie by the same user. Ratings of unknown movies are dropped.
// The result is ordered by user then movie.
func Aggregate(ratings []Rating, movies []Movie) []UserMovieRating {
	known := make(map[int]struct{}, len(movies))
	for _, m := range movies {
		known[m.ID] = struct{}{}
	}

	type key struct{ user, movie int }
	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[key]*acc)
	for _, r := range ratings {
		if _, ok := known[r.MovieID]; !ok {
			continue
		}
		k := key{r.UserID, r.MovieID}
		a := groups[k]
		if a == nil {
			a = &acc{}
			groups[k] = a
		}
		a.sum += r.Rating
		a.n++
	}

	out := make([]UserMovieRating, 0, len(groups))
	for k, a := range groups {
		out = append(out, UserMovieRating{UserID: k.user, MovieID: k.movie, Rating: a.sum / float64(a.n)})
	}
	slices.SortFunc(out, func(a, b UserMovieRating) int {
		if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
			return c
		}
		return cmp.Compare(a.MovieID, b.MovieID)
	})
	return out
}

// ToSparseVectors builds one rating vector per user: indices are movie ids
// and values the aggregated ratings, in the order of agg.
func ToSparseVectors(agg []UserMovieRating) map[int]store.SparseVector {
	vectors := make(map[int]store.SparseVector)
	for _, r := range agg {
		v := vectors[r.UserID]
		v.Indices = append(v.Indices, uint32(r.MovieID))
		v.Values = append(v.Values, float32(r.Rating))
		vectors[r.UserID] = v
	}
	return vectors
}

// QueryVector converts a user's ratings into a sparse vector ordered by movie id.
func QueryVector(ratings map[int]float64) store.SparseVector {
	ids := make([]int, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	v := store.SparseVector{Indices: make([]uint32, len(ids)), Values: make([]float32, len(ids))}
	for i, id := range ids {
		v.Indices[i] = uint32(id)
		v.Values[i] = float32(ratings[id])
	}
	return v
}
