package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/smallnest/ragagents/config"
	"github.com/smallnest/ragagents/log"
	"github.com/smallnest/ragagents/rag/store"
)

const (
	DefaultCollection    = "movies"
	DefaultVectorName    = "ratings"
	DefaultNeighborLimit = 20
	DefaultTopK          = 7
)

// Option configures a Recommender
type Option func(*Recommender)

// WithCollection sets the collection and sparse vector names
func WithCollection(collection, vectorName string) Option {
	return func(r *Recommender) {
		if collection != "" {
			r.collection = collection
		}
		if vectorName != "" {
			r.vectorName = vectorName
		}
	}
}

// WithNeighborLimit sets how many similar users are considered
func WithNeighborLimit(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.neighborLimit = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(r *Recommender) {
		r.logger = log.OrNoOp(logger)
	}
}

// Recommender stores user rating vectors and recommends unseen movies.
type Recommender struct {
	index         *store.SparseIndex
	collection    string
	vectorName    string
	neighborLimit int
	logger        log.Logger
}

// New creates a recommender over index
func New(index *store.SparseIndex, opts ...Option) *Recommender {
	r := &Recommender{
		index:         index,
		collection:    DefaultCollection,
		vectorName:    DefaultVectorName,
		neighborLimit: DefaultNeighborLimit,
		logger:        log.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig creates a recommender from the recommend config section.
func NewFromConfig(index *store.SparseIndex, cfg config.Recommend, logger log.Logger) *Recommender {
	return New(index,
		WithCollection(cfg.Collection, cfg.VectorName),
		WithNeighborLimit(cfg.NeighborLimit),
		WithLogger(logger),
	)
}

// Setup creates the collection. With deleteExisting an existing collection
// is dropped first; otherwise an existing collection is kept.
func (r *Recommender) Setup(deleteExisting bool) error {
	if r.index.CollectionExists(r.collection) {
		if !deleteExisting {
			return nil
		}
		r.index.DeleteCollection(r.collection)
		r.logger.Info("deleted collection %s", r.collection)
	}
	return r.index.CreateCollection(r.collection, r.vectorName)
}

// Upload stores one point per user with payload user_id and movie_id.
func (r *Recommender) Upload(vectors map[int]store.SparseVector) error {
	users := make([]int, 0, len(vectors))
	for u := range vectors {
		users = append(users, u)
	}
	slices.Sort(users)

	points := make([]store.SparsePoint, 0, len(users))
	for _, u := range users {
		v := vectors[u]
		movies := make([]int, len(v.Indices))
		for i, idx := range v.Indices {
			movies[i] = int(idx)
		}
		points = append(points, store.SparsePoint{
			ID:      strconv.Itoa(u),
			Vectors: map[string]store.SparseVector{r.vectorName: v},
			Payload: map[string]any{"user_id": u, "movie_id": movies},
		})
	}
	if err := r.index.Upsert(r.collection, points...); err != nil {
		return fmt.Errorf("failed to upload rating vectors: %w", err)
	}
	r.logger.Info("uploaded %d user vectors to %s", len(points), r.collection)
	return nil
}

// Recommend returns at most k movies the user has not rated, scored by the
// similarity of the users who rated them.
func (r *Recommender) Recommend(ctx context.Context, ratings map[int]float64, catalog []Movie, k int) ([]Recommendation, error) {
	if len(ratings) == 0 {
		return nil, errors.New("at least one rating is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	neighbors, err := r.index.Search(r.collection, r.vectorName, QueryVector(ratings), r.neighborLimit)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("found %d neighbors", len(neighbors))

	return Rank(ScoreUnseen(ratings, neighbors), catalog, k), nil
}

// Dataset is the prepared MovieLens data
type Dataset struct {
	Movies  []Movie
	Vectors map[int]store.SparseVector
}

// Prepare loads dir, keeps movies from startYear on, normalizes and
// aggregates the ratings and builds the user vectors.
func Prepare(dir string, startYear int) (*Dataset, error) {
	movies, ratings, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	movies, ratings = FilterByYear(movies, ratings, startYear)
	agg := Aggregate(Normalize(ratings), movies)
	return &Dataset{Movies: movies, Vectors: ToSparseVectors(agg)}, nil
}
