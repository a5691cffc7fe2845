// Package recommend implements a collaborative movie recommender over
// MovieLens data: per-user sparse rating vectors are stored in a sparse
// index and a new user's ratings are scored against their nearest neighbors.
package recommend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MoviesFile is the MovieLens movie catalog file name
	MoviesFile = "movies.csv"
	// RatingsFile is the MovieLens ratings file name
	RatingsFile = "ratings.csv"
)

// Movie is one catalog entry. Year is 0 when the title carries none.
type Movie struct {
	ID     int
	Title  string
	Genres []string
	Year   int
}

// Rating is one user rating of a movie
type Rating struct {
	UserID    int
	MovieID   int
	Rating    float64
	Timestamp int64
}

var yearRe = regexp.MustCompile(`\((\d{4})\)`)

// ParseYear extracts the first "(YYYY)" of a movie title.
func ParseYear(title string) (int, bool) {
	m := yearRe.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// LoadMovies reads a movieId,title,genres CSV with a header row.
func LoadMovies(r io.Reader) ([]Movie, error) {
	var movies []Movie
	err := readCSV(r, []string{"movieId", "title", "genres"}, func(line int, rec []string) error {
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return fmt.Errorf("line %d: invalid movieId %q", line, rec[0])
		}
		m := Movie{ID: id, Title: rec[1]}
		if rec[2] != "" && rec[2] != "(no genres listed)" {
			m.Genres = strings.Split(rec[2], "|")
		}
		m.Year, _ = ParseYear(m.Title)
		movies = append(movies, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load movies: %w", err)
	}
	return movies, nil
}

// LoadRatings reads a userId,movieId,rating,timestamp CSV with a header row.
func LoadRatings(r io.Reader) ([]Rating, error) {
	var ratings []Rating
	err := readCSV(r, []string{"userId", "movieId", "rating", "timestamp"}, func(line int, rec []string) error {
		user, err := strconv.Atoi(rec[0])
		if err != nil {
			return fmt.Errorf("line %d: invalid userId %q", line, rec[0])
		}
		movie, err := strconv.Atoi(rec[1])
		if err != nil {
			return fmt.Errorf("line %d: invalid movieId %q", line, rec[1])
		}
		value, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid rating %q", line, rec[2])
		}
		var ts int64
		if rec[3] != "" {
			if ts, err = strconv.ParseInt(rec[3], 10, 64); err != nil {
				return fmt.Errorf("line %d: invalid timestamp %q", line, rec[3])
			}
		}
		ratings = append(ratings, Rating{UserID: user, MovieID: movie, Rating: value, Timestamp: ts})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	return ratings, nil
}

// readCSV checks the header and hands every record to fn. Columns are
// matched by name so extra columns are allowed.
func readCSV(r io.Reader, columns []string, fn func(line int, rec []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("empty file")
	}
	if err != nil {
		return err
	}
	pos := make([]int, len(columns))
	for i, col := range columns {
		pos[i] = -1
		for j, h := range header {
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == col {
				pos[i] = j
				break
			}
		}
		if pos[i] < 0 {
			return fmt.Errorf("missing column %q", col)
		}
	}

	rec := make([]string, len(columns))
	line := 1
	for {
		raw, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line++
		for i, p := range pos {
			if p >= len(raw) {
				return fmt.Errorf("line %d: missing column %q", line, columns[i])
			}
			rec[i] = strings.TrimSpace(raw[p])
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

// LoadDir reads movies.csv and ratings.csv from dir.
func LoadDir(dir string) ([]Movie, []Rating, error) {
	mf, err := os.Open(filepath.Join(dir, MoviesFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open movies: %w", err)
	}
	defer mf.Close()
	movies, err := LoadMovies(mf)
	if err != nil {
		return nil, nil, err
	}

	rf, err := os.Open(filepath.Join(dir, RatingsFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ratings: %w", err)
	}
	defer rf.Close()
	ratings, err := LoadRatings(rf)
	if err != nil {
		return nil, nil, err
	}
	return movies, ratings, nil
}

// FilterByYear keeps movies released in startYear or later and the ratings
// of those movies. Movies without a year are dropped.
func FilterByYear(movies []Movie, ratings []Rating, startYear int) ([]Movie, []Rating) {
	keep := make(map[int]struct{})
	var fm []Movie
	for _, m := range movies {
		if m.Year == 0 || m.Year < startYear {
			continue
		}
		fm = append(fm, m)
		keep[m.ID] = struct{}{}
	}

	var fr []Rating
	for _, r := range ratings {
		if _, ok := keep[r.MovieID]; ok {
			fr = append(fr, r)
		}
	}
	return fm, fr
}
