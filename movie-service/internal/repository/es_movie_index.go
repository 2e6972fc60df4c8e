package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
)

type esMovieIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewESMovieIndex creates an Elasticsearch-based index of saved movies.
func NewESMovieIndex(client *elasticsearch.Client, index string) MovieIndex {
	return &esMovieIndex{
		client: client,
		index:  index,
	}
}

// esMovie is the indexed document. The TMDB ID is also the document ID.
type esMovie struct {
	TMDBID       int            `json:"tmdb_id"`
	Title        string         `json:"title"`
	Overview     string         `json:"overview"`
	PosterPath   string         `json:"poster_path"`
	BackdropPath string         `json:"backdrop_path"`
	ReleaseDate  string         `json:"release_date"`
	VoteAverage  float64        `json:"vote_average"`
	VoteCount    int            `json:"vote_count"`
	Runtime      int            `json:"runtime"`
	Genres       []domain.Genre `json:"genres"`
}

func (r *esMovieIndex) Index(ctx context.Context, m *domain.Movie) error {
	data, err := json.Marshal(esMovie{
		TMDBID:       m.TMDBID,
		Title:        m.Title,
		Overview:     m.Overview,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		ReleaseDate:  m.ReleaseDate,
		VoteAverage:  m.VoteAverage,
		VoteCount:    m.VoteCount,
		Runtime:      m.Runtime,
		Genres:       m.Genres,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal movie: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(data),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(strconv.Itoa(m.TMDBID)),
	)
	if err != nil {
		return fmt.Errorf("failed to index movie: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (r *esMovieIndex) Search(ctx context.Context, query string, limit int) ([]*domain.Movie, error) {
	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^3", "overview"},
				"fuzziness": "AUTO",
			},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	movies := make([]*domain.Movie, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc esMovie
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		movies = append(movies, &domain.Movie{
			TMDBID:       doc.TMDBID,
			Title:        doc.Title,
			Overview:     doc.Overview,
			PosterPath:   doc.PosterPath,
			BackdropPath: doc.BackdropPath,
			ReleaseDate:  doc.ReleaseDate,
			VoteAverage:  doc.VoteAverage,
			VoteCount:    doc.VoteCount,
			Runtime:      doc.Runtime,
			Genres:       doc.Genres,
		})
	}

	return movies, nil
}

// esResponse is the generic Elasticsearch search response structure.
type esResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
