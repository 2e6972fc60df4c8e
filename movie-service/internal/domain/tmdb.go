package domain

// TMDBMovie is a movie as returned by TMDB list and detail endpoints.
type TMDBMovie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Runtime      int     `json:"runtime,omitempty"`
	Tagline      string  `json:"tagline,omitempty"`
	Genres       []Genre `json:"genres,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

// TMDBPage is a paginated TMDB list.
type TMDBPage struct {
	Page         int         `json:"page"`
	Results      []TMDBMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

type TMDBCredits struct {
	Cast []struct {
		Name        string `json:"name"`
		Character   string `json:"character"`
		ProfilePath string `json:"profile_path"`
		Order       int    `json:"order"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

// Video is a trailer, teaser or clip.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type TMDBVideos struct {
	Results []Video `json:"results"`
}

type TMDBProviderEntry struct {
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

// TMDBProviders are watch providers keyed by country code.
type TMDBProviders struct {
	Results map[string]struct {
		Link     string              `json:"link"`
		Flatrate []TMDBProviderEntry `json:"flatrate"`
		Rent     []TMDBProviderEntry `json:"rent"`
		Buy      []TMDBProviderEntry `json:"buy"`
	} `json:"results"`
}

type TMDBGenres struct {
	Genres []Genre `json:"genres"`
}

// Trailer returns the first YouTube trailer, or nil.
func (v *TMDBVideos) Trailer() *Video {
	if v == nil {
		return nil
	}
	for _, video := range v.Results {
		if video.Type == "Trailer" && video.Site == "YouTube" {
			t := video
			t.URL = "https://www.youtube.com/watch?v=" + video.Key
			return &t
		}
	}
	return nil
}
