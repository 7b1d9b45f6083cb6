package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Result represents a single TMDB movie search match.
type Result struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	Popularity    float64 `json:"popularity"`
	VoteCount     int64   `json:"vote_count"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// MovieDetails is the subset of /movie/{id} used for library lookups.
type MovieDetails struct {
	ID            int64  `json:"id"`
	IMDbID        string `json:"imdb_id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
}

// Translation is one per-region entry of /movie/{id}/translations.
type Translation struct {
	Region   string `json:"iso_3166_1"`
	Language string `json:"iso_639_1"`
	Name     string `json:"name"`
	Data     struct {
		Title string `json:"title"`
	} `json:"data"`
}

// Translations wraps the translations payload.
type Translations struct {
	ID           int64         `json:"id"`
	Translations []Translation `json:"translations"`
}

// ForRegion returns the translation for region, if present.
func (t *Translations) ForRegion(region string) (Translation, bool) {
	if t == nil {
		return Translation{}, false
	}
	for _, tr := range t.Translations {
		if strings.EqualFold(tr.Region, region) {
			return tr, true
		}
	}
	return Translation{}, false
}

// ReleaseDate is one dated release within a country.
type ReleaseDate struct {
	Certification string `json:"certification"`
	ReleaseDate   string `json:"release_date"`
	Type          int    `json:"type"`
	Note          string `json:"note"`
}

// CountryReleases groups the releases of one country.
type CountryReleases struct {
	Region       string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

// ReleaseDates wraps the /movie/{id}/release_dates payload.
type ReleaseDates struct {
	ID      int64             `json:"id"`
	Results []CountryReleases `json:"results"`
}

// Find returns the first release date of the given type in region, trimmed to
// YYYY-MM-DD.
func (r *ReleaseDates) Find(region string, releaseType int) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, country := range r.Results {
		if !strings.EqualFold(country.Region, region) {
			continue
		}
		for _, rd := range country.ReleaseDates {
			if rd.Type == releaseType && rd.ReleaseDate != "" {
				date := rd.ReleaseDate
				if len(date) > 10 {
					date = date[:10]
				}
				return date, true
			}
		}
	}
	return "", false
}

// Searcher defines the TMDB operations used for title bridging.
type Searcher interface {
	SearchMovieWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error)
	GetMovieTranslations(ctx context.Context, movieID int64) (*Translations, error)
	GetReleaseDates(ctx context.Context, movieID int64) (*ReleaseDates, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables
// throttling.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a TMDB client. Keys that look like v4 read access tokens are
// sent as a bearer header, everything else as the api_key query parameter.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchOptions contains optional parameters for TMDB movie search.
type SearchOptions struct {
	Year int `json:"year,omitempty"`
}

// SearchMovieWithOptions performs a TMDB movie search, restricted to a
// primary release year when one is given.
func (c *Client) SearchMovieWithOptions(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "true")
	params.Set("page", "1")
	if opts.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(opts.Year))
	}

	var payload Response
	if err := c.get(ctx, "/search/movie", params, "search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie details by TMDB ID.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), nil, "movie details", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieTranslations fetches the per-region titles of a movie.
func (c *Client) GetMovieTranslations(ctx context.Context, movieID int64) (*Translations, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload Translations
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/translations", movieID), nil, "translations", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetReleaseDates fetches the per-country release dates of a movie.
func (c *Client) GetReleaseDates(ctx context.Context, movieID int64) (*ReleaseDates, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload ReleaseDates
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/release_dates", movieID), nil, "release dates", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, label string, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	bearer := c.usesBearer()
	if !bearer {
		params.Set("api_key", c.apiKey)
	}
	endpoint.RawQuery = params.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("tmdb %s rate limit: %w", label, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s returned %d (latency=%v)", label, resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", label, err)
	}
	return nil
}

func (c *Client) usesBearer() bool {
	return strings.Count(c.apiKey, ".") == 2
}
