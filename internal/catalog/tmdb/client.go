package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cinematch/internal/retry"
)

// DefaultBaseURL is the public TMDB v3 endpoint.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// ImageBaseURL prefixes TMDB image paths at original size.
const ImageBaseURL = "https://image.tmdb.org/t/p/original"

// Result represents a single TMDB movie entry.
type Result struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
}

// Year returns the release year, or 0 when the entry is undated.
func (r Result) Year() int {
	if len(r.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(r.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Details is the /movie/{id} resource: a search result plus the fields only
// the detail endpoint returns.
type Details struct {
	Result
	IMDbID     string `json:"imdb_id"`
	Runtime    int    `json:"runtime"`
	Status     string `json:"status"`
	PosterPath string `json:"poster_path"`
}

// PosterURL returns the full-size poster URL, or "" when TMDB has none.
func (d Details) PosterURL() string {
	if d.PosterPath == "" {
		return ""
	}
	return ImageBaseURL + d.PosterPath
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// SearchOptions contains optional parameters for TMDB movie search.
type SearchOptions struct {
	Year         int  `json:"year,omitempty"`
	Page         int  `json:"page,omitempty"`
	IncludeAdult bool `json:"include_adult,omitempty"`
}

// StatusError is returned when TMDB answers with a non-200 status.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
	Latency    time.Duration
	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Operation, e.StatusCode, e.Latency)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// HTTPStatus implements retry.StatusError.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// RetryAfter implements retry.RetryAfterError.
func (e *StatusError) RetryAfter() time.Duration { return e.retryAfter }

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	policy     retry.Policy
}

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

// WithRetryPolicy sets the retry policy applied to every request.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		policy:     retry.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovie searches TMDB movies for the supplied title.
func (c *Client) SearchMovie(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", strconv.FormatBool(opts.IncludeAdult))
	if opts.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(opts.Year))
	}
	if opts.Page > 1 {
		params.Set("page", strconv.Itoa(opts.Page))
	}

	var payload Response
	if err := c.get(ctx, "search", "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieDetails fetches one movie by TMDB id. It returns nil and no error when
// TMDB does not know the id.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*Details, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload Details
	err := c.get(ctx, "movie details", "/movie/"+strconv.FormatInt(movieID, 10), url.Values{}, &payload)
	var status *StatusError
	if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	return c.policy.Do(ctx, nil, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			return fmt.Errorf("execute request (latency=%v): %w", latency, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return newStatusError(operation, resp, latency)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode tmdb %s: %w", operation, err)
		}
		return nil
	})
}

func newStatusError(operation string, resp *http.Response, latency time.Duration) *StatusError {
	statusErr := &StatusError{Operation: operation, StatusCode: resp.StatusCode, Latency: latency}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr struct {
		StatusMessage string `json:"status_message"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		statusErr.Message = apiErr.StatusMessage
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && seconds > 0 {
		statusErr.retryAfter = time.Duration(seconds) * time.Second
	}
	return statusErr
}
