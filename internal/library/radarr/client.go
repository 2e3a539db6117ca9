package radarr

import (
	"bytes"
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

const defaultTimeout = 30 * time.Second

// HTTPDoer describes the HTTP client used by the Radarr client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("radarr %s returned %d: %s", e.Operation, e.StatusCode, e.Body)
}

// HTTPStatus implements retry.StatusError.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// RetryAfter implements retry.RetryAfterError.
func (e *StatusError) RetryAfter() time.Duration { return e.retryAfter }

// AlreadyExists reports whether Radarr rejected an add because the movie is
// already in the library.
func (e *StatusError) AlreadyExists() bool {
	if e.StatusCode != http.StatusBadRequest {
		return false
	}
	var failures []validationFailure
	if json.Unmarshal([]byte(e.Body), &failures) == nil {
		for _, f := range failures {
			if f.ErrorCode == "MovieExistsValidator" || strings.Contains(strings.ToLower(f.ErrorMessage), "already been added") {
				return true
			}
		}
		return false
	}
	lower := strings.ToLower(e.Body)
	return strings.Contains(lower, "movieexistsvalidator") || strings.Contains(lower, "already been added")
}

// IsAlreadyExists reports whether err is an "already exists" rejection.
func IsAlreadyExists(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.AlreadyExists()
}

// Client talks to one Radarr instance.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
	policy  retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithRetryPolicy sets the retry policy applied to requests.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// New creates a Radarr client.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("radarr url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("radarr api key required")
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
		policy:  retry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LookupByTMDB returns the library movie with the given TMDB id, or nil when
// the library does not have it.
func (c *Client) LookupByTMDB(ctx context.Context, tmdbID int64) (*Movie, error) {
	if tmdbID <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	query := url.Values{}
	query.Set("tmdbId", strconv.FormatInt(tmdbID, 10))
	var movies []Movie
	if err := c.do(ctx, "movie lookup", http.MethodGet, "/api/v3/movie", query, nil, &movies); err != nil {
		return nil, err
	}
	for i := range movies {
		if movies[i].TMDBID == tmdbID {
			return &movies[i], nil
		}
	}
	return nil, nil
}

// AddMovie adds a movie and returns the created resource.
func (c *Client) AddMovie(ctx context.Context, movie Movie) (*Movie, error) {
	if movie.TMDBID <= 0 {
		return nil, errors.New("tmdb id must be positive")
	}
	if movie.Tags == nil {
		movie.Tags = []int{}
	}
	var created Movie
	if err := c.do(ctx, "movie add", http.MethodPost, "/api/v3/movie", nil, movie, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Tags lists all tags.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.do(ctx, "tag list", http.MethodGet, "/api/v3/tag", nil, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag creates a tag with the given label.
func (c *Client) CreateTag(ctx context.Context, label string) (*Tag, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, errors.New("tag label required")
	}
	var tag Tag
	if err := c.do(ctx, "tag create", http.MethodPost, "/api/v3/tag", nil, Tag{Label: label}, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// RunCommand queues a command.
func (c *Client) RunCommand(ctx context.Context, cmd Command) (*Command, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, errors.New("command name required")
	}
	var queued Command
	if err := c.do(ctx, "command", http.MethodPost, "/api/v3/command", nil, cmd, &queued); err != nil {
		return nil, err
	}
	return &queued, nil
}

// SystemStatus fetches the instance status. It makes a single attempt.
func (c *Client) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	var status SystemStatus
	single := *c
	single.policy = retry.None()
	if err := single.do(ctx, "system status", http.MethodGet, "/api/v3/system/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var encoded []byte
	if body != nil {
		var err error
		if encoded, err = json.Marshal(body); err != nil {
			return fmt.Errorf("radarr %s: encode body: %w", operation, err)
		}
	}

	return c.policy.Do(ctx, nil, func(ctx context.Context) error {
		var reader io.Reader
		if encoded != nil {
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("radarr %s: build request: %w", operation, err)
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("radarr %s: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusMultipleChoices {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			statusErr := &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
			if seconds, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && seconds > 0 {
				statusErr.retryAfter = time.Duration(seconds) * time.Second
			}
			return statusErr
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("radarr %s: decode response: %w", operation, err)
		}
		return nil
	})
}
