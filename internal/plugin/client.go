package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"medley/internal/services"
)

const defaultTimeout = 10 * time.Second

// Client talks to one Radarr or Sonarr instance over its v3 REST API.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
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

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient creates a metadata client. The name becomes the namespace the
// source's fields appear under during rule evaluation.
func NewClient(name, baseURL, apiKey string, opts ...Option) (*Client, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return nil, errors.New("plugin name required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("plugin %s: base url required", name)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("plugin %s: api key required", name)
	}
	client := &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name returns the namespace this source contributes to.
func (c *Client) Name() string {
	return c.name
}

// Fields fetches the parsed metadata for one file. The file's base name is
// run through the instance's release parser, which resolves it against the
// instance's library.
func (c *Client) Fields(ctx context.Context, path string) (map[string]any, error) {
	endpoint, err := url.Parse(c.baseURL + "/api/v3/parse")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, c.name, "metadata",
			"parse base url", err)
	}
	params := url.Values{}
	params.Set("title", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, c.name, "metadata",
			"build request", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, c.name, "metadata",
			"execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, c.name, "metadata",
			fmt.Sprintf("parse endpoint returned %d", resp.StatusCode), nil)
	}

	var payload parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrTransient, c.name, "metadata",
			"decode response", err)
	}
	return payload.fields(), nil
}

type parseResponse struct {
	Movie  *mediaEntry `json:"movie"`
	Series *mediaEntry `json:"series"`
}

type mediaEntry struct {
	Title            string        `json:"title"`
	Year             int           `json:"year"`
	OriginalLanguage *languageInfo `json:"originalLanguage"`
	Genres           []string      `json:"genres"`
	Monitored        bool          `json:"monitored"`
	SeriesType       string        `json:"seriesType"`
	Tags             []int         `json:"tags"`
}

type languageInfo struct {
	Name string `json:"name"`
}

// fields flattens the parse payload into the namespace consulted by rule
// evaluation. Unmatched files yield an empty map, so plugin() conditions
// evaluate false instead of erroring.
func (r parseResponse) fields() map[string]any {
	entry := r.Movie
	kind := "movie"
	if entry == nil {
		entry = r.Series
		kind = "series"
	}
	if entry == nil {
		return map[string]any{}
	}

	fields := map[string]any{
		"kind":      kind,
		"title":     entry.Title,
		"year":      entry.Year,
		"monitored": entry.Monitored,
	}
	if entry.OriginalLanguage != nil {
		fields["original_language"] = strings.ToLower(entry.OriginalLanguage.Name)
	}
	if len(entry.Genres) > 0 {
		fields["genres"] = strings.ToLower(strings.Join(entry.Genres, ","))
	}
	if entry.SeriesType != "" {
		fields["series_type"] = entry.SeriesType
	}
	return fields
}
