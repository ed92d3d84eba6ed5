// Package imagesearch provides the Pixabay client used to find royalty-free
// images for generated articles.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultEndpoint = "https://pixabay.com/api/"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient HTTPClient
}

func NewClient(apiKey string) *Client {
	return NewClientWithHTTP(defaultEndpoint, apiKey, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTP creates a client with a custom endpoint and HTTP client
// (useful for testing).
func NewClientWithHTTP(endpoint, apiKey string, httpClient HTTPClient) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type searchResponse struct {
	Hits []struct {
		WebformatURL string `json:"webformatURL"`
	} `json:"hits"`
}

// Search returns up to count image URLs matching query. A client without an
// API key returns no results rather than an error, so the article pipeline
// degrades to text-only posts.
func (c *Client) Search(ctx context.Context, query string, count int) ([]string, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("image_type", "photo")
	params.Set("per_page", strconv.Itoa(count))
	params.Set("safesearch", "true")
	params.Set("lang", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search error %s", resp.Status)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode image search response: %w", err)
	}

	urls := make([]string, 0, len(parsed.Hits))
	for _, hit := range parsed.Hits {
		if hit.WebformatURL != "" {
			urls = append(urls, hit.WebformatURL)
		}
	}

	return urls, nil
}
