// Package wordpress publishes generated articles to WordPress sites over the
// REST API using application passwords.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sotakubo/autopost/app/database"
)

const (
	mediaRoute = "/wp-json/wp/v2/media"
	postsRoute = "/wp-json/wp/v2/posts"

	inlineImageTag = `<img src="%s" style="max-width:100%%;">`

	maxImageBytes    = 10 << 20
	maxResponseBytes = 2048
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrorRecorder persists failed publication attempts for later diagnosis.
type ErrorRecorder interface {
	RecordPublishError(e *database.PublishError) error
}

// Credentials identify one WordPress site and its application password.
type Credentials struct {
	SiteURL     string
	Username    string
	AppPassword string
}

type Client struct {
	httpClient HTTPClient
	errors     ErrorRecorder
	userAgent  string
}

func NewClient(errors ErrorRecorder, userAgent string) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: 60 * time.Second}, errors, userAgent)
}

// NewClientWithHTTP creates a client with a custom HTTP client (useful for testing).
func NewClientWithHTTP(httpClient HTTPClient, errors ErrorRecorder, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		errors:     errors,
		userAgent:  userAgent,
	}
}

type postPayload struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
}

// Publish creates one published post on the target site. The featured image
// is uploaded to the media library first; a failed upload degrades to a
// text-only post rather than aborting. Returns true only when WordPress
// confirms creation, recording a durable error entry otherwise.
func (c *Client) Publish(ctx context.Context, creds Credentials, postID *string, title, body string, images []string) bool {
	content := body
	mediaID := 0

	if len(images) > 0 {
		imageURL := images[0]
		id, err := c.uploadMedia(ctx, creds, imageURL)
		if err != nil {
			slog.Warn("Media upload failed, publishing without featured image",
				"site_url", creds.SiteURL, "image_url", imageURL, "error", err)
		} else {
			mediaID = id
		}
		content = fmt.Sprintf(inlineImageTag, imageURL) + content
	}

	payload, err := json.Marshal(postPayload{
		Title:         title,
		Content:       content,
		Status:        "publish",
		FeaturedMedia: mediaID,
	})
	if err != nil {
		c.recordFailure(creds, postID, title, images, 0, err.Error())
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(creds.SiteURL, "/")+postsRoute, bytes.NewReader(payload))
	if err != nil {
		c.recordFailure(creds, postID, title, images, 0, err.Error())
		return false
	}
	req.SetBasicAuth(creds.Username, creds.AppPassword)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(creds, postID, title, images, 0, err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		c.recordFailure(creds, postID, title, images, resp.StatusCode, string(detail))
		return false
	}

	slog.Info("Published post to WordPress", "site_url", creds.SiteURL, "title", title)
	return true
}

// uploadMedia downloads the image and pushes it into the site's media
// library, returning the WordPress media ID.
func (c *Client) uploadMedia(ctx context.Context, creds Credentials, imageURL string) (int, error) {
	imgReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("new image request: %w", err)
	}
	imgReq.Header.Set("User-Agent", c.userAgent)

	imgResp, err := c.httpClient.Do(imgReq)
	if err != nil {
		return 0, fmt.Errorf("download image: %w", err)
	}
	defer imgResp.Body.Close()

	if imgResp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download image: %s", imgResp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(imgResp.Body, maxImageBytes))
	if err != nil {
		return 0, fmt.Errorf("read image: %w", err)
	}

	filename := path.Base(imageURL)
	if filename == "" || filename == "." || filename == "/" {
		filename = "featured.jpg"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(creds.SiteURL, "/")+mediaRoute, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("new media request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.AppPassword)
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	req.Header.Set("Content-Type", contentTypeFor(filename))
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("media upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return 0, fmt.Errorf("media upload %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var media struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return 0, fmt.Errorf("decode media response: %w", err)
	}

	return media.ID, nil
}

func (c *Client) recordFailure(creds Credentials, postID *string, title string, images []string, statusCode int, detail string) {
	slog.Error("WordPress publication failed",
		"site_url", creds.SiteURL, "title", title, "status_code", statusCode, "detail", detail)

	imageURL := ""
	if len(images) > 0 {
		imageURL = images[0]
	}

	if c.errors == nil {
		return
	}
	err := c.errors.RecordPublishError(&database.PublishError{
		PostID:       postID,
		SiteURL:      creds.SiteURL,
		Title:        title,
		ImageURL:     imageURL,
		StatusCode:   statusCode,
		ResponseBody: detail,
	})
	if err != nil {
		slog.Error("Failed to record publish error", "error", err)
	}
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
