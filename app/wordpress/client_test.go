package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/sotakubo/autopost/app/database"
)

type routedResponse struct {
	statusCode int
	body       string
	err        error
}

// routedTransport dispatches on URL substring so one mock can serve the
// image download, the media upload, and the post creation.
type routedTransport struct {
	routes   map[string]routedResponse
	requests []*http.Request
	bodies   [][]byte
}

func (m *routedTransport) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	m.bodies = append(m.bodies, body)

	for substr, r := range m.routes {
		if strings.Contains(req.URL.String(), substr) {
			if r.err != nil {
				return nil, r.err
			}
			return &http.Response{
				StatusCode: r.statusCode,
				Status:     http.StatusText(r.statusCode),
				Body:       io.NopCloser(bytes.NewBufferString(r.body)),
			}, nil
		}
	}
	return nil, fmt.Errorf("unexpected request to %s", req.URL)
}

func (m *routedTransport) bodyFor(substr string) []byte {
	for i, req := range m.requests {
		if strings.Contains(req.URL.String(), substr) {
			return m.bodies[i]
		}
	}
	return nil
}

func (m *routedTransport) requestFor(substr string) *http.Request {
	for _, req := range m.requests {
		if strings.Contains(req.URL.String(), substr) {
			return req
		}
	}
	return nil
}

type mockErrorRecorder struct {
	recorded []database.PublishError
	err      error
}

func (m *mockErrorRecorder) RecordPublishError(e *database.PublishError) error {
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, *e)
	return nil
}

func testCreds() Credentials {
	return Credentials{
		SiteURL:     "https://blog.example.com/",
		Username:    "admin",
		AppPassword: "xxxx yyyy zzzz",
	}
}

func TestPublishWithImage(t *testing.T) {
	transport := &routedTransport{routes: map[string]routedResponse{
		"cdn.example/photo.jpg": {statusCode: 200, body: "jpegbytes"},
		"/wp-json/wp/v2/media":  {statusCode: 201, body: `{"id":42}`},
		"/wp-json/wp/v2/posts":  {statusCode: 201, body: `{"id":7}`},
	}}
	recorder := &mockErrorRecorder{}
	client := NewClientWithHTTP(transport, recorder, "autopost/1.0")

	postID := "post-1"
	ok := client.Publish(context.Background(), testCreds(), &postID,
		"Title", "<p>body</p>", []string{"https://cdn.example/photo.jpg"})
	if !ok {
		t.Fatal("expected successful publication")
	}

	mediaReq := transport.requestFor("/media")
	if mediaReq == nil {
		t.Fatal("no media upload request made")
	}
	if cd := mediaReq.Header.Get("Content-Disposition"); !strings.Contains(cd, "photo.jpg") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if user, pass, ok := mediaReq.BasicAuth(); !ok || user != "admin" || pass != "xxxx yyyy zzzz" {
		t.Errorf("media request basic auth = %q/%q", user, pass)
	}

	var payload postPayload
	if err := json.Unmarshal(transport.bodyFor("/posts"), &payload); err != nil {
		t.Fatalf("post payload not valid JSON: %v", err)
	}
	if payload.Status != "publish" || payload.Title != "Title" {
		t.Errorf("payload = %+v", payload)
	}
	if payload.FeaturedMedia != 42 {
		t.Errorf("featured_media = %d, want uploaded media id", payload.FeaturedMedia)
	}
	if !strings.HasPrefix(payload.Content, `<img src="https://cdn.example/photo.jpg"`) {
		t.Errorf("image tag not prepended to content: %q", payload.Content)
	}

	if len(recorder.recorded) != 0 {
		t.Errorf("no errors should be recorded on success: %+v", recorder.recorded)
	}
}

func TestPublishWithoutImage(t *testing.T) {
	transport := &routedTransport{routes: map[string]routedResponse{
		"/wp-json/wp/v2/posts": {statusCode: 201, body: `{"id":7}`},
	}}
	client := NewClientWithHTTP(transport, &mockErrorRecorder{}, "autopost/1.0")

	ok := client.Publish(context.Background(), testCreds(), nil, "Title", "<p>body</p>", nil)
	if !ok {
		t.Fatal("expected successful publication")
	}

	if transport.requestFor("/media") != nil {
		t.Error("no media upload expected without images")
	}

	var payload postPayload
	if err := json.Unmarshal(transport.bodyFor("/posts"), &payload); err != nil {
		t.Fatalf("post payload not valid JSON: %v", err)
	}
	if payload.Content != "<p>body</p>" {
		t.Errorf("content = %q", payload.Content)
	}
	if payload.FeaturedMedia != 0 {
		t.Errorf("featured_media = %d, want omitted", payload.FeaturedMedia)
	}
}

func TestPublishMediaUploadFailureIsNonFatal(t *testing.T) {
	transport := &routedTransport{routes: map[string]routedResponse{
		"cdn.example/photo.jpg": {statusCode: 200, body: "jpegbytes"},
		"/wp-json/wp/v2/media":  {statusCode: 403, body: `{"code":"rest_forbidden"}`},
		"/wp-json/wp/v2/posts":  {statusCode: 201, body: `{"id":7}`},
	}}
	client := NewClientWithHTTP(transport, &mockErrorRecorder{}, "autopost/1.0")

	ok := client.Publish(context.Background(), testCreds(), nil,
		"Title", "<p>body</p>", []string{"https://cdn.example/photo.jpg"})
	if !ok {
		t.Fatal("failed media upload must not abort publication")
	}

	var payload postPayload
	if err := json.Unmarshal(transport.bodyFor("/posts"), &payload); err != nil {
		t.Fatalf("post payload not valid JSON: %v", err)
	}
	if payload.FeaturedMedia != 0 {
		t.Errorf("featured_media = %d, want none after failed upload", payload.FeaturedMedia)
	}
	// the inline tag still references the image even without library upload
	if !strings.Contains(payload.Content, "cdn.example/photo.jpg") {
		t.Errorf("content = %q", payload.Content)
	}
}

func TestPublishFailureIsRecorded(t *testing.T) {
	transport := &routedTransport{routes: map[string]routedResponse{
		"/wp-json/wp/v2/posts": {statusCode: 401, body: `{"code":"invalid_credentials"}`},
	}}
	recorder := &mockErrorRecorder{}
	client := NewClientWithHTTP(transport, recorder, "autopost/1.0")

	postID := "post-9"
	ok := client.Publish(context.Background(), testCreds(), &postID, "Title", "<p>body</p>", nil)
	if ok {
		t.Fatal("expected failure for HTTP 401")
	}

	if len(recorder.recorded) != 1 {
		t.Fatalf("expected one recorded error, got %d", len(recorder.recorded))
	}
	e := recorder.recorded[0]
	if e.StatusCode != 401 || e.SiteURL != "https://blog.example.com/" {
		t.Errorf("recorded error = %+v", e)
	}
	if e.PostID == nil || *e.PostID != "post-9" {
		t.Errorf("recorded post id = %v", e.PostID)
	}
	if !strings.Contains(e.ResponseBody, "invalid_credentials") {
		t.Errorf("response body not captured: %q", e.ResponseBody)
	}
}

func TestPublishTransportFailure(t *testing.T) {
	transport := &routedTransport{routes: map[string]routedResponse{
		"/wp-json/wp/v2/posts": {err: fmt.Errorf("connection refused")},
	}}
	recorder := &mockErrorRecorder{}
	client := NewClientWithHTTP(transport, recorder, "autopost/1.0")

	if ok := client.Publish(context.Background(), testCreds(), nil, "Title", "body", nil); ok {
		t.Fatal("expected failure for transport error")
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("expected one recorded error, got %d", len(recorder.recorded))
	}
}
