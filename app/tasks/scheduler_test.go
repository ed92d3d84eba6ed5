package tasks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sotakubo/autopost/app/article"
	"github.com/sotakubo/autopost/app/database"
	"github.com/sotakubo/autopost/app/wordpress"
)

type mockPostRepo struct {
	due           map[string][]database.ScheduledPost
	claims        []string
	claimResult   bool
	statusUpdates map[string]string
	stored        map[string]article.Draft
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{
		due:           make(map[string][]database.ScheduledPost),
		claimResult:   true,
		statusUpdates: make(map[string]string),
		stored:        make(map[string]article.Draft),
	}
}

func (m *mockPostRepo) CreatePost(*database.ScheduledPost) error          { return nil }
func (m *mockPostRepo) GetPost(string) (*database.ScheduledPost, error)   { return nil, nil }
func (m *mockPostRepo) DeletePost(string) error                           { return nil }
func (m *mockPostRepo) GetPostStats(string) (map[string]int, error)       { return nil, nil }
func (m *mockPostRepo) ListPosts(string, string, string) ([]database.ScheduledPost, error) {
	return nil, nil
}

func (m *mockPostRepo) GetDuePosts(status string, _ time.Time, _ int) ([]database.ScheduledPost, error) {
	return m.due[status], nil
}

func (m *mockPostRepo) ClaimPost(id, from, to string) (bool, error) {
	m.claims = append(m.claims, fmt.Sprintf("%s:%s->%s", id, from, to))
	return m.claimResult, nil
}

func (m *mockPostRepo) UpdateGeneratedContent(id, title, body string, featuredImage *string) error {
	m.stored[id] = article.Draft{Title: title, Body: body, FeaturedImage: featuredImage}
	return nil
}

func (m *mockPostRepo) UpdatePostStatus(id, status string) error {
	m.statusUpdates[id] = status
	return nil
}

type mockControlRepo struct {
	stopped map[string]bool
}

func (m *mockControlRepo) SetStopFlag(userID string, stop bool) error {
	m.stopped[userID] = stop
	return nil
}

func (m *mockControlRepo) IsStopped(userID string) (bool, error) {
	return m.stopped[userID], nil
}

type mockGenerator struct {
	draft *article.Draft
	err   error
	runs  []string
}

func (m *mockGenerator) Run(_ context.Context, post database.ScheduledPost) (*article.Draft, error) {
	m.runs = append(m.runs, post.ID)
	return m.draft, m.err
}

type mockPublisher struct {
	result bool
	calls  []string
	creds  []wordpress.Credentials
}

func (m *mockPublisher) Publish(_ context.Context, creds wordpress.Credentials, _ *string, title, _ string, _ []string) bool {
	m.calls = append(m.calls, title)
	m.creds = append(m.creds, creds)
	return m.result
}

func testScheduler(posts *mockPostRepo, controls *mockControlRepo,
	generator *mockGenerator, publisher *mockPublisher) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		postRepo:        posts,
		controlRepo:     controls,
		generator:       generator,
		publisher:       publisher,
		generationBatch: 5,
		publishBatch:    10,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 10),
	}
}

func pendingPost(id, userID string) database.ScheduledPost {
	return database.ScheduledPost{
		ID:          id,
		UserID:      userID,
		Keyword:     "朝活",
		TitlePrompt: "t {{keyword}}",
		BodyPrompt:  "b {{title}}",
		Status:      database.StatusPendingGeneration,
	}
}

func readyPost(id string) database.ScheduledPost {
	title := "Generated Title"
	body := "<p>generated body</p>"
	return database.ScheduledPost{
		ID:         id,
		UserID:     "user-1",
		Title:      &title,
		Body:       &body,
		Status:     database.StatusReady,
		SiteURL:    "https://blog.example.com",
		WPUsername: "admin",
	}
}

func drainOne(t *testing.T, s *Scheduler) TaskInterface {
	t.Helper()
	select {
	case task := <-s.taskQueue:
		return task
	default:
		t.Fatal("expected a task in the queue")
		return nil
	}
}

func TestEnqueueGenerationClaimsDuePosts(t *testing.T) {
	posts := newMockPostRepo()
	posts.due[database.StatusPendingGeneration] = []database.ScheduledPost{pendingPost("post-1", "user-1")}
	s := testScheduler(posts, &mockControlRepo{stopped: map[string]bool{}}, &mockGenerator{}, &mockPublisher{})
	defer s.cancel()

	s.enqueueDueTasks()

	if len(posts.claims) != 1 || posts.claims[0] != "post-1:pending_generation->generating" {
		t.Errorf("claims = %v", posts.claims)
	}

	task := drainOne(t, s)
	if task.GetType() != TaskTypeGenerateArticle || task.GetPostID() != "post-1" {
		t.Errorf("task = %s/%s", task.GetType(), task.GetPostID())
	}
}

func TestEnqueueGenerationSkipsStoppedUsers(t *testing.T) {
	posts := newMockPostRepo()
	posts.due[database.StatusPendingGeneration] = []database.ScheduledPost{
		pendingPost("post-1", "stopped-user"),
		pendingPost("post-2", "active-user"),
	}
	controls := &mockControlRepo{stopped: map[string]bool{"stopped-user": true}}
	s := testScheduler(posts, controls, &mockGenerator{}, &mockPublisher{})
	defer s.cancel()

	s.enqueueDueTasks()

	if len(posts.claims) != 1 || posts.claims[0] != "post-2:pending_generation->generating" {
		t.Errorf("stopped user's post must not be claimed: %v", posts.claims)
	}
}

func TestEnqueueGenerationLostClaimNotQueued(t *testing.T) {
	posts := newMockPostRepo()
	posts.claimResult = false
	posts.due[database.StatusPendingGeneration] = []database.ScheduledPost{pendingPost("post-1", "user-1")}
	s := testScheduler(posts, &mockControlRepo{stopped: map[string]bool{}}, &mockGenerator{}, &mockPublisher{})
	defer s.cancel()

	s.enqueueDueTasks()

	select {
	case task := <-s.taskQueue:
		t.Errorf("lost claim must not enqueue a task, got %s", task.GetID())
	default:
	}
}

func TestEnqueuePublicationClaimsReadyPosts(t *testing.T) {
	posts := newMockPostRepo()
	posts.due[database.StatusReady] = []database.ScheduledPost{readyPost("post-1")}
	s := testScheduler(posts, &mockControlRepo{stopped: map[string]bool{}}, &mockGenerator{}, &mockPublisher{})
	defer s.cancel()

	s.enqueueDueTasks()

	if len(posts.claims) != 1 || posts.claims[0] != "post-1:ready->publishing" {
		t.Errorf("claims = %v", posts.claims)
	}

	task := drainOne(t, s)
	if task.GetType() != TaskTypePublishPost {
		t.Errorf("task type = %s", task.GetType())
	}
}

func TestGenerateTaskStoresDraft(t *testing.T) {
	posts := newMockPostRepo()
	featured := "https://img.example/a.jpg"
	generator := &mockGenerator{draft: &article.Draft{Title: "T", Body: "B", FeaturedImage: &featured}}

	task := NewGenerateArticleTask(pendingPost("post-1", "user-1"), posts,
		&mockControlRepo{stopped: map[string]bool{}}, generator, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, ok := posts.stored["post-1"]
	if !ok {
		t.Fatal("generated content not stored")
	}
	if stored.Title != "T" || stored.Body != "B" || *stored.FeaturedImage != featured {
		t.Errorf("stored draft = %+v", stored)
	}
}

func TestGenerateTaskFailureIsTerminal(t *testing.T) {
	posts := newMockPostRepo()
	generator := &mockGenerator{err: fmt.Errorf("llm unavailable")}

	task := NewGenerateArticleTask(pendingPost("post-1", "user-1"), posts,
		&mockControlRepo{stopped: map[string]bool{}}, generator, 0)

	// generation failures are persisted, not retried
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("expected nil so the task is not retried, got %v", err)
	}
	if posts.statusUpdates["post-1"] != database.StatusGenerationFailed {
		t.Errorf("status = %q, want generation_failed", posts.statusUpdates["post-1"])
	}
}

func TestGenerateTaskReleasesPostWhenStopped(t *testing.T) {
	posts := newMockPostRepo()
	generator := &mockGenerator{draft: &article.Draft{Title: "T", Body: "B"}}
	controls := &mockControlRepo{stopped: map[string]bool{"user-1": true}}

	task := NewGenerateArticleTask(pendingPost("post-1", "user-1"), posts, controls, generator, 0)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(generator.runs) != 0 {
		t.Error("generator must not run while the user is stopped")
	}
	if posts.statusUpdates["post-1"] != database.StatusPendingGeneration {
		t.Errorf("status = %q, want the claim released back to pending_generation", posts.statusUpdates["post-1"])
	}
}

func TestPublishTaskSuccess(t *testing.T) {
	posts := newMockPostRepo()
	publisher := &mockPublisher{result: true}

	task := NewPublishPostTask(readyPost("post-1"), posts, publisher)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.calls) != 1 || publisher.calls[0] != "Generated Title" {
		t.Errorf("publisher calls = %v", publisher.calls)
	}
	if publisher.creds[0].SiteURL != "https://blog.example.com" {
		t.Errorf("credentials = %+v", publisher.creds[0])
	}
	if posts.statusUpdates["post-1"] != database.StatusPublished {
		t.Errorf("status = %q, want published", posts.statusUpdates["post-1"])
	}
}

func TestPublishTaskFailure(t *testing.T) {
	posts := newMockPostRepo()
	publisher := &mockPublisher{result: false}

	task := NewPublishPostTask(readyPost("post-1"), posts, publisher)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("expected nil so the task is not retried, got %v", err)
	}
	if posts.statusUpdates["post-1"] != database.StatusPublishFailed {
		t.Errorf("status = %q, want publish_failed", posts.statusUpdates["post-1"])
	}
}

func TestPublishTaskMissingContent(t *testing.T) {
	posts := newMockPostRepo()
	publisher := &mockPublisher{result: true}

	post := readyPost("post-1")
	post.Body = nil
	task := NewPublishPostTask(post, posts, publisher)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.calls) != 0 {
		t.Error("publisher must not be called without generated content")
	}
	if posts.statusUpdates["post-1"] != database.StatusPublishFailed {
		t.Errorf("status = %q, want publish_failed", posts.statusUpdates["post-1"])
	}
}
