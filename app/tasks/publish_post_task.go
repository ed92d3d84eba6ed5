package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sotakubo/autopost/app/database"
	"github.com/sotakubo/autopost/app/wordpress"
)

type PublishPostTask struct {
	Task
	Post      database.ScheduledPost
	postRepo  database.PostRepository
	publisher PostPublisher
}

func NewPublishPostTask(post database.ScheduledPost, postRepo database.PostRepository,
	publisher PostPublisher) *PublishPostTask {
	return &PublishPostTask{
		Task:      NewTask(TaskTypePublishPost, post.ID),
		Post:      post,
		postRepo:  postRepo,
		publisher: publisher,
	}
}

func (t *PublishPostTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if t.Post.Title == nil || t.Post.Body == nil {
		slog.Error("Post has no generated content", "post_id", t.Post.ID)
		if err := t.postRepo.UpdatePostStatus(t.Post.ID, database.StatusPublishFailed); err != nil {
			return fmt.Errorf("failed to mark post as failed: %w", err)
		}
		return nil
	}

	creds := wordpress.Credentials{
		SiteURL:     t.Post.SiteURL,
		Username:    t.Post.WPUsername,
		AppPassword: t.Post.WPAppPassword,
	}

	var images []string
	if t.Post.FeaturedImage != nil && *t.Post.FeaturedImage != "" {
		images = []string{*t.Post.FeaturedImage}
	}

	ok := t.publisher.Publish(ctx, creds, &t.Post.ID, *t.Post.Title, *t.Post.Body, images)

	status := database.StatusPublishFailed
	if ok {
		status = database.StatusPublished
	}
	if err := t.postRepo.UpdatePostStatus(t.Post.ID, status); err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}

	slog.Info("Task completed",
		"type", "PublishPost",
		"post_id", t.Post.ID,
		"site_url", t.Post.SiteURL,
		"status", status,
		"duration", t.GetDuration())

	return nil
}
