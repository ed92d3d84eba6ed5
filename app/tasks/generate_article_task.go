package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sotakubo/autopost/app/database"
)

type GenerateArticleTask struct {
	Task
	Post        database.ScheduledPost
	postRepo    database.PostRepository
	controlRepo database.ControlRepository
	generator   ArticleGenerator
	pacing      time.Duration
}

func NewGenerateArticleTask(post database.ScheduledPost, postRepo database.PostRepository,
	controlRepo database.ControlRepository, generator ArticleGenerator, pacing time.Duration) *GenerateArticleTask {
	return &GenerateArticleTask{
		Task:        NewTask(TaskTypeGenerateArticle, post.ID),
		Post:        post,
		postRepo:    postRepo,
		controlRepo: controlRepo,
		generator:   generator,
		pacing:      pacing,
	}
}

func (t *GenerateArticleTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// The stop flag may have been raised between claim and execution.
	// Release the claim so the post runs once the user resumes.
	stopped, err := t.controlRepo.IsStopped(t.Post.UserID)
	if err != nil {
		return fmt.Errorf("failed to check stop flag: %w", err)
	}
	if stopped {
		slog.Debug("Generation stopped, releasing post", "post_id", t.Post.ID, "user_id", t.Post.UserID)
		if err := t.postRepo.UpdatePostStatus(t.Post.ID, database.StatusPendingGeneration); err != nil {
			return fmt.Errorf("failed to release post: %w", err)
		}
		return nil
	}

	draft, err := t.generator.Run(ctx, t.Post)
	if err != nil {
		// Generation failures are terminal: the post stays inspectable in
		// generation_failed until an operator requeues it.
		slog.Warn("Article generation failed", "post_id", t.Post.ID, "keyword", t.Post.Keyword, "error", err)
		if uerr := t.postRepo.UpdatePostStatus(t.Post.ID, database.StatusGenerationFailed); uerr != nil {
			return fmt.Errorf("failed to mark post as failed: %w", uerr)
		}
		return nil
	}

	err = t.postRepo.UpdateGeneratedContent(t.Post.ID, draft.Title, draft.Body, draft.FeaturedImage)
	if err != nil {
		return fmt.Errorf("failed to store generated content: %w", err)
	}

	slog.Info("Task completed",
		"type", "GenerateArticle",
		"post_id", t.Post.ID,
		"keyword", t.Post.Keyword,
		"title", draft.Title,
		"duration", t.GetDuration())

	// pause between generations to pace LLM API usage
	if t.pacing > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(t.pacing):
		}
	}

	return nil
}
