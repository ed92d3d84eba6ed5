package tasks

import (
	"context"

	"github.com/sotakubo/autopost/app/article"
	"github.com/sotakubo/autopost/app/database"
	"github.com/sotakubo/autopost/app/wordpress"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background post processing.
// Example usage:
//
//	scheduler := NewScheduler(postRepo, controlRepo, generator, publisher)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// ArticleGenerator produces a complete article draft for one scheduled post.
type ArticleGenerator interface {
	Run(ctx context.Context, post database.ScheduledPost) (*article.Draft, error)
}

// PostPublisher pushes a finished article to its WordPress site.
type PostPublisher interface {
	Publish(ctx context.Context, creds wordpress.Credentials, postID *string, title, body string, images []string) bool
}
