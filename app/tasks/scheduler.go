package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sotakubo/autopost/app/cfg"
	"github.com/sotakubo/autopost/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler drives the post lifecycle: on every tick it claims due posts
// and hands them to the worker pool. Claims are conditional status
// transitions, so concurrent ticks or multiple instances never double-run
// a post.
type Scheduler struct {
	postRepo        database.PostRepository
	controlRepo     database.ControlRepository
	generator       ArticleGenerator
	publisher       PostPublisher
	interval        time.Duration
	workerCount     int
	generationBatch int
	publishBatch    int
	pacing          time.Duration
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	taskQueue       chan TaskInterface
}

func NewScheduler(postRepo database.PostRepository, controlRepo database.ControlRepository,
	generator ArticleGenerator, publisher PostPublisher) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		postRepo:        postRepo,
		controlRepo:     controlRepo,
		generator:       generator,
		publisher:       publisher,
		interval:        time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:     cfg.WorkerCount,
		generationBatch: cfg.GenerationBatchSize,
		publishBatch:    cfg.PublishBatchSize,
		pacing:          time.Duration(cfg.GenerationPacing) * time.Second,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueDueTasks() {
	now := time.Now().UTC()
	s.enqueueGenerationTasks(now)
	s.enqueuePublicationTasks(now)
}

func (s *Scheduler) enqueueGenerationTasks(now time.Time) {
	posts, err := s.postRepo.GetDuePosts(database.StatusPendingGeneration, now, s.generationBatch)
	if err != nil {
		slog.Error("Failed to load posts pending generation", "error", err)
		return
	}
	if len(posts) == 0 {
		slog.Debug("No posts pending generation")
		return
	}

	slog.Debug("Posts due for generation", "count", len(posts))

	for _, post := range posts {
		stopped, err := s.controlRepo.IsStopped(post.UserID)
		if err != nil {
			slog.Warn("Failed to check stop flag, skipping", "post_id", post.ID, "error", err)
			continue
		}
		if stopped {
			slog.Debug("Generation stopped for user, skipping", "post_id", post.ID, "user_id", post.UserID)
			continue
		}

		claimed, err := s.postRepo.ClaimPost(post.ID, database.StatusPendingGeneration, database.StatusGenerating)
		if err != nil {
			slog.Warn("Failed to claim post for generation", "post_id", post.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		task := NewGenerateArticleTask(post, s.postRepo, s.controlRepo, s.generator, s.pacing)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue GenerateArticleTask", "post_id", post.ID, "error", err)
			if uerr := s.postRepo.UpdatePostStatus(post.ID, database.StatusPendingGeneration); uerr != nil {
				slog.Error("Failed to release claimed post", "post_id", post.ID, "error", uerr)
			}
		}
	}
}

func (s *Scheduler) enqueuePublicationTasks(now time.Time) {
	posts, err := s.postRepo.GetDuePosts(database.StatusReady, now, s.publishBatch)
	if err != nil {
		slog.Error("Failed to load posts ready for publication", "error", err)
		return
	}
	if len(posts) == 0 {
		slog.Debug("No posts ready for publication")
		return
	}

	slog.Debug("Posts due for publication", "count", len(posts))

	for _, post := range posts {
		claimed, err := s.postRepo.ClaimPost(post.ID, database.StatusReady, database.StatusPublishing)
		if err != nil {
			slog.Warn("Failed to claim post for publication", "post_id", post.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		task := NewPublishPostTask(post, s.postRepo, s.publisher)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue PublishPostTask", "post_id", post.ID, "error", err)
			if uerr := s.postRepo.UpdatePostStatus(post.ID, database.StatusReady); uerr != nil {
				slog.Error("Failed to release claimed post", "post_id", post.ID, "error", uerr)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "post_id", task.GetPostID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
