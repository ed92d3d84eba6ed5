package database

import (
	"time"
)

// Post status values. Transitions are driven by the reconciliation loop;
// nothing else mutates status except the initial insert and operator requeue.
const (
	StatusPendingGeneration = "pending_generation"
	StatusGenerating        = "generating"
	StatusReady             = "ready"
	StatusGenerationFailed  = "generation_failed"
	StatusPublishing        = "publishing"
	StatusPublished         = "published"
	StatusPublishFailed     = "publish_failed"
)

type Site struct {
	ID            string // Database UUID
	UserID        string
	SiteURL       string
	WPUsername    string
	WPAppPassword string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PromptTemplate struct {
	ID          string
	UserID      string
	Genre       string
	TitlePrompt string
	BodyPrompt  string
	CreatedAt   time.Time
}

// ScheduledPost is one article through its generation/publish lifecycle.
// Site credentials are copied by value at creation so publication does not
// depend on a live join against the sites table.
type ScheduledPost struct {
	ID            string
	UserID        string
	SiteID        string
	Keyword       string
	Genre         string
	Title         *string
	Body          *string
	FeaturedImage *string
	TitlePrompt   string
	BodyPrompt    string
	Status        string
	ScheduledTime time.Time // stored UTC
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// WordPress connection, denormalized from Site
	SiteURL       string
	WPUsername    string
	WPAppPassword string
}

// GenerationControl is the per-user cooperative stop flag. One row per user,
// created lazily on first submission.
type GenerationControl struct {
	UserID    string
	StopFlag  bool
	UpdatedAt time.Time
}

// PublishError is a durable record of a failed WordPress publication,
// kept for operator diagnosis.
type PublishError struct {
	ID           string
	PostID       *string
	SiteURL      string
	Title        string
	ImageURL     string
	StatusCode   int
	ResponseBody string
	CreatedAt    time.Time
}
