package database

import (
	"time"
)

type PostRepository interface {
	CreatePost(post *ScheduledPost) error
	GetPost(id string) (*ScheduledPost, error)
	ListPosts(userID, siteID, status string) ([]ScheduledPost, error)
	DeletePost(id string) error

	// GetDuePosts returns posts in the given status whose scheduled time has
	// elapsed, oldest first, bounded to limit.
	GetDuePosts(status string, now time.Time, limit int) ([]ScheduledPost, error)

	// ClaimPost performs an atomic conditional status transition and reports
	// whether this caller won the claim.
	ClaimPost(id, from, to string) (bool, error)

	UpdateGeneratedContent(id, title, body string, featuredImage *string) error
	UpdatePostStatus(id, status string) error
	GetPostStats(userID string) (map[string]int, error)
}

type SiteRepository interface {
	CreateSite(site *Site) error
	GetSite(id, userID string) (*Site, error)
	ListSites(userID string) ([]Site, error)
	DeleteSite(id, userID string) error
}

type TemplateRepository interface {
	CreateTemplate(tmpl *PromptTemplate) error
	ListTemplates(userID string) ([]PromptTemplate, error)
	GetTemplateByGenre(userID, genre string) (*PromptTemplate, error)
	DeleteTemplate(id, userID string) error
}

type ControlRepository interface {
	SetStopFlag(userID string, stop bool) error
	IsStopped(userID string) (bool, error)
}

type PublishErrorRepository interface {
	RecordPublishError(e *PublishError) error
	ListPublishErrors(siteURL string, limit int) ([]PublishError, error)
}
