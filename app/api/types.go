package api

import (
	"time"

	"github.com/sotakubo/autopost/app/article"
	"github.com/sotakubo/autopost/app/database"
	"github.com/sotakubo/autopost/app/templates"
)

// IntakeInterface turns an autopost submission into scheduled posts.
type IntakeInterface interface {
	Submit(sub article.Submission, now time.Time) ([]database.ScheduledPost, error)
}

var _ IntakeInterface = (*article.Intake)(nil)

type Handler struct {
	postRepo     database.PostRepository
	siteRepo     database.SiteRepository
	templateRepo database.TemplateRepository
	controlRepo  database.ControlRepository
	errorRepo    database.PublishErrorRepository
	presets      *templates.Library
	intake       IntakeInterface
}

type AutopostRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	SiteID      string   `json:"site_id" binding:"required"`
	Keywords    []string `json:"keywords" binding:"required"`
	Genre       string   `json:"genre"`
	TitlePrompt string   `json:"title_prompt"`
	BodyPrompt  string   `json:"body_prompt"`
}

type ControlRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type SiteRequest struct {
	UserID        string `json:"user_id" binding:"required"`
	SiteURL       string `json:"site_url" binding:"required"`
	WPUsername    string `json:"wp_username" binding:"required"`
	WPAppPassword string `json:"wp_app_password" binding:"required"`
}

type TemplateRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Genre       string `json:"genre" binding:"required"`
	TitlePrompt string `json:"title_prompt" binding:"required"`
	BodyPrompt  string `json:"body_prompt" binding:"required"`
}
