package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sotakubo/autopost/app/article"
	"github.com/sotakubo/autopost/app/database"
	"github.com/sotakubo/autopost/app/templates"
)

func NewHandler(postRepo database.PostRepository, siteRepo database.SiteRepository,
	templateRepo database.TemplateRepository, controlRepo database.ControlRepository,
	errorRepo database.PublishErrorRepository, presets *templates.Library,
	intake IntakeInterface) *Handler {
	return &Handler{
		postRepo:     postRepo,
		siteRepo:     siteRepo,
		templateRepo: templateRepo,
		controlRepo:  controlRepo,
		errorRepo:    errorRepo,
		presets:      presets,
		intake:       intake,
	}
}

// Autopost accepts a keyword batch and schedules article generation
// against one of the user's registered sites.
func (h *Handler) Autopost(c *gin.Context) {
	var req AutopostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	site, err := h.siteRepo.GetSite(req.SiteID, req.UserID)
	if err != nil {
		slog.Error("Database error", "operation", "get_site", "site_id", req.SiteID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if site == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Site not found"})
		return
	}

	titlePrompt, bodyPrompt, err := h.resolvePrompts(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.intake.Submit(article.Submission{
		UserID:      req.UserID,
		Site:        *site,
		Keywords:    req.Keywords,
		TitlePrompt: titlePrompt,
		BodyPrompt:  bodyPrompt,
		Genre:       req.Genre,
	}, time.Now())
	if err != nil {
		slog.Error("Autopost submission failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to schedule posts",
			"details": err.Error(),
		})
		return
	}

	posts := make([]gin.H, 0, len(created))
	for _, post := range created {
		posts = append(posts, gin.H{
			"id":             post.ID,
			"keyword":        post.Keyword,
			"status":         post.Status,
			"scheduled_time": post.ScheduledTime.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Posts scheduled successfully",
		"site_url": site.SiteURL,
		"total":    len(created),
		"posts":    posts,
	})
}

// resolvePrompts picks the prompt pair for a submission: explicit prompts
// win, then the user's stored template for the genre, then the built-in
// preset library.
func (h *Handler) resolvePrompts(req AutopostRequest) (string, string, error) {
	if req.TitlePrompt != "" && req.BodyPrompt != "" {
		return req.TitlePrompt, req.BodyPrompt, nil
	}

	if req.Genre != "" {
		tmpl, err := h.templateRepo.GetTemplateByGenre(req.UserID, req.Genre)
		if err != nil {
			slog.Error("Database error", "operation", "get_template", "genre", req.Genre, "error", err)
		} else if tmpl != nil {
			return tmpl.TitlePrompt, tmpl.BodyPrompt, nil
		}

		if preset, err := h.presets.Get(req.Genre); err == nil {
			return preset.TitlePrompt, preset.BodyPrompt, nil
		}
	}

	return "", "", errInvalidPrompts
}

var errInvalidPrompts = errors.New("title_prompt and body_prompt are required when no template matches the genre")

func (h *Handler) StopGeneration(c *gin.Context) {
	h.setStopFlag(c, true, "Generation stopped")
}

func (h *Handler) ResumeGeneration(c *gin.Context) {
	h.setStopFlag(c, false, "Generation resumed")
}

func (h *Handler) setStopFlag(c *gin.Context, stop bool, message string) {
	var req ControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := h.controlRepo.SetStopFlag(req.UserID, stop); err != nil {
		slog.Error("Database error", "operation", "set_stop_flag", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info(message, "user_id", req.UserID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (h *Handler) ListPosts(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
		return
	}

	posts, err := h.postRepo.ListPosts(userID, c.Query("site_id"), c.Query("status"))
	if err != nil {
		slog.Error("Database error", "operation", "list_posts", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		result = append(result, postSummary(post))
	}

	c.JSON(http.StatusOK, gin.H{"posts": result, "total": len(result)})
}

func (h *Handler) GetPost(c *gin.Context) {
	post, ok := h.lookupPost(c)
	if !ok {
		return
	}

	details := postSummary(*post)
	details["title_prompt"] = post.TitlePrompt
	details["body_prompt"] = post.BodyPrompt
	details["site_url"] = post.SiteURL
	if post.Body != nil {
		details["body"] = *post.Body
	}
	if post.FeaturedImage != nil {
		details["featured_image"] = *post.FeaturedImage
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) DeletePost(c *gin.Context) {
	post, ok := h.lookupPost(c)
	if !ok {
		return
	}

	if err := h.postRepo.DeletePost(post.ID); err != nil {
		slog.Error("Database error", "operation", "delete_post", "post_id", post.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted"})
}

// RequeuePost puts a failed post back into the pipeline: a generation
// failure returns to pending_generation, a publication failure returns
// to ready.
func (h *Handler) RequeuePost(c *gin.Context) {
	post, ok := h.lookupPost(c)
	if !ok {
		return
	}

	transitions := []struct{ from, to string }{
		{database.StatusGenerationFailed, database.StatusPendingGeneration},
		{database.StatusPublishFailed, database.StatusReady},
	}

	for _, tr := range transitions {
		claimed, err := h.postRepo.ClaimPost(post.ID, tr.from, tr.to)
		if err != nil {
			slog.Error("Database error", "operation", "requeue_post", "post_id", post.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if claimed {
			slog.Info("Post requeued", "post_id", post.ID, "from", tr.from, "to", tr.to)
			c.JSON(http.StatusOK, gin.H{"success": true, "status": tr.to})
			return
		}
	}

	c.JSON(http.StatusConflict, gin.H{
		"error": "Only failed posts can be requeued",
		"status": post.Status,
	})
}

func (h *Handler) GetPostStats(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
		return
	}

	stats, err := h.postRepo.GetPostStats(userID)
	if err != nil {
		slog.Error("Database error", "operation", "get_post_stats", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) lookupPost(c *gin.Context) (*database.ScheduledPost, bool) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing post id parameter"})
		return nil, false
	}

	post, err := h.postRepo.GetPost(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_post", "post_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return nil, false
	}

	return post, true
}

func (h *Handler) CreateSite(c *gin.Context) {
	var req SiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	site := database.Site{
		UserID:        req.UserID,
		SiteURL:       req.SiteURL,
		WPUsername:    req.WPUsername,
		WPAppPassword: req.WPAppPassword,
	}
	if err := h.siteRepo.CreateSite(&site); err != nil {
		slog.Error("Database error", "operation", "create_site", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       site.ID,
		"site_url": site.SiteURL,
	})
}

func (h *Handler) ListSites(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
		return
	}

	sites, err := h.siteRepo.ListSites(userID)
	if err != nil {
		slog.Error("Database error", "operation", "list_sites", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]gin.H, 0, len(sites))
	for _, site := range sites {
		// application passwords never leave the server
		result = append(result, gin.H{
			"id":          site.ID,
			"site_url":    site.SiteURL,
			"wp_username": site.WPUsername,
			"created_at":  site.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"sites": result, "total": len(result)})
}

func (h *Handler) DeleteSite(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
		return
	}

	if err := h.siteRepo.DeleteSite(c.Param("id"), userID); err != nil {
		slog.Error("Database error", "operation", "delete_site", "site_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Site deleted"})
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	tmpl := database.PromptTemplate{
		UserID:      req.UserID,
		Genre:       req.Genre,
		TitlePrompt: req.TitlePrompt,
		BodyPrompt:  req.BodyPrompt,
	}
	if err := h.templateRepo.CreateTemplate(&tmpl); err != nil {
		slog.Error("Database error", "operation", "create_template", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": tmpl.ID, "genre": tmpl.Genre})
}

func (h *Handler) ListTemplates(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
		return
	}

	tmpls, err := h.templateRepo.ListTemplates(userID)
	if err != nil {
		slog.Error("Database error", "operation", "list_templates", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]gin.H, 0, len(tmpls))
	for _, tmpl := range tmpls {
		result = append(result, gin.H{
			"id":           tmpl.ID,
			"genre":        tmpl.Genre,
			"title_prompt": tmpl.TitlePrompt,
			"body_prompt":  tmpl.BodyPrompt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"templates": result, "total": len(result)})
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
		return
	}

	if err := h.templateRepo.DeleteTemplate(c.Param("id"), userID); err != nil {
		slog.Error("Database error", "operation", "delete_template", "template_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template deleted"})
}

func (h *Handler) ListPresets(c *gin.Context) {
	presets := h.presets.List()

	result := make([]gin.H, 0, len(presets))
	for _, preset := range presets {
		result = append(result, gin.H{
			"genre":        preset.Genre,
			"description":  preset.Description,
			"title_prompt": preset.TitlePrompt,
			"body_prompt":  preset.BodyPrompt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"presets": result, "total": len(result)})
}

func (h *Handler) ListPublishErrors(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	errs, err := h.errorRepo.ListPublishErrors(c.Query("site_url"), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_publish_errors", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]gin.H, 0, len(errs))
	for _, e := range errs {
		entry := gin.H{
			"id":            e.ID,
			"site_url":      e.SiteURL,
			"title":         e.Title,
			"status_code":   e.StatusCode,
			"response_body": e.ResponseBody,
			"created_at":    e.CreatedAt.Format(time.RFC3339),
		}
		if e.PostID != nil {
			entry["post_id"] = *e.PostID
		}
		result = append(result, entry)
	}

	c.JSON(http.StatusOK, gin.H{"errors": result, "total": len(result)})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"loaded_presets": h.presets.Count(),
	})
}

func postSummary(post database.ScheduledPost) gin.H {
	summary := gin.H{
		"id":             post.ID,
		"site_id":        post.SiteID,
		"keyword":        post.Keyword,
		"genre":          post.Genre,
		"status":         post.Status,
		"scheduled_time": post.ScheduledTime.Format(time.RFC3339),
		"created_at":     post.CreatedAt.Format(time.RFC3339),
		"updated_at":     post.UpdatedAt.Format(time.RFC3339),
	}
	if post.Title != nil {
		summary["title"] = *post.Title
	}
	return summary
}
