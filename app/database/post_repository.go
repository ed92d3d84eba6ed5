package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ PostRepository = (*PostRepositoryImpl)(nil)

type PostRepositoryImpl struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{db: db}
}

const postColumns = `id, user_id, site_id, keyword, genre, title, body, featured_image,
	title_prompt, body_prompt, status, scheduled_time, created_at, updated_at,
	site_url, wp_username, wp_app_password`

func (r *PostRepositoryImpl) CreatePost(post *ScheduledPost) error {
	err := r.db.QueryRow(`
		INSERT INTO scheduled_posts (
			user_id, site_id, keyword, genre, title, body, featured_image,
			title_prompt, body_prompt, status, scheduled_time,
			site_url, wp_username, wp_app_password
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, post.UserID, post.SiteID, post.Keyword, post.Genre, post.Title, post.Body,
		post.FeaturedImage, post.TitlePrompt, post.BodyPrompt, post.Status,
		post.ScheduledTime.UTC(), post.SiteURL, post.WPUsername, post.WPAppPassword,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

func (r *PostRepositoryImpl) GetPost(id string) (*ScheduledPost, error) {
	row := r.db.QueryRow(`SELECT `+postColumns+` FROM scheduled_posts WHERE id = $1`, id)

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

func (r *PostRepositoryImpl) ListPosts(userID, siteID, status string) ([]ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE 1=1`
	args := []interface{}{}

	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if siteID != "" {
		args = append(args, siteID)
		query += fmt.Sprintf(" AND site_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY scheduled_time ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostRepositoryImpl) DeletePost(id string) error {
	_, err := r.db.Exec(`DELETE FROM scheduled_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (r *PostRepositoryImpl) GetDuePosts(status string, now time.Time, limit int) ([]ScheduledPost, error) {
	rows, err := r.db.Query(`
		SELECT `+postColumns+`
		FROM scheduled_posts
		WHERE status = $1
		  AND scheduled_time <= $2
		ORDER BY scheduled_time ASC
		LIMIT $3
	`, status, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ClaimPost is the critical section of the state machine: the conditional
// WHERE clause guarantees at most one concurrent processor per post.
func (r *PostRepositoryImpl) ClaimPost(id, from, to string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE scheduled_posts
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to claim post: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}

	return affected == 1, nil
}

func (r *PostRepositoryImpl) UpdateGeneratedContent(id, title, body string, featuredImage *string) error {
	_, err := r.db.Exec(`
		UPDATE scheduled_posts
		SET title = $2, body = $3, featured_image = $4, status = $5, updated_at = NOW()
		WHERE id = $1
	`, id, title, body, featuredImage, StatusReady)
	if err != nil {
		return fmt.Errorf("failed to update generated content: %w", err)
	}
	return nil
}

func (r *PostRepositoryImpl) UpdatePostStatus(id, status string) error {
	_, err := r.db.Exec(`
		UPDATE scheduled_posts
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	return nil
}

func (r *PostRepositoryImpl) GetPostStats(userID string) (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*)
		FROM scheduled_posts
		WHERE user_id = $1
		GROUP BY status
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats rows: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*ScheduledPost, error) {
	var post ScheduledPost
	err := row.Scan(
		&post.ID, &post.UserID, &post.SiteID, &post.Keyword, &post.Genre,
		&post.Title, &post.Body, &post.FeaturedImage,
		&post.TitlePrompt, &post.BodyPrompt, &post.Status,
		&post.ScheduledTime, &post.CreatedAt, &post.UpdatedAt,
		&post.SiteURL, &post.WPUsername, &post.WPAppPassword,
	)
	if err != nil {
		return nil, err
	}

	post.ScheduledTime = post.ScheduledTime.UTC()

	return &post, nil
}

func scanPosts(rows *sql.Rows) ([]ScheduledPost, error) {
	var posts []ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}
