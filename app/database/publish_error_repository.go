package database

import (
	"fmt"
)

var _ PublishErrorRepository = (*PublishErrorRepositoryImpl)(nil)

type PublishErrorRepositoryImpl struct {
	db *DB
}

func NewPublishErrorRepository(db *DB) *PublishErrorRepositoryImpl {
	return &PublishErrorRepositoryImpl{db: db}
}

func (r *PublishErrorRepositoryImpl) RecordPublishError(e *PublishError) error {
	err := r.db.QueryRow(`
		INSERT INTO publish_errors (post_id, site_url, title, image_url, status_code, response_body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.PostID, e.SiteURL, e.Title, e.ImageURL, e.StatusCode, e.ResponseBody,
	).Scan(&e.ID, &e.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record publish error: %w", err)
	}

	return nil
}

func (r *PublishErrorRepositoryImpl) ListPublishErrors(siteURL string, limit int) ([]PublishError, error) {
	query := `
		SELECT id, post_id, site_url, title, image_url, status_code, response_body, created_at
		FROM publish_errors`
	args := []interface{}{}

	if siteURL != "" {
		args = append(args, siteURL)
		query += fmt.Sprintf(" WHERE site_url = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list publish errors: %w", err)
	}
	defer rows.Close()

	var errors []PublishError
	for rows.Next() {
		var e PublishError
		err := rows.Scan(&e.ID, &e.PostID, &e.SiteURL, &e.Title, &e.ImageURL,
			&e.StatusCode, &e.ResponseBody, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publish error row: %w", err)
		}
		errors = append(errors, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publish error rows: %w", err)
	}

	return errors, nil
}
