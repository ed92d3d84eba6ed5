package database

import (
	"database/sql"
	"fmt"
)

var _ TemplateRepository = (*TemplateRepositoryImpl)(nil)

type TemplateRepositoryImpl struct {
	db *DB
}

func NewTemplateRepository(db *DB) *TemplateRepositoryImpl {
	return &TemplateRepositoryImpl{db: db}
}

func (r *TemplateRepositoryImpl) CreateTemplate(tmpl *PromptTemplate) error {
	err := r.db.QueryRow(`
		INSERT INTO prompt_templates (user_id, genre, title_prompt, body_prompt)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, tmpl.UserID, tmpl.Genre, tmpl.TitlePrompt, tmpl.BodyPrompt,
	).Scan(&tmpl.ID, &tmpl.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (r *TemplateRepositoryImpl) ListTemplates(userID string) ([]PromptTemplate, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, genre, title_prompt, body_prompt, created_at
		FROM prompt_templates
		WHERE user_id = $1
		ORDER BY genre ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []PromptTemplate
	for rows.Next() {
		var tmpl PromptTemplate
		err := rows.Scan(&tmpl.ID, &tmpl.UserID, &tmpl.Genre,
			&tmpl.TitlePrompt, &tmpl.BodyPrompt, &tmpl.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		templates = append(templates, tmpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}

	return templates, nil
}

func (r *TemplateRepositoryImpl) GetTemplateByGenre(userID, genre string) (*PromptTemplate, error) {
	var tmpl PromptTemplate
	err := r.db.QueryRow(`
		SELECT id, user_id, genre, title_prompt, body_prompt, created_at
		FROM prompt_templates
		WHERE user_id = $1 AND genre = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, genre).Scan(&tmpl.ID, &tmpl.UserID, &tmpl.Genre,
		&tmpl.TitlePrompt, &tmpl.BodyPrompt, &tmpl.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template by genre: %w", err)
	}

	return &tmpl, nil
}

func (r *TemplateRepositoryImpl) DeleteTemplate(id, userID string) error {
	_, err := r.db.Exec(`DELETE FROM prompt_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}
