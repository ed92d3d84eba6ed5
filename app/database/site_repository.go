package database

import (
	"database/sql"
	"fmt"
)

var _ SiteRepository = (*SiteRepositoryImpl)(nil)

type SiteRepositoryImpl struct {
	db *DB
}

func NewSiteRepository(db *DB) *SiteRepositoryImpl {
	return &SiteRepositoryImpl{db: db}
}

func (r *SiteRepositoryImpl) CreateSite(site *Site) error {
	err := r.db.QueryRow(`
		INSERT INTO sites (user_id, site_url, wp_username, wp_app_password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, site.UserID, site.SiteURL, site.WPUsername, site.WPAppPassword,
	).Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}

	return nil
}

func (r *SiteRepositoryImpl) GetSite(id, userID string) (*Site, error) {
	var site Site
	err := r.db.QueryRow(`
		SELECT id, user_id, site_url, wp_username, wp_app_password, created_at, updated_at
		FROM sites
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&site.ID, &site.UserID, &site.SiteURL,
		&site.WPUsername, &site.WPAppPassword, &site.CreatedAt, &site.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	return &site, nil
}

func (r *SiteRepositoryImpl) ListSites(userID string) ([]Site, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, site_url, wp_username, wp_app_password, created_at, updated_at
		FROM sites
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var site Site
		err := rows.Scan(&site.ID, &site.UserID, &site.SiteURL,
			&site.WPUsername, &site.WPAppPassword, &site.CreatedAt, &site.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site rows: %w", err)
	}

	return sites, nil
}

func (r *SiteRepositoryImpl) DeleteSite(id, userID string) error {
	_, err := r.db.Exec(`DELETE FROM sites WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return nil
}
