package database

import (
	"database/sql"
	"fmt"
)

var _ ControlRepository = (*ControlRepositoryImpl)(nil)

// ControlRepositoryImpl stores the per-user cooperative stop flag.
type ControlRepositoryImpl struct {
	db *DB
}

func NewControlRepository(db *DB) *ControlRepositoryImpl {
	return &ControlRepositoryImpl{db: db}
}

func (r *ControlRepositoryImpl) SetStopFlag(userID string, stop bool) error {
	_, err := r.db.Exec(`
		INSERT INTO generation_control (user_id, stop_flag, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			stop_flag = EXCLUDED.stop_flag,
			updated_at = NOW()
	`, userID, stop)
	if err != nil {
		return fmt.Errorf("failed to set stop flag: %w", err)
	}
	return nil
}

// IsStopped reports the stop flag for a user. A missing row means the user
// never submitted work or never asked to stop, so generation proceeds.
func (r *ControlRepositoryImpl) IsStopped(userID string) (bool, error) {
	var stop bool
	err := r.db.QueryRow(`
		SELECT stop_flag FROM generation_control WHERE user_id = $1
	`, userID).Scan(&stop)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read stop flag: %w", err)
	}

	return stop, nil
}
