package database

import (
	"fmt"
	"log/slog"
	"time"
)

// CleanupOldSubmissions deletes submissions older than retention and returns
// how many rows were removed.
func (sdb *SubmissionDB) CleanupOldSubmissions(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()

	stmt, err := sdb.db.Prepare(`DELETE FROM submissions WHERE timestamp < ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to execute cleanup statement: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Info("cleaned up old submissions", "deleted", rowsAffected, "retention", retention)
	return rowsAffected, nil
}
