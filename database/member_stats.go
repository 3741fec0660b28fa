package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"intro-bot/models"
)

// DateLayout is the day key of the member_stats table.
const DateLayout = "2006-01-02"

type statColumn string

const (
	statJoins       statColumn = "joins"
	statLeaves      statColumn = "leaves"
	statCompletions statColumn = "completions"
)

func createMemberStatsTable(db *sql.DB) error {
	_, err := db.Exec(`
    CREATE TABLE IF NOT EXISTS member_stats (
        guild_id TEXT NOT NULL,
        date TEXT NOT NULL,
        joins INTEGER NOT NULL DEFAULT 0,
        leaves INTEGER NOT NULL DEFAULT 0,
        completions INTEGER NOT NULL DEFAULT 0,
        updated_at INTEGER NOT NULL,
        PRIMARY KEY (guild_id, date)
    );`)
	return err
}

// increment bumps one counter of the day's row, creating the row if needed.
func (sdb *SubmissionDB) increment(guildID string, col statColumn, at time.Time) error {
	query := fmt.Sprintf(`
    INSERT INTO member_stats (guild_id, date, %[1]s, updated_at) VALUES (?, ?, 1, ?)
    ON CONFLICT (guild_id, date) DO UPDATE SET %[1]s = %[1]s + 1, updated_at = excluded.updated_at`, col)
	if _, err := sdb.db.Exec(query, guildID, at.Format(DateLayout), at.Unix()); err != nil {
		return fmt.Errorf("failed to update %s for guild %s: %w", col, guildID, err)
	}
	return nil
}

// IncrementJoins counts a member joining guildID.
func (sdb *SubmissionDB) IncrementJoins(guildID string, at time.Time) error {
	return sdb.increment(guildID, statJoins, at)
}

// IncrementLeaves counts a member leaving guildID.
func (sdb *SubmissionDB) IncrementLeaves(guildID string, at time.Time) error {
	return sdb.increment(guildID, statLeaves, at)
}

// IncrementCompletions counts a member finishing onboarding in guildID.
func (sdb *SubmissionDB) IncrementCompletions(guildID string, at time.Time) error {
	return sdb.increment(guildID, statCompletions, at)
}

// DailyStats returns the counters of guildID for the day containing day.
// Days without activity return zero counts.
func (sdb *SubmissionDB) DailyStats(guildID string, day time.Time) (models.MemberStats, error) {
	stats := models.MemberStats{GuildID: guildID, Date: day.Format(DateLayout)}
	err := sdb.db.QueryRow(
		`SELECT joins, leaves, completions FROM member_stats WHERE guild_id = ? AND date = ?`,
		guildID, stats.Date,
	).Scan(&stats.Joins, &stats.Leaves, &stats.Completions)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return stats, fmt.Errorf("failed to read stats for guild %s: %w", guildID, err)
	}
	return stats, nil
}
