package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"intro-bot/models"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// SubmissionDB records every onboarding form that was posted publicly.
type SubmissionDB struct {
	db *sql.DB
}

// InitSubmissionDB opens (creating if needed) the submission log at dbPath.
func InitSubmissionDB(dbPath string) (*SubmissionDB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createSubmissionsTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create submissions table: %w", err)
	}
	if err := createMemberStatsTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create member_stats table: %w", err)
	}

	slog.Info("connected to submission database", "path", dbPath)
	return &SubmissionDB{db: db}, nil
}

func createSubmissionsTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS submissions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        guild_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        form_type TEXT NOT NULL,
        channel_id TEXT,
        message_id TEXT,
        thread_id TEXT,
        title TEXT,
        content TEXT,
        timestamp INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions (guild_id, user_id);
    CREATE INDEX IF NOT EXISTS idx_submissions_timestamp ON submissions (timestamp);`
	_, err := db.Exec(query)
	return err
}

// InsertSubmission stores a posted form and returns its row id.
func (sdb *SubmissionDB) InsertSubmission(sub models.Submission) (int64, error) {
	if sub.Timestamp == 0 {
		sub.Timestamp = time.Now().Unix()
	}
	res, err := sdb.db.Exec(`
    INSERT INTO submissions (
        guild_id, user_id, form_type, channel_id, message_id, thread_id, title, content, timestamp
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		sub.GuildID,
		sub.UserID,
		string(sub.FormType),
		sub.ChannelID,
		sub.MessageID,
		sub.ThreadID,
		sub.Title,
		sub.Content,
		sub.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert submission for user %s: %w", sub.UserID, err)
	}
	return res.LastInsertId()
}

// SetThreadID attaches the discussion thread created for a submission.
func (sdb *SubmissionDB) SetThreadID(id int64, threadID string) error {
	if _, err := sdb.db.Exec(`UPDATE submissions SET thread_id = ? WHERE id = ?`, threadID, id); err != nil {
		return fmt.Errorf("failed to update thread for submission %d: %w", id, err)
	}
	return nil
}

// UserSubmissions returns a user's submissions in a guild, oldest first.
func (sdb *SubmissionDB) UserSubmissions(guildID, userID string) ([]models.Submission, error) {
	rows, err := sdb.db.Query(`
    SELECT id, guild_id, user_id, form_type, channel_id, message_id, thread_id, title, content, timestamp
    FROM submissions WHERE guild_id = ? AND user_id = ? ORDER BY timestamp, id`, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var (
			sub                            models.Submission
			formType                       string
			channelID, messageID, threadID sql.NullString
			title, content                 sql.NullString
		)
		if err := rows.Scan(&sub.ID, &sub.GuildID, &sub.UserID, &formType, &channelID, &messageID, &threadID, &title, &content, &sub.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.FormType = models.FormType(formType)
		sub.ChannelID = channelID.String
		sub.MessageID = messageID.String
		sub.ThreadID = threadID.String
		sub.Title = title.String
		sub.Content = content.String
		out = append(out, sub)
	}
	return out, rows.Err()
}

// CountSubmissions returns the number of stored submissions for a guild.
func (sdb *SubmissionDB) CountSubmissions(guildID string) (int64, error) {
	var n int64
	if err := sdb.db.QueryRow(`SELECT COUNT(*) FROM submissions WHERE guild_id = ?`, guildID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (sdb *SubmissionDB) Close() error {
	return sdb.db.Close()
}
