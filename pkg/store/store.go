// Package store is the persistent media catalog: known tweets, known media
// URLs and the content hash of every completed download. It is the only
// state carried between runs besides the files on disk.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"txd/pkg/logger"
)

// Store wraps the SQLite catalog.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// schema is the durable contract other tooling may read.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tweets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tweet_id TEXT NOT NULL UNIQUE,
		screen_name TEXT NOT NULL,
		tweet_time TEXT NOT NULL,
		full_text TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tweet_id TEXT NOT NULL,
		media_url TEXT NOT NULL UNIQUE,
		filename TEXT,
		file_hash TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (tweet_id) REFERENCES tweets(tweet_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tweets_screen_name ON tweets(screen_name)`,
	`CREATE INDEX IF NOT EXISTS idx_media_tweet_id ON media(tweet_id)`,
}

// Open opens (creating if missing) the catalog at path. WAL mode and a
// single-writer pool keep concurrent single-statement writes safe without
// external locking.
func Open(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.InfoWithFields("database initialized", map[string]interface{}{
		"path": path,
	})

	return &Store{db: db, logger: log}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertTweet inserts a tweet record, or refreshes only its text when the
// tweet is already known. Other fields are write-once.
func (s *Store) UpsertTweet(ctx context.Context, tweetID, screenName, tweetTime, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tweets (tweet_id, screen_name, tweet_time, full_text)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tweet_id) DO UPDATE SET
			full_text = excluded.full_text
	`, tweetID, screenName, tweetTime, text)
	if err != nil {
		return fmt.Errorf("failed to upsert tweet %s: %w", tweetID, err)
	}
	return nil
}

// UpsertMedia inserts a media record keyed by its URL, or refreshes only the
// filename when the URL is already known.
func (s *Store) UpsertMedia(ctx context.Context, tweetID, mediaURL, filename string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO media (tweet_id, media_url, filename)
		VALUES (?, ?, ?)
		ON CONFLICT(media_url) DO UPDATE SET
			filename = excluded.filename
	`, tweetID, mediaURL, filename)
	if err != nil {
		return fmt.Errorf("failed to upsert media %s: %w", mediaURL, err)
	}
	return nil
}

// RecordHash sets the content hash for a media URL after a successful
// download. A URL with no matching row is a silent no-op.
func (s *Store) RecordHash(ctx context.Context, mediaURL, hash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE media SET file_hash = ? WHERE media_url = ?", hash, mediaURL)
	if err != nil {
		return fmt.Errorf("failed to record hash for %s: %w", mediaURL, err)
	}
	return nil
}

// MediaRecord is a catalog row for one media URL.
type MediaRecord struct {
	Filename sql.NullString
	FileHash sql.NullString
}

// MediaByURL returns the record for a media URL, or nil when none exists.
func (s *Store) MediaByURL(ctx context.Context, mediaURL string) (*MediaRecord, error) {
	var rec MediaRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT filename, file_hash FROM media WHERE media_url = ?", mediaURL).
		Scan(&rec.Filename, &rec.FileHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query media %s: %w", mediaURL, err)
	}
	return &rec, nil
}

// Verify reports whether the file previously recorded for mediaURL still
// exists under baseDir with its recorded SHA-256 hash. Every failure mode
// (no record, no filename, no hash, missing file, mismatch) is false; this
// is a predicate over expected steady-state conditions, not a fallible
// operation.
func (s *Store) Verify(ctx context.Context, mediaURL, baseDir string) bool {
	rec, err := s.MediaByURL(ctx, mediaURL)
	if err != nil || rec == nil {
		return false
	}
	if !rec.Filename.Valid || rec.Filename.String == "" || !rec.FileHash.Valid || rec.FileHash.String == "" {
		return false
	}

	content, err := os.ReadFile(filepath.Join(baseDir, rec.Filename.String))
	if err != nil {
		return false
	}

	return HashBytes(content) == rec.FileHash.String
}

// HashBytes computes the SHA-256 of data as lowercase hexadecimal.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
