package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"txd/pkg/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "txd.db"), logger.NewTestLogger())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertTweetOverwritesOnlyText(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertTweet(ctx, "100", "someone", "2025-03-12T18:47:51Z", "first text"); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := s.UpsertTweet(ctx, "100", "other", "1999-01-01T00:00:00Z", "second text"); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM tweets").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 row, got %d", count)
	}

	var screenName, tweetTime, text string
	err := s.db.QueryRow(
		"SELECT screen_name, tweet_time, full_text FROM tweets WHERE tweet_id = ?", "100").
		Scan(&screenName, &tweetTime, &text)
	if err != nil {
		t.Fatalf("row query failed: %v", err)
	}

	if text != "second text" {
		t.Errorf("expected text to be refreshed, got %q", text)
	}
	if screenName != "someone" {
		t.Errorf("expected screen_name write-once, got %q", screenName)
	}
	if tweetTime != "2025-03-12T18:47:51Z" {
		t.Errorf("expected tweet_time write-once, got %q", tweetTime)
	}
}

func TestUpsertMediaOverwritesOnlyFilename(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	url := "https://pbs.twimg.com/media/abc.jpg"
	if err := s.UpsertMedia(ctx, "100", url, "2025-03-12-abc.jpg"); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := s.UpsertMedia(ctx, "999", url, "2025-03-13-abc.jpg"); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM media").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 row, got %d", count)
	}

	var tweetID, filename string
	err := s.db.QueryRow(
		"SELECT tweet_id, filename FROM media WHERE media_url = ?", url).
		Scan(&tweetID, &filename)
	if err != nil {
		t.Fatalf("row query failed: %v", err)
	}

	if filename != "2025-03-13-abc.jpg" {
		t.Errorf("expected filename to be refreshed, got %q", filename)
	}
	if tweetID != "100" {
		t.Errorf("expected tweet_id write-once, got %q", tweetID)
	}
}

func TestRecordHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	url := "https://pbs.twimg.com/media/abc.jpg"
	if err := s.UpsertMedia(ctx, "100", url, "2025-03-12-abc.jpg"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := s.RecordHash(ctx, url, "deadbeef"); err != nil {
		t.Fatalf("record hash failed: %v", err)
	}

	rec, err := s.MediaByURL(ctx, url)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.FileHash != (sql.NullString{String: "deadbeef", Valid: true}) {
		t.Errorf("unexpected hash: %+v", rec.FileHash)
	}

	// No matching row is a silent no-op, not an error.
	if err := s.RecordHash(ctx, "https://nowhere.example/x.jpg", "beef"); err != nil {
		t.Errorf("expected no-op, got error: %v", err)
	}
}

func TestMediaByURLMissing(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.MediaByURL(context.Background(), "https://nowhere.example/x.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
}

func TestVerifyLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	baseDir := t.TempDir()

	url := "https://pbs.twimg.com/media/abc.jpg"
	filename := "2025-03-12-abc.jpg"
	data := []byte("downloaded media")

	// No record at all.
	if s.Verify(ctx, url, baseDir) {
		t.Error("expected false with no record")
	}

	// Record without hash.
	if err := s.UpsertMedia(ctx, "100", url, filename); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if s.Verify(ctx, url, baseDir) {
		t.Error("expected false with no hash recorded")
	}

	// Hash recorded but file absent.
	if err := s.RecordHash(ctx, url, HashBytes(data)); err != nil {
		t.Fatalf("record hash failed: %v", err)
	}
	if s.Verify(ctx, url, baseDir) {
		t.Error("expected false with file missing")
	}

	// File present with matching bytes.
	if err := os.WriteFile(filepath.Join(baseDir, filename), data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !s.Verify(ctx, url, baseDir) {
		t.Error("expected true after download with matching hash")
	}

	// Mutated file.
	if err := os.WriteFile(filepath.Join(baseDir, filename), []byte("corrupted"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if s.Verify(ctx, url, baseDir) {
		t.Error("expected false after file mutation")
	}
}

func TestHashBytes(t *testing.T) {
	// sha256("abc"), lowercase hex.
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashBytes([]byte("abc")); got != want {
		t.Errorf("HashBytes = %s, want %s", got, want)
	}
}
