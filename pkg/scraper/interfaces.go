package scraper

import (
	"context"

	"txd/pkg/twitter"
)

// TwitterClient defines the API operations the pipeline needs.
type TwitterClient interface {
	ResolveUser(ctx context.Context, screenName string) (*twitter.Account, error)
	FetchMediaPage(ctx context.Context, userID, cursor string) (*twitter.Page, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Catalog is the persistent tweet/media catalog the pipeline writes through.
type Catalog interface {
	UpsertTweet(ctx context.Context, tweetID, screenName, tweetTime, text string) error
	UpsertMedia(ctx context.Context, tweetID, mediaURL, filename string) error
	RecordHash(ctx context.Context, mediaURL, hash string) error
	Verify(ctx context.Context, mediaURL, baseDir string) bool
}
