package twitter

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// createdAtLayout matches the API's tweet timestamp format, e.g.
// "Wed Mar 12 18:47:51 +0000 2025".
const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// cursorBottomPrefix marks the sentinel entry carrying the forward cursor.
const cursorBottomPrefix = "cursor-bottom"

// FetchMediaPage fetches one page of the account's media timeline. An empty
// cursor requests the first page; callers pass back the returned NextCursor
// verbatim for subsequent pages. An empty Tweets slice or an empty NextCursor
// both terminate pagination normally.
func (c *Client) FetchMediaPage(ctx context.Context, userID, cursor string) (*Page, error) {
	url, err := userMediaURL(c.baseURL, userID, cursor)
	if err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetching media page", map[string]interface{}{
		"user_id": userID,
		"cursor":  cursor,
	})

	var resp timelineResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	instructions, err := timelineInstructions(&resp)
	if err != nil {
		return nil, err
	}

	return c.extractPage(instructions), nil
}

// timelineInstructions locates the instruction list. Its absence means a
// broken response, not a graceful "no media" case.
func timelineInstructions(resp *timelineResponse) ([]instruction, error) {
	user := resp.Data.User
	if user == nil || user.Result == nil || user.Result.TimelineV2 == nil || user.Result.TimelineV2.Timeline == nil {
		return nil, &Error{
			Type:    ErrorTypeProtocol,
			Message: "timeline instructions not found in response",
			Code:    http.StatusOK,
		}
	}
	return user.Result.TimelineV2.Timeline.Instructions, nil
}

// extractPage walks the instruction tree in document order. Tweets appear
// either as flat entries or nested module items; both shapes are scanned
// uniformly. The bottom cursor is a sentinel entry identified by its entryId
// prefix.
func (c *Client) extractPage(instructions []instruction) *Page {
	page := &Page{}

	for _, inst := range instructions {
		for _, item := range inst.ModuleItems {
			c.appendTweet(page, item.Item.ItemContent)
		}

		for _, entry := range inst.Entries {
			if strings.HasPrefix(entry.EntryID, cursorBottomPrefix) {
				page.NextCursor = entry.Content.Value
				continue
			}

			c.appendTweet(page, entry.Content.ItemContent)

			for _, item := range entry.Content.Items {
				c.appendTweet(page, item.Item.ItemContent)
			}
		}
	}

	return page
}

// appendTweet extracts a tweet from an item content node and appends it to
// the page. Malformed items are omitted; they never fail the page.
func (c *Client) appendTweet(page *Page, content *itemContent) {
	if content == nil {
		return
	}

	tweet := c.extractTweet(content.TweetResults.Result)
	if tweet == nil {
		return
	}

	if len(tweet.Media) == 0 {
		// Surfaced rather than dropped silently: a burst of these may mean
		// the upstream rendition format changed.
		c.logger.DebugWithFields("tweet has no extractable media", map[string]interface{}{
			"tweet_id": tweet.ID,
		})
		return
	}

	page.Tweets = append(page.Tweets, *tweet)
}

// extractTweet converts a tweet result node into a Tweet with its media
// references resolved.
func (c *Client) extractTweet(result *tweetResult) *Tweet {
	if result == nil {
		return nil
	}

	// Some tweets arrive wrapped in a visibility container.
	legacy := result.Legacy
	if legacy == nil && result.Tweet != nil {
		legacy = result.Tweet.Legacy
	}
	if legacy == nil {
		return nil
	}

	// A bad timestamp must not drop the tweet's media; substitute the zero
	// time and continue.
	postedAt, err := time.Parse(createdAtLayout, legacy.CreatedAt)
	if err != nil {
		c.logger.DebugWithFields("failed to parse tweet timestamp", map[string]interface{}{
			"tweet_id":   legacy.IDStr,
			"created_at": legacy.CreatedAt,
		})
		postedAt = time.Time{}
	}

	tweet := &Tweet{
		ID:       legacy.IDStr,
		Text:     legacy.FullText,
		PostedAt: postedAt,
	}

	for _, media := range legacy.ExtendedEntities.Media {
		switch media.Type {
		case "photo":
			if media.MediaURLHTTPS == "" {
				continue
			}
			tweet.Media = append(tweet.Media, MediaItem{
				URL:      media.MediaURLHTTPS,
				Kind:     KindImage,
				PostedAt: postedAt,
			})
		case "video", "animated_gif":
			if url, ok := bestVariantURL(media); ok {
				tweet.Media = append(tweet.Media, MediaItem{
					URL:      url,
					Kind:     KindVideo,
					PostedAt: postedAt,
				})
			}
		}
	}

	return tweet
}

// bestVariantURL picks the MP4-compatible rendition with the highest bitrate.
// A media entity with no MP4 rendition yields nothing; that is not an error.
func bestVariantURL(media mediaEntity) (string, bool) {
	if media.VideoInfo == nil {
		return "", false
	}

	var (
		bestURL     string
		bestBitrate uint64
		found       bool
	)
	for _, v := range media.VideoInfo.Variants {
		if !strings.Contains(v.ContentType, "mp4") || v.URL == "" {
			continue
		}
		if !found || v.Bitrate > bestBitrate {
			bestURL = v.URL
			bestBitrate = v.Bitrate
			found = true
		}
	}

	return bestURL, found
}
