package twitter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txd/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger()
	client := NewClient(Options{
		BaseURL:    server.URL,
		AuthToken:  "token",
		CSRFToken:  "csrf",
		ScreenName: "someone",
		Timeout:    5 * time.Second,
		Logger:     log,
	})
	// Retries would slow the failure-path tests down to no benefit.
	client.retryCfg.MaxAttempts = 1
	return client, log
}

const photoTweet = `{
	"rest_id": "100",
	"legacy": {
		"id_str": "100",
		"full_text": "a photo",
		"created_at": "Wed Mar 12 18:47:51 +0000 2025",
		"extended_entities": {
			"media": [
				{"type": "photo", "media_url_https": "https://pbs.twimg.com/media/AAA.jpg"}
			]
		}
	}
}`

const videoTweet = `{
	"rest_id": "200",
	"legacy": {
		"id_str": "200",
		"full_text": "a video",
		"created_at": "Thu Mar 13 10:00:00 +0000 2025",
		"extended_entities": {
			"media": [
				{
					"type": "video",
					"media_url_https": "https://pbs.twimg.com/ext_tw_video_thumb/200/pu/img/thumb.jpg",
					"video_info": {
						"variants": [
							{"content_type": "video/mp4", "bitrate": 800000, "url": "https://video.twimg.com/low.mp4"},
							{"content_type": "video/mp4", "bitrate": 2000000, "url": "https://video.twimg.com/high.mp4"},
							{"content_type": "video/webm", "bitrate": 5000000, "url": "https://video.twimg.com/huge.webm"}
						]
					}
				}
			]
		}
	}
}`

func timelineBody(instructions string) string {
	return fmt.Sprintf(`{"data":{"user":{"result":{"timeline_v2":{"timeline":{"instructions":%s}}}}}}`, instructions)
}

func TestFetchMediaPageExtractsBothEntryShapes(t *testing.T) {
	instructions := fmt.Sprintf(`[
		{
			"type": "TimelineAddEntries",
			"entries": [
				{"entryId": "tweet-100", "content": {"itemContent": {"tweet_results": {"result": %s}}}},
				{"entryId": "profile-grid-0", "content": {"items": [
					{"item": {"itemContent": {"tweet_results": {"result": %s}}}}
				]}},
				{"entryId": "cursor-top-1", "content": {"value": "UPWARD"}},
				{"entryId": "cursor-bottom-1", "content": {"value": "NEXT_PAGE"}}
			]
		}
	]`, photoTweet, videoTweet)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timelineBody(instructions))
	})

	page, err := client.FetchMediaPage(context.Background(), "123", "")
	require.NoError(t, err)

	assert.Equal(t, "NEXT_PAGE", page.NextCursor)
	require.Len(t, page.Tweets, 2)

	photo := page.Tweets[0]
	assert.Equal(t, "100", photo.ID)
	assert.Equal(t, "a photo", photo.Text)
	require.Len(t, photo.Media, 1)
	assert.Equal(t, KindImage, photo.Media[0].Kind)
	assert.Equal(t, "https://pbs.twimg.com/media/AAA.jpg", photo.Media[0].URL)

	wantTime := time.Date(2025, 3, 12, 18, 47, 51, 0, time.UTC)
	assert.True(t, photo.PostedAt.Equal(wantTime), "postedAt = %v", photo.PostedAt)

	video := page.Tweets[1]
	assert.Equal(t, "200", video.ID)
	require.Len(t, video.Media, 1)
	assert.Equal(t, KindVideo, video.Media[0].Kind)
	// Highest bitrate among MP4-compatible renditions, not the webm.
	assert.Equal(t, "https://video.twimg.com/high.mp4", video.Media[0].URL)
}

func TestFetchMediaPageModuleItems(t *testing.T) {
	instructions := fmt.Sprintf(`[
		{
			"type": "TimelineAddToModule",
			"moduleItems": [
				{"item": {"itemContent": {"tweet_results": {"result": %s}}}}
			]
		}
	]`, photoTweet)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timelineBody(instructions))
	})

	page, err := client.FetchMediaPage(context.Background(), "123", "")
	require.NoError(t, err)

	assert.Empty(t, page.NextCursor)
	require.Len(t, page.Tweets, 1)
	assert.Equal(t, "100", page.Tweets[0].ID)
}

func TestFetchMediaPageVisibilityWrappedTweet(t *testing.T) {
	wrapped := fmt.Sprintf(`{"tweet": %s}`, photoTweet)
	instructions := fmt.Sprintf(`[
		{"entries": [
			{"entryId": "tweet-100", "content": {"itemContent": {"tweet_results": {"result": %s}}}}
		]}
	]`, wrapped)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timelineBody(instructions))
	})

	page, err := client.FetchMediaPage(context.Background(), "123", "")
	require.NoError(t, err)
	require.Len(t, page.Tweets, 1)
	assert.Equal(t, "100", page.Tweets[0].ID)
}

func TestFetchMediaPageBadTimestampKeepsReference(t *testing.T) {
	badTimestamp := strings.Replace(photoTweet, "Wed Mar 12 18:47:51 +0000 2025", "not a timestamp", 1)
	instructions := fmt.Sprintf(`[
		{"entries": [
			{"entryId": "tweet-100", "content": {"itemContent": {"tweet_results": {"result": %s}}}}
		]}
	]`, badTimestamp)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timelineBody(instructions))
	})

	page, err := client.FetchMediaPage(context.Background(), "123", "")
	require.NoError(t, err)

	require.Len(t, page.Tweets, 1)
	assert.True(t, page.Tweets[0].PostedAt.IsZero())
	require.Len(t, page.Tweets[0].Media, 1)
}

func TestFetchMediaPageNoMP4RenditionSkipsTweet(t *testing.T) {
	webmOnly := `{
		"rest_id": "300",
		"legacy": {
			"id_str": "300",
			"created_at": "Thu Mar 13 10:00:00 +0000 2025",
			"extended_entities": {
				"media": [
					{"type": "video", "video_info": {"variants": [
						{"content_type": "video/webm", "bitrate": 5000000, "url": "https://video.twimg.com/only.webm"}
					]}}
				]
			}
		}
	}`
	instructions := fmt.Sprintf(`[
		{"entries": [
			{"entryId": "tweet-300", "content": {"itemContent": {"tweet_results": {"result": %s}}}}
		]}
	]`, webmOnly)

	client, log := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timelineBody(instructions))
	})

	page, err := client.FetchMediaPage(context.Background(), "123", "")
	require.NoError(t, err)

	// Not an error, but surfaced rather than silently dropped.
	assert.Empty(t, page.Tweets)
	assert.True(t, log.HasMessage("tweet has no extractable media"))
}

func TestFetchMediaPageMissingInstructionsIsProtocolError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"user":{}}}`)
	})

	_, err := client.FetchMediaPage(context.Background(), "123", "")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrorTypeProtocol, apiErr.Type)
}

func TestFetchMediaPageEmptyTimeline(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timelineBody(`[{"entries": []}]`))
	})

	page, err := client.FetchMediaPage(context.Background(), "123", "")
	require.NoError(t, err)

	assert.Empty(t, page.Tweets)
	assert.Empty(t, page.NextCursor)
}

func TestFetchMediaPageForwardsCursor(t *testing.T) {
	var gotVariables string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotVariables = r.URL.Query().Get("variables")
		fmt.Fprint(w, timelineBody(`[{"entries": []}]`))
	})

	_, err := client.FetchMediaPage(context.Background(), "123", "OPAQUE_TOKEN")
	require.NoError(t, err)
	assert.Contains(t, gotVariables, `"cursor":"OPAQUE_TOKEN"`)

	// First page carries no cursor at all.
	_, err = client.FetchMediaPage(context.Background(), "123", "")
	require.NoError(t, err)
	assert.NotContains(t, gotVariables, `"cursor"`)
}

func TestFetchMediaPageSendsSessionHeaders(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, timelineBody(`[{"entries": []}]`))
	})

	_, err := client.FetchMediaPage(context.Background(), "123", "")
	require.NoError(t, err)

	assert.Equal(t, "csrf", got.Get("x-csrf-token"))
	assert.Contains(t, got.Get("Cookie"), "auth_token=token")
	assert.Contains(t, got.Get("Cookie"), "ct0=csrf")
	assert.Contains(t, got.Get("Authorization"), "Bearer")
	assert.Equal(t, "https://twitter.com/someone", got.Get("Referer"))
}
