package twitter

import "time"

// MediaKind distinguishes the two media types we download.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Account holds the resolved identity of a harvested account. Immutable once
// resolved; fetched once per run.
type Account struct {
	ScreenName string
	ID         string
	Name       string
	MediaCount uint64
}

// MediaItem is a single downloadable media reference. Video references are
// already variant-resolved: one URL, the highest-bitrate MP4 rendition.
type MediaItem struct {
	URL      string
	Kind     MediaKind
	PostedAt time.Time
}

// Tweet is one timeline tweet with its extracted media. A tweet may carry
// zero, one or several media items.
type Tweet struct {
	ID       string
	Text     string
	PostedAt time.Time
	Media    []MediaItem
}

// Page is one timeline page. An empty Tweets slice or an empty NextCursor
// both mean the timeline is exhausted.
type Page struct {
	Tweets     []Tweet
	NextCursor string
}

// userResponse is the UserByScreenName payload. Pointer fields let the
// resolver tell a missing object from an empty one.
type userResponse struct {
	Data struct {
		User *struct {
			Result *struct {
				RestID string `json:"rest_id"`
				Legacy *struct {
					Name       string  `json:"name"`
					MediaCount *uint64 `json:"media_count"`
				} `json:"legacy"`
			} `json:"result"`
		} `json:"user"`
	} `json:"data"`
}

// timelineResponse is the UserMedia payload, decoded down to the instruction
// list. Everything below instructions is handled by the entry walk.
type timelineResponse struct {
	Data struct {
		User *struct {
			Result *struct {
				TimelineV2 *struct {
					Timeline *struct {
						Instructions []instruction `json:"instructions"`
					} `json:"timeline"`
				} `json:"timeline_v2"`
			} `json:"result"`
		} `json:"user"`
	} `json:"data"`
}

// instruction carries either a flat entry list or nested module items. Both
// shapes hold tweets and both are scanned.
type instruction struct {
	Type        string          `json:"type"`
	Entries     []timelineEntry `json:"entries"`
	ModuleItems []moduleItem    `json:"moduleItems"`
}

// timelineEntry is one entry in an instruction's entry list. Its kind is
// identified by the entryId prefix and by which content field is populated:
// cursor sentinel, single tweet, or module of grouped tweets.
type timelineEntry struct {
	EntryID string       `json:"entryId"`
	Content entryContent `json:"content"`
}

type entryContent struct {
	// Value is the opaque cursor token on sentinel entries.
	Value string `json:"value"`
	// ItemContent is set on flat tweet entries.
	ItemContent *itemContent `json:"itemContent"`
	// Items is set on module entries; tweets nest one level deeper.
	Items []moduleItem `json:"items"`
}

type moduleItem struct {
	Item struct {
		ItemContent *itemContent `json:"itemContent"`
	} `json:"item"`
}

type itemContent struct {
	TweetResults struct {
		Result *tweetResult `json:"result"`
	} `json:"tweet_results"`
}

// tweetResult is either the tweet itself or a visibility wrapper holding the
// tweet under "tweet".
type tweetResult struct {
	RestID string       `json:"rest_id"`
	Legacy *tweetLegacy `json:"legacy"`
	Tweet  *struct {
		RestID string       `json:"rest_id"`
		Legacy *tweetLegacy `json:"legacy"`
	} `json:"tweet"`
}

type tweetLegacy struct {
	IDStr            string `json:"id_str"`
	FullText         string `json:"full_text"`
	CreatedAt        string `json:"created_at"`
	ExtendedEntities struct {
		Media []mediaEntity `json:"media"`
	} `json:"extended_entities"`
}

type mediaEntity struct {
	Type          string `json:"type"`
	MediaURLHTTPS string `json:"media_url_https"`
	VideoInfo     *struct {
		Variants []videoVariant `json:"variants"`
	} `json:"video_info"`
}

type videoVariant struct {
	Bitrate     uint64 `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}
