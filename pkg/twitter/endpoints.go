package twitter

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// DefaultBaseURL is the GraphQL API host. It is a default, not a constant of
// the client: deployments can point the client elsewhere via configuration.
const DefaultBaseURL = "https://twitter.com/i/api"

// GraphQL query identifiers. These are tied to the feature payloads below and
// change together when the upstream API revs.
const (
	userByScreenNameQueryID = "xc8f1g7BYqr6VTzTbvNlGw"
	userMediaQueryID        = "Le6KlbilFmSu-5VltFND-Q"
)

// defaultPageSize is the number of timeline items requested per page.
const defaultPageSize = 100

const userFeatures = `{"hidden_profile_likes_enabled":false,"hidden_profile_subscriptions_enabled":false,"responsive_web_graphql_exclude_directive_enabled":true,"verified_phone_label_enabled":false,"subscriptions_verification_info_verified_since_enabled":true,"highlights_tweets_tab_ui_enabled":true,"creator_subscriptions_tweet_preview_api_enabled":true,"responsive_web_graphql_skip_user_profile_image_extensions_enabled":false,"responsive_web_graphql_timeline_navigation_enabled":true}`

const userFieldToggles = `{"withAuxiliaryUserLabels":false}`

const mediaFeatures = `{"responsive_web_graphql_exclude_directive_enabled":true,"verified_phone_label_enabled":false,"creator_subscriptions_tweet_preview_api_enabled":true,"responsive_web_graphql_timeline_navigation_enabled":true,"responsive_web_graphql_skip_user_profile_image_extensions_enabled":false,"tweetypie_unmention_optimization_enabled":true,"responsive_web_edit_tweet_api_enabled":true,"graphql_is_translatable_rweb_tweet_is_translatable_enabled":true,"view_counts_everywhere_api_enabled":true,"longform_notetweets_consumption_enabled":true,"responsive_web_twitter_article_tweet_consumption_enabled":false,"tweet_awards_web_tipping_enabled":false,"freedom_of_speech_not_reach_fetch_enabled":true,"standardized_nudges_misinfo":true,"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled":true,"longform_notetweets_rich_text_read_enabled":true,"longform_notetweets_inline_media_enabled":true,"responsive_web_media_download_video_enabled":false,"responsive_web_enhance_cards_enabled":false}`

type userVariables struct {
	ScreenName               string `json:"screen_name"`
	WithSafetyModeUserFields bool   `json:"withSafetyModeUserFields"`
}

type mediaVariables struct {
	UserID                 string `json:"userId"`
	Count                  int    `json:"count"`
	Cursor                 string `json:"cursor,omitempty"`
	IncludePromotedContent bool   `json:"includePromotedContent"`
	WithClientEventToken   bool   `json:"withClientEventToken"`
	WithBirdwatchNotes     bool   `json:"withBirdwatchNotes"`
	WithVoice              bool   `json:"withVoice"`
	WithV2Timeline         bool   `json:"withV2Timeline"`
}

// userByScreenNameURL builds the user-lookup request URL for a handle.
func userByScreenNameURL(baseURL, screenName string) (string, error) {
	variables, err := json.Marshal(userVariables{ScreenName: screenName})
	if err != nil {
		return "", fmt.Errorf("failed to encode variables: %w", err)
	}

	q := url.Values{}
	q.Set("variables", string(variables))
	q.Set("features", userFeatures)
	q.Set("fieldToggles", userFieldToggles)

	return fmt.Sprintf("%s/graphql/%s/UserByScreenName?%s", baseURL, userByScreenNameQueryID, q.Encode()), nil
}

// userMediaURL builds the media-timeline request URL. An empty cursor means
// the first page.
func userMediaURL(baseURL, userID, cursor string) (string, error) {
	variables, err := json.Marshal(mediaVariables{
		UserID:         userID,
		Count:          defaultPageSize,
		Cursor:         cursor,
		WithVoice:      true,
		WithV2Timeline: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode variables: %w", err)
	}

	q := url.Values{}
	q.Set("variables", string(variables))
	q.Set("features", mediaFeatures)

	return fmt.Sprintf("%s/graphql/%s/UserMedia?%s", baseURL, userMediaQueryID, q.Encode()), nil
}
