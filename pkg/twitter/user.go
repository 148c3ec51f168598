package twitter

import (
	"context"
	"net/http"
)

// ResolveUser resolves a screen name to the account's stable id and profile
// facts. One outbound request; no local state is mutated.
func (c *Client) ResolveUser(ctx context.Context, screenName string) (*Account, error) {
	url, err := userByScreenNameURL(c.baseURL, screenName)
	if err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("resolving user", map[string]interface{}{
		"screen_name": screenName,
	})

	var resp userResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	// A 200 with no result object means the handle does not resolve.
	if resp.Data.User == nil || resp.Data.User.Result == nil {
		return nil, &Error{
			Type:    ErrorTypeNotFound,
			Message: "no account for screen name " + screenName,
			Code:    http.StatusOK,
		}
	}

	result := resp.Data.User.Result
	if result.RestID == "" || result.Legacy == nil || result.Legacy.Name == "" || result.Legacy.MediaCount == nil {
		return nil, &Error{
			Type:    ErrorTypeProtocol,
			Message: "user result is missing rest_id, name or media_count",
			Code:    http.StatusOK,
		}
	}

	account := &Account{
		ScreenName: screenName,
		ID:         result.RestID,
		Name:       result.Legacy.Name,
		MediaCount: *result.Legacy.MediaCount,
	}

	c.logger.InfoWithFields("resolved user", map[string]interface{}{
		"screen_name": account.ScreenName,
		"user_id":     account.ID,
		"name":        account.Name,
		"media_count": account.MediaCount,
	})

	return account, nil
}
