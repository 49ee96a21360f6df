// academy-reward-system/services/twitter_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SocialGraphClient is the capability surface the verification strategies and
// the token manager need from the social provider. One implementation talks to
// the real API; tests swap in fakes.
type SocialGraphClient interface {
	ResolveUserID(ctx context.Context, accessToken, username string) (string, error)
	ListFollowing(ctx context.Context, accessToken, userID, cursor string) ([]SocialUser, string, error)
	ListRecentPosts(ctx context.Context, accessToken, userID string) ([]SocialPost, error)
	GetProfile(ctx context.Context, accessToken string) (*SocialProfile, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error)
}

type SocialUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type PostReference struct {
	Type string `json:"type"` // "retweeted", "replied_to", "quoted"
	ID   string `json:"id"`
}

type PostEntities struct {
	Hashtags []struct {
		Tag string `json:"tag"`
	} `json:"hashtags"`
	Mentions []struct {
		Username string `json:"username"`
	} `json:"mentions"`
}

type SocialPost struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	ReferencedTweets []PostReference `json:"referenced_tweets"`
	Entities         PostEntities    `json:"entities"`
}

type SocialProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Description string `json:"description"`
}

// TokenGrant is the provider's refresh-endpoint response.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"` // may be empty when not rotated
}

// followingPageSize bounds each following-list page; listPostsMax bounds the
// recent-posts fetch.
const (
	followingPageSize = 200
	listPostsMax      = 50
)

type TwitterClient struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Client       *http.Client
}

func NewTwitterClient(baseURL, clientID, clientSecret string) *TwitterClient {
	return &TwitterClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ResolveUserID looks up a username and returns the provider's user id.
func (c *TwitterClient) ResolveUserID(ctx context.Context, accessToken, username string) (string, error) {
	endpoint := fmt.Sprintf("%s/2/users/by/username/%s", c.BaseURL, url.PathEscape(username))

	var out struct {
		Data SocialUser `json:"data"`
	}
	if err := c.getJSON(ctx, accessToken, endpoint, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", NotFound("social user %q not found", username)
	}
	return out.Data.ID, nil
}

// ListFollowing returns one page of accounts the given user follows plus the
// next pagination cursor ("" when exhausted).
func (c *TwitterClient) ListFollowing(ctx context.Context, accessToken, userID, cursor string) ([]SocialUser, string, error) {
	endpoint, _ := url.Parse(fmt.Sprintf("%s/2/users/%s/following", c.BaseURL, url.PathEscape(userID)))
	q := endpoint.Query()
	q.Set("max_results", fmt.Sprintf("%d", followingPageSize))
	if cursor != "" {
		q.Set("pagination_token", cursor)
	}
	endpoint.RawQuery = q.Encode()

	var out struct {
		Data []SocialUser `json:"data"`
		Meta struct {
			NextToken string `json:"next_token"`
		} `json:"meta"`
	}
	if err := c.getJSON(ctx, accessToken, endpoint.String(), &out); err != nil {
		return nil, "", err
	}
	return out.Data, out.Meta.NextToken, nil
}

// ListRecentPosts fetches the user's recent posts with reference and entity
// metadata (needed for retweet/comment/hashtag/mention checks).
func (c *TwitterClient) ListRecentPosts(ctx context.Context, accessToken, userID string) ([]SocialPost, error) {
	endpoint, _ := url.Parse(fmt.Sprintf("%s/2/users/%s/tweets", c.BaseURL, url.PathEscape(userID)))
	q := endpoint.Query()
	q.Set("max_results", fmt.Sprintf("%d", listPostsMax))
	q.Set("tweet.fields", "referenced_tweets,entities")
	endpoint.RawQuery = q.Encode()

	var out struct {
		Data []SocialPost `json:"data"`
	}
	if err := c.getJSON(ctx, accessToken, endpoint.String(), &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetProfile returns the authenticated user's own profile.
func (c *TwitterClient) GetProfile(ctx context.Context, accessToken string) (*SocialProfile, error) {
	endpoint := fmt.Sprintf("%s/2/users/me?user.fields=description", c.BaseURL)

	var out struct {
		Data SocialProfile `json:"data"`
	}
	if err := c.getJSON(ctx, accessToken, endpoint, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (c *TwitterClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.ClientID)

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.BaseURL+"/2/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, ExternalTransient("building token refresh request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.ClientSecret != "" {
		req.SetBasicAuth(c.ClientID, c.ClientSecret)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, ExternalTransient("token refresh request failed", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp, "token refresh")
	}

	var grant TokenGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, ExternalTransient("decoding token refresh response", err)
	}
	if grant.AccessToken == "" {
		return nil, ExternalAuth("token refresh returned no access token", nil)
	}
	return &grant, nil
}

func (c *TwitterClient) getJSON(ctx context.Context, accessToken, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return ExternalTransient("building social API request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Printf("[TWITTER] ❌ GET %s failed: %v", endpoint, err)
		return ExternalTransient("social API request failed", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ExternalTransient("decoding social API response", err)
	}
	return nil
}

// classifyStatus turns a non-200 provider response into the typed error the
// lifecycle controller dispatches on. The error body is read with a cap so a
// hostile provider cannot balloon memory.
func classifyStatus(resp *http.Response, what string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	cause := fmt.Errorf("%s returned %d: %s", what, resp.StatusCode, string(body))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ExternalAuth("social credential rejected", cause)
	case http.StatusTooManyRequests:
		return ExternalRateLimit("social API rate limited", cause)
	default:
		return ExternalTransient("social API error", cause)
	}
}

// drainAndClose prevents connection leaks on keep-alive transports.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
