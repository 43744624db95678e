package twitch

// oauth.go — refresh-grant exchange against the Twitch identity service.
//
// Implements ports.TokenSource. A 400/401 here means the refresh token is
// permanently invalid; the refresher turns that into an account demotion.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/ports"
)

const targetOAuth = "oauth2/token"

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken exchanges the refresh token for a new credential pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (ports.TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)

	endpoint := c.oauthBase + "/oauth2/token"

	resp, err := c.do(ctx, targetOAuth, c.oauthLimiter, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return ports.TokenPair{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return ports.TokenPair{}, &domain.APIError{Target: targetOAuth, StatusCode: resp.StatusCode}
	}

	var parsed tokenResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return ports.TokenPair{}, fmt.Errorf("twitch.RefreshToken: decode: %w", err)
	}
	if parsed.AccessToken == "" {
		return ports.TokenPair{}, fmt.Errorf("twitch.RefreshToken: empty access token in response")
	}

	return ports.TokenPair{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
	}, nil
}
