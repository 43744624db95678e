package twitch

// helix.go — Helix stream lookups through the circuit-breaker client.
//
// Implements ports.StreamProvider. One call handles one batch of up to
// batchMax user ids; the reconciler owns the batching.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

const (
	targetStreams = "helix/streams"

	// BatchMax is the Helix page constraint: at most 100 user ids per call.
	BatchMax = 100
)

type helixStream struct {
	UserID      string `json:"user_id"`
	UserLogin   string `json:"user_login"`
	GameName    string `json:"game_name"`
	Type        string `json:"type"` // "live" or "" while transitioning
	ViewerCount int64  `json:"viewer_count"`
}

type helixStreamsResponse struct {
	Data []helixStream `json:"data"`
}

// GetStreams returns the live state of the given channels. Channels absent
// from the result are not live. A 401 comes back as *domain.APIError so the
// caller can trigger a credential refresh.
func (c *Client) GetStreams(ctx context.Context, accessToken string, channelIDs []string) ([]domain.LiveStream, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}
	if len(channelIDs) > BatchMax {
		return nil, fmt.Errorf("twitch.GetStreams: %d ids exceeds batch max %d", len(channelIDs), BatchMax)
	}

	q := url.Values{}
	q.Set("first", fmt.Sprintf("%d", BatchMax))
	for _, id := range channelIDs {
		q.Add("user_id", id)
	}
	endpoint := c.helixBase + "/streams?" + q.Encode()

	resp, err := c.do(ctx, targetStreams, c.helixLimiter, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Client-Id", c.clientID)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.APIError{Target: targetStreams, StatusCode: resp.StatusCode}
	}

	var parsed helixStreamsResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("twitch.GetStreams: decode: %w", err)
	}

	streams := make([]domain.LiveStream, 0, len(parsed.Data))
	for _, s := range parsed.Data {
		if s.Type != "live" {
			continue
		}
		streams = append(streams, domain.LiveStream{
			ChannelID:   s.UserID,
			Game:        s.GameName,
			ViewerCount: s.ViewerCount,
		})
	}
	return streams, nil
}
