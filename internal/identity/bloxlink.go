package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// ErrLookupFailed reports a transport or upstream failure talking to
// the identity-mapping API. Lookups are never retried here.
var ErrLookupFailed = errors.New("identity lookup failed")

// BloxlinkClient calls the Bloxlink roblox-to-discord public API.
type BloxlinkClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBloxlinkClient builds a client with its own request timeout.
func NewBloxlinkClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BloxlinkClient {
	return &BloxlinkClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type bloxlinkResponse struct {
	DiscordIDs []string `json:"discordIDs"`
}

// RobloxToDiscord returns the Discord ids linked to a Roblox user id
// within a guild. An empty slice means no link exists.
func (c *BloxlinkClient) RobloxToDiscord(ctx context.Context, guildID, externalUserID, credential string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/v4/public/guilds/%s/roblox-to-discord/%s",
		c.baseURL, url.PathEscape(guildID), url.PathEscape(externalUserID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Authorization", credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrLookupFailed, resp.StatusCode)
	}

	var payload bloxlinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrLookupFailed, err)
	}
	return payload.DiscordIDs, nil
}
