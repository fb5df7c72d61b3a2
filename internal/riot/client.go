// Package riot is a minimal client for the Riot TFT HTTP APIs. Account and
// match data are served by the regional cluster, summoner and league data by
// the platform cluster.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/config"
	"github.com/tungtase04539/TFT-Finder/internal/observability"

	"golang.org/x/text/unicode/norm"
)

// Sentinel errors for the upstream status codes callers branch on.
var (
	ErrNotFound    = errors.New("riot: resource not found")
	ErrRateLimited = errors.New("riot: rate limited")
	ErrForbidden   = errors.New("riot: forbidden, check API key")
)

// Client calls the Riot TFT APIs with a single API key.
type Client struct {
	httpClient   *http.Client
	apiKey       string
	regionalHost string
	platformHost string
}

// NewClient builds a Client from application configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		apiKey:       cfg.RiotAPIKey,
		regionalHost: cfg.RiotRegionalHost,
		platformHost: cfg.RiotPlatformHost,
	}
}

// MatchIDsByPUUID returns the player's most recent match IDs, newest first.
func (c *Client) MatchIDsByPUUID(ctx context.Context, puuid string, count int) ([]string, error) {
	if count <= 0 {
		count = 3
	}
	endpoint := fmt.Sprintf("%s/tft/match/v1/matches/by-puuid/%s/ids?count=%d",
		c.regionalHost, url.PathEscape(puuid), count)

	var ids []string
	if err := c.get(ctx, "match_ids", endpoint, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// MatchByID returns the full match detail document.
func (c *Client) MatchByID(ctx context.Context, matchID string) (*Match, error) {
	endpoint := fmt.Sprintf("%s/tft/match/v1/matches/%s", c.regionalHost, url.PathEscape(matchID))

	var match Match
	if err := c.get(ctx, "match_detail", endpoint, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// AccountByRiotID resolves a gameName#tagLine pair to an account. Both parts
// are NFC-normalized so composed and decomposed Unicode spellings of the same
// name resolve identically.
func (c *Client) AccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error) {
	gameName = norm.NFC.String(gameName)
	tagLine = norm.NFC.String(tagLine)
	endpoint := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionalHost, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account Account
	if err := c.get(ctx, "account", endpoint, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// SummonerByPUUID returns the TFT summoner on the platform cluster.
func (c *Client) SummonerByPUUID(ctx context.Context, puuid string) (*Summoner, error) {
	endpoint := fmt.Sprintf("%s/tft/summoner/v1/summoners/by-puuid/%s",
		c.platformHost, url.PathEscape(puuid))

	var summoner Summoner
	if err := c.get(ctx, "summoner", endpoint, &summoner); err != nil {
		return nil, err
	}
	return &summoner, nil
}

// LeagueEntriesBySummoner returns the summoner's ranked queue standings.
func (c *Client) LeagueEntriesBySummoner(ctx context.Context, summonerID string) ([]LeagueEntry, error) {
	endpoint := fmt.Sprintf("%s/tft/league/v1/entries/by-summoner/%s",
		c.platformHost, url.PathEscape(summonerID))

	var entries []LeagueEntry
	if err := c.get(ctx, "league_entries", endpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) get(ctx context.Context, name, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build riot request: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RiotAPIRequests.WithLabelValues(name, "transport_error").Inc()
		return fmt.Errorf("riot request failed: %w", err)
	}
	defer resp.Body.Close()

	observability.RiotAPIRequests.WithLabelValues(name, strconv.Itoa(resp.StatusCode)).Inc()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode riot response: %w", err)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusForbidden:
		return ErrForbidden
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("riot API returned %d: %s", resp.StatusCode, string(body))
	}
}
