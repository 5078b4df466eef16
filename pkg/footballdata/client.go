// Package footballdata provides a client for the football-data.org v4 API.
// The free tier is limited to 10 requests per minute, so every call goes
// through a shared rate limiter before it hits the wire.
package footballdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://api.football-data.org/v4"
	defaultPerMinute  = 10
	defaultMaxRetries = 3
)

// Client is the football-data.org API client interface.
type Client interface {
	// CompetitionMatches returns matches for a competition within the date range.
	CompetitionMatches(ctx context.Context, competition string, from, to time.Time) ([]Match, error)

	// TeamMatches returns a team's matches filtered by status, newest last.
	TeamMatches(ctx context.Context, teamID int64, status string, limit int) ([]Match, error)
}

// Team identifies one side of a match.
type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

// ScoreLine holds one period's goal counts. Pointers distinguish "no score
// yet" from zero.
type ScoreLine struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Score holds the match score.
type Score struct {
	FullTime ScoreLine `json:"fullTime"`
	HalfTime ScoreLine `json:"halfTime"`
}

// Competition identifies a league or cup.
type Competition struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Match is a single fixture as returned by the API.
type Match struct {
	ID          int64       `json:"id"`
	UTCDate     time.Time   `json:"utcDate"`
	Status      string      `json:"status"`
	Competition Competition `json:"competition"`
	HomeTeam    Team        `json:"homeTeam"`
	AwayTeam    Team        `json:"awayTeam"`
	Score       Score       `json:"score"`
}

// Finished reports whether the match has a final result.
func (m Match) Finished() bool {
	return m.Status == "FINISHED" && m.Score.FullTime.Home != nil && m.Score.FullTime.Away != nil
}

type matchesResponse struct {
	Matches []Match `json:"matches"`
}

// Option configures the client.
type Option func(*client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithRequestsPerMinute adjusts the upstream rate limit.
func WithRequestsPerMinute(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

type client struct {
	key        string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// New creates a football-data.org client.
func New(key string, opts ...Option) Client {
	c := &client{
		key:        key,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/defaultPerMinute), 1),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) CompetitionMatches(ctx context.Context, competition string, from, to time.Time) ([]Match, error) {
	params := url.Values{}
	params.Set("dateFrom", from.UTC().Format("2006-01-02"))
	params.Set("dateTo", to.UTC().Format("2006-01-02"))

	var resp matchesResponse
	endpoint := fmt.Sprintf("/competitions/%s/matches", url.PathEscape(competition))
	if err := c.getJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, eris.Wrapf(err, "footballdata: competition matches %s", competition)
	}
	return resp.Matches, nil
}

func (c *client) TeamMatches(ctx context.Context, teamID int64, status string, limit int) ([]Match, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var resp matchesResponse
	endpoint := fmt.Sprintf("/teams/%d/matches", teamID)
	if err := c.getJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, eris.Wrapf(err, "footballdata: team matches %d", teamID)
	}
	return resp.Matches, nil
}

func (c *client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		req.Header.Set("X-Auth-Token", c.key)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			backoffSleep(ctx, attempt)
			continue
		}

		if retryableStatusCode(resp.StatusCode) {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close() //nolint:errcheck
			lastErr = eris.Errorf("http %d: %s", resp.StatusCode, string(body))
			zap.L().Warn("football-data request retrying",
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			backoffSleep(ctx, attempt)
			continue
		}

		defer resp.Body.Close() //nolint:errcheck
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return eris.Errorf("http %d: %s", resp.StatusCode, string(body))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return eris.Wrap(err, "decode response")
		}
		return nil
	}
	return eris.Wrap(lastErr, "all retries exhausted")
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func backoffSleep(ctx context.Context, attempt int) {
	d := time.Second << attempt
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
