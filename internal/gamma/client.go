// Package gamma implements the market-data port against the Polymarket
// Gamma REST API.
package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/polytrader/polytrader/internal/logging"
	"github.com/polytrader/polytrader/pkg/domain"
)

// DefaultBaseURL is the public Gamma API endpoint.
const DefaultBaseURL = "https://gamma-api.polymarket.com"

const defaultTimeout = 15 * time.Second

// Client fetches market snapshots from the Gamma API. It implements
// ports.MarketClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host, typically a test
// server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Gamma client with the default endpoint and timeout.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// market mirrors the Gamma wire format. Outcomes, prices, and CLOB token IDs
// arrive as JSON-encoded strings inside the JSON document.
type market struct {
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	Outcomes      stringList  `json:"outcomes"`
	OutcomePrices stringList  `json:"outcomePrices"`
	ClobTokenIDs  stringList  `json:"clobTokenIds"`
	Volume        looseNumber `json:"volume"`
	Liquidity     looseNumber `json:"liquidity"`
	Active        bool        `json:"active"`
	EndDate       string      `json:"endDate"`
}

// stringList decodes either a JSON array of strings or a string containing
// one.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			*l = nil
			return nil
		}
		return json.Unmarshal([]byte(inner), (*[]string)(l))
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// looseNumber decodes a JSON number whether or not it is quoted.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(inner, 64)
		if err != nil {
			return err
		}
		*n = looseNumber(v)
		return nil
	}
	return json.Unmarshal(data, (*float64)(n))
}

// FetchMarket retrieves one market by its Gamma ID and derives the outcome
// tokens from the market's outcome, price, and CLOB token ID lists.
func (c *Client) FetchMarket(ctx context.Context, marketID string) (*domain.MarketData, []domain.Token, error) {
	endpoint := fmt.Sprintf("%s/markets/%s", c.baseURL, url.PathEscape(marketID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("gamma: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("gamma: fetch market %s: %w", marketID, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("gamma request",
		slog.String("market_id", marketID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, fmt.Errorf("gamma: market %s: %w", marketID, domain.ErrMarketNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("gamma: market %s: unexpected status %d: %s", marketID, resp.StatusCode, body)
	}

	var m market
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("gamma: decode market %s: %w", marketID, err)
	}

	data := &domain.MarketData{
		Question:  m.Question,
		Slug:      m.Slug,
		Outcomes:  m.Outcomes,
		Volume:    float64(m.Volume),
		Liquidity: float64(m.Liquidity),
		Active:    m.Active,
	}
	if m.EndDate != "" {
		if end, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
			data.EndDate = end
		}
	}

	return data, buildTokens(m), nil
}

// buildTokens zips the parallel outcome, token ID, and price lists. Gamma
// occasionally omits prices or token IDs for stale markets; missing entries
// stay at their zero values rather than failing the fetch.
func buildTokens(m market) []domain.Token {
	if len(m.Outcomes) == 0 {
		return nil
	}
	tokens := make([]domain.Token, len(m.Outcomes))
	for i, outcome := range m.Outcomes {
		tokens[i].Outcome = outcome
		if i < len(m.ClobTokenIDs) {
			tokens[i].TokenID = m.ClobTokenIDs[i]
		}
		if i < len(m.OutcomePrices) {
			if price, err := strconv.ParseFloat(m.OutcomePrices[i], 64); err == nil {
				tokens[i].Price = price
			}
		}
	}
	return tokens
}
