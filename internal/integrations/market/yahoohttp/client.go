package yahoohttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

type Client struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// The chart endpoint rejects Go's default user agent.
		userAgent: "Mozilla/5.0 (compatible; TrackNotify/1.0)",
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type chartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				PreviousClose      *float64 `json:"previousClose"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetQuote reads regularMarketPrice/previousClose from the chart meta. When
// either is missing it falls back to the last non-null daily close and
// chartPreviousClose. Fields still missing after the fallback stay nil.
func (c *Client) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return models.Quote{}, errors.Wrap(err, "parse base url")
	}
	u.Path = "/v8/finance/chart/" + url.PathEscape(symbol)
	q := u.Query()
	q.Set("interval", "1d")
	q.Set("range", "5d")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.Quote{}, errors.Wrap(err, "new request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return models.Quote{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.Quote{Symbol: symbol}, nil
	}
	if resp.StatusCode/100 != 2 {
		return models.Quote{}, fmt.Errorf("yahoo chart http %d", resp.StatusCode)
	}

	var r chartResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.Quote{}, errors.Wrap(err, "decode")
	}
	if r.Chart.Error != nil {
		return models.Quote{}, fmt.Errorf("yahoo chart error %s: %s", r.Chart.Error.Code, r.Chart.Error.Description)
	}

	out := models.Quote{Symbol: symbol}
	if len(r.Chart.Result) == 0 {
		return out, nil
	}
	res := r.Chart.Result[0]
	out.LastPrice = res.Meta.RegularMarketPrice
	out.PreviousClose = res.Meta.PreviousClose

	if out.LastPrice == nil && len(res.Indicators.Quote) > 0 {
		closes := res.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil {
				out.LastPrice = closes[i]
				break
			}
		}
	}
	if out.PreviousClose == nil {
		out.PreviousClose = res.Meta.ChartPreviousClose
	}
	return out, nil
}
