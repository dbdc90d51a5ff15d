package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/pkg/errors"
)

const restPath = "/rest/v1/"

// Storage talks to the hosted tables through the PostgREST endpoint.
type Storage struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) (*Storage, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("supabase url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("supabase key is required")
	}
	return &Storage{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (s *Storage) Close() {}

func (s *Storage) ListParcels(ctx context.Context, filter models.ParcelFilter) ([]*models.Parcel, error) {
	q := url.Values{}
	q.Set("select", "id,tracking_number,last_status,discord_user_id::text")
	q.Set("order", "id.asc")
	if filter.ExcludeStatus != "" {
		q.Set("or", fmt.Sprintf("(last_status.is.null,last_status.neq.%s)", quoteValue(filter.ExcludeStatus)))
	}

	var rows []*models.Parcel
	if err := s.do(ctx, http.MethodGet, "parcels", q, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "select parcels")
	}
	return rows, nil
}

func (s *Storage) UpdateParcelStatus(ctx context.Context, id uint64, status string) error {
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatUint(id, 10))

	body := map[string]string{"last_status": status}
	if err := s.do(ctx, http.MethodPatch, "parcels", q, body, nil); err != nil {
		return errors.Wrap(err, "update parcel status")
	}
	return nil
}

func (s *Storage) DeleteParcels(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(id, 10))
	}
	q := url.Values{}
	q.Set("id", "in.("+strings.Join(parts, ",")+")")

	if err := s.do(ctx, http.MethodDelete, "parcels", q, nil, nil); err != nil {
		return errors.Wrap(err, "delete parcels")
	}
	return nil
}

func (s *Storage) ListStocks(ctx context.Context) ([]*models.WatchedSymbol, error) {
	q := url.Values{}
	q.Set("select", "symbol,target_price,bucket")
	q.Set("order", "symbol.asc")

	var rows []*models.WatchedSymbol
	if err := s.do(ctx, http.MethodGet, "stocks", q, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "select stocks")
	}
	return rows, nil
}

func (s *Storage) do(ctx context.Context, method, table string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal body")
		}
		body = bytes.NewReader(b)
	}

	u := s.baseURL + restPath + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("postgrest status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// quoteValue wraps a filter value in double quotes when it carries PostgREST
// reserved characters.
func quoteValue(v string) string {
	if strings.ContainsAny(v, ",.:()\" ") {
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v
}
