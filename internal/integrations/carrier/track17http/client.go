package track17http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/TrackNotify/internal/integrations/carrier"
	"github.com/BearBump/TrackNotify/internal/models"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL   = "https://api.17track.net"
	DefaultKeyHeader = "17token"

	trackInfoPath = "/track/v2.2/gettrackinfo"
)

type Client struct {
	baseURL   string
	apiKey    string
	keyHeader string
	batchSize int
	httpc     *http.Client
}

func New(baseURL, apiKey, keyHeader string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if keyHeader == "" {
		keyHeader = DefaultKeyHeader
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		keyHeader: keyHeader,
		batchSize: carrier.MaxBatchSize,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type numberReq struct {
	Number string `json:"number"`
}

type apiResp struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type acceptedRejected struct {
	Accepted []json.RawMessage `json:"accepted"`
	Rejected []json.RawMessage `json:"rejected"`
}

// Fields are kept raw: the provider has changed their types between revisions
// and one odd entry must not fail the whole batch.
type trackEntry struct {
	Number    json.RawMessage `json:"number"`
	TrackInfo *struct {
		LatestStatus *struct {
			Status    json.RawMessage `json:"status"`
			SubStatus json.RawMessage `json:"sub_status"`
		} `json:"latest_status"`
		LatestEvent *struct {
			Description       json.RawMessage `json:"description"`
			Context           json.RawMessage `json:"context"`
			StatusDescription json.RawMessage `json:"status_description"`
			Location          json.RawMessage `json:"location"`
		} `json:"latest_event"`
	} `json:"track_info"`
}

type rejectedEntry struct {
	Number string `json:"number"`
	Error  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetTrackInfo splits numbers into provider-sized chunks. All chunks must
// succeed; otherwise nothing is returned.
func (c *Client) GetTrackInfo(ctx context.Context, numbers []string) ([]models.ProviderStatusRecord, error) {
	var out []models.ProviderStatusRecord
	for start := 0; start < len(numbers); start += c.batchSize {
		end := min(start+c.batchSize, len(numbers))
		recs, err := c.fetch(ctx, numbers[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, numbers []string) ([]models.ProviderStatusRecord, error) {
	payload := make([]numberReq, 0, len(numbers))
	for _, n := range numbers {
		payload = append(payload, numberReq{Number: n})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+trackInfoPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.keyHeader, c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("17track http %d", resp.StatusCode)
	}

	var r apiResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if r.Code == nil {
		return nil, &carrier.APIError{Code: -1, Message: "response has no code"}
	}
	if *r.Code != 0 {
		return nil, &carrier.APIError{Code: *r.Code, Message: r.Message}
	}

	entries, rejected := splitData(r.Data)
	for _, raw := range rejected {
		var rj rejectedEntry
		if json.Unmarshal(raw, &rj) == nil {
			slog.Warn("17track rejected number", "tracking_number", rj.Number, "code", rj.Error.Code, "message", rj.Error.Message)
		}
	}

	out := make([]models.ProviderStatusRecord, 0, len(entries))
	for _, raw := range entries {
		rec, ok := parseEntry(raw)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// splitData accepts both shapes of "data": a bare list or {accepted, rejected}.
func splitData(raw json.RawMessage) (entries, rejected []json.RawMessage) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		_ = json.Unmarshal(raw, &entries)
	case '{':
		var ar acceptedRejected
		if json.Unmarshal(raw, &ar) == nil {
			entries, rejected = ar.Accepted, ar.Rejected
		}
	}
	return entries, rejected
}

func parseEntry(raw json.RawMessage) (models.ProviderStatusRecord, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return models.ProviderStatusRecord{}, false
	}
	var e trackEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		// Unexpected nested shapes: keep the number, default everything else.
		var only struct {
			Number json.RawMessage `json:"number"`
		}
		if json.Unmarshal(raw, &only) != nil {
			return models.ProviderStatusRecord{}, false
		}
		return models.ProviderStatusRecord{Number: rawString(only.Number)}, true
	}
	rec := models.ProviderStatusRecord{Number: rawString(e.Number)}
	if e.TrackInfo == nil {
		return rec, true
	}
	if st := e.TrackInfo.LatestStatus; st != nil {
		var stage models.StageCode
		if len(st.Status) > 0 && json.Unmarshal(st.Status, &stage) == nil {
			rec.Stage = stage
		}
		rec.SubStage = rawString(st.SubStatus)
	}
	if ev := e.TrackInfo.LatestEvent; ev != nil {
		rec.Description = firstNonEmpty(rawString(ev.Description), rawString(ev.Context), rawString(ev.StatusDescription))
		rec.Location = rawString(ev.Location)
	}
	return rec, true
}

// rawString returns the trimmed value of a JSON string and "" for anything else.
func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
