// Package discord posts plain-text messages to a Discord channel webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// MaxContentLen is Discord's per-message content limit.
const MaxContentLen = 2000

type Webhook struct {
	url     string
	limiter *rate.Limiter
	httpc   *http.Client
}

// New returns a webhook sender. An empty url yields a sender that only logs.
// ratePerSec <= 0 falls back to 2 messages per second.
func New(url string, ratePerSec int) *Webhook {
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &Webhook{
		url:     strings.TrimSpace(url),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *Webhook) Enabled() bool { return w.url != "" }

type payload struct {
	Content string `json:"content"`
}

// Send posts content, split into several messages when it exceeds MaxContentLen.
// Nothing is retried; the first failing part aborts the rest.
func (w *Webhook) Send(ctx context.Context, content string) error {
	if !w.Enabled() {
		slog.Error("discord webhook url is not configured, message dropped", "length", len(content))
		return nil
	}
	for _, part := range SplitContent(content, MaxContentLen) {
		if err := w.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "webhook rate limit")
		}
		if err := w.post(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func (w *Webhook) post(ctx context.Context, content string) error {
	b, err := json.Marshal(payload{Content: content})
	if err != nil {
		return errors.Wrap(err, "marshal webhook payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("discord webhook http %d", resp.StatusCode)
	}
	return nil
}

// SplitContent cuts s into parts of at most max runes, preferring to cut
// after a newline so lines stay whole.
func SplitContent(s string, max int) []string {
	r := []rune(s)
	if len(r) <= max {
		return []string{s}
	}
	var parts []string
	for len(r) > max {
		cut := max
		for i := max - 1; i > max/2; i-- {
			if r[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(r[:cut]))
		r = r[cut:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}
