package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Profile is the agent's published capability document. Only the
// webhook delivery target matters to this server.
type Profile struct {
	Name       string            `json:"name,omitempty"`
	WebhookURL string            `json:"webhook_url,omitempty"`
	Webhooks   map[string]string `json:"webhooks,omitempty"`
}

// OrderWebhook returns where order events should be delivered, or ""
// when the profile declares no webhook.
func (p *Profile) OrderWebhook() string {
	if p == nil {
		return ""
	}
	if url, ok := p.Webhooks["order"]; ok && url != "" {
		return url
	}
	return p.WebhookURL
}

// Resolver fetches and caches agent profile documents. Resolution
// failures are cached too; an unreachable profile should not stall
// every subsequent request.
type Resolver struct {
	client *http.Client

	mu    sync.RWMutex
	cache map[string]*Profile
}

func NewResolver() *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: 5 * time.Second},
		cache:  make(map[string]*Profile),
	}
}

// Resolve returns the profile behind the URL. Errors mean the profile
// could not be fetched or parsed; callers treat that as "no webhook",
// never as a request failure.
func (r *Resolver) Resolve(ctx context.Context, profileURL string) (*Profile, error) {
	if profileURL == "" {
		return nil, fmt.Errorf("no profile URL")
	}

	r.mu.RLock()
	cached, ok := r.cache[profileURL]
	r.mu.RUnlock()
	if ok {
		if cached == nil {
			return nil, fmt.Errorf("profile %s previously failed to resolve", profileURL)
		}
		return cached, nil
	}

	profile, err := r.fetch(ctx, profileURL)
	r.mu.Lock()
	r.cache[profileURL] = profile
	r.mu.Unlock()
	return profile, err
}

func (r *Resolver) fetch(ctx context.Context, profileURL string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building profile request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", profileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching profile %s: status %d", profileURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", profileURL, err)
	}
	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", profileURL, err)
	}
	return &profile, nil
}
