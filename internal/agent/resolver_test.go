package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_FetchesProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"test-agent","webhook_url":"https://agent.example.com/hooks"}`))
	}))
	defer server.Close()

	resolver := NewResolver()
	profile, err := resolver.Resolve(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "test-agent", profile.Name)
	assert.Equal(t, "https://agent.example.com/hooks", profile.OrderWebhook())
}

func TestResolver_CachesResults(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"webhook_url":"https://agent.example.com/hooks"}`))
	}))
	defer server.Close()

	resolver := NewResolver()
	_, err := resolver.Resolve(context.Background(), server.URL)
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
}

func TestResolver_CachesFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resolver := NewResolver()
	_, err := resolver.Resolve(context.Background(), server.URL)
	require.Error(t, err)
	_, err = resolver.Resolve(context.Background(), server.URL)
	require.Error(t, err)

	assert.Equal(t, int32(1), hits.Load())
}

func TestProfile_OrderWebhookPrefersWebhooksMap(t *testing.T) {
	p := &Profile{
		WebhookURL: "https://agent.example.com/all",
		Webhooks:   map[string]string{"order": "https://agent.example.com/orders"},
	}
	assert.Equal(t, "https://agent.example.com/orders", p.OrderWebhook())
}
