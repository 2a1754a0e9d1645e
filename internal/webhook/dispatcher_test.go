package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semenovm/ucp-checkout/internal/agent"
	"github.com/semenovm/ucp-checkout/internal/domain"
)

type capturedEvent struct {
	event Event
}

func TestDispatcher_DeliversOrderPlaced(t *testing.T) {
	received := make(chan capturedEvent, 1)
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		received <- capturedEvent{event: ev}
	}))
	defer target.Close()

	profileHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"webhook_url":%q}`, target.URL)
	}))
	defer profileHost.Close()

	d := NewDispatcher(agent.NewResolver(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	reqCtx := agent.WithIdentity(context.Background(), agent.Identity{ProfileURL: profileHost.URL})
	d.Notify(reqCtx, "order_placed", "chk_1", &domain.Order{ID: "ord_1", CheckoutID: "chk_1"})

	select {
	case got := <-received:
		assert.Equal(t, "order_placed", got.event.EventType)
		assert.Equal(t, "chk_1", got.event.CheckoutID)
		require.NotNil(t, got.event.Order)
		assert.Equal(t, "ord_1", got.event.Order.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}

func TestDispatcher_RetriesServerErrors(t *testing.T) {
	attempts := make(chan struct{}, 8)
	failures := 2
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts <- struct{}{}
		if failures > 0 {
			failures--
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer target.Close()

	profileHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"webhook_url":%q}`, target.URL)
	}))
	defer profileHost.Close()

	d := NewDispatcher(agent.NewResolver(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	reqCtx := agent.WithIdentity(context.Background(), agent.Identity{ProfileURL: profileHost.URL})
	d.Notify(reqCtx, "order_shipped", "chk_1", &domain.Order{ID: "ord_1"})

	deadline := time.After(3 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case <-attempts:
		case <-deadline:
			t.Fatalf("expected 3 delivery attempts, saw %d", i)
		}
	}
}

func TestDispatcher_NoAgentProfileNoDelivery(t *testing.T) {
	d := NewDispatcher(agent.NewResolver(), nil)

	// Context without an agent identity; nothing should be queued.
	d.Notify(context.Background(), "order_placed", "chk_1", &domain.Order{ID: "ord_1"})

	assert.Empty(t, d.queue)
}

type mockSink struct {
	events chan Event
}

func newMockSink(buffer int) *mockSink {
	return &mockSink{events: make(chan Event, buffer)}
}

func (m *mockSink) Publish(_ context.Context, event Event) error {
	m.events <- event
	return nil
}

func TestDispatcher_SinkPublishesOffRequestPath(t *testing.T) {
	sink := newMockSink(8)
	d := NewDispatcher(agent.NewResolver(), sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	// Even requests without an agent profile feed the sink.
	d.Notify(context.Background(), "order_placed", "chk_1", &domain.Order{ID: "ord_1"})

	select {
	case ev := <-sink.events:
		assert.Equal(t, "order_placed", ev.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("sink never saw the event")
	}
}

func TestDispatcher_BacklogIsNotDropped(t *testing.T) {
	const total = 300 // more than the queue can hold at once

	sink := newMockSink(total)
	d := NewDispatcher(agent.NewResolver(), sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	go func() {
		for i := 0; i < total; i++ {
			d.Notify(context.Background(), "order_placed", fmt.Sprintf("chk_%d", i), &domain.Order{})
		}
	}()

	deadline := time.After(5 * time.Second)
	for i := 0; i < total; i++ {
		select {
		case <-sink.events:
		case <-deadline:
			t.Fatalf("only %d of %d events reached the sink", i, total)
		}
	}
}
