package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/semenovm/ucp-checkout/internal/agent"
	"github.com/semenovm/ucp-checkout/internal/domain"
)

// Event is the webhook payload delivered to the agent.
type Event struct {
	EventType  string        `json:"event_type"`
	CheckoutID string        `json:"checkout_id"`
	Order      *domain.Order `json:"order"`
}

// Sink receives a copy of every event, webhook delivery aside. Used to
// feed the order-events stream.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

type delivery struct {
	event      Event
	profileURL string
}

// Dispatcher delivers order events to agent webhooks asynchronously.
// Deliveries are at-least-once: each is retried with backoff, and a
// circuit breaker sheds load from a target that keeps failing.
type Dispatcher struct {
	resolver *agent.Resolver
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	sink     Sink

	queue      chan delivery
	maxRetries int
	backoff    time.Duration
}

func NewDispatcher(resolver *agent.Resolver, sink Sink) *Dispatcher {
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "webhook-delivery",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Dispatcher{
		resolver:   resolver,
		client:     &http.Client{Timeout: 10 * time.Second},
		breaker:    breaker,
		sink:       sink,
		queue:      make(chan delivery, 256),
		maxRetries: 3,
		backoff:    200 * time.Millisecond,
	}
}

// Notify queues an event for delivery. The agent identity is read from
// the request context here, before the request ends; the sink publish
// and webhook POST both happen on the worker goroutine. A full queue
// applies backpressure instead of dropping the event.
func (d *Dispatcher) Notify(ctx context.Context, eventType, checkoutID string, order *domain.Order) {
	event := Event{EventType: eventType, CheckoutID: checkoutID, Order: order}

	id, _ := agent.FromContext(ctx)
	if d.sink == nil && id.ProfileURL == "" {
		return
	}
	select {
	case d.queue <- delivery{event: event, profileURL: id.ProfileURL}:
	case <-ctx.Done():
		log.Printf("request ended before %s for checkout %s could be queued", eventType, checkoutID)
	}
}

// Run drains the delivery queue until the context is canceled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case del := <-d.queue:
			d.deliver(ctx, del)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, del delivery) {
	if d.sink != nil {
		if err := d.sink.Publish(ctx, del.event); err != nil {
			log.Printf("publishing %s event for checkout %s: %v",
				del.event.EventType, del.event.CheckoutID, err)
		}
	}
	if del.profileURL == "" {
		return
	}

	profile, err := d.resolver.Resolve(ctx, del.profileURL)
	if err != nil {
		log.Printf("resolving agent profile for webhook: %v", err)
		return
	}
	target := profile.OrderWebhook()
	if target == "" {
		return
	}

	body, err := json.Marshal(del.event)
	if err != nil {
		log.Printf("encoding %s event: %v", del.event.EventType, err)
		return
	}

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.backoff * time.Duration(1<<(attempt-1))):
			}
		}
		if err := d.post(ctx, target, body); err != nil {
			log.Printf("delivering %s to %s (attempt %d): %v", del.event.EventType, target, attempt+1, err)
			continue
		}
		return
	}
	log.Printf("giving up on %s for checkout %s after %d attempts",
		del.event.EventType, del.event.CheckoutID, d.maxRetries+1)
}

func (d *Dispatcher) post(ctx context.Context, target string, body []byte) error {
	resp, err := d.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("webhook target returned %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook target returned %d", resp.StatusCode)
	}
	return nil
}
