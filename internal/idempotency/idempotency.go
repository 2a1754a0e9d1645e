package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

var (
	// ErrKeyConflict is returned when an idempotency key is replayed
	// with a different request body.
	ErrKeyConflict = errors.New("idempotency key reused with different request")
)

// Record is a completed response stored under (endpoint, key). Replays
// with a matching fingerprint return the stored status and body
// byte for byte.
type Record struct {
	Endpoint    string `json:"endpoint"`
	Key         string `json:"key"`
	Fingerprint string `json:"fingerprint"`
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body"`
}

// Store coordinates concurrent requests sharing an idempotency key.
// Exactly one caller per (endpoint, key) wins the reservation and
// executes; the rest wait for its stored record.
type Store interface {
	// LookupOrReserve returns the stored record when one exists. When
	// none does, it reserves the key for the caller and returns
	// reserved=true; concurrent callers block until the reservation
	// is completed or released.
	LookupOrReserve(ctx context.Context, endpoint, key string) (*Record, bool, error)

	// Complete stores the record and wakes waiters.
	Complete(ctx context.Context, rec *Record) error

	// Release abandons a reservation without storing a record, letting
	// the next caller through.
	Release(ctx context.Context, endpoint, key string) error
}

// Fingerprint hashes the canonical form of a JSON request body.
// Canonicalization goes through a decode/encode round trip so key
// order and insignificant whitespace do not change the hash.
func Fingerprint(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		if canonical, err := json.Marshal(v); err == nil {
			body = canonical
		}
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
