package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProtocolVersion is the newest protocol date this server speaks.
// Versions compare lexically since they are ISO dates.
const ProtocolVersion = "2026-01-11"

// ErrUnsupportedVersion is returned when the agent requests a protocol
// version newer than this server supports.
var ErrUnsupportedVersion = errors.New("unsupported protocol version")

// Identity is the parsed UCP-Agent header: where the agent's profile
// document lives and which protocol version it speaks.
type Identity struct {
	ProfileURL string
	Version    string
}

// ParseHeader parses a UCP-Agent header of the form
//
//	profile="https://agent.example.com/profile.json"; version="2026-01-11"
//
// Unknown parameters are ignored. An empty header yields a zero
// Identity without error.
func ParseHeader(header string) (Identity, error) {
	var id Identity
	if header == "" {
		return id, nil
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.TrimSpace(key) {
		case "profile":
			id.ProfileURL = value
		case "version":
			id.Version = value
		}
	}
	if id.Version != "" && id.Version > ProtocolVersion {
		return id, fmt.Errorf("%w: %s is newer than %s", ErrUnsupportedVersion, id.Version, ProtocolVersion)
	}
	return id, nil
}

type contextKey struct{}

// WithIdentity attaches the agent identity to the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the agent identity from the context, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
