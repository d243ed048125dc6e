package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/absensi/internal/client/repositories/metadata"
)

// OnlineChecker reports the platform's idea of network reachability.
type OnlineChecker interface {
	Online() bool
}

// AlwaysOnline is used when nothing tracks connectivity, e.g. for one-shot
// commands; the request itself then decides.
type AlwaysOnline struct{}

func (AlwaysOnline) Online() bool { return true }

// IsValidEndpointURL accepts absolute http and https URLs only.
func IsValidEndpointURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Gate resolves the endpoint URL and checks connectivity before any network
// call. The URL setting wins over the configured fallback.
type Gate struct {
	settings metadata.Repository
	fallback string
	online   OnlineChecker
}

func NewGate(settings metadata.Repository, fallbackURL string, online OnlineChecker) *Gate {
	if online == nil {
		online = AlwaysOnline{}
	}
	return &Gate{settings: settings, fallback: fallbackURL, online: online}
}

// URL returns the endpoint URL or ErrMissingOrInvalidURL.
func (g *Gate) URL(ctx context.Context) (string, error) {
	v, ok, err := g.settings.Get(ctx, metadata.KeyEndpointURL)
	if err != nil {
		return "", fmt.Errorf("load endpoint url: %w", err)
	}
	if !ok || strings.TrimSpace(v) == "" {
		v = g.fallback
	}
	v = strings.TrimSpace(v)
	if !IsValidEndpointURL(v) {
		return "", fmt.Errorf("%w: %q", ErrMissingOrInvalidURL, v)
	}
	return v, nil
}

// Open checks the URL first and connectivity second, and returns the URL
// to call.
func (g *Gate) Open(ctx context.Context) (string, error) {
	u, err := g.URL(ctx)
	if err != nil {
		return "", err
	}
	if !g.online.Online() {
		return "", ErrOffline
	}
	return u, nil
}
