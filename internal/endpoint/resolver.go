// Package endpoint discovers the generation server address from a remote
// text resource and checks whether the server answers.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/internal/network"
)

var (
	// ErrEmptyEndpoint is returned when the remote resource is blank.
	ErrEmptyEndpoint = errors.New("endpoint: resource is empty")
	// ErrFetchFailed is returned when the remote resource cannot be read.
	ErrFetchFailed = errors.New("endpoint: fetch failed")
	// ErrServerUnreachable is returned when the liveness check fails.
	ErrServerUnreachable = errors.New("endpoint: server unreachable")
)

const (
	// LivenessPrompt is the payload sent by CheckLiveness.
	LivenessPrompt = "Checking Connection"
	// LivenessTimeout bounds CheckLiveness.
	LivenessTimeout = 5 * time.Second
	// GeneratePath is appended to the resolved base address.
	GeneratePath = "/generate"
)

// Fetcher is the subset of network.Client the resolver needs.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	PostJSON(ctx context.Context, url string, payload any) ([]byte, error)
}

// Config selects where the endpoint comes from.
type Config struct {
	// SourceURL is the remote text resource holding the base address.
	SourceURL string
	// Static, when set, is used as the base address without any fetch.
	Static string
}

// Resolver resolves and checks the generation endpoint.
type Resolver struct {
	cfg    Config
	client Fetcher
	log    *zap.Logger
}

// NewResolver creates a resolver. A nil client gets a default network.Client.
func NewResolver(cfg Config, client Fetcher) *Resolver {
	if client == nil {
		client = network.New(network.Options{})
	}
	return &Resolver{cfg: cfg, client: client, log: logger.Named("endpoint")}
}

// Resolve returns the generation endpoint, "<base>/generate".
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if static := strings.TrimSpace(r.cfg.Static); static != "" {
		r.log.Info("using static endpoint", zap.String("base", static))
		return Join(static), nil
	}

	src, err := cacheBusted(r.cfg.SourceURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	body, err := r.client.Get(ctx, src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	base := strings.TrimSpace(string(body))
	if base == "" {
		return "", ErrEmptyEndpoint
	}
	r.log.Info("resolved endpoint", zap.String("base", base))
	return Join(base), nil
}

// CheckLiveness posts the liveness payload to endpoint and returns the raw
// response text. It never mutates resolver state.
func (r *Resolver) CheckLiveness(ctx context.Context, endpoint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, LivenessTimeout)
	defer cancel()

	body, err := r.client.PostJSON(ctx, endpoint, map[string]string{"prompt": LivenessPrompt})
	if err != nil {
		r.log.Warn("liveness check failed", zap.String("endpoint", endpoint), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrServerUnreachable, err)
	}
	return string(body), nil
}

// Join appends GeneratePath to base, dropping trailing slashes first.
func Join(base string) string {
	return strings.TrimRight(base, "/") + GeneratePath
}

// cacheBusted adds a random cb query parameter so intermediate caches
// never serve a stale address.
func cacheBusted(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("source url %q is not absolute", raw)
	}
	q := u.Query()
	q.Set("cb", strconv.FormatUint(rand.Uint64N(1_000_000_000), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
