// Package acquire turns a text prompt into an imported model: it asks the
// generation server for a GLB, stores it locally and imports it.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/orbitforge/internal/assets"
	"github.com/Faultbox/orbitforge/internal/engine/model"
	"github.com/Faultbox/orbitforge/internal/engine/scene"
	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/internal/metrics"
)

// Poster sends a JSON request and returns the raw response body.
type Poster interface {
	PostJSON(ctx context.Context, url string, payload any) ([]byte, error)
}

// StatusSink receives the user-facing status text. Implementations must be
// safe for concurrent use.
type StatusSink interface {
	SetStatus(text string)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(text string)

// SetStatus calls f(text).
func (f StatusFunc) SetStatus(text string) { f(text) }

// MultiSink forwards every status to each non-nil sink in order.
func MultiSink(sinks ...StatusSink) StatusSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multiSink []StatusSink

func (m multiSink) SetStatus(text string) {
	for _, s := range m {
		s.SetStatus(text)
	}
}

type nopSink struct{}

func (nopSink) SetStatus(string) {}

// Options tunes the pipeline.
type Options struct {
	// RequestTimeout bounds one generation request. Zero means no limit
	// beyond the caller's context.
	RequestTimeout time.Duration
	// ImportTimeout bounds one import.
	ImportTimeout time.Duration
	// Interval is the minimum spacing between submissions; zero disables
	// throttling.
	Interval time.Duration
	// Burst is how many submissions may arrive back to back.
	Burst int
}

// DefaultOptions returns a 10 minute generation timeout, a 1 minute import
// timeout and one submission every 2 seconds.
func DefaultOptions() Options {
	return Options{
		RequestTimeout: 10 * time.Minute,
		ImportTimeout:  time.Minute,
		Interval:       2 * time.Second,
		Burst:          1,
	}
}

// Pipeline runs acquisitions. It holds no per-request state, so one
// Pipeline may serve concurrent requests.
type Pipeline struct {
	client   Poster
	store    *assets.Store
	importer model.Importer
	limiter  *rate.Limiter
	opts     Options
	metrics  *metrics.Collector
	log      *zap.Logger
}

// New creates a pipeline. m may be nil.
func New(client Poster, store *assets.Store, importer model.Importer, opts Options, m *metrics.Collector) *Pipeline {
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	return &Pipeline{
		client:   client,
		store:    store,
		importer: importer,
		limiter:  rate.NewLimiter(limit, opts.Burst),
		opts:     opts,
		metrics:  m,
		log:      logger.Named("acquire"),
	}
}

// Allow reserves a submission slot, or returns ErrThrottled.
func (p *Pipeline) Allow() error {
	if !p.limiter.Allow() {
		return ErrThrottled
	}
	return nil
}

// ValidatePrompt returns the trimmed prompt, or ErrInvalidPrompt when
// nothing is left.
func ValidatePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", ErrInvalidPrompt
	}
	return trimmed, nil
}

// SubmitPrompt posts {"prompt": prompt} to endpoint and returns the model
// bytes. Invalid prompts are rejected before any request is made.
func (p *Pipeline) SubmitPrompt(ctx context.Context, endpoint, prompt string) ([]byte, error) {
	if _, err := ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if p.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	data, err := p.client.PostJSON(ctx, endpoint, map[string]string{"prompt": prompt})
	if err == nil && len(data) == 0 {
		err = errors.New("empty response")
	}
	p.metrics.ObserveStage(metrics.StageGenerate, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	p.metrics.AddBytes(len(data))
	return data, nil
}

// Persist writes data under a name derived from nameHint and returns the
// path. An existing file of the same name is replaced.
func (p *Pipeline) Persist(data []byte, nameHint string) (string, error) {
	if p.store.Exists(nameHint) {
		p.log.Info("replacing stored model", zap.String("path", p.store.Path(nameHint)))
	}
	start := time.Now()
	path, err := p.store.Write(data, nameHint)
	p.metrics.ObserveStage(metrics.StagePersist, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	return path, nil
}

// Load imports the model at path into a detached scene node.
func (p *Pipeline) Load(ctx context.Context, path string) (*scene.Node, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}
	if p.opts.ImportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ImportTimeout)
		defer cancel()
	}

	start := time.Now()
	root, err := p.importer.Import(ctx, path)
	p.metrics.ObserveStage(metrics.StageImport, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}
	return root, nil
}

// Run chains SubmitPrompt, Persist and Load, reporting each stage to
// status. On failure the matching StatusFor text is reported and the
// error returned; the success text is left to the caller, which places
// the model.
func (p *Pipeline) Run(ctx context.Context, endpoint, prompt string, status StatusSink) (*scene.Node, error) {
	if status == nil {
		status = nopSink{}
	}
	root, err := p.run(ctx, endpoint, prompt, status)
	if err != nil {
		p.log.Warn("acquisition failed", zap.String("prompt", prompt), zap.Error(err))
		status.SetStatus(StatusFor(err))
		return nil, err
	}
	p.log.Info("acquisition complete", zap.String("prompt", prompt))
	return root, nil
}

func (p *Pipeline) run(ctx context.Context, endpoint, prompt string, status StatusSink) (*scene.Node, error) {
	if _, err := ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	status.SetStatus(StatusSending)
	data, err := p.SubmitPrompt(ctx, endpoint, prompt)
	if err != nil {
		return nil, err
	}
	path, err := p.Persist(data, prompt)
	if err != nil {
		return nil, err
	}
	status.SetStatus(StatusLoading)
	return p.Load(ctx, path)
}
