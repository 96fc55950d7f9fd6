// Package spawner ties the pieces together: it resolves the generation
// endpoint, runs one acquisition at a time in the background, places each
// loaded model and hands it to the orbit engine.
//
// Submit may be called from any goroutine. Update must be called from a
// single goroutine (the frame loop); the scene graph, placer and engine
// are only touched there.
package spawner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitforge/internal/acquire"
	"github.com/Faultbox/orbitforge/internal/endpoint"
	"github.com/Faultbox/orbitforge/internal/engine/scene"
	"github.com/Faultbox/orbitforge/internal/logger"
	"github.com/Faultbox/orbitforge/internal/metrics"
	"github.com/Faultbox/orbitforge/internal/orbit"
	"github.com/Faultbox/orbitforge/internal/placement"
)

var (
	// ErrBusy is returned when an acquisition is already pending.
	ErrBusy = errors.New("spawner: acquisition already pending")
	// ErrEndpointNotReady is returned before the endpoint has been resolved.
	ErrEndpointNotReady = errors.New("spawner: endpoint not ready")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("spawner: closed")
)

// Status texts the spawner reports itself.
const (
	StatusEmptyEndpoint = "Gist file is empty!"
	StatusFetchFailed   = "Failed to fetch endpoint: "
	StatusReadySuffix   = "\nType Prompt & Generate"
	StatusNotConnected  = "Server Not Connected!"
	StatusProcessing    = "Processing: "
	StatusBusy          = "Still working on\nthe last prompt!"
)

// Resolver finds and checks the generation endpoint.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
	CheckLiveness(ctx context.Context, endpoint string) (string, error)
}

// Acquirer runs one acquisition.
type Acquirer interface {
	Allow() error
	Run(ctx context.Context, endpoint, prompt string, status acquire.StatusSink) (*scene.Node, error)
}

type result struct {
	prompt string
	root   *scene.Node
	err    error
}

// Spawner drives acquisitions, placement and orbit stepping.
type Spawner struct {
	resolver Resolver
	acquirer Acquirer
	placer   *placement.Placer
	engine   *orbit.Engine
	sampler  *orbit.Sampler
	anchor   scene.Transform
	status   acquire.StatusSink
	metrics  *metrics.Collector
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	endpoint string
	pending  bool
	closed   bool
	tuning   orbit.Tuning

	results chan result

	// assigned is the orbit object of the placer's assigned container.
	// Only touched by Update.
	assigned *orbit.Object
}

// Options configures a Spawner.
type Options struct {
	Tuning    orbit.Tuning
	Placement placement.Options
	Graph     *scene.Graph
	Factory   scene.ContainerFactory
	Sampler   *orbit.Sampler
	Status    acquire.StatusSink
	Metrics   *metrics.Collector
}

// New creates a spawner. The tuning is validated up front.
func New(resolver Resolver, acquirer Acquirer, opts Options) (*Spawner, error) {
	if err := opts.Tuning.Validate(); err != nil {
		return nil, err
	}
	if opts.Graph == nil {
		opts.Graph = scene.NewGraph()
	}
	if opts.Sampler == nil {
		opts.Sampler = orbit.NewSampler(nil)
	}
	if opts.Status == nil {
		opts.Status = acquire.StatusFunc(func(string) {})
	}
	placer := placement.NewPlacer(opts.Graph, opts.Factory, opts.Placement)

	ctx, cancel := context.WithCancel(context.Background())
	return &Spawner{
		resolver: resolver,
		acquirer: acquirer,
		placer:   placer,
		engine:   orbit.NewEngine(),
		sampler:  opts.Sampler,
		anchor:   opts.Placement.Anchor,
		status:   opts.Status,
		metrics:  opts.Metrics,
		log:      logger.Named("spawner"),
		ctx:      ctx,
		cancel:   cancel,
		tuning:   opts.Tuning,
		results:  make(chan result, 1),
	}, nil
}

// Start resolves the endpoint and checks it in the background. Progress
// and failures are reported through the status sink.
func (s *Spawner) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := mergeCancel(ctx, s.ctx)
		defer cancel()
		s.resolve(ctx)
	}()
}

func (s *Spawner) resolve(ctx context.Context) {
	start := time.Now()
	ep, err := s.resolver.Resolve(ctx)
	s.metrics.ObserveStage(metrics.StageResolve, time.Since(start), err)
	if err != nil {
		s.log.Error("endpoint resolution failed", zap.Error(err))
		if errors.Is(err, endpoint.ErrEmptyEndpoint) {
			s.status.SetStatus(StatusEmptyEndpoint)
		} else {
			s.status.SetStatus(StatusFetchFailed + err.Error())
		}
		return
	}

	s.mu.Lock()
	s.endpoint = ep
	s.mu.Unlock()
	s.log.Info("endpoint ready", zap.String("endpoint", ep))

	start = time.Now()
	text, err := s.resolver.CheckLiveness(ctx, ep)
	s.metrics.ObserveStage(metrics.StageLiveness, time.Since(start), err)
	if err != nil {
		s.status.SetStatus(StatusNotConnected)
		return
	}
	s.status.SetStatus(text + StatusReadySuffix)
}

// Endpoint returns the resolved endpoint, or "" before resolution.
func (s *Spawner) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Submit starts an acquisition for prompt. Only one may be pending; a
// second submission is rejected with ErrBusy rather than queued.
func (s *Spawner) Submit(prompt string) error {
	if _, err := acquire.ValidatePrompt(prompt); err != nil {
		s.metrics.Submission(metrics.OutcomeInvalid)
		s.status.SetStatus(acquire.StatusInvalidPrompt)
		return err
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.endpoint == "":
		s.mu.Unlock()
		s.metrics.Submission(metrics.OutcomeNotReady)
		s.status.SetStatus(StatusNotConnected)
		return ErrEndpointNotReady
	case s.pending:
		s.mu.Unlock()
		s.metrics.Submission(metrics.OutcomeBusy)
		s.status.SetStatus(StatusBusy)
		return ErrBusy
	}
	if err := s.acquirer.Allow(); err != nil {
		s.mu.Unlock()
		s.metrics.Submission(metrics.OutcomeThrottled)
		s.status.SetStatus(acquire.StatusFor(err))
		return err
	}
	s.pending = true
	ep := s.endpoint
	s.wg.Add(1)
	s.mu.Unlock()

	s.metrics.Submission(metrics.OutcomeAccepted)
	s.status.SetStatus(StatusProcessing + prompt)
	s.log.Info("prompt accepted", zap.String("prompt", prompt))

	go func() {
		defer s.wg.Done()
		root, err := s.acquirer.Run(s.ctx, ep, prompt, s.status)
		s.results <- result{prompt: prompt, root: root, err: err}
	}()
	return nil
}

// Pending reports whether an acquisition is in flight or awaiting Update.
func (s *Spawner) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SetTuning replaces the tuning used for future spawns. Objects already
// orbiting keep their parameters.
func (s *Spawner) SetTuning(t orbit.Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.tuning = t
	s.mu.Unlock()
	s.log.Info("tuning updated",
		zap.Float32("min_radius", t.MinRadius),
		zap.Float32("max_radius", t.MaxRadius))
	return nil
}

// Tuning returns the current tuning.
func (s *Spawner) Tuning() orbit.Tuning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tuning
}

// Update places a finished acquisition, if any, then advances every
// orbiting object by dt seconds.
func (s *Spawner) Update(dt float32) {
	select {
	case r := <-s.results:
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
		s.handle(r)
	default:
	}

	s.engine.Step(dt)

	if s.assigned != nil && (!s.assigned.Alive() || s.assigned.State() != orbit.StateWaiting) {
		if c, ok := s.assigned.Target().(*scene.Node); ok {
			s.placer.Release(c)
		}
		s.assigned = nil
	}

	if s.metrics != nil {
		counts := s.engine.CountByState()
		byName := make(map[string]int, len(counts))
		for st, n := range counts {
			byName[st.String()] = n
		}
		s.metrics.SetObjects(byName)
	}
}

func (s *Spawner) handle(r result) {
	if r.err != nil {
		// The pipeline already reported the failure text.
		return
	}
	placed := s.placer.Place(r.root)

	obj, err := s.sampler.Spawn(placed.Container, s.Tuning(), s.anchor.Position)
	if err != nil {
		s.log.Error("cannot start orbit", zap.String("prompt", r.prompt), zap.Error(err))
		s.status.SetStatus(acquire.StatusLoadError)
		return
	}
	s.engine.Add(obj)
	s.assigned = obj
	s.metrics.Placed()
	s.status.SetStatus(acquire.StatusLoaded)
	s.log.Info("model placed",
		zap.String("prompt", r.prompt),
		zap.Float32("radius", obj.TargetRadius()),
		zap.Float32("height", obj.TargetHeight()))
}

// Engine returns the orbit engine. Callers must only read it from the
// goroutine that calls Update.
func (s *Spawner) Engine() *orbit.Engine {
	return s.engine
}

// Assigned returns the container waiting to start moving, or nil.
func (s *Spawner) Assigned() *scene.Node {
	return s.placer.Assigned()
}

// Close cancels in-flight work and waits for background goroutines.
func (s *Spawner) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// String summarizes the spawner for debug overlays.
func (s *Spawner) String() string {
	counts := s.engine.CountByState()
	parts := make([]string, 0, 3)
	for _, st := range []orbit.State{orbit.StateWaiting, orbit.StateSpiraling, orbit.StateOrbiting} {
		parts = append(parts, fmt.Sprintf("%s=%d", st, counts[st]))
	}
	return "objects " + strings.Join(parts, " ")
}

// mergeCancel returns a context derived from a that is also canceled when
// b is done.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
