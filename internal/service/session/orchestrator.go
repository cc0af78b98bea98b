package session

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hugo-lorenzo-mato/docent/internal/control"
	"github.com/hugo-lorenzo-mato/docent/internal/core"
	"github.com/hugo-lorenzo-mato/docent/internal/events"
	"github.com/hugo-lorenzo-mato/docent/internal/logging"
	"github.com/hugo-lorenzo-mato/docent/internal/service"
)

// Orchestrator fans section tasks out over the gateway and collects
// their results in input order.
type Orchestrator struct {
	gateway core.Gateway
	prompts *service.PromptRenderer
	scorer  core.ComplexityScorer
	plane   *control.Plane
	bus     *events.Bus
	logger  *logging.Logger
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithScorer overrides the complexity scorer. By default a rubric
// evaluator backed by the run's gated gateway is used.
func WithScorer(s core.ComplexityScorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

// WithControlPlane attaches a pause/cancel plane.
func WithControlPlane(p *control.Plane) Option {
	return func(o *Orchestrator) { o.plane = p }
}

// WithBus attaches an event bus for session events.
func WithBus(b *events.Bus) Option {
	return func(o *Orchestrator) { o.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an orchestrator.
func New(gateway core.Gateway, prompts *service.PromptRenderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway: gateway,
		prompts: prompts,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// runState is the mutable bookkeeping of one run. All fields are
// guarded by mu; progress callbacks fire inside the critical section so
// completed counts are strictly increasing.
type runState struct {
	mu        sync.Mutex
	results   []*core.SectionResult
	completed int
	questions []string
}

func (s *runState) record(res core.SectionResult, total int, notify core.ProgressFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[res.SectionIndex] = &res
	s.completed++
	if notify != nil {
		notify(s.completed, total)
	}
}

func (s *runState) priorQuestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *runState) addQuestion(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, q)
}

// Run executes one study session over the given sections.
//
// Results come back ordered by section index with no gaps; a single
// section's failure never aborts its siblings. onProgress fires once
// per completed section with a strictly increasing completed count.
func (o *Orchestrator) Run(ctx context.Context, sessionID core.SessionID, sections []core.Section, cfg Config, onProgress core.ProgressFunc) ([]core.SectionResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return []core.SectionResult{}, nil
	}

	logger := o.logger.WithSession(string(sessionID))
	o.publish(events.NewSessionStarted(string(sessionID), len(sections)))

	// Keyword assignment happens up front, in index order, each
	// keyword consumed at most once.
	assigned := assignKeywords(sections, cfg.Keywords)

	gated := newGatedGateway(o.gateway, semaphore.NewWeighted(int64(cfg.Concurrency)), cfg.callTimeout())

	scorer := o.scorer
	if scorer == nil {
		scorer = service.NewRubricEvaluator(gated, o.prompts, logger)
	}

	state := &runState{results: make([]*core.SectionResult, len(assigned))}
	deps := taskDeps{
		gateway:        gated,
		scorer:         scorer,
		prompts:        o.prompts,
		plane:          o.plane,
		logger:         logger,
		priorQuestions: state.priorQuestions,
		recordQuestion: state.addQuestion,
	}

	total := len(assigned)
	g, gctx := errgroup.WithContext(ctx)
	for _, section := range assigned {
		section := section
		g.Go(func() error {
			o.publish(events.NewSectionStarted(string(sessionID), section.Index, section.TargetKeyword))

			res := newSectionTask(section, cfg, deps).run(gctx)

			// Progress notifications fire inside record's critical
			// section so both the callback and the bus see strictly
			// increasing completed counts.
			state.record(res, total, func(completed, total int) {
				if onProgress != nil {
					onProgress(completed, total)
				}
				o.publish(events.NewProgress(string(sessionID), completed, total))
			})
			o.publishSectionDone(sessionID, res)
			// Failures are isolated per section; never fail the group.
			return nil
		})
	}
	// Tasks absorb their own errors, so Wait only synchronizes.
	_ = g.Wait()

	results, err := aggregate(state.results)
	if err != nil {
		logger.Error("result aggregation failed", "error", err)
		o.publish(events.NewSessionFailed(string(sessionID), err.Error()))
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
		}
	}
	logger.Info("session run finished",
		"sections", total,
		"failed", failed,
	)
	o.publish(events.NewSessionCompleted(string(sessionID), total, failed))

	return results, nil
}

// assignKeywords copies the sections and hands out keywords first-come
// first-served in index order. Sections beyond the pool get none.
func assignKeywords(sections []core.Section, keywords []string) []core.Section {
	pool := service.NewKeywordPool(keywords)
	out := make([]core.Section, len(sections))
	copy(out, sections)
	for i := range out {
		if kw, ok := pool.Acquire(); ok {
			out[i].TargetKeyword = kw
		}
	}
	return out
}

func (o *Orchestrator) publish(event events.Event) {
	if o.bus != nil {
		o.bus.Publish(event)
	}
}

func (o *Orchestrator) publishSectionDone(sessionID core.SessionID, res core.SectionResult) {
	if o.bus == nil {
		return
	}
	for _, ex := range res.Exchanges() {
		o.bus.Publish(events.NewExchange(string(sessionID), res.SectionIndex, string(ex.Kind), ex.Ordinal, ex.Question, ex.Answer))
	}
	o.bus.Publish(events.NewSectionCompleted(string(sessionID), res.SectionIndex, len(res.Followups), string(res.Status), res.Error))
}
