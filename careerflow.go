// Package careerflow provides a convenience entry point for embedding the
// career application pipeline without assembling every component by hand.
//
// Usage:
//
//	import "github.com/careerflow/careerflow"
//
//	app, err := careerflow.New(careerflow.WithOpenAI("gpt-4o"))
//	snap, err := app.Start(ctx, "run-1", "/tmp/cv.pdf", jobDescription)
//	snap, err = app.Approve(ctx, "run-1")
package careerflow

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/careerflow/careerflow/extract"
	"github.com/careerflow/careerflow/llm"
	"github.com/careerflow/careerflow/pipeline"
	"github.com/careerflow/careerflow/providers"
	"github.com/careerflow/careerflow/providers/openai"
	"github.com/careerflow/careerflow/workflow"
)

// Option configures the App created by New.
type Option func(*options)

type options struct {
	model    string
	provider llm.Provider
	store    workflow.Store
	logger   *zap.Logger
	quota    int
	apiKey   string
	baseURL  string
}

// WithProvider sets a pre-built generation provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithOpenAI creates an OpenAI-compatible provider using the given model.
// API key is read from OPENAI_API_KEY unless WithAPIKey overrides it.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// WithAPIKey overrides the provider API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL overrides the provider base URL.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithStore sets the checkpoint store. Default is in-memory.
func WithStore(s workflow.Store) Option {
	return func(o *options) { o.store = s }
}

// WithLogger sets a custom zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithQuestionQuota overrides the first-generation interview question
// count.
func WithQuestionQuota(n int) Option {
	return func(o *options) { o.quota = n }
}

// App bundles a built pipeline with its workflow engine.
type App struct {
	engine *workflow.Engine
}

// New assembles an App. A provider must be supplied via WithOpenAI or
// WithProvider.
func New(opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.model == "" {
		o.model = "gpt-4o"
	}
	if o.provider == nil {
		if o.apiKey == "" {
			return nil, fmt.Errorf("careerflow: no provider configured, use WithOpenAI or WithProvider")
		}
		o.provider = openai.New(providers.OpenAIConfig{
			APIKey:  o.apiKey,
			BaseURL: o.baseURL,
			Model:   o.model,
		}, o.logger)
	}
	if o.store == nil {
		o.store = workflow.NewMemoryStore()
	}

	cfg := pipeline.DefaultConfig(o.model)
	if o.quota > 0 {
		cfg.QuestionQuota = o.quota
	}

	pipe, err := pipeline.New(cfg, o.provider, extract.NewService(o.logger), llm.NewTokenizer(o.model), o.logger)
	if err != nil {
		return nil, err
	}

	graph, err := pipe.Graph()
	if err != nil {
		return nil, err
	}

	engine := workflow.NewEngine(graph, o.store, o.logger, workflow.NopHooks{})
	return &App{engine: engine}, nil
}

// Engine exposes the underlying workflow engine for advanced use.
func (a *App) Engine() *workflow.Engine {
	return a.engine
}

// Start begins a run from a CV file and a job description, executing until
// the first checkpoint.
func (a *App) Start(ctx context.Context, runID, cvPath, jobDescription string) (*workflow.Snapshot, error) {
	return a.engine.Start(ctx, runID, &workflow.State{
		CVFilePath:     cvPath,
		JobDescription: jobDescription,
	})
}

// Feedback resumes a suspended run with revision feedback.
func (a *App) Feedback(ctx context.Context, runID, text string) (*workflow.Snapshot, error) {
	return a.engine.Resume(ctx, runID, workflow.Feedback{Text: text})
}

// Approve resumes a suspended run accepting the pending draft.
func (a *App) Approve(ctx context.Context, runID string) (*workflow.Snapshot, error) {
	return a.engine.Resume(ctx, runID, workflow.Feedback{})
}

// Inspect returns the current snapshot of a run.
func (a *App) Inspect(ctx context.Context, runID string) (*workflow.Snapshot, error) {
	return a.engine.Inspect(ctx, runID)
}
