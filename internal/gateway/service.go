package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nulzo/oneai-gateway/internal/analytics"
	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/internal/router"
	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/internal/store/cache"
	"github.com/nulzo/oneai-gateway/internal/store/model"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

const (
	DefaultAdapterTimeout = 30 * time.Second
	DefaultCatalogTTL     = 10 * time.Minute

	tracerName = "github.com/nulzo/oneai-gateway/internal/gateway"
)

// Service executes capability requests end to end.
type Service interface {
	// Execute routes, calls and normalizes one request. The only error it
	// returns is a validation problem; every other failure is reported
	// inside the envelope.
	Execute(ctx context.Context, req *api.CapabilityRequest) (*api.CanonicalResponse, error)
	VideoStatus(ctx context.Context, provider llm.ProviderID, jobID string) (*api.VideoStatusResponse, error)
	Catalog(ctx context.Context) (*api.Catalog, error)
	Providers() []api.ProviderStatus
}

type Option func(*service)

// WithAdapterTimeout bounds each adapter call. Zero disables the bound.
func WithAdapterTimeout(d time.Duration) Option {
	return func(s *service) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

func WithCatalogTTL(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.catalogTTL = d
		}
	}
}

func WithIngestor(i analytics.Ingestor) Option {
	return func(s *service) { s.ingestor = i }
}

func WithCache(c cache.CacheService) Option {
	return func(s *service) { s.cache = c }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *service) { s.tracer = t }
}

type service struct {
	logger     *zap.Logger
	router     *router.Router
	creds      llm.Credentials
	providers  map[llm.ProviderID]llm.Provider
	ingestor   analytics.Ingestor
	cache      cache.CacheService
	tracer     trace.Tracer
	timeout    time.Duration
	catalogTTL time.Duration
	now        func() time.Time
	newID      func() string
}

func NewService(logger *zap.Logger, rt *router.Router, creds llm.Credentials, providers map[llm.ProviderID]llm.Provider, opts ...Option) Service {
	s := &service{
		logger:     logger,
		router:     rt,
		creds:      creds,
		providers:  providers,
		tracer:     otel.Tracer(tracerName),
		timeout:    DefaultAdapterTimeout,
		catalogTTL: DefaultCatalogTTL,
		now:        time.Now,
		newID:      func() string { return "req_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.providers == nil {
		s.providers = make(map[llm.ProviderID]llm.Provider)
	}
	return s
}

func (s *service) Execute(ctx context.Context, req *api.CapabilityRequest) (resp *api.CanonicalResponse, err error) {
	if problem := Validate(req); problem != nil {
		return nil, problem
	}

	start := s.now()
	resp = &api.CanonicalResponse{
		ID:      s.newID(),
		Task:    req.Task,
		Created: start.Unix(),
	}

	ctx, span := s.tracer.Start(ctx, "gateway.execute", trace.WithAttributes(
		attribute.String("gateway.task", string(req.Task)),
		attribute.String("gateway.model_hint", req.ModelHint),
	))
	defer span.End()

	var kind llm.Kind
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered panic while executing request",
				zap.String("request_id", resp.ID),
				zap.String("task", string(req.Task)),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			span.SetStatus(codes.Error, "panic")
			internalFailure(resp)
			kind = llm.KindInternal
			err = nil
		}
		s.record(ctx, req, resp, kind, s.now().Sub(start))
	}()

	candidates := s.router.Route(req.Task, req.ModelHint, s.creds)
	target := candidates[0]
	resp.Provider = string(target.Provider)
	span.SetAttributes(attribute.String("gateway.provider", resp.Provider))

	if callErr := s.invoke(ctx, target, req, resp); callErr != nil {
		kind = Degrade(resp, req, candidates, callErr)
		s.logger.Warn("Capability call failed",
			zap.String("request_id", resp.ID),
			zap.String("task", string(req.Task)),
			zap.String("provider", string(target.Provider)),
			zap.String("kind", string(kind)),
			zap.Bool("degraded", resp.Degraded),
			zap.Error(callErr),
		)
		span.RecordError(callErr)
		span.SetAttributes(attribute.String("gateway.error_kind", string(kind)))
		if !resp.Success {
			span.SetStatus(codes.Error, string(kind))
		}
	}

	return resp, nil
}

// invoke makes the single adapter call for the candidate and normalizes its
// output into resp.
func (s *service) invoke(ctx context.Context, c router.Candidate, req *api.CapabilityRequest, resp *api.CanonicalResponse) error {
	if c.Provider == llm.Demo {
		return fmt.Errorf("%w: no provider handles %s", llm.ErrUnsupported, req.Task)
	}
	p, ok := s.providers[c.Provider]
	if !ok {
		return &llm.ConfigurationError{Provider: c.Provider, EnvVar: c.EnvVar}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// chain entries use the adapter's default model
	modelName := ""
	if c.Rule != "" {
		modelName = req.ModelHint
	}
	opts := req.Options

	switch req.Task {
	case api.TaskChat:
		cp, ok := p.(llm.ChatProvider)
		if !ok {
			return unsupported(c.Provider, req.Task)
		}
		out, err := cp.Chat(ctx, &llm.ChatInput{
			Model:       modelName,
			Messages:    llm.MessagesFromAPI(req.Messages),
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		})
		if err != nil {
			return err
		}
		return NormalizeChat(resp, out)

	case api.TaskImage:
		ip, ok := p.(llm.ImageProvider)
		if !ok {
			return unsupported(c.Provider, req.Task)
		}
		out, err := ip.GenerateImage(ctx, &llm.ImageInput{
			Model:   modelName,
			Prompt:  req.Prompt,
			Size:    opts.Size,
			Style:   opts.Style,
			Quality: opts.Quality,
			N:       opts.N,
		})
		if err != nil {
			return err
		}
		return NormalizeImage(resp, out)

	case api.TaskVideo:
		vp, ok := p.(llm.VideoProvider)
		if !ok {
			return unsupported(c.Provider, req.Task)
		}
		out, err := vp.GenerateVideo(ctx, &llm.VideoInput{
			Model:    modelName,
			Prompt:   req.Prompt,
			Duration: opts.Duration,
			Avatar:   opts.Avatar,
			Voice:    opts.Voice,
		})
		if err != nil {
			return err
		}
		return NormalizeVideo(resp, out)

	case api.TaskAudio:
		sp, ok := p.(llm.SpeechProvider)
		if !ok {
			return unsupported(c.Provider, req.Task)
		}
		out, err := sp.Speak(ctx, &llm.SpeechInput{Model: modelName, Text: req.Text, Voice: opts.Voice})
		if err != nil {
			return err
		}
		return NormalizeAudio(resp, out)

	case api.TaskTranscription:
		tp, ok := p.(llm.TranscriptionProvider)
		if !ok {
			return unsupported(c.Provider, req.Task)
		}
		out, err := tp.Transcribe(ctx, &llm.TranscriptionInput{
			Model:    modelName,
			Filename: req.Audio.Filename,
			Audio:    req.Audio.Data,
			Language: opts.Language,
		})
		if err != nil {
			return err
		}
		return NormalizeTranscript(resp, out)

	case api.TaskMusic:
		mp, ok := p.(llm.MusicProvider)
		if !ok {
			return unsupported(c.Provider, req.Task)
		}
		out, err := mp.GenerateMusic(ctx, &llm.MusicInput{
			Model:        modelName,
			Prompt:       req.Prompt,
			Genre:        opts.Genre,
			Duration:     opts.Duration,
			Instrumental: opts.Instrumental,
		})
		if err != nil {
			return err
		}
		return NormalizeAudio(resp, out)
	}

	return unsupported(c.Provider, req.Task)
}

func unsupported(id llm.ProviderID, task api.Task) error {
	return fmt.Errorf("%w: %s cannot serve %s", llm.ErrUnsupported, llm.DisplayName(id), task)
}

// internalFailure keeps only the request identity of resp. Anything a
// partial normalization wrote is discarded.
func internalFailure(resp *api.CanonicalResponse) {
	*resp = api.CanonicalResponse{
		ID:       resp.ID,
		Task:     resp.Task,
		Provider: resp.Provider,
		Created:  resp.Created,
		Usage:    &api.Usage{},
		Error:    "internal error",
	}
}

func (s *service) record(ctx context.Context, req *api.CapabilityRequest, resp *api.CanonicalResponse, kind llm.Kind, latency time.Duration) {
	if s.ingestor == nil {
		return
	}

	var appName, userID, apiKeyID string
	if val, ok := ctx.Value(store.ContextKeyAppName).(string); ok {
		appName = val
	}
	if key, ok := ctx.Value(store.ContextKeyAPIKey).(*model.APIKey); ok {
		userID = key.UserID
		apiKeyID = key.ID
	} else if appName != "" {
		userID = string(api.Anonymous)
		apiKeyID = string(api.Anonymous)
	} else {
		userID = string(api.System)
		apiKeyID = string(api.System)
	}

	rec := &model.RequestRecord{
		ID:         resp.ID,
		Task:       string(req.Task),
		ProviderID: resp.Provider,
		ModelHint:  req.ModelHint,
		Model:      resp.Model,
		Success:    resp.Success,
		Degraded:   resp.Degraded,
		ErrorKind:  string(kind),
		Cost:       resp.Cost,
		LatencyMS:  latency.Milliseconds(),
		UserID:     userID,
		APIKeyID:   apiKeyID,
		AppName:    appName,
		CreatedAt:  time.Unix(resp.Created, 0),
	}
	if resp.Usage != nil {
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
	}
	s.ingestor.Log(rec)
}

func (s *service) VideoStatus(ctx context.Context, provider llm.ProviderID, jobID string) (*api.VideoStatusResponse, error) {
	if jobID == "" {
		return nil, api.BadRequestError("video id is required")
	}
	if provider == "" {
		provider = llm.HeyGen
	}
	if provider == llm.Demo {
		return &api.VideoStatusResponse{
			JobID:    jobID,
			Provider: DemoProvider,
			Status:   "completed",
			VideoURL: DemoVideoURL,
		}, nil
	}

	p, ok := s.providers[provider]
	if !ok {
		return nil, api.NotFoundError(fmt.Sprintf("provider %q is not available", provider))
	}
	vp, ok := p.(llm.VideoStatusProvider)
	if !ok {
		return nil, api.NotFoundError(fmt.Sprintf("%s has no asynchronous video jobs", llm.DisplayName(provider)))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	status, err := vp.VideoStatus(ctx, jobID)
	if err != nil {
		var cfgErr *llm.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, api.NewError(http.StatusServiceUnavailable, "Service Unavailable", cfgErr.Error())
		}
		return nil, api.NewError(http.StatusBadGateway, "Bad Gateway",
			fmt.Sprintf("could not fetch video status from %s", llm.DisplayName(provider)),
			api.WithLog(err),
		)
	}
	return status, nil
}

func (s *service) Catalog(ctx context.Context) (*api.Catalog, error) {
	cacheKey := "catalog:" + string(llm.HeyGen)
	if s.cache != nil {
		var cached api.Catalog
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	empty := &api.Catalog{Provider: string(llm.HeyGen), Voices: []api.Voice{}, Avatars: []api.Avatar{}}
	if !s.creds.Present(llm.HeyGen) {
		return empty, nil
	}
	p, ok := s.providers[llm.HeyGen].(llm.CatalogProvider)
	if !ok {
		return empty, nil
	}

	catalog, err := p.Catalog(ctx)
	if err != nil {
		s.logger.Warn("Catalog fetch failed", zap.String("provider", string(llm.HeyGen)), zap.Error(err))
		return empty, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, catalog, s.catalogTTL); err != nil {
			s.logger.Debug("catalog cache write failed", zap.Error(err))
		}
	}
	return catalog, nil
}

// Providers reports every known vendor and whether its key is set.
func (s *service) Providers() []api.ProviderStatus {
	descs := llm.Descriptors()
	out := make([]api.ProviderStatus, 0, len(descs))
	for _, d := range descs {
		tasks := make([]api.Task, len(d.Tasks))
		copy(tasks, d.Tasks)
		out = append(out, api.ProviderStatus{
			ID:          string(d.ID),
			DisplayName: d.DisplayName,
			EnvVar:      d.EnvVar,
			Configured:  s.creds.Present(d.ID),
			Tasks:       tasks,
		})
	}
	return out
}
