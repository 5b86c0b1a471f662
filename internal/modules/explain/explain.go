package explain

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	appcfg "github.com/eduflash/core/internal/config"
	"go.uber.org/zap"
)

// Request carries what a provider needs to generate an explanation.
type Request struct {
	Question      string
	CorrectAnswer string
}

// Source is one explanation provider attempt. Generate returns the generated
// text or an error; an empty result is treated as a failure by the resolver.
type Source interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Service resolves explanation text for answered questions. It prefers
// AI-generated text and degrades to the canned fallback, never failing
// outward. Resolved text is cached per question id for the process lifetime;
// that includes the fallback, so a transient provider outage pins the canned
// text for that question until restart. Deliberate: it bounds provider
// traffic to one attempt burst per question id.
type Service struct {
	mu      sync.Mutex
	cache   map[string]string
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
}

const defaultTimeout = 5 * time.Second

// New creates a resolver with an explicit source chain, tried in order.
func New(sources []Source, timeout time.Duration, log *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		cache:   make(map[string]string),
		sources: sources,
		timeout: timeout,
		logger:  log,
	}
}

// FromConfig builds the source chain from the configured provider list.
// Disabled providers and providers without a usable API key are skipped
// entirely, so they never cost a network call.
func FromConfig(cfg appcfg.AIConfig, log *zap.Logger) *Service {
	sources := make([]Source, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if !p.Enabled || !p.HasUsableKey() {
			continue
		}
		sources = append(sources, newSource(p))
	}
	return New(sources, time.Duration(cfg.TimeoutSeconds)*time.Second, log)
}

// Resolve returns explanation text for the question. Providers are tried in
// priority order, each bounded by the per-call timeout; the first non-empty
// generated text wins, otherwise fallback is returned. Resolve never
// returns an error.
func (s *Service) Resolve(ctx context.Context, questionID string, req Request, fallback string) string {
	if strings.TrimSpace(questionID) == "" {
		return fallback
	}

	s.mu.Lock()
	if cached, ok := s.cache[questionID]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	text := s.generate(ctx, questionID, req)
	if text == "" {
		text = fallback
	}

	// Concurrent first resolutions for the same id may race here; the last
	// writer wins. See the resolver doc comment for the caching policy.
	s.mu.Lock()
	s.cache[questionID] = text
	s.mu.Unlock()

	return text
}

func (s *Service) generate(ctx context.Context, questionID string, req Request) string {
	for _, src := range s.sources {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		text, err := src.Generate(callCtx, req)
		cancel()

		if err != nil {
			s.logger.Warn("explanation provider failed",
				zap.String("provider", src.Name()),
				zap.String("question_id", questionID),
				zap.Error(err),
			)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			s.logger.Warn("explanation provider returned empty text",
				zap.String("provider", src.Name()),
				zap.String("question_id", questionID),
			)
			continue
		}

		s.logger.Info("explanation generated",
			zap.String("provider", src.Name()),
			zap.String("question_id", questionID),
		)
		return text
	}
	return ""
}

// CacheStats reports the cache size and the cached question ids.
func (s *Service) CacheStats() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return len(keys), keys
}

// FlushCache drops all cached explanations.
func (s *Service) FlushCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]string)
}
