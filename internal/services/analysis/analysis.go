// Package services выполняет анализ исходного кода через языковую модель
// и кеширует результаты в redis.
package services

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/magabrotheeeer/review-service/internal/lib/metrics"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/models"
)

//go:embed schema.json
var analysisSchema string

// ErrInvalidAnalysis: ответ модели не соответствует схеме.
var ErrInvalidAnalysis = errors.New("model returned invalid analysis")

const systemPrompt = `You are a senior code reviewer. Analyze the submitted source file and respond with a single JSON object:
{"language": string, "summary": string, "score": integer 0-100, "issues": [{"line": integer, "severity": "info"|"low"|"medium"|"high"|"critical", "category": string, "message": string, "suggestion": string}]}.
Report concrete bugs, security problems, performance issues and style violations. Do not include any text outside the JSON object.`

// Generator: языковая модель, возвращающая JSON.
type Generator interface {
	GenerateJSON(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Cache хранит готовые результаты анализа.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// AnalysisService анализирует код. cache может быть nil.
type AnalysisService struct {
	log      *slog.Logger
	gen      Generator
	cache    Cache
	cacheTTL time.Duration
	schema   *gojsonschema.Schema
}

// NewAnalysisService создает сервис и компилирует схему ответа.
func NewAnalysisService(log *slog.Logger, gen Generator, cache Cache, cacheTTL time.Duration) (*AnalysisService, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisSchema))
	if err != nil {
		return nil, fmt.Errorf("services.NewAnalysisService: compile schema: %w", err)
	}
	return &AnalysisService{log: log, gen: gen, cache: cache, cacheTTL: cacheTTL, schema: schema}, nil
}

// CacheKey возвращает ключ кеша для пары язык/исходник.
func CacheKey(language, source string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(language) + "\x00" + source))
	return "analysis:" + hex.EncodeToString(sum[:])
}

// Analyze возвращает результат анализа source. Повторный запрос того же кода
// обслуживается из кеша.
func (s *AnalysisService) Analyze(ctx context.Context, source, language string) (*models.CodeAnalysis, error) {
	const op = "services.AnalysisService.Analyze"
	log := s.log.With(slog.String("op", op), slog.String("language", language))
	key := CacheKey(language, source)

	if s.cache != nil {
		var cached models.CodeAnalysis
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("analysis cache read failed", sl.Err(err))
		}
		if found {
			metrics.CodeAnalyses.WithLabelValues(language, "cached").Inc()
			return &cached, nil
		}
	}

	prompt := fmt.Sprintf("Language: %s\n\nSource:\n```%s\n%s\n```", language, language, source)
	raw, err := s.gen.GenerateJSON(ctx, systemPrompt, prompt)
	if err != nil {
		metrics.CodeAnalyses.WithLabelValues(language, "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	analysis, err := s.decode(raw)
	if err != nil {
		metrics.CodeAnalyses.WithLabelValues(language, "invalid").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if analysis.Language == "" {
		analysis.Language = language
	}
	metrics.CodeAnalyses.WithLabelValues(language, "ok").Inc()

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, analysis, s.cacheTTL); err != nil {
			log.Warn("analysis cache write failed", sl.Err(err))
		}
	}
	return analysis, nil
}

func (s *AnalysisService) decode(raw string) (*models.CodeAnalysis, error) {
	doc := stripCodeFence(raw)

	result, err := s.schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAnalysis, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAnalysis, strings.Join(errs, "; "))
	}

	var analysis models.CodeAnalysis
	if err := json.Unmarshal([]byte(doc), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAnalysis, err)
	}
	if analysis.Issues == nil {
		analysis.Issues = []models.CodeIssue{}
	}
	return &analysis, nil
}

// stripCodeFence убирает обрамление ```json ... ```, которое модели иногда добавляют.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
