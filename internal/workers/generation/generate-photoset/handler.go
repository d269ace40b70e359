// internal/workers/generation/generate-photoset/handler.go
package generatephotoset

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	apperrors "photoshoot-api/internal/common/errors"
	"photoshoot-api/internal/common/gemini"
	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/common/metrics"
	"photoshoot-api/internal/common/observability"
	"photoshoot-api/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	TaskType = "generate-photoset"

	promptTemplate = "%s\nMake a single high-quality realistic image of the couple using the provided reference faces and outfits. Ensure romantic composition and photography aesthetics. Variation seed: %d."
)

// Backend performs one generation call with one key and one model.
type Backend interface {
	Generate(ctx context.Context, attempt models.GenerationAttempt) (*models.ImagePayload, error)
}

type Handler struct {
	config   *Config
	backend  Backend
	classify Classifier
	logger   logger.Logger
	obs      *observability.Observability
	pacer    *rate.Limiter
	seed     func(i int) int64
}

type Option func(*Handler)

func WithClassifier(c Classifier) Option {
	return func(h *Handler) { h.classify = c }
}

func WithObservability(obs *observability.Observability) Option {
	return func(h *Handler) { h.obs = obs }
}

// WithSeedFunc replaces the random seed source; i is the task index.
func WithSeedFunc(fn func(i int) int64) Option {
	return func(h *Handler) { h.seed = fn }
}

func NewHandler(config *Config, backend Backend, log logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		config:   config,
		backend:  backend,
		classify: DefaultClassifier,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
		seed: func(i int) int64 { return rand.Int63n(1e9) + int64(i) },
	}
	if config.MinInterval > 0 {
		h.pacer = rate.NewLimiter(rate.Every(config.MinInterval), 2)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GeneratePhotoset produces count images of the couple for the given prompt.
func (h *Handler) GeneratePhotoset(ctx context.Context, prompt string, a, b models.ImageInput, count int) ([]models.GeneratedImage, error) {
	out, err := h.Execute(ctx, &Input{Prompt: prompt, ImageA: a, ImageB: b, Count: count})
	if err != nil {
		return nil, err
	}
	return out.Images, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if len(h.config.APIKeys) == 0 {
		return nil, apperrors.NewConfigurationError("no GEMINI_API_KEY_* provided")
	}
	if len(h.config.Models) == 0 {
		return nil, apperrors.NewConfigurationError("no generation models configured")
	}

	count := input.Count
	if count <= 0 {
		count = h.config.Count
	}

	ctx, span := h.obs.StartSpan(ctx, "generation.batch", attribute.Int("count", count))
	defer span.End()

	start := time.Now()
	h.logger.Info("generation started", map[string]interface{}{
		"count":   count,
		"workers": h.config.Workers,
		"keys":    len(h.config.APIKeys),
		"models":  h.config.Models,
	})

	images, err := h.run(ctx, input, count)
	duration := time.Since(start)

	status := batchStatus(err)
	metrics.GenerationBatches.WithLabelValues(status).Inc()
	metrics.GenerationBatchDuration.WithLabelValues(status).Observe(duration.Seconds())
	h.obs.RecordBatch(ctx, status, duration)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		h.logger.Error("generation failed", map[string]interface{}{
			"error":      err,
			"status":     status,
			"durationMs": duration.Milliseconds(),
		})
		return nil, err
	}

	h.logger.Info("generation completed", map[string]interface{}{
		"images":     len(images),
		"durationMs": duration.Milliseconds(),
	})
	return &Output{Images: images}, nil
}

// run fans count seeds out over the worker pool under the batch deadline.
// Any task failure fails the batch and partial results are dropped.
func (h *Handler) run(parent context.Context, input *Input, count int) ([]models.GeneratedImage, error) {
	ctx, cancel := context.WithTimeout(parent, h.config.Timeout)
	defer cancel()

	seeds := make(chan int64, count)
	for i := 0; i < count; i++ {
		seeds <- h.seed(i)
	}
	close(seeds)

	refs := []models.ImageInput{input.ImageA, input.ImageB}

	var mu sync.Mutex
	results := make([]models.GeneratedImage, 0, count)

	workers := h.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for seed := range seeds {
				if err := gctx.Err(); err != nil {
					return err
				}

				metrics.GenerationWorkersActive.Inc()
				img, err := h.generateOne(gctx, input.Prompt, refs, seed)
				metrics.GenerationWorkersActive.Dec()
				if err != nil {
					return err
				}

				mu.Lock()
				img.Index = len(results) + 1
				results = append(results, *img)
				mu.Unlock()
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, h.batchError(ctx, parent, err)
		}
		return results, nil
	case <-ctx.Done():
		return nil, h.batchError(ctx, parent, ctx.Err())
	}
}

func (h *Handler) batchError(ctx, parent context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return apperrors.NewGenerationTimeoutError(h.config.Timeout)
	}
	if parent.Err() != nil {
		return fmt.Errorf("generation cancelled: %w", parent.Err())
	}
	return err
}

// generateOne runs the attempt protocol for one seed: keys in priority
// order, models in priority order within a key. Quota failures skip to the
// next key, model failures to the next model, anything else aborts.
func (h *Handler) generateOne(ctx context.Context, basePrompt string, refs []models.ImageInput, seed int64) (*models.GeneratedImage, error) {
	prompt := fmt.Sprintf(promptTemplate, basePrompt, seed)

	var lastErr error
	var lastClass FailureClass
	for keyIndex, key := range h.config.APIKeys {
	modelLoop:
		for _, model := range h.config.Models {
			if h.pacer != nil {
				if err := h.pacer.Wait(ctx); err != nil {
					return nil, err
				}
			}

			payload, err := h.attempt(ctx, keyIndex, models.GenerationAttempt{
				APIKey: key,
				Model:  model,
				Prompt: prompt,
				Images: refs,
				Seed:   seed,
			})
			if err == nil {
				return &models.GeneratedImage{
					Data:     payload.Data,
					MIMEType: payload.MIMEType,
					Seed:     seed,
					Model:    model,
				}, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			lastErr = err
			lastClass = h.classify(err)
			h.recordFailure(model, lastClass)

			fields := map[string]interface{}{
				"seed":     seed,
				"keyIndex": keyIndex,
				"model":    model,
				"class":    lastClass.String(),
				"error":    err,
			}
			switch lastClass {
			case ClassQuota:
				h.logger.Warn("backend refused for quota, trying next key", fields)
				break modelLoop
			case ClassModel:
				h.logger.Warn("model unavailable, trying next model", fields)
				continue
			default:
				return nil, apperrors.NewGenerationFailedError(err)
			}
		}
	}

	if lastClass == ClassQuota {
		return nil, apperrors.NewBackendQuotaError(lastErr)
	}
	return nil, apperrors.NewBackendModelError(lastErr)
}

func (h *Handler) attempt(ctx context.Context, keyIndex int, a models.GenerationAttempt) (*models.ImagePayload, error) {
	ctx, span := h.obs.StartSpan(ctx, "generation.attempt",
		attribute.String("model", a.Model),
		attribute.Int("keyIndex", keyIndex),
		attribute.Int64("seed", a.Seed),
	)
	defer span.End()

	payload, err := h.backend.Generate(ctx, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if payload == nil || len(payload.Data) == 0 {
		return nil, gemini.ErrNoImage
	}

	metrics.GenerationAttempts.WithLabelValues(a.Model, "success").Inc()
	h.obs.RecordAttempt(ctx, a.Model, "success")
	return payload, nil
}

func (h *Handler) recordFailure(model string, class FailureClass) {
	metrics.GenerationAttempts.WithLabelValues(model, class.String()).Inc()
	h.obs.RecordAttempt(context.Background(), model, class.String())
}

func batchStatus(err error) string {
	if err == nil {
		return models.BatchStatusSuccess
	}
	if stdErr, ok := apperrors.AsStandard(err); ok && stdErr.Code == apperrors.ErrCodeGenerationTimeout {
		return models.BatchStatusTimeout
	}
	return models.BatchStatusFailed
}
