// Package rubric implements C3: atomic per-dimension LLM scoring with a
// resumable cache, bounded concurrency, and reproducibility pinning.
package rubric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/pkg/llm"
)

// rawScoreResponse is the JSON schema the model is instructed to return
// for a single dimension call (§4.3 step 1/4).
type rawScoreResponse struct {
	Score          int    `json:"score"`
	Evidence       string `json:"evidence"`
	ReasoningSteps string `json:"reasoning_steps"`
}

// Scorer implements domain.RubricScorer.
type Scorer struct {
	client            domain.LLMClient
	log               *logrus.Logger
	cache             *Cache
	concurrencyCeiling int
	retryPolicy       *llm.RetryPolicy
	temperature       float64
	seed              int64
	locker            *DistLock

	promptHash string
}

// WithDistLock attaches a distributed dedupe lock, used best-effort: a
// scorer still works correctly without one, just without the
// cross-process guarantee (§5).
func (s *Scorer) WithDistLock(locker *DistLock) *Scorer {
	s.locker = locker
	return s
}

// Config configures a Scorer.
type Config struct {
	ConcurrencyCeiling int
	CachePath          string
	Temperature        float64
	Seed               int64
	MaxRetries         int
	RedisURL           string
	LockTTL            time.Duration
}

// NewScorer constructs a Scorer with a loaded resumable cache. When
// cfg.RedisURL is set, it also attaches a distributed dedupe lock; a
// failure to reach Redis is logged and otherwise ignored, since the
// on-disk resumable cache already makes a single-process run correct
// without it.
func NewScorer(client domain.LLMClient, cfg Config, logger *logrus.Logger) (*Scorer, error) {
	if cfg.ConcurrencyCeiling <= 0 {
		cfg.ConcurrencyCeiling = 1
	}
	cache, err := LoadCache(cfg.CachePath)
	if err != nil {
		return nil, err
	}

	s := &Scorer{
		client:             client,
		log:                logger,
		cache:              cache,
		concurrencyCeiling: cfg.ConcurrencyCeiling,
		retryPolicy:        llm.NewRetryPolicy(cfg.MaxRetries),
		temperature:        cfg.Temperature,
		seed:               cfg.Seed,
	}

	if cfg.RedisURL != "" {
		ttl := cfg.LockTTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		locker, lockErr := NewDistLock(context.Background(), cfg.RedisURL, ttl)
		if lockErr != nil {
			logger.WithError(lockErr).Warn("distributed dedupe lock unavailable, scoring without cross-process coordination")
		} else {
			s.locker = locker
		}
	}

	return s, nil
}

// ScoreBatch scores a batch of applicants across all 21 dimensions,
// skipping any applicant already fully scored when resume is true, and
// re-scoring only missing dimensions for a partial applicant (§4.3
// "Resumability").
func (s *Scorer) ScoreBatch(ctx context.Context, applicants []domain.Applicant, resume bool) ([]domain.RubricScore, *domain.Report, error) {
	report := &domain.Report{StartedAt: time.Now().UTC()}

	hash, err := promptSetHash(s.client.ModelVersion(), s.temperature, s.seed, domain.RubricV2.ScaleMax())
	if err != nil {
		return nil, report, fmt.Errorf("computing prompt set hash: %w", err)
	}
	s.promptHash = hash

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrencyCeiling)

	results := make([]domain.RubricScore, len(applicants))

	for i, a := range applicants {
		i, a := i, a
		eg.Go(func() error {
			score, err := s.scoreOne(egCtx, a, resume)
			if err != nil {
				return fmt.Errorf("scoring applicant %d: %w", a.AMCASID, err)
			}
			results[i] = *score
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, report, err
	}

	for i := range results {
		for _, w := range results[i].Validate() {
			report.Add(w)
		}
	}

	if err := s.cache.Flush(); err != nil {
		return results, report, fmt.Errorf("flushing rubric cache: %w", err)
	}

	report.EndedAt = time.Now().UTC()
	return results, report, nil
}

func (s *Scorer) scoreOne(ctx context.Context, a domain.Applicant, resume bool) (*domain.RubricScore, error) {
	existing, found := s.cache.Get(a.AMCASID)
	if resume && found && existing.IsComplete() {
		return existing, nil
	}

	if s.locker != nil {
		acquired, err := s.locker.TryAcquire(ctx, a.AMCASID)
		if err != nil {
			s.log.WithError(err).WithField("amcas_id", a.AMCASID).Warn("dedupe lock unavailable, scoring without it")
		} else if !acquired {
			if found {
				s.log.WithField("amcas_id", a.AMCASID).Info("another process is scoring this applicant, using cached value")
				return existing, nil
			}
			s.log.WithField("amcas_id", a.AMCASID).Warn("another process is scoring this applicant and no cached value exists yet, scoring anyway")
		} else {
			defer s.locker.Release(ctx, a.AMCASID)
		}
	}

	score := existing
	if score == nil {
		score = &domain.RubricScore{
			AMCASID:       a.AMCASID,
			FormatVersion: domain.RubricV2,
			PromptHash:    s.promptHash,
			ModelVersion:  s.client.ModelVersion(),
			Scores:        make(map[string]*int),
			Details:       make(map[string]domain.Evidence),
		}
	}
	score.ScoredAt = time.Now().UTC()

	for _, dim := range domain.AllRubricDimensions() {
		if resume {
			if existingVal, ok := score.Scores[dim]; ok && existingVal != nil {
				continue
			}
		}

		text := sourceTextFor(a, dim)
		if strings.TrimSpace(text) == "" {
			score.Scores[dim] = nil
			continue
		}

		result, err := s.scoreDimension(ctx, dim, text)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"amcas_id":  a.AMCASID,
				"dimension": dim,
				"error":     err,
			}).Warn("dimension scoring failed after retries, recording null score")
			score.Scores[dim] = nil
			continue
		}
		score.Scores[dim] = &result.Score
		score.Details[dim] = domain.Evidence{Evidence: result.Evidence, ReasoningSteps: result.ReasoningSteps}
	}

	s.cache.Put(score)
	return score, nil
}

// scoreDimension makes one atomic per-dimension call, retrying on
// parse/validation failure with exponential backoff and jitter (§4.3
// step 4).
func (s *Scorer) scoreDimension(ctx context.Context, dim, text string) (*rawScoreResponse, error) {
	sys, err := systemPrompt(dim, domain.RubricV2.ScaleMax())
	if err != nil {
		return nil, err
	}
	user := userPrompt(text)

	var result *rawScoreResponse
	err = s.retryPolicy.Do(ctx, isRetryable, func(attempt int) error {
		completion, callErr := s.client.Complete(ctx, sys, user)
		if callErr != nil {
			return callErr
		}
		parsed, parseErr := parseScoreResponse(completion, domain.RubricV2.ScaleMax())
		if parseErr != nil {
			return parseErr
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func isRetryable(err error) bool {
	var pe *domain.PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == domain.KindTransport
	}
	return true
}

func parseScoreResponse(raw string, scaleMax int) (*rawScoreResponse, error) {
	raw = extractJSON(raw)

	var resp rawScoreResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("parsing score response: %w", err)
	}
	if resp.Score < 1 || resp.Score > scaleMax {
		return nil, fmt.Errorf("score %d out of range [1,%d]", resp.Score, scaleMax)
	}
	if strings.TrimSpace(resp.Evidence) == "" {
		return nil, fmt.Errorf("empty evidence field")
	}
	return &resp, nil
}

// extractJSON strips markdown code fences a model sometimes wraps JSON in,
// despite being asked for JSON only.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var _ domain.RubricScorer = (*Scorer)(nil)
