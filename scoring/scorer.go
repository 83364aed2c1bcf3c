// Package scoring ranks candidate projects for one user.
//
// The combined score of a (user, project) pair is
//
//	semantic*W_semantic + category_jaccard*W_category + tech_jaccard*W_tech
//	  + min(popularity/threshold, 1)*W_popularity
//
// where the semantic term is clamped to [0,1]. Candidates below the minimum
// similarity are discarded; the rest are sorted descending with ties kept in
// input order and cut to TopN.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/botirk38/projectmatch/metrics"
	"github.com/botirk38/projectmatch/similarity"
	"github.com/botirk38/projectmatch/types"
	"go.uber.org/zap"
)

// Scorer is stateless after construction and safe for concurrent use.
type Scorer struct {
	cfg      Config
	semantic similarity.SimilarityFunc
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewScorer validates cfg and returns a scorer.
func NewScorer(cfg Config, logger *zap.Logger) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	semantic, err := similarity.ByName(cfg.Metric)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		cfg:      cfg,
		semantic: semantic,
		logger:   logger,
		metrics:  metrics.Default(),
	}, nil
}

// WithMetrics returns a copy of s reporting to m.
func (s *Scorer) WithMetrics(m *metrics.Metrics) *Scorer {
	clone := *s
	clone.metrics = m
	return &clone
}

// Config returns the configuration the scorer was built with.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score computes every component of the pair. Both vectors must be non-empty
// and of equal length.
func (s *Scorer) Score(user types.UserProfile, project types.Project) types.UserProjectSimilarity {
	w := s.cfg.Weights

	semantic := similarity.Clamp01(s.semantic(user.Vector, project.Vector))
	category := similarity.Jaccard(user.Categories, project.Categories)
	tech := similarity.Jaccard(user.Technologies, project.Technologies)
	popularity := s.popularity(project.Popularity)

	return types.UserProjectSimilarity{
		UserID:               user.ID,
		ProjectID:            project.ID,
		CombinedScore:        semantic*w.Semantic + category*w.Category + tech*w.Tech + popularity*w.Popularity,
		SemanticSimilarity:   semantic,
		CategorySimilarity:   category,
		TechSimilarity:       tech,
		PopularitySimilarity: popularity,
	}
}

func (s *Scorer) popularity(count int) float64 {
	if count <= 0 {
		return 0
	}
	return min(float64(count)/s.cfg.PopularityThreshold, 1)
}

// Rank scores candidates for user and returns at most TopN rows sorted by
// descending combined score. Candidates without a usable vector are skipped.
func (s *Scorer) Rank(ctx context.Context, user types.UserProfile, candidates []types.Project) ([]types.UserProjectSimilarity, error) {
	if len(user.Vector) == 0 {
		return nil, fmt.Errorf("user %s: %w", user.ID, types.ErrMissingVector)
	}

	start := time.Now()
	defer func() {
		s.metrics.RankDuration.Observe(time.Since(start).Seconds())
	}()

	results := make([]types.UserProjectSimilarity, 0, len(candidates))
	for _, project := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.usable(user, project); err != nil {
			s.skip(user, project, err)
			continue
		}

		row := s.Score(user, project)
		if row.CombinedScore < s.cfg.MinSimilarity {
			s.metrics.CandidatesTotal.WithLabelValues("below_threshold").Inc()
			continue
		}
		s.metrics.CandidatesTotal.WithLabelValues("ranked").Inc()
		results = append(results, row)
	}

	slices.SortStableFunc(results, func(a, b types.UserProjectSimilarity) int {
		switch {
		case a.CombinedScore > b.CombinedScore:
			return -1
		case a.CombinedScore < b.CombinedScore:
			return 1
		default:
			return 0
		}
	})

	if len(results) > s.cfg.TopN {
		results = results[:s.cfg.TopN]
	}
	return results, nil
}

func (s *Scorer) usable(user types.UserProfile, project types.Project) error {
	if len(project.Vector) == 0 {
		return types.ErrMissingVector
	}
	if len(project.Vector) != len(user.Vector) {
		return fmt.Errorf("%w: user has %d, project has %d",
			types.ErrDimensionMismatch, len(user.Vector), len(project.Vector))
	}
	return nil
}

func (s *Scorer) skip(user types.UserProfile, project types.Project, err error) {
	outcome := "missing_vector"
	if errors.Is(err, types.ErrDimensionMismatch) {
		outcome = "dimension_mismatch"
	}
	s.metrics.CandidatesTotal.WithLabelValues(outcome).Inc()
	s.logger.Warn("skipping candidate project",
		zap.String("user_id", user.ID),
		zap.String("project_id", project.ID),
		zap.Error(err))
}
