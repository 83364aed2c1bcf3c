// Package projectmatch matches contributors to open-source projects. A
// Recommender ties together the vector cache, the scorer, the profile
// aggregator and the result store behind one facade.
package projectmatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/botirk38/projectmatch/aggregate"
	"github.com/botirk38/projectmatch/chunker"
	"github.com/botirk38/projectmatch/features"
	"github.com/botirk38/projectmatch/metrics"
	"github.com/botirk38/projectmatch/model"
	"github.com/botirk38/projectmatch/options"
	"github.com/botirk38/projectmatch/providers"
	"github.com/botirk38/projectmatch/scoring"
	"github.com/botirk38/projectmatch/types"
	"github.com/botirk38/projectmatch/vectorcache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recommender is safe for concurrent use.
type Recommender struct {
	embedder   *vectorcache.Embedder
	cache      vectorcache.Cache
	features   *features.Encoder
	scorer     *scoring.Scorer
	aggregator *aggregate.Aggregator
	models     *model.Store
	results    types.ResultStore

	workers     int
	defaultTopN int
	maxTopN     int

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Response is the answer to an ad-hoc profile query.
type Response struct {
	UserID               string   `json:"user_id"`
	RecommendedProjects  []string `json:"recommended_projects"`
	TotalRecommendations int      `json:"total_recommendations"`
}

// UserFailure records why one user of a batch produced no rows.
type UserFailure struct {
	UserID string
	Err    error
}

// BatchReport summarizes a RunBatch call.
type BatchReport struct {
	Users     int
	Succeeded int
	Rows      int
	Failures  []UserFailure
	Duration  time.Duration
}

// New creates a Recommender with functional options.
func New(opts ...options.Option) (*Recommender, error) {
	cfg := options.NewConfig()

	if err := cfg.Apply(opts...); err != nil {
		closeResults(cfg)
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		closeResults(cfg)
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Default()
	}

	scorer, err := scoring.NewScorer(cfg.Scoring, logger)
	if err != nil {
		closeResults(cfg)
		return nil, err
	}

	models := cfg.Models
	if models == nil {
		models = model.NewStore(nil)
	}

	r := &Recommender{
		cache:       cfg.Cache,
		features:    features.NewEncoder(cfg.SemanticDimensions, features.WithLogger(logger)),
		scorer:      scorer.WithMetrics(m),
		aggregator:  aggregate.NewAggregator(models, logger).WithMetrics(m),
		models:      models,
		results:     cfg.Results,
		workers:     cfg.Workers,
		defaultTopN: cfg.DefaultTopN,
		maxTopN:     cfg.MaxTopN,
		logger:      logger,
		metrics:     m,
	}

	encoder, err := newEncoder(cfg)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	if encoder == nil {
		return r, nil
	}
	if encoder.Dimensions() != cfg.SemanticDimensions {
		encoder.Close()
		_ = r.Close()
		return nil, types.NewConfigurationError("encoder.dimensions",
			"encoder produces %d dimensions, want %d", encoder.Dimensions(), cfg.SemanticDimensions)
	}

	if r.cache == nil {
		settings := vectorcache.Config{Policy: types.BackendLRU, Capacity: 10000}
		if cfg.CacheSettings != nil {
			settings = *cfg.CacheSettings
		}
		settings.Metrics = m
		layered, err := vectorcache.New(settings, logger)
		if err != nil {
			encoder.Close()
			_ = r.Close()
			return nil, err
		}
		r.cache = layered
	}
	r.embedder = vectorcache.NewEmbedder(encoder, r.cache, cfg.CacheTTL)
	return r, nil
}

// closeResults releases a store opened by an option when New gives up.
func closeResults(cfg *options.Config) {
	if cfg.Results != nil {
		_ = cfg.Results.Close()
	}
}

func newEncoder(cfg *options.Config) (types.Encoder, error) {
	if cfg.Encoder != nil {
		return cfg.Encoder, nil
	}
	if cfg.Provider == nil {
		return nil, nil
	}

	ctx := context.Background()
	if cfg.Chunking == nil {
		return providers.New(ctx, *cfg.Provider)
	}
	splitter, err := chunker.NewTokenSplitter(*cfg.Chunking)
	if err != nil {
		return nil, types.NewConfigurationError("chunk", "%v", err)
	}
	return providers.NewChunked(ctx, *cfg.Provider, splitter)
}

// ProjectText is the text a project's semantic vector is computed from.
func ProjectText(p types.Project) string {
	return joinText(p.Name, p.Description, labeled("Categories", p.Categories), labeled("Technologies", p.Technologies))
}

// UserText is the text a user's semantic vector is computed from.
func UserText(u types.UserProfile) string {
	return joinText(u.Bio, labeled("Skills", u.Skills), labeled("Interests", u.Interests))
}

func labeled(label string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	return label + ": " + strings.Join(values, ", ")
}

func joinText(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n")
}

// PrepareProjects returns a copy of projects where every project without a
// vector has one computed from its text. Without an encoder the copy keeps
// the missing vectors and ranking skips those projects.
func (r *Recommender) PrepareProjects(ctx context.Context, projects []types.Project) ([]types.Project, error) {
	out := make([]types.Project, len(projects))
	copy(out, projects)

	var missing []int
	var texts []string
	for i, p := range out {
		if len(p.Vector) > 0 {
			continue
		}
		text := ProjectText(p)
		if text == "" {
			r.logger.Warn("project has neither vector nor text", zap.String("project_id", p.ID))
			continue
		}
		missing = append(missing, i)
		texts = append(texts, text)
	}
	if len(missing) == 0 {
		return out, nil
	}
	if r.embedder == nil {
		r.logger.Debug("no encoder configured, leaving project vectors empty", zap.Int("projects", len(missing)))
		return out, nil
	}

	vecs, err := r.embedder.EncodeBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode projects: %w", err)
	}
	for j, i := range missing {
		out[i].Vector = vecs[j]
	}
	return out, nil
}

// PrepareUser returns user with its vector computed from its text when absent.
func (r *Recommender) PrepareUser(ctx context.Context, user types.UserProfile) (types.UserProfile, error) {
	if len(user.Vector) > 0 {
		return user, nil
	}
	text := UserText(user)
	if r.embedder == nil || text == "" {
		return user, fmt.Errorf("user %s: %w", user.ID, types.ErrMissingVector)
	}

	vec, err := r.embedder.Encode(ctx, text)
	if err != nil {
		return user, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Vector = vec
	return user, nil
}

// ScoreUser ranks candidates for user and, with a result store configured,
// replaces the user's stored rows. Candidates are expected to come from
// PrepareProjects.
func (r *Recommender) ScoreUser(ctx context.Context, user types.UserProfile, candidates []types.Project) ([]types.UserProjectSimilarity, error) {
	user, err := r.PrepareUser(ctx, user)
	if err != nil {
		return nil, err
	}

	rows, err := r.scorer.Rank(ctx, user, candidates)
	if err != nil {
		return nil, err
	}

	if r.results != nil {
		if err := r.results.ReplaceForUser(ctx, user.ID, rows); err != nil {
			return nil, fmt.Errorf("failed to store recommendations of user %s: %w", user.ID, err)
		}
	}
	return rows, nil
}

// RunBatch scores every user against candidates on a bounded worker pool.
// A failing user is recorded in the report and never stops the others; the
// returned error is only set when ctx ends or candidates cannot be prepared.
func (r *Recommender) RunBatch(ctx context.Context, users []types.UserProfile, candidates []types.Project) (BatchReport, error) {
	start := time.Now()
	report := BatchReport{Users: len(users)}

	candidates, err := r.PrepareProjects(ctx, candidates)
	if err != nil {
		return report, err
	}

	var mu sync.Mutex
	failed := make([]error, len(users))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, user := range users {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rows, err := r.ScoreUser(ctx, user, candidates)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[i] = err
				r.metrics.BatchUsersTotal.WithLabelValues("failed").Inc()
				r.logger.Warn("failed to score user", zap.String("user_id", user.ID), zap.Error(err))
				return nil
			}
			report.Succeeded++
			report.Rows += len(rows)
			r.metrics.BatchUsersTotal.WithLabelValues("succeeded").Inc()
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range failed {
		if err != nil {
			report.Failures = append(report.Failures, UserFailure{UserID: users[i].ID, Err: err})
		}
	}
	report.Duration = time.Since(start)

	r.logger.Info("batch scoring finished",
		zap.Int("users", report.Users),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failures)),
		zap.Int("rows", report.Rows),
		zap.Duration("duration", report.Duration),
	)
	return report, ctx.Err()
}

// RecommendFromProfile answers an ad-hoc query from the loaded similarity
// model. topN 0 selects the default. ErrEmptyProfile and ErrModelUnavailable
// come back together with an empty response.
func (r *Recommender) RecommendFromProfile(ctx context.Context, userID string, profile []string, topN int) (Response, error) {
	if topN == 0 {
		topN = r.defaultTopN
	}
	if topN < 1 || topN > r.maxTopN {
		return Response{}, fmt.Errorf("%w: %d is outside [1,%d]", types.ErrInvalidTopN, topN, r.maxTopN)
	}

	ids, err := r.aggregator.Recommend(ctx, profile, topN)
	resp := Response{
		UserID:               userID,
		RecommendedProjects:  ids,
		TotalRecommendations: len(ids),
	}
	if resp.RecommendedProjects == nil {
		resp.RecommendedProjects = []string{}
	}
	return resp, err
}

// BuildModel computes a similarity snapshot over the hybrid vectors of
// projects. Projects without a usable vector are left out of the matrix.
func (r *Recommender) BuildModel(ctx context.Context, projects []types.Project) (*model.Snapshot, error) {
	prepared, err := r.PrepareProjects(ctx, projects)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(prepared))
	vecs := make([]types.Vector, 0, len(prepared))
	for _, p := range prepared {
		hybrid, err := r.features.Encode(p)
		if err != nil {
			r.logger.Warn("leaving project out of similarity model", zap.String("project_id", p.ID), zap.Error(err))
			continue
		}
		ids = append(ids, p.ID)
		vecs = append(vecs, hybrid)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return model.Build(ids, vecs)
}

// ReloadModel installs snap for subsequent profile queries and returns the
// snapshot it replaced. Queries already running keep the old one.
func (r *Recommender) ReloadModel(snap *model.Snapshot) *model.Snapshot {
	prev := r.models.Swap(snap)
	r.logger.Info("similarity model reloaded", zap.Int("projects", snap.Len()))
	return prev
}

// ReloadModelFile loads the persisted snapshot at path and installs it.
// On error the current snapshot stays in place.
func (r *Recommender) ReloadModelFile(path string) (*model.Snapshot, error) {
	snap, err := r.models.LoadFile(path)
	if err != nil {
		return nil, err
	}
	r.logger.Info("similarity model reloaded", zap.String("path", path), zap.Int("projects", snap.Len()))
	return snap, nil
}

// HasSharedCache reports whether vectors are also cached in the shared remote tier.
func (r *Recommender) HasSharedCache() bool {
	tiered, ok := r.cache.(interface{ HasRemote() bool })
	return ok && tiered.HasRemote()
}

// Results returns the configured result store, or nil.
func (r *Recommender) Results() types.ResultStore {
	return r.results
}

// Close releases the encoder, the vector cache and the result store.
func (r *Recommender) Close() error {
	var errs []error
	if r.embedder != nil {
		r.embedder.Close()
	}
	if closer, ok := r.cache.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if r.results != nil {
		errs = append(errs, r.results.Close())
	}
	return errors.Join(errs...)
}
