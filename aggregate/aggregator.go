// Package aggregate recommends projects from a user's interest profile by
// summing the similarity-matrix rows of the projects the user already touched.
package aggregate

import (
	"context"
	"slices"

	"github.com/botirk38/projectmatch/metrics"
	"github.com/botirk38/projectmatch/model"
	"github.com/botirk38/projectmatch/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// SnapshotSource provides the current similarity matrix, or nil when none is loaded.
type SnapshotSource interface {
	Snapshot() *model.Snapshot
}

// Aggregator is safe for concurrent use; each call reads one snapshot.
type Aggregator struct {
	source  SnapshotSource
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAggregator creates an aggregator over source.
func NewAggregator(source SnapshotSource, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		source:  source,
		logger:  logger,
		metrics: metrics.Default(),
	}
}

// WithMetrics returns a copy of a reporting to m.
func (a *Aggregator) WithMetrics(m *metrics.Metrics) *Aggregator {
	clone := *a
	clone.metrics = m
	return &clone
}

// Recommend returns up to topN project ids ordered by summed affinity to
// profile. Projects in profile are never returned. Ties go to the lower
// matrix row.
func (a *Aggregator) Recommend(ctx context.Context, profile []string, topN int) ([]string, error) {
	if len(profile) == 0 {
		a.metrics.AggregationsTotal.WithLabelValues("empty_profile").Inc()
		a.logger.Warn("interest profile is empty")
		return []string{}, types.ErrEmptyProfile
	}

	var snap *model.Snapshot
	if a.source != nil {
		snap = a.source.Snapshot()
	}
	if snap.Len() == 0 {
		a.metrics.AggregationsTotal.WithLabelValues("model_unavailable").Inc()
		a.logger.Warn("similarity matrix unavailable")
		return []string{}, types.ErrModelUnavailable
	}

	interested := make(map[int]struct{}, len(profile))
	for _, id := range profile {
		i, ok := snap.Index(id)
		if !ok {
			a.logger.Debug("dropping unknown project from profile", zap.String("project_id", id))
			continue
		}
		interested[i] = struct{}{}
	}
	if len(interested) == 0 {
		a.metrics.AggregationsTotal.WithLabelValues("unmapped_profile").Inc()
		a.logger.Warn("no profile project is in the similarity matrix", zap.Int("profile_size", len(profile)))
		return []string{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Summing in row order keeps the float results reproducible.
	rows := make([]int, 0, len(interested))
	for i := range interested {
		rows = append(rows, i)
	}
	slices.Sort(rows)

	affinity := make([]float64, snap.Len())
	for _, i := range rows {
		floats.Add(affinity, snap.Row(i))
	}

	candidates := make([]int, 0, len(affinity)-len(interested))
	for i := range affinity {
		if _, seen := interested[i]; !seen {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		a.metrics.AggregationsTotal.WithLabelValues("no_candidates").Inc()
		a.logger.Warn("profile covers every project in the similarity matrix", zap.Int("profile_size", len(profile)))
		return []string{}, nil
	}
	slices.SortStableFunc(candidates, func(x, y int) int {
		switch {
		case affinity[x] > affinity[y]:
			return -1
		case affinity[x] < affinity[y]:
			return 1
		default:
			return 0
		}
	})

	if topN < len(candidates) {
		candidates = candidates[:max(topN, 0)]
	}

	ids := make([]string, len(candidates))
	for k, i := range candidates {
		ids[k] = snap.ID(i)
	}
	a.metrics.AggregationsTotal.WithLabelValues("ok").Inc()
	return ids, nil
}
