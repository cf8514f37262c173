package graph

import (
	"context"

	"go.uber.org/zap"

	"synapse-backend/internal/repository"
)

// StatsUpdater records edge access bookkeeping after read operations.
// It is strictly best-effort: a read that succeeded must never fail
// because its bookkeeping did, so errors are logged and swallowed.
type StatsUpdater struct {
	repo   repository.GraphRepository
	logger *zap.Logger
}

// NewStatsUpdater creates the access-stats updater.
func NewStatsUpdater(repo repository.GraphRepository, logger *zap.Logger) *StatsUpdater {
	return &StatsUpdater{repo: repo, logger: logger}
}

// Touch bumps last_accessed and access_count for the given edges in one
// bulk statement. An empty set is a no-op. The update runs detached from
// the caller's deadline: a read that finished just inside its budget
// still gets its stats recorded.
func (u *StatsUpdater) Touch(ctx context.Context, edgeIDs []string) {
	if len(edgeIDs) == 0 {
		return
	}
	if err := u.repo.TouchEdges(context.WithoutCancel(ctx), edgeIDs); err != nil {
		u.logger.Warn("access stats update failed",
			zap.Int("edges", len(edgeIDs)),
			zap.Error(err))
	}
}
