package directory

import (
	"context"
	"log/slog"
)

// FallbackRepo reads from the remote customer database and falls back to a
// local seed when the backend is unreachable. Lookups stay answerable
// offline; the seed is a strict subset of production data.
type FallbackRepo struct {
	primary  Repository
	fallback Repository
	log      *slog.Logger
}

func NewFallbackRepo(primary, fallback Repository, log *slog.Logger) *FallbackRepo {
	if log == nil {
		log = slog.Default()
	}
	return &FallbackRepo{primary: primary, fallback: fallback, log: log}
}

func (r *FallbackRepo) All(ctx context.Context) ([]Person, error) {
	if r.primary != nil {
		people, err := r.primary.All(ctx)
		if err == nil {
			return people, nil
		}
		r.log.Warn("remote directory unavailable, using local seed", "err", err)
	}
	if r.fallback == nil {
		return nil, nil
	}
	return r.fallback.All(ctx)
}
