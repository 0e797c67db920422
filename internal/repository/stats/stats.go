package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/farazsidiqui2k23/Smart-Convert/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	KeyPlatformStats = "ps" // HASH. platform -> completed download counter
	KeyTotalStats    = "ts" // STRING. Total completed downloads, atomic increment.
)

type statsRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewStatsRepository(cl *redis.Client, log *slog.Logger) *statsRepository {
	return &statsRepository{
		cl:  cl,
		log: log.With(slog.String("item", "StatsRepository")),
	}
}

// IncDownload bumps the per-platform and total counters for one completed
// download. Returns the new total.
func (r *statsRepository) IncDownload(ctx context.Context, platform entity.Platform) (int64, error) {
	pipe := r.cl.Pipeline()
	pipe.HIncrBy(ctx, KeyPlatformStats, platform.String(), 1)
	total := pipe.Incr(ctx, KeyTotalStats)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("cannot increment %s counter: %w", platform, err)
	}

	return total.Val(), nil
}

// Counters returns the completed download count per platform.
func (r *statsRepository) Counters(ctx context.Context) (map[string]int64, error) {
	raw, err := r.cl.HGetAll(ctx, KeyPlatformStats).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get platform counters: %w", err)
	}

	counters := make(map[string]int64, len(raw))
	for platform, value := range raw {
		c, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			r.log.Error("cannot convert counter to int", slog.String("platform", platform), slog.Any("error", err))

			continue
		}

		counters[platform] = c
	}

	return counters, nil
}
