// services/refresh_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// EventRefreshCompleted is the event type published after a successful run.
const EventRefreshCompleted = "refresh.completed"

type CountriesFetcher interface {
	FetchCountries(ctx context.Context) ([]*fastjson.Value, error)
}

type RatesFetcher interface {
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

type CountryWriter interface {
	UpsertByName(ctx context.Context, fields models.CountryFields) (bool, error)
	Count(ctx context.Context) (int, error)
}

type RefreshLogWriter interface {
	Append(ctx context.Context, entry models.RefreshLog) (*models.RefreshLog, error)
}

// SummaryGenerator renders and caches the summary artifact.
type SummaryGenerator interface {
	Generate(ctx context.Context, generatedAt time.Time) error
}

// Locker guards a refresh across processes. Acquire fails with
// xerrors.ErrRefreshInProgress when another holder has the lock.
type Locker interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

type Publisher interface {
	PublishRefresh(ctx context.Context, event models.RefreshEvent) error
}

// RefreshDeps are the collaborators of a RefreshService. Locker, Publisher
// and Summary are optional.
type RefreshDeps struct {
	Countries CountriesFetcher
	Rates     RatesFetcher
	Store     CountryWriter
	Logs      RefreshLogWriter
	Estimator *GdpEstimator
	Summary   SummaryGenerator
	Locker    Locker
	Publisher Publisher
}

// RefreshResult describes one completed run.
type RefreshResult struct {
	RunID          string
	Stats          models.RefreshStats
	TotalCountries int
	RefreshedAt    time.Time
}

// RefreshService pulls both upstream sources and rewrites the country cache.
type RefreshService struct {
	deps   RefreshDeps
	group  singleflight.Group
	now    func() time.Time
	logger *zap.Logger
}

func NewRefreshService(deps RefreshDeps, logger *zap.Logger) *RefreshService {
	if deps.Estimator == nil {
		deps.Estimator = NewGdpEstimator(nil)
	}
	if deps.Locker == nil {
		deps.Locker = noopLocker{}
	}
	if deps.Publisher == nil {
		deps.Publisher = noopPublisher{}
	}
	return &RefreshService{
		deps:   deps,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.Named("refresh"),
	}
}

// Refresh runs one refresh, or joins the run already in flight in this
// process. A caller that gives up does not cancel the run for the others.
func (s *RefreshService) Refresh(ctx context.Context) (*RefreshResult, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh", func() (any, error) {
		return s.run(runCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined in-flight refresh")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*RefreshResult), nil
	}
}

func (s *RefreshService) run(ctx context.Context) (*RefreshResult, error) {
	startedAt := s.now()
	runID := ulid.Make().String()
	log := s.logger.With(zap.String("run_id", runID))

	release, err := s.deps.Locker.Acquire(ctx)
	if err != nil {
		log.Warn("could not acquire refresh lock", zap.Error(err))
		return nil, err
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			log.Warn("failed to release refresh lock", zap.Error(err))
		}
	}()

	log.Info("starting countries refresh")

	var (
		entries []*fastjson.Value
		rates   map[string]decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.deps.Countries.FetchCountries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rates, err = s.deps.Rates.FetchRates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("refresh aborted, upstream unavailable", zap.Error(err))
		return nil, err
	}

	records, stats := Reconcile(entries, rates, s.deps.Estimator, log)
	for _, fields := range records {
		created, err := s.deps.Store.UpsertByName(ctx, fields)
		if err != nil {
			stats.Skipped++
			log.Warn("failed to store country", zap.String("name", fields.Name), zap.Error(err))
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	total, err := s.deps.Store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count countries after refresh: %w", err)
	}

	entry, err := s.deps.Logs.Append(ctx, models.RefreshLog{
		RunID:          runID,
		TotalCountries: total,
		Created:        stats.Created,
		Updated:        stats.Updated,
		Skipped:        stats.Skipped,
		RefreshedAt:    startedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record refresh: %w", err)
	}

	if s.deps.Summary != nil {
		if err := s.deps.Summary.Generate(ctx, startedAt); err != nil {
			log.Error("failed to generate summary", zap.Error(err))
		}
	}

	event := models.RefreshEvent{
		EventType:      EventRefreshCompleted,
		RunID:          runID,
		TotalCountries: total,
		Created:        stats.Created,
		Updated:        stats.Updated,
		Skipped:        stats.Skipped,
		RefreshedAt:    entry.RefreshedAt,
	}
	if err := s.deps.Publisher.PublishRefresh(ctx, event); err != nil {
		log.Warn("failed to publish refresh event", zap.Error(err))
	}

	log.Info("countries refresh completed",
		zap.Int("created", stats.Created),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("total_countries", total),
		zap.Duration("took", s.now().Sub(startedAt)),
	)

	return &RefreshResult{
		RunID:          runID,
		Stats:          stats,
		TotalCountries: total,
		RefreshedAt:    entry.RefreshedAt,
	}, nil
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishRefresh(context.Context, models.RefreshEvent) error { return nil }
