package enrichment

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-poi-enrichment/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-enrichment/config"
	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the engine's public surface: single and nearby lookups,
// windowed batch enrichment, activity annotation, and cache reclamation.
type Service interface {
	GetEnrichedPOI(ctx context.Context, query types.POIQuery) (*types.EnrichedPOI, error)
	FindNearbyPOIs(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]types.EnrichedPOI, error)
	EnrichPOIBatch(ctx context.Context, queries []types.POIQuery) []types.EnrichedPOI
	EnrichActivities(ctx context.Context, activities []types.Activity, tripCtx types.TripContext) []types.Activity
	CleanupExpired(ctx context.Context) (int64, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repo       Repository
	fetcher    Fetcher
	extractor  POIExtractor
	hotCache   *cache.Cache
	cfg        config.EnrichmentConfig
	appMetrics *metrics.AppMetrics
}

// NewService wires the enrichment engine. The config struct is explicit so
// multiple engines with different policies can coexist (and be tested).
// appMetrics may be nil when no meter provider is configured.
func NewService(repo Repository, fetcher Fetcher, extractor POIExtractor, cfg config.EnrichmentConfig, appMetrics *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	cfg.ApplyDefaults()
	if extractor == nil {
		extractor = &ActivityPOIExtractor{}
	}
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		fetcher:    fetcher,
		extractor:  extractor,
		hotCache:   cache.New(cfg.HotCacheTTL, cfg.HotCacheTTL),
		cfg:        cfg,
		appMetrics: appMetrics,
	}
}

// GetEnrichedPOI is the cache-aside lookup for one place.
//
// Check: a fresh cached entry is a terminal hit; its hit counter and access
// time are bumped through the repository. Miss/Refresh: both providers are
// fetched, their records merged (or the basic fallback synthesized), and
// the entry upserted under the normalized place key. A failing store read
// is treated as a miss and a failing store write is logged and swallowed,
// so the caller always gets an enriched record.
func (s *ServiceImpl) GetEnrichedPOI(ctx context.Context, query types.POIQuery) (*types.EnrichedPOI, error) {
	ctx, span := otel.Tracer("EnrichmentService").Start(ctx, "GetEnrichedPOI", trace.WithAttributes(
		attribute.String("poi.name", query.Name),
		attribute.String("poi.city", query.City),
		attribute.String("poi.country", query.Country),
	))
	defer span.End()

	placeKey := NormalizePlaceKey(query)
	now := time.Now().UTC()

	// L1 is a short-TTL shield over the store; hits still count through it.
	if cached, found := s.hotCache.Get(placeKey); found {
		if entry, ok := cached.(*types.CacheEntry); ok && !entry.Expired(now) {
			s.recordHit(ctx, entry.PlaceKey, span)
			enriched := entry.Enriched
			return &enriched, nil
		}
		s.hotCache.Delete(placeKey)
	}

	entry, err := s.repo.FindByQuery(ctx, query)
	if err != nil {
		// Store read failure degrades to a cache miss, never to a caller error.
		s.logger.WarnContext(ctx, "Cache read failed, treating as miss",
			slog.String("place_key", placeKey), slog.Any("error", err))
		span.RecordError(err)
		entry = nil
	}

	if entry != nil && !entry.Expired(now) {
		// The fuzzy lookup may have matched an entry stored under a different
		// key than this query derives; the hit belongs to the matched row.
		s.recordHit(ctx, entry.PlaceKey, span)
		s.hotCache.Set(placeKey, entry, cache.DefaultExpiration)
		enriched := entry.Enriched
		return &enriched, nil
	}

	if entry != nil {
		s.logger.DebugContext(ctx, "Cache entry expired, refreshing",
			slog.String("place_key", placeKey),
			slog.Time("expired_at", entry.Meta.ExpiresAt))
	}
	span.AddEvent("cache miss")
	if s.appMetrics != nil {
		s.appMetrics.CacheMissesTotal.Add(ctx, 1)
	}

	fresh := s.refreshEntry(ctx, query, placeKey, entry, now)
	s.hotCache.Set(placeKey, fresh, cache.DefaultExpiration)
	enriched := fresh.Enriched
	return &enriched, nil
}

// refreshEntry runs fetch -> merge (or fallback) -> upsert and returns the
// new entry. The upsert is soft-fail: on a store error the computed record
// is still handed back, it just isn't cached this round.
func (s *ServiceImpl) refreshEntry(ctx context.Context, query types.POIQuery, placeKey string, prior *types.CacheEntry, now time.Time) *types.CacheEntry {
	result := s.fetcher.FetchAll(ctx, query)
	if s.appMetrics != nil && len(result.Errors) > 0 {
		s.appMetrics.ProviderErrorsTotal.Add(ctx, int64(len(result.Errors)))
	}

	var enriched types.EnrichedPOI
	if result.Foursquare == nil && result.TripAdvisor == nil {
		enriched = BasicFallback(query)
		if s.appMetrics != nil {
			s.appMetrics.BasicFallbacksTotal.Add(ctx, 1)
		}
		s.logger.InfoContext(ctx, "No provider data, using basic fallback",
			slog.String("place_key", placeKey),
			slog.Int("fetch_errors", len(result.Errors)))
	} else {
		enriched = MergePlaceDetails(query, result.Foursquare, result.TripAdvisor)
	}

	createdAt := now
	hitCount := 0
	if prior != nil {
		// Refresh keeps the entry's identity; only enriched and meta move.
		createdAt = prior.Meta.CreatedAt
		hitCount = prior.Meta.HitCount
	}

	entry := &types.CacheEntry{
		PlaceKey:       placeKey,
		Query:          query,
		FoursquareRaw:  result.Foursquare,
		TripAdvisorRaw: result.TripAdvisor,
		Enriched:       enriched,
		Meta: types.CacheMeta{
			CreatedAt:          createdAt,
			UpdatedAt:          now,
			ExpiresAt:          now.AddDate(0, 0, s.cfg.CacheExpiryDays),
			FoursquareFetched:  result.Foursquare != nil,
			TripAdvisorFetched: result.TripAdvisor != nil,
			FetchErrors:        result.Errors,
			HitCount:           hitCount,
			LastAccessed:       now,
		},
	}

	if err := s.repo.Upsert(ctx, entry); err != nil {
		// Soft-fail on write: the caller still gets the enriched record.
		s.logger.ErrorContext(ctx, "Failed to cache enriched POI",
			slog.String("place_key", placeKey), slog.Any("error", err))
	}
	return entry
}

func (s *ServiceImpl) recordHit(ctx context.Context, placeKey string, span trace.Span) {
	span.AddEvent("cache hit")
	if s.appMetrics != nil {
		s.appMetrics.CacheHitsTotal.Add(ctx, 1)
	}
	if err := s.repo.RecordHit(ctx, placeKey); err != nil {
		s.logger.WarnContext(ctx, "Failed to record cache hit",
			slog.String("place_key", placeKey), slog.Any("error", err))
	}
}

// FindNearbyPOIs returns already-enriched places within radiusMeters of a
// point, closest first. It reads the cache only; a place never looked up
// before will not appear, and expired entries are filtered out.
func (s *ServiceImpl) FindNearbyPOIs(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]types.EnrichedPOI, error) {
	ctx, span := otel.Tracer("EnrichmentService").Start(ctx, "FindNearbyPOIs", trace.WithAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lng", lng),
		attribute.Float64("radius_m", radiusMeters),
	))
	defer span.End()

	entries, err := s.repo.FindNearby(ctx, lat, lng, radiusMeters, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := time.Now().UTC()
	pois := make([]types.EnrichedPOI, 0, len(entries))
	for i := range entries {
		if entries[i].Expired(now) {
			continue
		}
		pois = append(pois, entries[i].Enriched)
	}
	span.SetAttributes(attribute.Int("results", len(pois)))
	return pois, nil
}

// EnrichPOIBatch fans queries out in fixed-size windows. All lookups in a
// window run concurrently; the next window does not start until the current
// one finishes, with a short pause in between to smooth the request rate
// against provider limits. A failing item degrades to its basic fallback,
// so the output always has exactly one record per input query.
func (s *ServiceImpl) EnrichPOIBatch(ctx context.Context, queries []types.POIQuery) []types.EnrichedPOI {
	ctx, span := otel.Tracer("EnrichmentService").Start(ctx, "EnrichPOIBatch", trace.WithAttributes(
		attribute.Int("batch.size", len(queries)),
		attribute.Int("batch.window", s.cfg.MaxParallelRequests),
	))
	defer span.End()

	start := time.Now()
	results := make([]types.EnrichedPOI, len(queries))
	windowSize := s.cfg.MaxParallelRequests

	for offset := 0; offset < len(queries); offset += windowSize {
		end := offset + windowSize
		if end > len(queries) {
			end = len(queries)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := offset; i < end; i++ {
			g.Go(func() error {
				results[i] = s.enrichOne(gctx, queries[i])
				return nil
			})
		}
		// Workers never return errors; failures became fallbacks above.
		_ = g.Wait()

		if end < len(queries) && s.cfg.InterBatchDelay > 0 {
			select {
			case <-ctx.Done():
				for i := end; i < len(queries); i++ {
					results[i] = BasicFallback(queries[i])
				}
				span.SetStatus(codes.Error, "Batch cancelled")
				return results
			case <-time.After(s.cfg.InterBatchDelay):
			}
		}
	}

	if s.appMetrics != nil {
		s.appMetrics.BatchDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	s.logger.InfoContext(ctx, "Batch enrichment finished",
		slog.Int("queries", len(queries)),
		slog.Duration("took", time.Since(start)))
	return results
}

// enrichOne isolates a single lookup: any failure inside its pipeline is
// converted to the basic fallback so sibling queries keep going.
func (s *ServiceImpl) enrichOne(ctx context.Context, query types.POIQuery) (result types.EnrichedPOI) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Enrichment pipeline panicked",
				slog.String("poi", query.Name), slog.Any("panic", r))
			result = BasicFallback(query)
		}
	}()

	enriched, err := s.GetEnrichedPOI(ctx, query)
	if err != nil || enriched == nil {
		if err != nil {
			s.logger.WarnContext(ctx, "Lookup failed inside batch",
				slog.String("poi", query.Name), slog.Any("error", err))
		}
		return BasicFallback(query)
	}
	return *enriched
}

// EnrichActivities enriches the places an itinerary's activities mention and
// maps the results back onto the activity list. A failing extractor returns
// the original activities tagged failed; it never raises.
func (s *ServiceImpl) EnrichActivities(ctx context.Context, activities []types.Activity, tripCtx types.TripContext) []types.Activity {
	ctx, span := otel.Tracer("EnrichmentService").Start(ctx, "EnrichActivities", trace.WithAttributes(
		attribute.Int("activities.count", len(activities)),
		attribute.String("trip.city", tripCtx.City),
	))
	defer span.End()

	if len(activities) == 0 {
		return activities
	}

	queries, err := s.extractor.ExtractPOIQueries(ctx, activities, tripCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "POI extraction failed")
		s.logger.ErrorContext(ctx, "POI extraction failed, returning activities unenriched", slog.Any("error", err))
		out := make([]types.Activity, len(activities))
		for i, activity := range activities {
			out[i] = activity
			out[i].EnrichmentStatus = types.EnrichmentFailed
			out[i].EnrichmentError = err.Error()
		}
		return out
	}

	// Cost control: cap how many places one chunk is allowed to enrich.
	if len(queries) > s.cfg.MaxPOIsPerChunk {
		s.logger.InfoContext(ctx, "Capping extracted POIs for this chunk",
			slog.Int("extracted", len(queries)),
			slog.Int("cap", s.cfg.MaxPOIsPerChunk))
		queries = queries[:s.cfg.MaxPOIsPerChunk]
	}

	enriched := s.EnrichPOIBatch(ctx, queries)
	return mapEnrichedToActivities(activities, enriched)
}

// CleanupExpired removes entries whose expiry is older than the configured
// grace period. It is reclamation only; the read path checks expiry itself.
func (s *ServiceImpl) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("EnrichmentService").Start(ctx, "CleanupExpired", trace.WithAttributes(
		attribute.Int("grace_days", s.cfg.SweeperGraceDays),
	))
	defer span.End()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.SweeperGraceDays)
	deleted, err := s.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	if s.appMetrics != nil && deleted > 0 {
		s.appMetrics.SweeperDeletedTotal.Add(ctx, deleted)
	}
	return deleted, nil
}
