package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the cache store adapter. It hides the storage engine behind
// the narrow read/write/expire contract the service consumes.
type Repository interface {
	FindByKey(ctx context.Context, placeKey string) (*types.CacheEntry, error)
	FindByQuery(ctx context.Context, query types.POIQuery) (*types.CacheEntry, error)
	Upsert(ctx context.Context, entry *types.CacheEntry) error
	RecordHit(ctx context.Context, placeKey string) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]types.CacheEntry, error)
}

// PGXPool is the slice of the pgx pool surface the repository needs.
// *pgxpool.Pool satisfies it, and so does pgxmock in tests.
type PGXPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewRepository(pgxpool PGXPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

const cacheEntryColumns = `
        place_key, query, provider_a_raw, provider_b_raw, enriched,
        provider_a_fetched, provider_b_fetched, fetch_errors, hit_count,
        created_at, updated_at, expires_at, last_accessed`

// FindByKey returns the entry for an exact place key, or nil when absent.
func (r *RepositoryImpl) FindByKey(ctx context.Context, placeKey string) (*types.CacheEntry, error) {
	ctx, span := otel.Tracer("EnrichmentRepository").Start(ctx, "FindByKey", trace.WithAttributes(
		attribute.String("place_key", placeKey),
	))
	defer span.End()

	query := `SELECT` + cacheEntryColumns + `
        FROM poi_cache
        WHERE place_key = $1`

	entry, err := r.scanEntry(r.pgpool.QueryRow(ctx, query, placeKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to find cache entry by key: %w", err)
	}
	return entry, nil
}

// FindByQuery is the looser lookup used by the public API: case-insensitive
// partial match on name/city/country, absorbing minor query variance. The
// most recently accessed match wins ties.
func (r *RepositoryImpl) FindByQuery(ctx context.Context, q types.POIQuery) (*types.CacheEntry, error) {
	ctx, span := otel.Tracer("EnrichmentRepository").Start(ctx, "FindByQuery", trace.WithAttributes(
		attribute.String("poi.name", q.Name),
		attribute.String("poi.city", q.City),
	))
	defer span.End()

	query := `SELECT` + cacheEntryColumns + `
        FROM poi_cache
        WHERE query_name ILIKE '%' || $1 || '%'
          AND query_city ILIKE '%' || $2 || '%'
          AND query_country ILIKE '%' || $3 || '%'
        ORDER BY last_accessed DESC
        LIMIT 1`

	entry, err := r.scanEntry(r.pgpool.QueryRow(ctx, query, q.Name, q.City, q.Country))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to find cache entry by query: %w", err)
	}
	return entry, nil
}

// Upsert replaces the full entry document for its place key. Last writer
// wins under concurrent refreshes of the same key; the ON CONFLICT update
// swaps enriched and cache_meta atomically so readers never see a partial
// write.
func (r *RepositoryImpl) Upsert(ctx context.Context, entry *types.CacheEntry) error {
	ctx, span := otel.Tracer("EnrichmentRepository").Start(ctx, "Upsert", trace.WithAttributes(
		attribute.String("place_key", entry.PlaceKey),
	))
	defer span.End()

	queryJSON, err := json.Marshal(entry.Query)
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}
	enrichedJSON, err := json.Marshal(entry.Enriched)
	if err != nil {
		return fmt.Errorf("failed to marshal enriched record: %w", err)
	}
	fetchErrorsJSON, err := json.Marshal(entry.Meta.FetchErrors)
	if err != nil {
		return fmt.Errorf("failed to marshal fetch errors: %w", err)
	}
	var providerARaw, providerBRaw []byte
	if entry.FoursquareRaw != nil {
		if providerARaw, err = json.Marshal(entry.FoursquareRaw); err != nil {
			return fmt.Errorf("failed to marshal provider A payload: %w", err)
		}
	}
	if entry.TripAdvisorRaw != nil {
		if providerBRaw, err = json.Marshal(entry.TripAdvisorRaw); err != nil {
			return fmt.Errorf("failed to marshal provider B payload: %w", err)
		}
	}

	var lat, lng *float64
	if entry.Enriched.Coordinates != nil {
		lat = &entry.Enriched.Coordinates.Lat
		lng = &entry.Enriched.Coordinates.Lng
	}

	query := `
        INSERT INTO poi_cache (
            place_key, query, query_name, query_city, query_country,
            provider_a_raw, provider_b_raw, enriched, location,
            provider_a_fetched, provider_b_fetched, fetch_errors, hit_count,
            created_at, updated_at, expires_at, last_accessed
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8,
            CASE WHEN $9::float8 IS NULL THEN NULL
                 ELSE ST_SetSRID(ST_MakePoint($10::float8, $9::float8), 4326)::geography END,
            $11, $12, $13, $14, $15, $16, $17, $18
        )
        ON CONFLICT (place_key) DO UPDATE SET
            query = EXCLUDED.query,
            query_name = EXCLUDED.query_name,
            query_city = EXCLUDED.query_city,
            query_country = EXCLUDED.query_country,
            provider_a_raw = EXCLUDED.provider_a_raw,
            provider_b_raw = EXCLUDED.provider_b_raw,
            enriched = EXCLUDED.enriched,
            location = EXCLUDED.location,
            provider_a_fetched = EXCLUDED.provider_a_fetched,
            provider_b_fetched = EXCLUDED.provider_b_fetched,
            fetch_errors = EXCLUDED.fetch_errors,
            updated_at = EXCLUDED.updated_at,
            expires_at = EXCLUDED.expires_at,
            last_accessed = EXCLUDED.last_accessed`

	_, err = r.pgpool.Exec(ctx, query,
		entry.PlaceKey, queryJSON, entry.Query.Name, entry.Query.City, entry.Query.Country,
		providerARaw, providerBRaw, enrichedJSON, lat, lng,
		entry.Meta.FoursquareFetched, entry.Meta.TripAdvisorFetched, fetchErrorsJSON, entry.Meta.HitCount,
		entry.Meta.CreatedAt, entry.Meta.UpdatedAt, entry.Meta.ExpiresAt, entry.Meta.LastAccessed,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upsert failed")
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	r.logger.DebugContext(ctx, "Cache entry upserted", slog.String("place_key", entry.PlaceKey))
	return nil
}

// RecordHit bumps the hit counter and access time for a cache hit.
func (r *RepositoryImpl) RecordHit(ctx context.Context, placeKey string) error {
	ctx, span := otel.Tracer("EnrichmentRepository").Start(ctx, "RecordHit", trace.WithAttributes(
		attribute.String("place_key", placeKey),
	))
	defer span.End()

	query := `
        UPDATE poi_cache
        SET hit_count = hit_count + 1, last_accessed = now()
        WHERE place_key = $1`

	if _, err := r.pgpool.Exec(ctx, query, placeKey); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to record cache hit: %w", err)
	}
	return nil
}

// DeleteExpiredBefore is the sweeper's bulk delete of entries whose expiry
// lies before the cutoff.
func (r *RepositoryImpl) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := otel.Tracer("EnrichmentRepository").Start(ctx, "DeleteExpiredBefore", trace.WithAttributes(
		attribute.String("cutoff", cutoff.Format(time.RFC3339)),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM poi_cache WHERE expires_at < $1`, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bulk delete failed")
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	deleted := tag.RowsAffected()
	span.SetAttributes(attribute.Int64("deleted", deleted))
	r.logger.InfoContext(ctx, "Expired cache entries deleted", slog.Int64("count", deleted))
	return deleted, nil
}

// FindNearby returns cached places within radiusMeters of a point, closest
// first. Entries without coordinates never match.
func (r *RepositoryImpl) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]types.CacheEntry, error) {
	ctx, span := otel.Tracer("EnrichmentRepository").Start(ctx, "FindNearby", trace.WithAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lng", lng),
		attribute.Float64("radius_m", radiusMeters),
	))
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	query := `SELECT` + cacheEntryColumns + `
        FROM poi_cache
        WHERE location IS NOT NULL
          AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)
        ORDER BY location <-> ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography
        LIMIT $4`

	rows, err := r.pgpool.Query(ctx, query, lat, lng, radiusMeters, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query nearby cache entries: %w", err)
	}
	defer rows.Close()

	var entries []types.CacheEntry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan nearby cache entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed reading nearby cache entries: %w", err)
	}
	return entries, nil
}

func (r *RepositoryImpl) scanEntry(row pgx.Row) (*types.CacheEntry, error) {
	var entry types.CacheEntry
	var queryJSON, enrichedJSON, fetchErrorsJSON []byte
	var providerARaw, providerBRaw []byte

	err := row.Scan(
		&entry.PlaceKey, &queryJSON, &providerARaw, &providerBRaw, &enrichedJSON,
		&entry.Meta.FoursquareFetched, &entry.Meta.TripAdvisorFetched, &fetchErrorsJSON, &entry.Meta.HitCount,
		&entry.Meta.CreatedAt, &entry.Meta.UpdatedAt, &entry.Meta.ExpiresAt, &entry.Meta.LastAccessed,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(queryJSON, &entry.Query); err != nil {
		return nil, fmt.Errorf("failed to unmarshal query: %w", err)
	}
	if err := json.Unmarshal(enrichedJSON, &entry.Enriched); err != nil {
		return nil, fmt.Errorf("failed to unmarshal enriched record: %w", err)
	}
	if len(fetchErrorsJSON) > 0 {
		if err := json.Unmarshal(fetchErrorsJSON, &entry.Meta.FetchErrors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fetch errors: %w", err)
		}
	}
	if len(providerARaw) > 0 {
		if err := json.Unmarshal(providerARaw, &entry.FoursquareRaw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal provider A payload: %w", err)
		}
	}
	if len(providerBRaw) > 0 {
		if err := json.Unmarshal(providerBRaw, &entry.TripAdvisorRaw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal provider B payload: %w", err)
		}
	}
	return &entry, nil
}
