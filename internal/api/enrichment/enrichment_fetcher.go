package enrichment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-poi-enrichment/internal/api/placedata"
	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

const reviewFetchLimit = 5

var _ Fetcher = (*FetcherImpl)(nil)

// Fetcher runs the search+details round trip against both providers.
type Fetcher interface {
	FetchAll(ctx context.Context, query types.POIQuery) FetchResult
}

// FetchResult carries whatever each provider produced. A nil record with no
// matching error means the provider simply found nothing.
type FetchResult struct {
	Foursquare  *types.FoursquareDetails
	TripAdvisor *types.TripAdvisorDetails
	Errors      []types.FetchError
}

type FetcherImpl struct {
	logger      *slog.Logger
	foursquare  placedata.FoursquareProvider
	tripadvisor placedata.TripAdvisorProvider
}

func NewFetcher(foursquare placedata.FoursquareProvider, tripadvisor placedata.TripAdvisorProvider, logger *slog.Logger) *FetcherImpl {
	return &FetcherImpl{
		logger:      logger,
		foursquare:  foursquare,
		tripadvisor: tripadvisor,
	}
}

type providerOutcome struct {
	foursquare  *types.FoursquareDetails
	tripadvisor *types.TripAdvisorDetails
	err         *types.FetchError
}

// FetchAll queries both providers in parallel and joins their outcomes
// without letting one provider's failure cancel or fail the other. It never
// returns an error: a throwing provider contributes nil plus a recorded
// FetchError, a provider with zero search results contributes nil alone.
func (f *FetcherImpl) FetchAll(ctx context.Context, query types.POIQuery) FetchResult {
	ctx, span := otel.Tracer("EnrichmentFetcher").Start(ctx, "FetchAll", trace.WithAttributes(
		attribute.String("poi.name", query.Name),
		attribute.String("poi.city", query.City),
	))
	defer span.End()

	resultCh := make(chan providerOutcome, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go f.fetchFoursquareWorker(ctx, &wg, query, resultCh)
	go f.fetchTripAdvisorWorker(ctx, &wg, query, resultCh)

	wg.Wait()
	close(resultCh)

	var result FetchResult
	for outcome := range resultCh {
		if outcome.foursquare != nil {
			result.Foursquare = outcome.foursquare
		}
		if outcome.tripadvisor != nil {
			result.TripAdvisor = outcome.tripadvisor
		}
		if outcome.err != nil {
			result.Errors = append(result.Errors, *outcome.err)
		}
	}

	span.SetAttributes(
		attribute.Bool("foursquare.found", result.Foursquare != nil),
		attribute.Bool("tripadvisor.found", result.TripAdvisor != nil),
		attribute.Int("fetch.errors", len(result.Errors)),
	)
	if result.Foursquare == nil && result.TripAdvisor == nil && len(result.Errors) > 0 {
		span.SetStatus(codes.Error, "All providers failed")
	}
	return result
}

func (f *FetcherImpl) fetchFoursquareWorker(ctx context.Context, wg *sync.WaitGroup, query types.POIQuery, resultCh chan<- providerOutcome) {
	defer wg.Done()
	ctx, span := otel.Tracer("EnrichmentFetcher").Start(ctx, "fetchFoursquareWorker")
	defer span.End()

	candidates, err := f.foursquare.Search(ctx, query.Name, locationHint(query), query.Category)
	if err != nil {
		span.RecordError(err)
		resultCh <- providerOutcome{err: newFetchError(placedata.SourceFoursquare, err)}
		return
	}
	if len(candidates) == 0 {
		f.logger.DebugContext(ctx, "Foursquare returned no candidates", slog.String("name", query.Name))
		resultCh <- providerOutcome{}
		return
	}

	details, err := f.foursquare.GetDetails(ctx, candidates[0].FsqID)
	if err != nil {
		span.RecordError(err)
		resultCh <- providerOutcome{err: newFetchError(placedata.SourceFoursquare, err)}
		return
	}
	resultCh <- providerOutcome{foursquare: details}
}

func (f *FetcherImpl) fetchTripAdvisorWorker(ctx context.Context, wg *sync.WaitGroup, query types.POIQuery, resultCh chan<- providerOutcome) {
	defer wg.Done()
	ctx, span := otel.Tracer("EnrichmentFetcher").Start(ctx, "fetchTripAdvisorWorker")
	defer span.End()

	candidates, err := f.tripadvisor.Search(ctx, query.Name, locationHint(query), query.Category)
	if err != nil {
		span.RecordError(err)
		resultCh <- providerOutcome{err: newFetchError(placedata.SourceTripAdvisor, err)}
		return
	}
	if len(candidates) == 0 {
		f.logger.DebugContext(ctx, "TripAdvisor returned no candidates", slog.String("name", query.Name))
		resultCh <- providerOutcome{}
		return
	}

	details, err := f.tripadvisor.GetDetails(ctx, candidates[0].LocationID)
	if err != nil {
		span.RecordError(err)
		resultCh <- providerOutcome{err: newFetchError(placedata.SourceTripAdvisor, err)}
		return
	}

	// Reviews are a best-effort extra; losing them never fails the record.
	reviews, err := f.tripadvisor.GetReviews(ctx, candidates[0].LocationID, reviewFetchLimit)
	if err != nil {
		f.logger.DebugContext(ctx, "TripAdvisor reviews fetch failed", slog.Any("error", err))
	} else {
		details.Reviews = reviews
	}
	resultCh <- providerOutcome{tripadvisor: details}
}

func newFetchError(source string, err error) *types.FetchError {
	return &types.FetchError{
		Source:    source,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
