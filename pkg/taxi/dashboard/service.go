package dashboard

import (
	"context"
	"time"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// Service answers the query catalogue through the cache. Cache failures are
// logged and the warehouse is queried directly.
type Service struct {
	warehouse *Warehouse
	cache     Cache
	ttl       time.Duration
}

// NewService returns a service. A nil cache disables caching.
func NewService(warehouse *Warehouse, cache Cache, ttl time.Duration) *Service {
	if cache == nil {
		cache = NoCache{}
	}
	return &Service{warehouse: warehouse, cache: cache, ttl: ttl}
}

// Ping checks the warehouse.
func (s *Service) Ping(ctx context.Context) error { return s.warehouse.Ping(ctx) }

// cached loads name for months from the cache into dest, or runs load and
// stores its result. months must already be normalized.
func cached[T any](ctx context.Context, s *Service, name string, months []string, load func(context.Context, []string) (T, error)) (T, error) {
	key := CacheKey(name, months)
	var hit T
	found, err := s.cache.Get(ctx, key, &hit)
	if err != nil {
		logger.Warnf("Dashboard: cache read for %s failed, querying warehouse: %v", key, err)
	} else if found {
		logger.Debugf("Dashboard: cache hit for %s.", key)
		return hit, nil
	}

	v, err := load(ctx, months)
	if err != nil {
		return v, err
	}
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		logger.Warnf("Dashboard: cache write for %s failed: %v", key, err)
	}
	return v, nil
}

func lookup[T any](ctx context.Context, s *Service, name string, months []string, load func(context.Context, []string) (T, error)) (T, error) {
	normalized, err := NormalizeMonths(months)
	if err != nil {
		var zero T
		return zero, err
	}
	return cached(ctx, s, name, normalized, load)
}

// AvailableMonths is never cached; new months appear as the warehouse loads.
func (s *Service) AvailableMonths(ctx context.Context) ([]string, error) {
	return s.warehouse.AvailableMonths(ctx)
}

func (s *Service) KPIs(ctx context.Context, months []string) (*KPIs, error) {
	return lookup(ctx, s, "kpis", months, s.warehouse.KPIs)
}

func (s *Service) DailyRevenue(ctx context.Context, months []string) ([]DailyRevenue, error) {
	return lookup(ctx, s, "daily_revenue", months, s.warehouse.DailyRevenue)
}

func (s *Service) HourlyDistribution(ctx context.Context, months []string) ([]HourlyCount, error) {
	return lookup(ctx, s, "hourly", months, s.warehouse.HourlyDistribution)
}

func (s *Service) TopPickupZones(ctx context.Context, months []string) ([]ZoneCount, error) {
	return lookup(ctx, s, "top_pickup", months, s.warehouse.TopPickupZones)
}

func (s *Service) TopDropoffZones(ctx context.Context, months []string) ([]ZoneCount, error) {
	return lookup(ctx, s, "top_dropoff", months, s.warehouse.TopDropoffZones)
}

func (s *Service) PaymentBreakdown(ctx context.Context, months []string) ([]PaymentShare, error) {
	return lookup(ctx, s, "payments", months, s.warehouse.PaymentBreakdown)
}

func (s *Service) VendorRevenue(ctx context.Context, months []string) ([]VendorRevenue, error) {
	return lookup(ctx, s, "vendors", months, s.warehouse.VendorRevenue)
}

func (s *Service) FareByDistanceBucket(ctx context.Context, months []string) ([]DistanceBucket, error) {
	return lookup(ctx, s, "distance_buckets", months, s.warehouse.FareByDistanceBucket)
}

func (s *Service) WeekdayHourHeatmap(ctx context.Context, months []string) (*Heatmap, error) {
	return lookup(ctx, s, "heatmap", months, s.warehouse.WeekdayHourHeatmap)
}

func (s *Service) MonthlyComparison(ctx context.Context, months []string) ([]MonthlySummary, error) {
	return lookup(ctx, s, "monthly", months, s.warehouse.MonthlyComparison)
}

func (s *Service) SampleTrips(ctx context.Context, months []string) ([]SampleTrip, error) {
	return lookup(ctx, s, "sample", months, s.warehouse.SampleTrips)
}
