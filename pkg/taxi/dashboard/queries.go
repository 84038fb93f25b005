package dashboard

import (
	"context"
	"database/sql"
	"time"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

const (
	sqlAvailableMonths = `SELECT DISTINCT to_char(tpep_pickup_datetime, 'YYYY-MM') AS m
FROM fact_trips
ORDER BY m`

	sqlKPIs = `SELECT
    COUNT(*),
    COALESCE(SUM(total_amount), 0),
    COALESCE(AVG(total_amount), 0),
    COALESCE(AVG(trip_distance), 0),
    COALESCE(AVG(tip_amount), 0),
    COALESCE(SUM(tip_amount), 0),
    COALESCE(AVG(passenger_count), 0)
FROM fact_trips
WHERE to_char(tpep_pickup_datetime, 'YYYY-MM') = ANY($1)`

	sqlDailyRevenue = `SELECT
    date(tpep_pickup_datetime) AS day,
    COALESCE(SUM(total_amount), 0) AS revenue,
    COUNT(*) AS trips
FROM fact_trips
WHERE to_char(tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
GROUP BY 1 ORDER BY 1`

	sqlHourly = `SELECT
    EXTRACT(HOUR FROM tpep_pickup_datetime)::int AS hour,
    COUNT(*) AS trips
FROM fact_trips
WHERE to_char(tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
GROUP BY 1 ORDER BY 1`

	sqlTopPickupZones = `SELECT
    l.zone, l.borough, COUNT(*) AS trips, COALESCE(SUM(f.total_amount), 0) AS revenue
FROM fact_trips f
JOIN dim_location l ON l.location_id = f.pu_location_id
WHERE to_char(f.tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
GROUP BY 1, 2
ORDER BY trips DESC
LIMIT 10`

	sqlTopDropoffZones = `SELECT
    l.zone, l.borough, COUNT(*) AS trips, COALESCE(SUM(f.total_amount), 0) AS revenue
FROM fact_trips f
JOIN dim_location l ON l.location_id = f.do_location_id
WHERE to_char(f.tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
GROUP BY 1, 2
ORDER BY trips DESC
LIMIT 10`

	sqlPayments = `SELECT
    p.payment_name, COUNT(*) AS trips, COALESCE(SUM(f.total_amount), 0) AS revenue
FROM fact_trips f
JOIN dim_payment_type p ON p.payment_type_id = f.payment_type_id
WHERE to_char(f.tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
GROUP BY 1
ORDER BY trips DESC`

	sqlVendors = `SELECT
    COALESCE(v.vendor_name, 'Unknown') AS vendor,
    COALESCE(SUM(f.total_amount), 0) AS revenue,
    COUNT(*) AS trips,
    COALESCE(AVG(f.total_amount), 0) AS avg_fare
FROM fact_trips f
LEFT JOIN dim_vendor v ON v.vendor_id = f.vendor_id
WHERE to_char(f.tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
GROUP BY 1 ORDER BY revenue DESC`

	sqlDistanceBuckets = `SELECT
    CASE
        WHEN trip_distance < 1  THEN '0-1 mi'
        WHEN trip_distance < 3  THEN '1-3 mi'
        WHEN trip_distance < 5  THEN '3-5 mi'
        WHEN trip_distance < 10 THEN '5-10 mi'
        WHEN trip_distance < 20 THEN '10-20 mi'
        ELSE '20+ mi'
    END AS dist_bucket,
    CASE
        WHEN trip_distance < 1  THEN 1
        WHEN trip_distance < 3  THEN 2
        WHEN trip_distance < 5  THEN 3
        WHEN trip_distance < 10 THEN 4
        WHEN trip_distance < 20 THEN 5
        ELSE 6
    END AS sort_key,
    AVG(total_amount) AS avg_fare,
    COUNT(*) AS trips
FROM fact_trips
WHERE to_char(tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
  AND trip_distance > 0 AND trip_distance < 100
  AND total_amount > 0 AND total_amount < 500
GROUP BY 1, 2
ORDER BY sort_key`

	sqlHeatmap = `SELECT
    EXTRACT(DOW FROM tpep_pickup_datetime)::int AS dow,
    EXTRACT(HOUR FROM tpep_pickup_datetime)::int AS hour,
    COUNT(*) AS trips
FROM fact_trips
WHERE to_char(tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
GROUP BY 1, 2`

	sqlMonthly = `SELECT
    to_char(tpep_pickup_datetime, 'YYYY-MM') AS month,
    COUNT(*) AS trips,
    COALESCE(SUM(total_amount), 0) AS revenue,
    COALESCE(AVG(total_amount), 0) AS avg_fare,
    COALESCE(AVG(trip_distance), 0) AS avg_dist,
    COALESCE(AVG(tip_amount), 0) AS avg_tip
FROM fact_trips
WHERE to_char(tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
GROUP BY 1 ORDER BY 1`

	sqlSampleTrips = `SELECT
    f.trip_id,
    f.tpep_pickup_datetime,
    f.tpep_dropoff_datetime,
    f.passenger_count,
    f.trip_distance,
    f.total_amount,
    f.tip_amount,
    pu.zone,
    dz.zone,
    p.payment_name,
    v.vendor_name
FROM fact_trips f
LEFT JOIN dim_location pu ON pu.location_id = f.pu_location_id
LEFT JOIN dim_location dz ON dz.location_id = f.do_location_id
LEFT JOIN dim_payment_type p ON p.payment_type_id = f.payment_type_id
LEFT JOIN dim_vendor v ON v.vendor_id = f.vendor_id
WHERE to_char(f.tpep_pickup_datetime, 'YYYY-MM') = ANY($1)
ORDER BY f.tpep_pickup_datetime
LIMIT 50`
)

// KPIs are the headline figures of a month selection.
type KPIs struct {
	Trips         int64   `json:"nb_trips"`
	SumTotal      float64 `json:"sum_total"`
	AvgTotal      float64 `json:"avg_total"`
	AvgDistance   float64 `json:"avg_distance"`
	AvgTip        float64 `json:"avg_tip"`
	SumTip        float64 `json:"sum_tip"`
	AvgPassengers float64 `json:"avg_passengers"`
}

type DailyRevenue struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
	Trips   int64   `json:"trips"`
}

type HourlyCount struct {
	Hour  int   `json:"hour"`
	Trips int64 `json:"trips"`
}

type ZoneCount struct {
	Zone    string  `json:"zone"`
	Borough string  `json:"borough"`
	Trips   int64   `json:"trips"`
	Revenue float64 `json:"revenue"`
}

type PaymentShare struct {
	Payment string  `json:"payment"`
	Trips   int64   `json:"trips"`
	Revenue float64 `json:"revenue"`
}

type VendorRevenue struct {
	Vendor  string  `json:"vendor"`
	Revenue float64 `json:"revenue"`
	Trips   int64   `json:"trips"`
	AvgFare float64 `json:"avg_fare"`
}

// DistanceBucket is the mean fare of one trip distance band. SortKey runs 1..6
// from the shortest band.
type DistanceBucket struct {
	Bucket  string  `json:"dist_bucket"`
	SortKey int     `json:"sort_key"`
	AvgFare float64 `json:"avg_fare"`
	Trips   int64   `json:"trips"`
}

// HeatmapDays labels the rows of Heatmap.Trips.
var HeatmapDays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Heatmap counts trips per weekday (Monday first) and pickup hour. Cells
// without trips are zero.
type Heatmap struct {
	Days  [7]string    `json:"days"`
	Trips [7][24]int64 `json:"trips"`
}

type MonthlySummary struct {
	Month   string  `json:"month"`
	Trips   int64   `json:"trips"`
	Revenue float64 `json:"revenue"`
	AvgFare float64 `json:"avg_fare"`
	AvgDist float64 `json:"avg_dist"`
	AvgTip  float64 `json:"avg_tip"`
}

type SampleTrip struct {
	TripID      int64     `json:"trip_id"`
	Pickup      time.Time `json:"pickup"`
	Dropoff     time.Time `json:"dropoff"`
	Passengers  *float64  `json:"pax"`
	Distance    *float64  `json:"distance"`
	Total       *float64  `json:"total"`
	Tip         *float64  `json:"tip"`
	PickupZone  *string   `json:"pickup_zone"`
	DropoffZone *string   `json:"dropoff_zone"`
	Payment     *string   `json:"payment"`
	Vendor      *string   `json:"vendor"`
}

// AvailableMonths lists every pickup month present in fact_trips, ascending.
func (w *Warehouse) AvailableMonths(ctx context.Context) ([]string, error) {
	rows, err := w.db.QueryContext(ctx, sqlAvailableMonths)
	if err != nil {
		return nil, exception.New(exception.KindIO, moduleName, "query months failed", err)
	}
	defer rows.Close()
	months := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, exception.New(exception.KindIO, moduleName, "query months: scan failed", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, exception.New(exception.KindIO, moduleName, "query months failed", err)
	}
	return months, nil
}

func (w *Warehouse) KPIs(ctx context.Context, months []string) (*KPIs, error) {
	k := &KPIs{}
	err := w.query(ctx, "kpis", sqlKPIs, months, func(r *sql.Rows) error {
		return r.Scan(&k.Trips, &k.SumTotal, &k.AvgTotal, &k.AvgDistance, &k.AvgTip, &k.SumTip, &k.AvgPassengers)
	})
	if err != nil {
		return nil, err
	}
	return k, nil
}

func (w *Warehouse) DailyRevenue(ctx context.Context, months []string) ([]DailyRevenue, error) {
	out := []DailyRevenue{}
	err := w.query(ctx, "daily_revenue", sqlDailyRevenue, months, func(r *sql.Rows) error {
		var (
			d   DailyRevenue
			day time.Time
		)
		if err := r.Scan(&day, &d.Revenue, &d.Trips); err != nil {
			return err
		}
		d.Day = day.Format("2006-01-02")
		out = append(out, d)
		return nil
	})
	return out, err
}

func (w *Warehouse) HourlyDistribution(ctx context.Context, months []string) ([]HourlyCount, error) {
	out := []HourlyCount{}
	err := w.query(ctx, "hourly", sqlHourly, months, func(r *sql.Rows) error {
		var h HourlyCount
		if err := r.Scan(&h.Hour, &h.Trips); err != nil {
			return err
		}
		out = append(out, h)
		return nil
	})
	return out, err
}

// TopPickupZones returns the ten busiest pickup zones.
func (w *Warehouse) TopPickupZones(ctx context.Context, months []string) ([]ZoneCount, error) {
	return w.zones(ctx, "top_pickup", sqlTopPickupZones, months)
}

// TopDropoffZones returns the ten busiest dropoff zones.
func (w *Warehouse) TopDropoffZones(ctx context.Context, months []string) ([]ZoneCount, error) {
	return w.zones(ctx, "top_dropoff", sqlTopDropoffZones, months)
}

func (w *Warehouse) zones(ctx context.Context, name, q string, months []string) ([]ZoneCount, error) {
	out := []ZoneCount{}
	err := w.query(ctx, name, q, months, func(r *sql.Rows) error {
		var z ZoneCount
		if err := r.Scan(&z.Zone, &z.Borough, &z.Trips, &z.Revenue); err != nil {
			return err
		}
		out = append(out, z)
		return nil
	})
	return out, err
}

func (w *Warehouse) PaymentBreakdown(ctx context.Context, months []string) ([]PaymentShare, error) {
	out := []PaymentShare{}
	err := w.query(ctx, "payments", sqlPayments, months, func(r *sql.Rows) error {
		var p PaymentShare
		if err := r.Scan(&p.Payment, &p.Trips, &p.Revenue); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (w *Warehouse) VendorRevenue(ctx context.Context, months []string) ([]VendorRevenue, error) {
	out := []VendorRevenue{}
	err := w.query(ctx, "vendors", sqlVendors, months, func(r *sql.Rows) error {
		var v VendorRevenue
		if err := r.Scan(&v.Vendor, &v.Revenue, &v.Trips, &v.AvgFare); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

// FareByDistanceBucket excludes implausible trips (distance outside (0, 100) mi,
// total outside (0, 500)).
func (w *Warehouse) FareByDistanceBucket(ctx context.Context, months []string) ([]DistanceBucket, error) {
	out := []DistanceBucket{}
	err := w.query(ctx, "distance_buckets", sqlDistanceBuckets, months, func(r *sql.Rows) error {
		var b DistanceBucket
		if err := r.Scan(&b.Bucket, &b.SortKey, &b.AvgFare, &b.Trips); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	return out, err
}

func (w *Warehouse) WeekdayHourHeatmap(ctx context.Context, months []string) (*Heatmap, error) {
	h := &Heatmap{Days: HeatmapDays}
	err := w.query(ctx, "heatmap", sqlHeatmap, months, func(r *sql.Rows) error {
		var dow, hour int
		var trips int64
		if err := r.Scan(&dow, &hour, &trips); err != nil {
			return err
		}
		if dow < 0 || dow > 6 || hour < 0 || hour > 23 {
			return exception.Newf(exception.KindDataQuality, moduleName, "heatmap cell out of range: dow=%d hour=%d", dow, hour)
		}
		// Postgres DOW counts from Sunday.
		h.Trips[(dow+6)%7][hour] = trips
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (w *Warehouse) MonthlyComparison(ctx context.Context, months []string) ([]MonthlySummary, error) {
	out := []MonthlySummary{}
	err := w.query(ctx, "monthly", sqlMonthly, months, func(r *sql.Rows) error {
		var m MonthlySummary
		if err := r.Scan(&m.Month, &m.Trips, &m.Revenue, &m.AvgFare, &m.AvgDist, &m.AvgTip); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}

// SampleTrips returns the first fifty trips of the selection by pickup time.
func (w *Warehouse) SampleTrips(ctx context.Context, months []string) ([]SampleTrip, error) {
	out := []SampleTrip{}
	err := w.query(ctx, "sample", sqlSampleTrips, months, func(r *sql.Rows) error {
		var s SampleTrip
		if err := r.Scan(&s.TripID, &s.Pickup, &s.Dropoff, &s.Passengers, &s.Distance, &s.Total, &s.Tip,
			&s.PickupZone, &s.DropoffZone, &s.Payment, &s.Vendor); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
