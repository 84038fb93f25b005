package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// monthQueryFunc is the shape of every month-filtered Service query.
type monthQueryFunc func(ctx context.Context, months []string) (interface{}, error)

// Server exposes the Service over HTTP.
type Server struct {
	service  *Service
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewServer creates a server with its own metrics registry.
func NewServer(service *Service) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s := &Server{
		service:  service,
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxi_dashboard_requests_total",
			Help: "Total number of dashboard API requests.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxi_dashboard_request_duration_seconds",
			Help:    "Latency of dashboard API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	registry.MustRegister(s.requests, s.latency)
	return s
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()
	router.GET("/healthz", s.instrument("healthz", s.healthHandler))
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	router.GET("/api/months", s.instrument("months", s.monthsHandler))

	routes := map[string]monthQueryFunc{
		"kpis":             wrap(s.service.KPIs),
		"daily-revenue":    wrap(s.service.DailyRevenue),
		"hourly":           wrap(s.service.HourlyDistribution),
		"top-pickup":       wrap(s.service.TopPickupZones),
		"top-dropoff":      wrap(s.service.TopDropoffZones),
		"payments":         wrap(s.service.PaymentBreakdown),
		"vendors":          wrap(s.service.VendorRevenue),
		"distance-buckets": wrap(s.service.FareByDistanceBucket),
		"heatmap":          wrap(s.service.WeekdayHourHeatmap),
		"monthly":          wrap(s.service.MonthlyComparison),
		"sample":           wrap(s.service.SampleTrips),
	}
	for name, fn := range routes {
		router.GET("/api/"+name, s.instrument(name, s.monthQueryHandler(fn)))
	}
	return router
}

func wrap[T any](fn func(context.Context, []string) (T, error)) monthQueryFunc {
	return func(ctx context.Context, months []string) (interface{}, error) {
		return fn(ctx, months)
	}
}

// statusRecorder captures the response code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r, ps)
		s.requests.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		s.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// MonthsFromRequest reads the selection from repeated or comma separated
// month query parameters.
func MonthsFromRequest(r *http.Request) []string {
	var months []string
	for _, v := range r.URL.Query()["month"] {
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				months = append(months, m)
			}
		}
	}
	return months
}

func (s *Server) monthQueryHandler(fn monthQueryFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		result, err := fn(r.Context(), MonthsFromRequest(r))
		if err != nil {
			s.errorResponse(w, r, err)
			return
		}
		s.sendJSON(w, r, http.StatusOK, result)
	}
}

func (s *Server) monthsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	months, err := s.service.AvailableMonths(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.sendJSON(w, r, http.StatusOK, map[string][]string{"months": months})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := s.service.Ping(r.Context()); err != nil {
		logger.Warnf("Dashboard: health check failed: %v", err)
		s.sendJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.sendJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// errorResponse maps selection errors to 400 and everything else to a logged 500.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if exception.IsConfigError(err) {
		s.sendJSON(w, r, http.StatusBadRequest, errorBody{Code: http.StatusBadRequest, Error: exception.ExtractErrorMessage(err)})
		return
	}
	logger.Errorf("Dashboard: %s %s failed: %v", r.Method, r.URL.Path, err)
	s.sendJSON(w, r, http.StatusInternalServerError, errorBody{Code: http.StatusInternalServerError, Error: "internal server error"})
}

func (s *Server) sendJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Dashboard: failed to encode response for %s: %v", r.URL.Path, err)
	}
}
