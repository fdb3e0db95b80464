package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	RecordsParsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worklog_records_parsed_total",
			Help: "Interval records parsed from stored periods",
		},
	)

	RecordsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklog_records_rejected_total",
			Help: "Stored interval records that failed to parse",
		},
		[]string{"period"},
	)

	DaySaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklog_day_saves_total",
			Help: "Day edits by outcome",
		},
		[]string{"result"},
	)

	PeriodCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worklog_period_cache_lookups_total",
			Help: "Parsed-period cache lookups",
		},
		[]string{"result"},
	)

	TrackerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worklog_tracker_active",
			Help: "1 while an interval is being tracked",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RecordsParsed,
		RecordsRejected,
		DaySaves,
		PeriodCacheLookups,
		TrackerActive,
	)
}

// Server exposes /metrics over HTTP.
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start serves in the background.
func (s *Server) Start() {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
}

func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
