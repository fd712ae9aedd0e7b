package prometheus

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sifan077/Linxify/config"
	"github.com/sifan077/Linxify/internal/infra/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
)

// NewServer builds the admin HTTP server: /metrics for Prometheus and
// /log/level for runtime log level changes. When db is set its pool stats are
// exported as well.
func NewServer(cfg config.PrometheusConfig, db *sql.DB) (*http.Server, error) {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	if db != nil {
		if err := register(collectors.NewDBStatsCollector(db, "linxify")); err != nil {
			return nil, fmt.Errorf("prometheus: register db stats: %w", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.Handle("/log/level", logger.LevelHandler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}, nil
}

func register(c prometheus.Collector) error {
	err := prometheus.Register(c)
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
