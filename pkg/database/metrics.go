package database

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// PoolStatsCollector implements prometheus.Collector for pgxpool connection metrics.
type PoolStatsCollector struct {
	pool    *pgxpool.Pool
	service string

	acquiredConns    *prometheus.Desc
	idleConns        *prometheus.Desc
	totalConns       *prometheus.Desc
	maxConns         *prometheus.Desc
	acquireCount     *prometheus.Desc
	acquireDuration  *prometheus.Desc
	emptyAcquires    *prometheus.Desc
	canceledAcquires *prometheus.Desc
}

func poolDesc(name, help string) *prometheus.Desc {
	return prometheus.NewDesc("db_pool_"+name, help, []string{"service"}, nil)
}

// NewPoolStatsCollector creates a new Prometheus collector that exports pgxpool
// connection pool statistics as metrics.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	return &PoolStatsCollector{
		pool:             pool,
		service:          service,
		acquiredConns:    poolDesc("acquired_connections", "Number of currently acquired connections"),
		idleConns:        poolDesc("idle_connections", "Number of currently idle connections"),
		totalConns:       poolDesc("total_connections", "Total number of connections in the pool"),
		maxConns:         poolDesc("max_connections", "Maximum number of connections allowed"),
		acquireCount:     poolDesc("acquire_count_total", "Total number of connection acquires"),
		acquireDuration:  poolDesc("acquire_duration_seconds_total", "Total time spent acquiring connections in seconds"),
		emptyAcquires:    poolDesc("empty_acquire_count_total", "Total number of acquires that had to wait for a connection"),
		canceledAcquires: poolDesc("canceled_acquire_count_total", "Total number of canceled connection acquires"),
	}
}

// Describe sends the descriptors of all metrics to the provided channel.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredConns
	ch <- c.idleConns
	ch <- c.totalConns
	ch <- c.maxConns
	ch <- c.acquireCount
	ch <- c.acquireDuration
	ch <- c.emptyAcquires
	ch <- c.canceledAcquires
}

// Collect reads current pool statistics and sends them as Prometheus metrics.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()

	ch <- prometheus.MustNewConstMetric(c.acquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stat.IdleConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(stat.TotalConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(stat.MaxConns()), c.service)
	ch <- prometheus.MustNewConstMetric(c.acquireCount, prometheus.CounterValue, float64(stat.AcquireCount()), c.service)
	ch <- prometheus.MustNewConstMetric(c.acquireDuration, prometheus.CounterValue, stat.AcquireDuration().Seconds(), c.service)
	ch <- prometheus.MustNewConstMetric(c.emptyAcquires, prometheus.CounterValue, float64(stat.EmptyAcquireCount()), c.service)
	ch <- prometheus.MustNewConstMetric(c.canceledAcquires, prometheus.CounterValue, float64(stat.CanceledAcquireCount()), c.service)
}

// RegisterPoolMetrics creates and registers a pgxpool metrics collector with
// the default Prometheus registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.MustRegister(NewPoolStatsCollector(pool, service))
}

// RegisterSQLDBMetrics registers the client_golang database/sql stats
// collector for a MySQL handle with the default Prometheus registry.
func RegisterSQLDBMetrics(db *sql.DB, dbName string) {
	prometheus.MustRegister(collectors.NewDBStatsCollector(db, dbName))
}
