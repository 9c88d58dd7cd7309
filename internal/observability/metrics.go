package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// ArticleViews counts article reads that incremented the view counter.
	ArticleViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkpress_article_views_total",
		Help: "Total number of article views recorded",
	})

	// Likes counts like and unlike operations by direction.
	Likes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpress_likes_total",
		Help: "Total number of like state changes",
	}, []string{"direction"})

	// FileUploads counts uploaded files by outcome (stored, skipped, failed).
	FileUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpress_file_uploads_total",
		Help: "Total number of file upload attempts by result",
	}, []string{"result"})

	// TokenRevocations counts revoked access tokens per revocation backend.
	TokenRevocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpress_token_revocations_total",
		Help: "Total number of revoked access tokens",
	}, []string{"backend"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpress_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkpress_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnections is the gauge of open feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkpress_websocket_connections",
		Help: "Number of active WebSocket feed connections",
	})

	// WebSocketBackpressureDrops counts feed messages dropped by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpress_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

const queryStartKey = "inkpress:query_start"

// RegisterQueryMetrics installs GORM callbacks that observe every query in DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	type hook struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}

	cb := db.Callback()
	hooks := []hook{
		{"create", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(name+":after", after)
		}},
		{"query", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(name+":after", after)
		}},
		{"update", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(name+":after", after)
		}},
		{"delete", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(name+":after", after)
		}},
		{"raw", func(name string, before, after func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register(name+":before", before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(name+":after", after)
		}},
	}

	for _, h := range hooks {
		op := h.op
		before := func(tx *gorm.DB) {
			tx.InstanceSet(queryStartKey, time.Now())
		}
		after := func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
		}
		if err := h.register("inkpress:metrics:"+op, before, after); err != nil {
			return err
		}
	}
	return nil
}
