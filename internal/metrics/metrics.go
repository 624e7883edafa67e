package metrics

import (
	"database/sql"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"safewarner/internal/logger"
)

const metricPrefix = "safewarner_"

var (
	// AlertsTotal counts delivered notifications by kind.
	AlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "alerts_total",
		Help: "Delivered notifications by alert kind",
	}, []string{"kind"})

	// SuppressedTotal counts notifications dropped by the cooldown gate.
	SuppressedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "alerts_suppressed_total",
		Help: "Notifications dropped by the cooldown gate",
	})

	// ExercisesCompletedTotal counts finished eye exercises.
	ExercisesCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "exercises_completed_total",
		Help: "Completed eye exercises",
	})

	// FramesProcessedTotal counts monitoring ticks.
	FramesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricPrefix + "frames_processed_total",
		Help: "Frames run through the monitoring pipeline",
	})

	// BackgroundTransitionsTotal counts background enter/exit transitions.
	BackgroundTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricPrefix + "background_transitions_total",
		Help: "Background mode transitions by direction",
	}, []string{"direction"})
)

var registerOnce sync.Once

// Register installs all collectors into the default registry. Safe to call
// more than once.
func Register(db *sql.DB, log *logger.Logger) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AlertsTotal,
			SuppressedTotal,
			ExercisesCompletedTotal,
			FramesProcessedTotal,
			BackgroundTransitionsTotal,
		)
		registerLedgerGauges(db, log)
	})
}

// registerLedgerGauges exposes durable ledger sizes straight from sqlite.
func registerLedgerGauges(db *sql.DB, log *logger.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "ledger_alert_rows",
			Help: "Persisted alert records",
		},
		func() float64 {
			return queryCount(db, log, "SELECT COUNT(*) FROM session_alerts")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "ledger_exercise_rows",
			Help: "Persisted exercise records",
		},
		func() float64 {
			return queryCount(db, log, "SELECT COUNT(*) FROM session_exercises")
		},
	))
}

func queryCount(db *sql.DB, log *logger.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if log != nil {
			log.Warnw("metrics query failed", "err", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
