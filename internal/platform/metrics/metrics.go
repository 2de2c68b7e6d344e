package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the study metrics and the prometheus registry they live in.
type Registry struct {
	reg *prometheus.Registry

	sessions        *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	coins           prometheus.Counter
	unlocks         *prometheus.CounterVec
	streakEvents    *prometheus.CounterVec
	activityErrors  prometheus.Counter
	reconcileWrites *prometheus.CounterVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Registry{
		reg: reg,
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studystreak_sessions_completed_total",
			Help: "Completed focus sessions by day position",
		}, []string{"kind"}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "studystreak_session_duration_seconds",
			Help:    "Duration of completed focus sessions",
			Buckets: []float64{60, 300, 900, 1500, 1800, 2700, 3600, 5400, 7200},
		}),
		coins: factory.NewCounter(prometheus.CounterOpts{
			Name: "studystreak_coins_earned_total",
			Help: "Coins banked from study time",
		}),
		unlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studystreak_characters_unlocked_total",
			Help: "Characters unlocked by streak day",
		}, []string{"character"}),
		streakEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studystreak_streak_events_total",
			Help: "Streak resets, freezes and repairs",
		}, []string{"event"}),
		activityErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "studystreak_activity_emit_failures_total",
			Help: "Activity feed events that could not be written",
		}),
		reconcileWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studystreak_reconcile_writes_total",
			Help: "Aggregate corrections written by reconciliation",
		}, []string{"kind"}),
	}
}

func (r *Registry) SessionCompleted(durationSeconds int, firstOfDay bool) {
	kind := "repeat"
	if firstOfDay {
		kind = "first_of_day"
	}
	r.sessions.WithLabelValues(kind).Inc()
	r.sessionDuration.Observe(float64(durationSeconds))
}

func (r *Registry) CoinsEarned(n int) {
	if n > 0 {
		r.coins.Add(float64(n))
	}
}

func (r *Registry) CharacterUnlocked(characterID string) {
	r.unlocks.WithLabelValues(characterID).Inc()
}

func (r *Registry) StreakEvent(event string) {
	r.streakEvents.WithLabelValues(event).Inc()
}

func (r *Registry) ActivityEmitFailed() {
	r.activityErrors.Inc()
}

func (r *Registry) ReconcileWrite(kind string) {
	r.reconcileWrites.WithLabelValues(kind).Inc()
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Nop discards every observation.
type Nop struct{}

func (Nop) SessionCompleted(int, bool) {}
func (Nop) CoinsEarned(int) {}
func (Nop) CharacterUnlocked(string) {}
func (Nop) StreakEvent(string) {}
func (Nop) ActivityEmitFailed() {}
func (Nop) ReconcileWrite(string) {}
