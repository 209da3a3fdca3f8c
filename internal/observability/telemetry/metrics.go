package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/seu-repo/autospace/internal/domain"
)

var (
	// Métricas de negócio
	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autospace_open_sessions",
		Help: "Número de sessões de estacionamento abertas",
	})

	SessionsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autospace_sessions_opened_total",
		Help: "Total de sessões abertas por tipo de veículo",
	}, []string{"vehicle_type"})

	SessionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autospace_sessions_closed_total",
		Help: "Total de sessões encerradas, por forma de cobrança",
	}, []string{"billing"})

	SessionAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autospace_session_amount",
		Help:    "Valor cobrado por sessão encerrada",
		Buckets: []float64{0, 5, 10, 20, 30, 50, 100, 200},
	})

	SessionOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autospace_session_operations_total",
		Help: "Total de operações de sessão por resultado",
	}, []string{"operation", "outcome"})

	// Métricas de infraestrutura
	TariffCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autospace_tariff_cache_lookups_total",
		Help: "Consultas ao cache de tarifas por resultado (hit, miss, stale, error)",
	}, []string{"result"})

	RepositoryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autospace_repository_latency_seconds",
		Help:    "Latência de queries no banco",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// Outcome labels an operation result for SessionOperationsTotal.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
