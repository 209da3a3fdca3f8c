package interceptors

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	grpcHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autospace_grpc_handled_total",
			Help: "Chamadas gRPC concluídas por serviço, método e código",
		},
		[]string{"service", "method", "code"},
	)

	grpcHandlingSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autospace_grpc_handling_seconds",
			Help:    "Tempo de atendimento das chamadas gRPC em segundos",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "method"},
	)

	grpcInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "autospace_grpc_in_flight",
			Help: "Chamadas gRPC em andamento",
		},
		[]string{"service"},
	)
)

func init() {
	prometheus.MustRegister(grpcHandled, grpcHandlingSeconds, grpcInFlight)
}

// splitMethod turns "/pkg.Service/Method" into ("pkg.Service", "Method").
func splitMethod(fullMethod string) (string, string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		return fullMethod[:i], fullMethod[i+1:]
	}
	return "unknown", fullMethod
}

// UnaryMetricsInterceptor records per-method outcome counts and latency.
func UnaryMetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		service, method := splitMethod(info.FullMethod)
		inFlight := grpcInFlight.WithLabelValues(service)
		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		resp, err := handler(ctx, req)

		grpcHandlingSeconds.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		grpcHandled.WithLabelValues(service, method, status.Code(err).String()).Inc()
		return resp, err
	}
}
