package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	Logger *zap.Logger

	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifications_total",
			Help: "Total number of verification challenges by outcome",
		},
		[]string{"outcome"},
	)

	gatewayErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_errors_total",
			Help: "Total number of failed messaging gateway calls",
		},
	)
)

// Init sets up the zap logger, the tracer provider and the prometheus
// endpoint. The metrics server lives until ctx is cancelled.
func Init(ctx context.Context, listenAddr string) error {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	prometheus.MustRegister(verificationsTotal)
	prometheus.MustRegister(gatewayErrorsTotal)

	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: listenAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			_ = server.Close()
		}()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return nil
}

// RecordVerificationStarted records a newly issued challenge
func RecordVerificationStarted() {
	verificationsTotal.WithLabelValues("started").Inc()
}

// RecordVerificationResolved records a successfully passed challenge
func RecordVerificationResolved() {
	verificationsTotal.WithLabelValues("resolved").Inc()
}

// RecordEscalation records a timed-out challenge, by ban outcome
func RecordEscalation(banned bool) {
	outcome := "escalated_banned"
	if !banned {
		outcome = "escalated_ban_failed"
	}
	verificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordGatewayError records a failed outbound gateway call
func RecordGatewayError() {
	gatewayErrorsTotal.Inc()
}
