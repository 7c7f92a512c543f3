package smartdesk

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/smartdesk/internal/domain"
)

// Outcome labels of smartdesk_sdk_operations_total.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeQuota    = "quota"
	outcomeError    = "error"
)

// outcome classifies err so dashboards can tell caller mistakes from failures.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrInvalidTicket),
		errors.Is(err, domain.ErrInvalidAccount),
		errors.Is(err, domain.ErrInvalidKnowledge):
		return outcomeInvalid
	case errors.Is(err, domain.ErrAccountNotFound):
		return outcomeNotFound
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return outcomeQuota
	default:
		return outcomeError
	}
}

// observer logs and counts SDK calls. A nil observer does nothing.
type observer struct {
	logger     *slog.Logger
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartdesk",
		Subsystem: "sdk",
		Name:      "operations_total",
		Help:      "SDK calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smartdesk",
		Subsystem: "sdk",
		Name:      "operation_duration_seconds",
		Help:      "SDK call duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	var err error
	if o.operations, err = register(reg, ops); err != nil {
		return nil, err
	}
	if o.duration, err = register(reg, dur); err != nil {
		return nil, err
	}
	return o, nil
}

// register adds c to reg. When a second client shares the registry the
// collector registered first is returned instead.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("smartdesk: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("smartdesk: metric already registered as %T", are.ExistingCollector)
	}
	return existing, nil
}

// track starts timing op. Call the returned func with the operation's error,
// usually as defer o.track("triage")(&err).
func (o *observer) track(op string) func(*error) {
	start := time.Now()
	return func(errp *error) {
		if o == nil {
			return
		}
		var err error
		if errp != nil {
			err = *errp
		}
		o.record(op, time.Since(start), err)
	}
}

func (o *observer) record(op string, dur time.Duration, err error) {
	result := outcome(err)
	if o.operations != nil {
		o.operations.WithLabelValues(op, result).Inc()
		o.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	switch result {
	case outcomeOK:
		o.logger.Debug("operation completed", "op", op, "duration", dur)
	case outcomeError:
		o.logger.Warn("operation failed", "op", op, "duration", dur, "error", err)
	default:
		o.logger.Info("operation rejected", "op", op, "outcome", result, "error", err)
	}
}
