package events

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gardenlog/domain"
)

// Metrics counts dispatched events. A nil *Metrics records nothing.
type Metrics struct {
	Published *prometheus.CounterVec
	Failures  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gardenlog_events_published_total",
			Help: "Domain events published by trigger",
		}, []string{"type"}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gardenlog_events_publish_failures_total",
			Help: "Domain events that could not be published",
		}),
	}
}

func (m *Metrics) published(t domain.TriggerKind) {
	if m != nil {
		m.Published.WithLabelValues(string(t)).Inc()
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.Failures.Inc()
	}
}

// Dispatcher hands pending domain events to publishers. It is safe for
// concurrent use as long as the sources passed to one Dispatch call are
// not shared.
type Dispatcher struct {
	publishers []Publisher
	logger     *log.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

type Option func(*Dispatcher)

func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

func NewDispatcher(publishers []Publisher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		publishers: publishers,
		logger:     log.StandardLogger(),
		tracer:     otel.Tracer("gardenlog/events"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// prefixDropper is implemented by sources that can forget the events
// already published when a later one fails.
type prefixDropper interface {
	DropPendingEvents(n int)
}

// Dispatch publishes the pending events of every source in order and
// returns the number of events published. The first failure stops
// dispatch. The failing source drops the events that were published and
// keeps the failed one and the rest. Delivery is at-least-once: with
// several publishers, those that took the failed event before the
// failure see it again when dispatch is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, sources ...domain.EventSource) (int, error) {
	ctx, span := d.tracer.Start(ctx, "events.dispatch",
		trace.WithAttributes(attribute.Int("gardenlog.events.sources", len(sources))))
	defer span.End()

	total := 0
	for _, src := range sources {
		if src == nil {
			continue
		}
		pending := src.PendingEvents()
		for i, ev := range pending {
			if err := d.publish(ctx, ev); err != nil {
				if p, ok := src.(prefixDropper); ok {
					p.DropPendingEvents(i)
				}
				d.metrics.failed()
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return total, err
			}
			d.metrics.published(ev.Trigger)
			total++
		}
		if len(pending) > 0 {
			src.ClearPendingEvents()
		}
	}
	span.SetAttributes(attribute.Int("gardenlog.events.published", total))
	if total > 0 {
		d.logger.WithField("events", total).Debug("domain events dispatched")
	}
	return total, nil
}

func (d *Dispatcher) publish(ctx context.Context, ev domain.Event) error {
	env, err := NewEnvelope(ev)
	if err != nil {
		return err
	}
	payload, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	for _, p := range d.publishers {
		if err := p.Publish(ctx, env, payload); err != nil {
			return fmt.Errorf("publish %s %s: %w", env.Type, env.ID, err)
		}
	}
	return nil
}
