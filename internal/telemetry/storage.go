package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/types"
)

const storageScopeName = "github.com/steveyegge/lineup/storage"

// InstrumentedStore wraps storage.Store with OTel tracing and metrics.
// Every method gets a span and is counted in lineup.store.* metrics.
// Use WrapStore to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStore struct {
	inner     storage.Store
	tracer    trace.Tracer
	ops       metric.Int64Counter
	dur       metric.Float64Histogram
	errs      metric.Int64Counter
	conflicts metric.Int64Counter
}

// WrapStore returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStore(s storage.Store) storage.Store {
	if !Enabled() {
		return s
	}
	return newInstrumentedStore(s)
}

func newInstrumentedStore(s storage.Store) *InstrumentedStore {
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("lineup.store.operations",
		metric.WithDescription("Total record store operations executed"),
	)
	dur, _ := m.Float64Histogram("lineup.store.operation.duration",
		metric.WithDescription("Record store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("lineup.store.errors",
		metric.WithDescription("Total record store operation errors"),
	)
	conflicts, _ := m.Int64Counter("lineup.store.conflicts",
		metric.WithDescription("Updates rejected by concurrent modification"),
	)
	return &InstrumentedStore{
		inner:     s,
		tracer:    Tracer(storageScopeName),
		ops:       ops,
		dur:       dur,
		errs:      errs,
		conflicts: conflicts,
	}
}

// op starts a span and records a metric for the named store operation.
func (s *InstrumentedStore) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "store."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStore) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
		if storage.IsConflict(err) {
			s.conflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
	}
	span.End()
}

func (s *InstrumentedStore) CreateRecord(ctx context.Context, fields storage.Fields) (string, error) {
	attrs := []attribute.KeyValue{attribute.Int("lineup.field.count", len(fields))}
	ctx, span, t := s.op(ctx, "CreateRecord", attrs...)
	id, err := s.inner.CreateRecord(ctx, fields)
	if err == nil {
		span.SetAttributes(attribute.String("lineup.record.id", id))
	}
	s.done(ctx, span, t, err, attrs...)
	return id, err
}

func (s *InstrumentedStore) ReadRecord(ctx context.Context, id string) (*types.Record, error) {
	attrs := []attribute.KeyValue{attribute.String("lineup.record.id", id)}
	ctx, span, t := s.op(ctx, "ReadRecord", attrs...)
	v, err := s.inner.ReadRecord(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStore) UpdateRecord(ctx context.Context, id string, fields storage.Fields) error {
	attrs := []attribute.KeyValue{
		attribute.String("lineup.record.id", id),
		attribute.Int("lineup.field.count", len(fields)),
	}
	ctx, span, t := s.op(ctx, "UpdateRecord", attrs...)
	err := s.inner.UpdateRecord(ctx, id, fields)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) ListRecords(ctx context.Context, filter types.RecordFilter, sort []types.SortOption) ([]*types.Record, error) {
	attrs := []attribute.KeyValue{attribute.String("lineup.sort", types.EncodeSortOrder(sort))}
	ctx, span, t := s.op(ctx, "ListRecords", attrs...)
	v, err := s.inner.ListRecords(ctx, filter, sort)
	if err == nil {
		span.SetAttributes(attribute.Int("lineup.result.count", len(v)))
	}
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ArchiveRecord forwards to the wrapped store when it supports archiving.
func (s *InstrumentedStore) ArchiveRecord(ctx context.Context, id string) error {
	a, ok := storage.AsArchiver(s.inner)
	if !ok {
		return storage.ErrArchiveUnsupported
	}
	attrs := []attribute.KeyValue{attribute.String("lineup.record.id", id)}
	ctx, span, t := s.op(ctx, "ArchiveRecord", attrs...)
	err := a.ArchiveRecord(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}

// Unwrap returns the underlying store.
func (s *InstrumentedStore) Unwrap() storage.Store {
	return s.inner
}
