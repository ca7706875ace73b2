package storefront

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xenking/storefront/internal/storefront"

type metrics struct {
	cartAdds metric.Int64Counter
	saves    metric.Int64Counter
	deletes  metric.Int64Counter
	logins   metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(instrumentationName)

	var (
		m   metrics
		err error
	)
	if m.cartAdds, err = meter.Int64Counter("storefront.cart.adds",
		metric.WithDescription("Products added to the cart"),
	); err != nil {
		return nil, errors.Wrap(err, "cart adds counter")
	}
	if m.saves, err = meter.Int64Counter("storefront.products.saved",
		metric.WithDescription("Products created or updated in the editor"),
	); err != nil {
		return nil, errors.Wrap(err, "saves counter")
	}
	if m.deletes, err = meter.Int64Counter("storefront.products.deleted",
		metric.WithDescription("Products deleted after confirmation"),
	); err != nil {
		return nil, errors.Wrap(err, "deletes counter")
	}
	if m.logins, err = meter.Int64Counter("storefront.admin.logins",
		metric.WithDescription("Admin login attempts by result"),
	); err != nil {
		return nil, errors.Wrap(err, "logins counter")
	}
	return &m, nil
}

func (m *metrics) login(ctx context.Context, ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *metrics) saved(ctx context.Context, op string) {
	m.saves.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
