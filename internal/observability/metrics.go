package observability

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
)

const (
	metricPriceAccepted = "nyp.price.accepted"
	metricPriceRejected = "nyp.price.rejected"
	metricAggregateSync = "nyp.aggregates.synced"
)

type meterKey struct{}

// WithMeter returns a context carrying meter, or a fresh meter when nil.
func WithMeter(ctx context.Context, meter sentry.Meter) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if meter == nil {
		meter = sentry.NewMeter(ctx)
	}
	return context.WithValue(ctx, meterKey{}, meter)
}

// MeterFromContext returns the meter carried by ctx bound to ctx.
func MeterFromContext(ctx context.Context) sentry.Meter {
	if ctx == nil {
		ctx = context.Background()
	}
	meter, ok := ctx.Value(meterKey{}).(sentry.Meter)
	if !ok || meter == nil {
		meter = sentry.NewMeter(ctx)
	}
	return meter.WithCtx(ctx)
}

// WithCommand seeds ctx with one meter tagged with the running command, so
// every counter of that command shares it.
func WithCommand(ctx context.Context, command string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	meter := sentry.NewMeter(ctx).WithCtx(ctx)
	meter.SetAttributes(attribute.String("command", command))
	return WithMeter(ctx, meter)
}

// PriceAccepted counts a buyer price that passed validation.
func PriceAccepted(ctx context.Context, productID int64) {
	MeterFromContext(ctx).Count(metricPriceAccepted, 1, sentry.WithAttributes(
		attribute.Int64("product_id", productID),
	))
}

// PriceRejected counts a buyer price refused for reason.
func PriceRejected(ctx context.Context, productID int64, reason string) {
	MeterFromContext(ctx).Count(metricPriceRejected, 1, sentry.WithAttributes(
		attribute.Int64("product_id", productID),
		attribute.String("reason", reason),
	))
}

// AggregatesSynced counts a parent price recomputation.
func AggregatesSynced(ctx context.Context, parentID int64, variants int) {
	MeterFromContext(ctx).Count(metricAggregateSync, 1, sentry.WithAttributes(
		attribute.Int64("parent_id", parentID),
		attribute.Int("variants", variants),
	))
}
