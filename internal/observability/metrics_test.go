package observability

import (
	"context"
	"testing"

	"github.com/getsentry/sentry-go"
)

func TestMeterFromContext(t *testing.T) {
	t.Parallel()

	if MeterFromContext(context.Background()) == nil {
		t.Fatal("expected a meter without one in context")
	}

	ctx := WithMeter(context.Background(), sentry.NewMeter(context.Background()))
	if MeterFromContext(ctx) == nil {
		t.Fatal("expected the stored meter")
	}

	PriceAccepted(ctx, 1)
	PriceRejected(ctx, 1, "minimum")
	AggregatesSynced(ctx, 2, 3)
}

func TestWithCommand(t *testing.T) {
	t.Parallel()

	ctx := WithCommand(context.Background(), "add")
	if meter, ok := ctx.Value(meterKey{}).(sentry.Meter); !ok || meter == nil {
		t.Fatal("expected a meter stored in context")
	}
	PriceRejected(ctx, 1, "invalid")
}
