package db

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5"
)

const maxStatementLength = 512

type querySpanKey struct{}

// queryTracer reports each query as a child span of the span already in
// the context. Queries outside a traced operation are not reported.
type queryTracer struct{}

func newQueryTracer() *queryTracer {
	return &queryTracer{}
}

func (queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	if sentry.SpanFromContext(ctx) == nil {
		return ctx
	}

	statement := normalizeQuery(data.SQL)
	op := "db.sql.query"
	if operation := queryOperation(statement); operation != "" {
		op = "db.sql." + strings.ToLower(operation)
	}

	span := sentry.StartSpan(ctx, op,
		sentry.WithDescription(statement),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	span.SetData("db.system", "postgresql")
	span.SetData("db.statement.args", len(data.Args))

	return context.WithValue(span.Context(), querySpanKey{}, span)
}

func (queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(querySpanKey{}).(*sentry.Span)
	if !ok || span == nil {
		return
	}
	defer span.Finish()

	if data.Err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetData("db.error", data.Err.Error())
		return
	}

	span.Status = sentry.SpanStatusOK
	if rows := data.CommandTag.RowsAffected(); rows >= 0 {
		span.SetData("db.rows_affected", rows)
	}
}

// normalizeQuery collapses whitespace so that spans group by statement.
func normalizeQuery(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if normalized == "" {
		return "sql.query"
	}
	if len(normalized) > maxStatementLength {
		return normalized[:maxStatementLength]
	}
	return normalized
}

func queryOperation(query string) string {
	verb, _, _ := strings.Cut(query, " ")
	return strings.ToUpper(verb)
}
