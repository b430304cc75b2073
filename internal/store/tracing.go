package store

import (
	"context"
	"database/sql"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var dbTracer = otel.Tracer("terminal-bank.db")

// Row is the subset of *sql.Row the repositories use.
type Row interface {
	Scan(dest ...any) error
}

// Querier is satisfied by both *DB and *Tx so repositories can run the same
// statements inside or outside a unit of work.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Dialect() Dialect
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx, span := startSpan(ctx, "db.Query", db.dialect, query)
	defer span.End()

	rows, err := db.DB.QueryContext(ctx, query, args...)
	recordError(span, err)
	return rows, err
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	ctx, span := startSpan(ctx, "db.QueryRow", db.dialect, query)
	return &tracedRow{row: db.DB.QueryRowContext(ctx, query, args...), span: span}
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, span := startSpan(ctx, "db.Exec", db.dialect, query)
	defer span.End()

	result, err := db.DB.ExecContext(ctx, query, args...)
	recordError(span, err)
	return result, err
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx, span := startSpan(ctx, "db.Query", tx.dialect, query)
	defer span.End()

	rows, err := tx.Tx.QueryContext(ctx, query, args...)
	recordError(span, err)
	return rows, err
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	ctx, span := startSpan(ctx, "db.QueryRow", tx.dialect, query)
	return &tracedRow{row: tx.Tx.QueryRowContext(ctx, query, args...), span: span}
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, span := startSpan(ctx, "db.Exec", tx.dialect, query)
	defer span.End()

	result, err := tx.Tx.ExecContext(ctx, query, args...)
	recordError(span, err)
	return result, err
}

// tracedRow keeps the span open until Scan, where *sql.Row reports its errors.
type tracedRow struct {
	row  *sql.Row
	span trace.Span
}

func (r *tracedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if r.span != nil {
		if err != nil && err != sql.ErrNoRows {
			recordError(r.span, err)
		}
		r.span.End()
		r.span = nil
	}
	return err
}

func startSpan(ctx context.Context, name string, d Dialect, query string) (context.Context, trace.Span) {
	return dbTracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", systemName(d)),
		attribute.String("db.operation", sqlVerb(query)),
	))
}

func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func systemName(d Dialect) string {
	if d == DialectPostgres {
		return "postgresql"
	}
	return "sqlite"
}

func sqlVerb(q string) string {
	q = strings.TrimSpace(q)
	if i := strings.IndexAny(q, " \n\t"); i > 0 {
		return strings.ToUpper(q[:i])
	}
	return strings.ToUpper(q)
}
