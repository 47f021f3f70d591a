package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/ai-referral-go/internal/analytics"
)

// PostgresStore is a PostgreSQL implementation of analytics.Store and analytics.SummaryReader.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed attribution store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// SaveAttribution inserts an event. Redelivered events with a known id are ignored.
func (p *PostgresStore) SaveAttribution(ctx context.Context, event *analytics.AttributionRecorded) error {
	query := `
		INSERT INTO attribution_events (
			id, event, source, referral_type, medium, attributes,
			page_url, client_ip, user_agent, referrer, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	attributes := event.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		event.Event,
		event.Source,
		nullableString(event.ReferralType),
		nullableString(event.Medium),
		attributes,
		nullableString(event.PageURL),
		nullableString(event.ClientIP),
		nullableString(event.UserAgent),
		nullableString(event.Referrer),
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert attribution event: %w", err)
	}

	return nil
}

// Summary counts events per event name and source since the given time.
func (p *PostgresStore) Summary(ctx context.Context, since time.Time) ([]analytics.SourceCount, error) {
	query := `
		SELECT event, source, COUNT(*)
		FROM attribution_events
		WHERE occurred_at >= $1
		GROUP BY event, source
		ORDER BY COUNT(*) DESC, event, source
	`

	rows, err := p.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query attribution summary: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.SourceCount, error) {
		var c analytics.SourceCount
		err := row.Scan(&c.Event, &c.Source, &c.Count)

		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan attribution summary: %w", err)
	}

	return counts, nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

var (
	_ analytics.Store         = (*PostgresStore)(nil)
	_ analytics.SummaryReader = (*PostgresStore)(nil)
)
