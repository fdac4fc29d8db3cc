package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/Amund211/gw2lib/internal/logging"
	"github.com/Amund211/gw2lib/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Postgres is a persistent cache. Values are stored as JSON and read back as
// json.RawMessage.
type Postgres struct {
	db      *sqlx.DB
	schema  string
	nowFunc func() time.Time

	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string, nowFunc func() time.Time) *Postgres {
	tracer := otel.Tracer("gw2lib/cache/postgres")

	return &Postgres{
		db:      db,
		schema:  schema,
		nowFunc: nowFunc,

		tracer: tracer,
	}
}

type dbCacheEntry struct {
	Fingerprint string    `db:"fingerprint"`
	Value       []byte    `db:"value"`
	ExpiresAt   time.Time `db:"expires_at"`
}

func (p *Postgres) table() string {
	return fmt.Sprintf("%s.cache_entries", pq.QuoteIdentifier(p.schema))
}

func (p *Postgres) Get(ctx context.Context, key Fingerprint) (Entry, bool) {
	ctx, span := p.tracer.Start(ctx, "Postgres.Get")
	defer span.End()

	var entry dbCacheEntry
	err := p.db.GetContext(
		ctx,
		&entry,
		fmt.Sprintf(
			`SELECT fingerprint, value, expires_at
			FROM %s
			WHERE fingerprint = $1 AND expires_at > $2`,
			p.table(),
		),
		key.String(),
		p.nowFunc(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false
	}
	if err != nil {
		err := fmt.Errorf("failed to get cache entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"fingerprint": key.String(),
		})
		return Entry{}, false
	}

	return Entry{
		Value:     json.RawMessage(entry.Value),
		ExpiresAt: entry.ExpiresAt,
	}, true
}

func (p *Postgres) GetMany(ctx context.Context, keys []Fingerprint) map[Fingerprint]Entry {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetMany")
	defer span.End()

	entries := make(map[Fingerprint]Entry, len(keys))
	if len(keys) == 0 {
		return entries
	}

	byString := make(map[string]Fingerprint, len(keys))
	for _, key := range keys {
		byString[key.String()] = key
	}
	fingerprints := slices.Collect(maps.Keys(byString))

	var rows []dbCacheEntry
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf(
			`SELECT fingerprint, value, expires_at
			FROM %s
			WHERE fingerprint = ANY($1) AND expires_at > $2`,
			p.table(),
		),
		pq.Array(fingerprints),
		p.nowFunc(),
	)
	if err != nil {
		err := fmt.Errorf("failed to get cache entries: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"count": strconv.Itoa(len(keys)),
		})
		return entries
	}

	for _, row := range rows {
		key, ok := byString[row.Fingerprint]
		if !ok {
			continue
		}
		entries[key] = Entry{
			Value:     json.RawMessage(row.Value),
			ExpiresAt: row.ExpiresAt,
		}
	}
	return entries
}

func (p *Postgres) Insert(ctx context.Context, key Fingerprint, value any, expiresAt time.Time) {
	ctx, span := p.tracer.Start(ctx, "Postgres.Insert")
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		err := fmt.Errorf("failed to marshal cache entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"fingerprint": key.String(),
		})
		return
	}

	_, err = p.db.ExecContext(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %s
			(fingerprint, value, expires_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (fingerprint)
			DO UPDATE SET
				value = EXCLUDED.value,
				expires_at = EXCLUDED.expires_at`,
			p.table(),
		),
		key.String(),
		data,
		expiresAt,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert cache entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"fingerprint": key.String(),
			"expiresAt":   expiresAt.Format(time.RFC3339),
		})
		return
	}

	logging.FromContext(ctx).DebugContext(ctx, "Stored cache entry", "fingerprint", key.String())
}
