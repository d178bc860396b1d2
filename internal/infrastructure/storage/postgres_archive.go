package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"StoreScraper/internal/domain"
	"StoreScraper/internal/ports"
)

// PostgresArchive mirrors assembled products into Postgres for audit and
// cross-run history. This is not deduplication: each run owns its slugs and
// simply upserts them.
type PostgresArchive struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.CatalogArchive = (*PostgresArchive)(nil)

// Open connects the lib/pq driver to the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// NewPostgresArchive wires a sql.DB implementation.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveProduct upserts the assembled record snapshot keyed by its folder slug.
func (a *PostgresArchive) SaveProduct(ctx context.Context, record domain.ProductRecord) error {
	if a.db == nil {
		return nil
	}

	var size any
	if record.Size != "" {
		size = record.Size
	}

	query, args, err := a.builder.
		Insert("products").
		Columns("folder", "name", "price", "size", "description", "images",
			"message_id", "message_date", "run_id").
		Values(record.Folder, record.Name, record.Price, size, record.Description,
			pq.Array(record.Images), record.MessageID, record.MessageDate, record.RunID).
		Suffix(`ON CONFLICT (folder) DO UPDATE
                SET name = EXCLUDED.name,
                    price = EXCLUDED.price,
                    size = EXCLUDED.size,
                    description = EXCLUDED.description,
                    images = EXCLUDED.images,
                    run_id = EXCLUDED.run_id,
                    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert product %s: %w", record.Folder, err)
	}

	return nil
}
