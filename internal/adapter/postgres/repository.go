package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `CREATE TABLE IF NOT EXISTS monthly_dengue_rainfall (
	uf         TEXT             NOT NULL,
	ano        TEXT             NOT NULL,
	mes        TEXT             NOT NULL,
	chuva      DOUBLE PRECISION NOT NULL,
	dengue     DOUBLE PRECISION NOT NULL,
	run_id     TEXT             NOT NULL,
	updated_at TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (uf, ano, mes)
)`

const upsertRow = `INSERT INTO monthly_dengue_rainfall (uf, ano, mes, chuva, dengue, run_id, updated_at)
VALUES (:uf, :ano, :mes, :chuva, :dengue, :run_id, :updated_at)
ON CONFLICT (uf, ano, mes) DO UPDATE SET
	chuva      = EXCLUDED.chuva,
	dengue     = EXCLUDED.dengue,
	run_id     = EXCLUDED.run_id,
	updated_at = EXCLUDED.updated_at`

// record is one row of monthly_dengue_rainfall.
type record struct {
	Region    string    `db:"uf"`
	Year      string    `db:"ano"`
	Month     string    `db:"mes"`
	Rainfall  float64   `db:"chuva"`
	Cases     float64   `db:"dengue"`
	RunID     string    `db:"run_id"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toRecords(out domain.Output) []record {
	recs := make([]record, len(out.Rows))
	for i, row := range out.Rows {
		recs[i] = record{
			Region:    row.Key.Region,
			Year:      row.Key.Year,
			Month:     row.Key.Month,
			Rainfall:  row.Rainfall,
			Cases:     row.Cases,
			RunID:     out.RunID,
			UpdatedAt: out.ProcessedAt,
		}
	}
	return recs
}

// Repository upserts joined rows into Postgres.
// It implements pipeline.Loader.
type Repository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Repository, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewRepository(db, logger), nil
}

// NewRepository wraps an existing connection pool.
func NewRepository(db *sqlx.DB, logger *slog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// EnsureSchema creates the output table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Load upserts every row of out in a single transaction. A rerun over the same
// inputs overwrites the same keys.
func (r *Repository) Load(ctx context.Context, out domain.Output) (err error) {
	if len(out.Rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, upsertRow)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range toRecords(out) {
		if _, err = stmt.ExecContext(ctx, rec); err != nil {
			return fmt.Errorf("upsert %s-%s-%s: %w", rec.Region, rec.Year, rec.Month, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("rows upserted", "table", "monthly_dengue_rainfall", "rows", len(out.Rows))
	return nil
}

// Count returns the number of stored rows.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM monthly_dengue_rainfall`); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// CheckReadiness pings the database.
func (r *Repository) CheckReadiness(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}
