package postgres

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRecords(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	out := domain.Output{
		RunID:       "run-1",
		ProcessedAt: now,
		Rows: []domain.OutputRow{
			{Key: domain.Key{Region: "RS", Year: "2014", Month: "02"}, Rainfall: 5.4, Cases: 8},
			{Key: domain.Key{Region: "SC", Year: "2014", Month: "01"}, Rainfall: 12.5, Cases: 0},
		},
	}

	want := []record{
		{Region: "RS", Year: "2014", Month: "02", Rainfall: 5.4, Cases: 8, RunID: "run-1", UpdatedAt: now},
		{Region: "SC", Year: "2014", Month: "01", Rainfall: 12.5, Cases: 0, RunID: "run-1", UpdatedAt: now},
	}
	if diff := cmp.Diff(want, toRecords(out)); diff != "" {
		t.Errorf("toRecords mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertBindsEveryColumn(t *testing.T) {
	rec := record{Region: "RS", Year: "2014", Month: "02", Rainfall: 5.4, Cases: 8, RunID: "run-1"}

	query, args, err := sqlx.Named(upsertRow, rec)
	require.NoError(t, err)
	assert.Equal(t, []any{"RS", "2014", "02", 5.4, 8.0, "run-1", time.Time{}}, args)

	bound := sqlx.Rebind(sqlx.DOLLAR, query)
	assert.Contains(t, bound, "$7")
	assert.NotContains(t, bound, "$8")
	assert.Contains(t, bound, "ON CONFLICT (uf, ano, mes) DO UPDATE")
}

func TestLoad_EmptyOutputSkipsDatabase(t *testing.T) {
	// A nil pool would panic on any query.
	r := NewRepository(nil, slog.Default())
	assert.NoError(t, r.Load(context.Background(), domain.Output{Header: domain.Header}))
}
