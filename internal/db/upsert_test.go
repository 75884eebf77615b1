package db

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gazetteerUpsert() UpsertConfig {
	return UpsertConfig{
		Table:        "gaz.places",
		Columns:      []string{"name_key", "name", "geom"},
		ConflictKeys: []string{"name_key"},
		Staging:      []string{"name_key text", "name text", "wkb bytea"},
		Select:       []string{`"name_key"`, `"name"`, `ST_GeomFromEWKB("wkb")`},
	}
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, gazetteerUpsert(), nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "places",
		ConflictKeys: []string{"id"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:   "places",
		Columns: []string{"id", "name"},
	}, [][]any{{1, "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_SelectMismatch(t *testing.T) {
	cfg := gazetteerUpsert()
	cfg.Select = cfg.Select[:1]
	_, err := BulkUpsert(context.TODO(), nil, cfg, [][]any{{"a", "A", []byte{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 select expressions for 3 columns")
}

func TestBulkUpsert_BadStagingColumn(t *testing.T) {
	cfg := gazetteerUpsert()
	cfg.Staging = []string{"name_key"}
	_, err := BulkUpsert(context.TODO(), nil, cfg, [][]any{{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a name and type")
}

func TestBulkUpsert_Staged(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`CREATE TEMP TABLE "_stage_gaz_places" ("name_key" text, "name" text, "wkb" bytea) ON COMMIT DROP`,
	)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_gaz_places"}, []string{"name_key", "name", "wkb"}).WillReturnResult(2)
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO "gaz"."places" ("name_key", "name", "geom") SELECT "name_key", "name", ST_GeomFromEWKB("wkb") FROM "_stage_gaz_places" ON CONFLICT ("name_key") DO UPDATE SET "name" = EXCLUDED."name", "geom" = EXCLUDED."geom"`,
	)).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	rows := [][]any{{"springfield", "Springfield", []byte{1}}, {"shelbyville", "Shelbyville", []byte{2}}}
	n, err := BulkUpsert(context.Background(), mock, gazetteerUpsert(), rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CloneTargetDoNothing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`CREATE TEMP TABLE "_stage_places" (LIKE "places" INCLUDING DEFAULTS) ON COMMIT DROP`,
	)).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_places"}, []string{"id"}).WillReturnResult(1)
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO "places" ("id") SELECT "id" FROM "_stage_places" ON CONFLICT ("id") DO NOTHING`,
	)).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "places",
		Columns:      []string{"id"},
		ConflictKeys: []string{"id"},
	}, [][]any{{1}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyFailureRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_gaz_places"}, []string{"name_key", "name", "wkb"}).
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, gazetteerUpsert(), [][]any{{"a", "A", []byte{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into staging table for gaz.places")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"gaz.places", `"gaz"."places"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, identifier(tt.input).Sanitize())
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}

func TestQuoteTable(t *testing.T) {
	assert.Equal(t, `"gaz"."places"`, QuoteTable("gaz.places"))
	assert.Equal(t, `"gazetteer"`, QuoteTable("gazetteer"))
}
