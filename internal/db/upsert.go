package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes a staged upsert. Rows are copied into a temporary
// staging table and merged into Table with INSERT ... ON CONFLICT.
type UpsertConfig struct {
	Table        string   // target table, optionally schema-qualified
	Columns      []string // target columns, in insert order
	ConflictKeys []string // unique constraint columns
	UpdateCols   []string // columns overwritten on conflict; nil means every non-key column

	// Staging declares the staging table columns as "name type" pairs, in the
	// order rows are laid out. Empty clones the target's columns.
	Staging []string

	// Select lists the expressions feeding Columns, read from the staging
	// table. Empty selects Columns unchanged.
	Select []string
}

// BulkUpsert copies rows into a staging table and merges them into the target
// in one transaction. It returns the number of rows inserted or updated.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys specified")
	}
	if len(cfg.Select) > 0 && len(cfg.Select) != len(cfg.Columns) {
		return 0, eris.Errorf("db: upsert: %d select expressions for %d columns", len(cfg.Select), len(cfg.Columns))
	}

	stagingCols, err := stagingColumns(cfg)
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	staging := stagingName(cfg.Table)
	if _, err := tx.Exec(ctx, createStagingSQL(cfg, staging)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create staging table for %s", cfg.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{staging}, stagingCols, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into staging table for %s", cfg.Table)
	}

	tag, err := tx.Exec(ctx, upsertSQL(cfg, staging))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: INSERT ON CONFLICT for %s", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	committed = true

	return tag.RowsAffected(), nil
}

func stagingName(table string) string {
	return "_stage_" + strings.ReplaceAll(table, ".", "_")
}

func stagingColumns(cfg UpsertConfig) ([]string, error) {
	if len(cfg.Staging) == 0 {
		return cfg.Columns, nil
	}
	cols := make([]string, len(cfg.Staging))
	for i, def := range cfg.Staging {
		name, _, ok := strings.Cut(strings.TrimSpace(def), " ")
		if !ok || name == "" {
			return nil, eris.Errorf("db: upsert: staging column %q needs a name and type", def)
		}
		cols[i] = name
	}
	return cols, nil
}

func createStagingSQL(cfg UpsertConfig, staging string) string {
	if len(cfg.Staging) == 0 {
		return fmt.Sprintf(
			"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
			pgx.Identifier{staging}.Sanitize(),
			identifier(cfg.Table).Sanitize(),
		)
	}
	defs := make([]string, len(cfg.Staging))
	for i, def := range cfg.Staging {
		name, typ, _ := strings.Cut(strings.TrimSpace(def), " ")
		defs[i] = pgx.Identifier{name}.Sanitize() + " " + strings.TrimSpace(typ)
	}
	return fmt.Sprintf(
		"CREATE TEMP TABLE %s (%s) ON COMMIT DROP",
		pgx.Identifier{staging}.Sanitize(),
		strings.Join(defs, ", "),
	)
}

func upsertSQL(cfg UpsertConfig, staging string) string {
	updateCols := cfg.UpdateCols
	if updateCols == nil {
		keys := make(map[string]bool, len(cfg.ConflictKeys))
		for _, k := range cfg.ConflictKeys {
			keys[k] = true
		}
		for _, c := range cfg.Columns {
			if !keys[c] {
				updateCols = append(updateCols, c)
			}
		}
	}

	selectList := quoteAndJoin(cfg.Columns)
	if len(cfg.Select) > 0 {
		selectList = strings.Join(cfg.Select, ", ")
	}

	action := "DO NOTHING"
	if len(updateCols) > 0 {
		sets := make([]string, len(updateCols))
		for i, col := range updateCols {
			q := pgx.Identifier{col}.Sanitize()
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", q, q)
		}
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		identifier(cfg.Table).Sanitize(),
		quoteAndJoin(cfg.Columns),
		selectList,
		pgx.Identifier{staging}.Sanitize(),
		quoteAndJoin(cfg.ConflictKeys),
		action,
	)
}

// QuoteTable quotes a table name, splitting a schema qualifier if present.
func QuoteTable(table string) string {
	return identifier(table).Sanitize()
}

// identifier splits a schema-qualified name like "gaz.places".
func identifier(table string) pgx.Identifier {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
