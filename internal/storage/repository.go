package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"govspend/internal/core"
	"govspend/internal/source"

	_ "modernc.org/sqlite"
)

// SelectSpending is the fixed projection read from the spending table.
const SelectSpending = "SELECT department, year, amount FROM spending"

var _ source.RowReader = (*SQLiteRepository)(nil)

// SQLiteRepository reads spending rows from an existing SQLite database.
// The database is opened query-only and its schema is never touched.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: sqlite database %s: %v", source.ErrNotConfigured, dbPath, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadRows implements source.RowReader. Column values are passed through with
// whatever storage class SQLite holds for them.
func (r *SQLiteRepository) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	rows, err := r.db.QueryContext(ctx, SelectSpending)
	if err != nil {
		return nil, fmt.Errorf("query spending: %w", err)
	}
	defer rows.Close()

	out := make([]core.RawRow, 0)
	for rows.Next() {
		var department, year, amount any
		if err := rows.Scan(&department, &year, &amount); err != nil {
			return nil, fmt.Errorf("scan spending row: %w", err)
		}
		out = append(out, core.RawRow{
			core.KeyDepartment: department,
			core.KeyYear:       year,
			core.KeyAmount:     amount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spending rows: %w", err)
	}

	slog.DebugContext(ctx, "Spending rows read from SQLite", "path", r.path, "rows", len(out))
	return out, nil
}
