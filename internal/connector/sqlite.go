package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver registration

	"github.com/mbeoliero/datafactory/domain/entity"
)

// SqliteSink 单文件 SQLite 写入端。SQLite 串行化写，连接数固定为 1。
type SqliteSink struct {
	db *sql.DB
}

func NewSqliteSink(cfg entity.ConnectorConfig) (Sink, error) {
	path, err := stringKey(cfg, "database_path")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite busy_timeout: %w", err)
	}

	return &SqliteSink{db: db}, nil
}

func sqliteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SqliteSink) Load(ctx context.Context, rows []Row, target string) (int64, error) {
	cols := columnsOf(rows)
	ident := sqliteIdent(target)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return 0, fmt.Errorf("drop table: %w", err)
	}

	if len(cols) == 0 {
		if _, err = tx.ExecContext(ctx, "CREATE TABLE "+ident+" (placeholder TEXT)"); err != nil {
			return 0, fmt.Errorf("create table: %w", err)
		}
		return 0, tx.Commit()
	}

	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = sqliteIdent(col) + " TEXT"
		quoted[i] = sqliteIdent(col)
		placeholders[i] = "?"
	}
	if _, err = tx.ExecContext(ctx, "CREATE TABLE "+ident+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	insert := "INSERT INTO " + ident + " (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		args := make([]any, len(cols))
		for i, col := range cols {
			args[i] = stringValue(row[col])
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int64(len(rows)), nil
}

func (s *SqliteSink) ListObjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	return tableNames(rows)
}

func (s *SqliteSink) Preview(ctx context.Context, object string, limit int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT * FROM "+sqliteIdent(object)+" LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func (s *SqliteSink) Close() error {
	return s.db.Close()
}
