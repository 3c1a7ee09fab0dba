package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/mbeoliero/datafactory/domain/entity"
)

func openPostgres(cfg entity.ConnectorConfig) (*sql.DB, error) {
	host, err := stringKey(cfg, "host")
	if err != nil {
		return nil, err
	}
	port, err := intKey(cfg, "port")
	if err != nil {
		return nil, err
	}
	database, err := stringKey(cfg, "database")
	if err != nil {
		return nil, err
	}
	user, err := stringKey(cfg, "user")
	if err != nil {
		return nil, err
	}
	password, err := stringKey(cfg, "password")
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		host, port, database, user, password, optionalString(cfg, "sslmode", "disable"))

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// PostgresSource PostgreSQL 数据源
type PostgresSource struct {
	db     *sql.DB
	schema string
}

func NewPostgresSource(cfg entity.ConnectorConfig) (Source, error) {
	db, err := openPostgres(cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresSource{db: db, schema: optionalString(cfg, "schema", "public")}, nil
}

func (s *PostgresSource) Extract(ctx context.Context, query string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres query: %w", err)
	}
	return scanRows(rows)
}

func (s *PostgresSource) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`,
		s.schema)
	if err != nil {
		return nil, err
	}
	return tableNames(rows)
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// PostgresSink PostgreSQL 写入端。Load 重建目标表（全 TEXT 列）后整批插入，
// 值统一转字符串，与覆盖写语义一致。
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(cfg entity.ConnectorConfig) (Sink, error) {
	db, err := openPostgres(cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) Load(ctx context.Context, rows []Row, target string) (int64, error) {
	cols := columnsOf(rows)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ident := pq.QuoteIdentifier(target)
	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return 0, fmt.Errorf("drop table: %w", err)
	}

	if len(cols) == 0 {
		// 没有数据也要留下空表，覆盖掉旧内容
		if _, err = tx.ExecContext(ctx, "CREATE TABLE "+ident+" (placeholder TEXT)"); err != nil {
			return 0, fmt.Errorf("create table: %w", err)
		}
		return 0, tx.Commit()
	}

	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = pq.QuoteIdentifier(col) + " TEXT"
	}
	if _, err = tx.ExecContext(ctx, "CREATE TABLE "+ident+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	placeholders := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = pq.QuoteIdentifier(col)
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

func (s *PostgresSink) ListObjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	return tableNames(rows)
}

func (s *PostgresSink) Preview(ctx context.Context, object string, limit int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s LIMIT $1", pq.QuoteIdentifier(object)), limit)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func tableNames(rows *sql.Rows) ([]string, error) {
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
