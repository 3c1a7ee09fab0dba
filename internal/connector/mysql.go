package connector

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mbeoliero/datafactory/domain/entity"
)

func openMySql(cfg entity.ConnectorConfig) (*gorm.DB, string, error) {
	host, err := stringKey(cfg, "host")
	if err != nil {
		return nil, "", err
	}
	port, err := intKey(cfg, "port")
	if err != nil {
		return nil, "", err
	}
	database, err := stringKey(cfg, "database")
	if err != nil {
		return nil, "", err
	}
	user, err := stringKey(cfg, "user")
	if err != nil {
		return nil, "", err
	}
	password, err := stringKey(cfg, "password")
	if err != nil {
		return nil, "", err
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, database)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, "", fmt.Errorf("open mysql: %w", err)
	}
	return db, database, nil
}

func closeGorm(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mysqlIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// MySqlSource MySQL 数据源
type MySqlSource struct {
	db       *gorm.DB
	database string
}

func NewMySqlSource(cfg entity.ConnectorConfig) (Source, error) {
	db, database, err := openMySql(cfg)
	if err != nil {
		return nil, err
	}
	return &MySqlSource{db: db, database: database}, nil
}

func (s *MySqlSource) Extract(ctx context.Context, query string) ([]Row, error) {
	rows, err := s.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("mysql query: %w", err)
	}
	return scanRows(rows)
}

func (s *MySqlSource) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Raw("SELECT table_name FROM information_schema.tables WHERE table_schema = ? AND table_type = 'BASE TABLE' ORDER BY table_name", s.database).
		Scan(&names).Error
	return names, err
}

func (s *MySqlSource) Close() error {
	return closeGorm(s.db)
}

// MySqlSink MySQL 写入端，与 PostgresSink 相同的重建加整批插入策略
type MySqlSink struct {
	db       *gorm.DB
	database string
}

func NewMySqlSink(cfg entity.ConnectorConfig) (Sink, error) {
	db, database, err := openMySql(cfg)
	if err != nil {
		return nil, err
	}
	return &MySqlSink{db: db, database: database}, nil
}

func (s *MySqlSink) Load(ctx context.Context, rows []Row, target string) (int64, error) {
	cols := columnsOf(rows)
	ident := mysqlIdent(target)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DROP TABLE IF EXISTS " + ident).Error; err != nil {
			return fmt.Errorf("drop table: %w", err)
		}

		if len(cols) == 0 {
			return tx.Exec("CREATE TABLE " + ident + " (placeholder TEXT)").Error
		}

		defs := make([]string, len(cols))
		quoted := make([]string, len(cols))
		placeholders := make([]string, len(cols))
		for i, col := range cols {
			defs[i] = mysqlIdent(col) + " TEXT"
			quoted[i] = mysqlIdent(col)
			placeholders[i] = "?"
		}
		if err := tx.Exec("CREATE TABLE " + ident + " (" + strings.Join(defs, ", ") + ")").Error; err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		insert := "INSERT INTO " + ident + " (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
		for _, row := range rows {
			args := make([]any, len(cols))
			for i, col := range cols {
				args[i] = stringValue(row[col])
			}
			if err := tx.Exec(insert, args...).Error; err != nil {
				return fmt.Errorf("insert row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (s *MySqlSink) ListObjects(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Raw("SELECT table_name FROM information_schema.tables WHERE table_schema = ? AND table_type = 'BASE TABLE' ORDER BY table_name", s.database).
		Scan(&names).Error
	return names, err
}

func (s *MySqlSink) Preview(ctx context.Context, object string, limit int) ([]Row, error) {
	rows, err := s.db.WithContext(ctx).
		Raw("SELECT * FROM " + mysqlIdent(object) + " LIMIT " + fmt.Sprint(limit)).Rows()
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

func (s *MySqlSink) Close() error {
	return closeGorm(s.db)
}
