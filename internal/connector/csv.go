package connector

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbeoliero/datafactory/domain/entity"
)

// CsvSource 读取单个 csv 文件，首行为表头，query 被忽略
type CsvSource struct {
	filePath string
}

func NewCsvSource(cfg entity.ConnectorConfig) (Source, error) {
	path, err := stringKey(cfg, "file_path")
	if err != nil {
		return nil, err
	}
	return &CsvSource{filePath: path}, nil
}

func (s *CsvSource) Extract(ctx context.Context, query string) ([]Row, error) {
	return readCsvFile(s.filePath, 0)
}

func (s *CsvSource) ListTables(ctx context.Context) ([]string, error) {
	return []string{filepath.Base(s.filePath)}, nil
}

func (s *CsvSource) Close() error {
	return nil
}

// CsvSink 每个 target 写成目录下的一个 <target>.csv，整文件覆盖
type CsvSink struct {
	directory string
}

func NewCsvSink(cfg entity.ConnectorConfig) (Sink, error) {
	dir, err := stringKey(cfg, "directory")
	if err != nil {
		return nil, err
	}
	return &CsvSink{directory: dir}, nil
}

func (s *CsvSink) Load(ctx context.Context, rows []Row, target string) (int64, error) {
	if err := os.MkdirAll(s.directory, 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	path := filepath.Join(s.directory, target+".csv")
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	cols := columnsOf(rows)
	if len(cols) > 0 {
		if err = w.Write(cols); err != nil {
			return 0, err
		}
	}
	for _, row := range rows {
		record := make([]string, len(cols))
		for i, col := range cols {
			if v := row[col]; v != nil {
				record[i] = fmt.Sprint(v)
			}
		}
		if err = w.Write(record); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (s *CsvSink) ListObjects(ctx context.Context) ([]string, error) {
	return listFilesByExt(s.directory, ".csv")
}

func (s *CsvSink) Preview(ctx context.Context, object string, limit int) ([]Row, error) {
	return readCsvFile(filepath.Join(s.directory, object), limit)
}

func (s *CsvSink) Close() error {
	return nil
}

// readCsvFile 读 csv 为 []Row，limit <= 0 表示不限行数
func readCsvFile(path string, limit int) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv file: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	var out []Row
	for _, record := range records[1:] {
		if limit > 0 && len(out) >= limit {
			break
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func listFilesByExt(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
