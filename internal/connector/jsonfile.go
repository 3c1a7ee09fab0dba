package connector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/mbeoliero/datafactory/domain/entity"
)

// JsonSource 读取单个 json 文件（对象数组），query 被忽略
type JsonSource struct {
	filePath string
}

func NewJsonSource(cfg entity.ConnectorConfig) (Source, error) {
	path, err := stringKey(cfg, "file_path")
	if err != nil {
		return nil, err
	}
	return &JsonSource{filePath: path}, nil
}

func (s *JsonSource) Extract(ctx context.Context, query string) ([]Row, error) {
	return readJsonFile(s.filePath, 0)
}

func (s *JsonSource) ListTables(ctx context.Context) ([]string, error) {
	return []string{filepath.Base(s.filePath)}, nil
}

func (s *JsonSource) Close() error {
	return nil
}

// JsonSink 每个 target 写成目录下的一个 <target>.json，整文件覆盖
type JsonSink struct {
	directory string
}

func NewJsonSink(cfg entity.ConnectorConfig) (Sink, error) {
	dir, err := stringKey(cfg, "directory")
	if err != nil {
		return nil, err
	}
	return &JsonSink{directory: dir}, nil
}

func (s *JsonSink) Load(ctx context.Context, rows []Row, target string) (int64, error) {
	if err := os.MkdirAll(s.directory, 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	if rows == nil {
		rows = []Row{}
	}
	data, err := sonic.MarshalIndent(rows, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal rows: %w", err)
	}

	path := filepath.Join(s.directory, target+".json")
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write json file: %w", err)
	}
	return int64(len(rows)), nil
}

func (s *JsonSink) ListObjects(ctx context.Context) ([]string, error) {
	return listFilesByExt(s.directory, ".json")
}

func (s *JsonSink) Preview(ctx context.Context, object string, limit int) ([]Row, error) {
	return readJsonFile(filepath.Join(s.directory, object), limit)
}

func (s *JsonSink) Close() error {
	return nil
}

func readJsonFile(path string, limit int) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json file: %w", err)
	}

	var rows []Row
	if err = sonic.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse json file: %w", err)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
