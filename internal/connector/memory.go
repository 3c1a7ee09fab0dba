package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mbeoliero/datafactory/domain/entity"
)

// MemoryStore 进程内表存储，memory sink 的后端，测试里也直接用它断言写入结果
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]Row)}
}

// Put 覆盖写入一张表
func (s *MemoryStore) Put(name string, rows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = rows
}

// Get 读取一张表，不存在返回 nil
func (s *MemoryStore) Get(name string) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[name]
}

// Names 已有表名，按字典序
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MemorySource 数据内联在配置的 rows 键里，调试和测试用
type MemorySource struct {
	rows []Row
}

func NewMemorySource(cfg entity.ConnectorConfig) (Source, error) {
	raw, ok := cfg["rows"]
	if !ok {
		return nil, fmt.Errorf("%w: rows", ErrMissingConfig)
	}

	var rows []Row
	switch v := raw.(type) {
	case []Row:
		rows = v
	case []any:
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: rows", ErrMissingConfig)
			}
			rows = append(rows, Row(m))
		}
	case []map[string]any:
		for _, m := range v {
			rows = append(rows, Row(m))
		}
	default:
		return nil, fmt.Errorf("%w: rows", ErrMissingConfig)
	}

	return &MemorySource{rows: rows}, nil
}

func (s *MemorySource) Extract(ctx context.Context, query string) ([]Row, error) {
	return s.rows, nil
}

func (s *MemorySource) ListTables(ctx context.Context) ([]string, error) {
	return []string{"memory"}, nil
}

func (s *MemorySource) Close() error {
	return nil
}

// MemorySink 写入共享的 MemoryStore
type MemorySink struct {
	store *MemoryStore
}

// MemorySinkFactory 返回绑定到指定 store 的 sink 工厂
func MemorySinkFactory(store *MemoryStore) SinkFactory {
	return func(cfg entity.ConnectorConfig) (Sink, error) {
		return &MemorySink{store: store}, nil
	}
}

func (s *MemorySink) Load(ctx context.Context, rows []Row, target string) (int64, error) {
	s.store.Put(target, rows)
	return int64(len(rows)), nil
}

func (s *MemorySink) ListObjects(ctx context.Context) ([]string, error) {
	return s.store.Names(), nil
}

func (s *MemorySink) Preview(ctx context.Context, object string, limit int) ([]Row, error) {
	rows := s.store.Get(object)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *MemorySink) Close() error {
	return nil
}
