package connector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mbeoliero/datafactory/domain/entity"
)

var (
	ErrUnknownType   = errors.New("unknown connector type")
	ErrMissingConfig = errors.New("missing required config key")
)

// Row 一行数据，字段名 -> 值
type Row map[string]any

// Source 数据读取端能力
type Source interface {
	// Extract 按 query 读取数据，没有查询概念的连接器（文件类）忽略 query
	Extract(ctx context.Context, query string) ([]Row, error)

	// ListTables 列出可读对象，发现用途，非执行链路必需
	ListTables(ctx context.Context) ([]string, error)

	// Close 释放资源，可重复调用
	Close() error
}

// Sink 数据写入端能力，Load 为覆盖写：同名 target 的旧内容被替换
type Sink interface {
	Load(ctx context.Context, rows []Row, target string) (int64, error)

	// ListObjects 列出 sink 中已有对象
	ListObjects(ctx context.Context) ([]string, error)

	// Preview 预览某个对象的前 limit 行
	Preview(ctx context.Context, object string, limit int) ([]Row, error)

	// Close 释放资源，可重复调用
	Close() error
}

type SourceFactory func(cfg entity.ConnectorConfig) (Source, error)

type SinkFactory func(cfg entity.ConnectorConfig) (Sink, error)

// Registry 类型标签 -> 工厂函数。进程启动时注册一次，之后只读。
// 核心逻辑不感知任何具体连接器类型。
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceFactory
	sinks   map[string]SinkFactory
}

func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		sinks:   make(map[string]SinkFactory),
	}
}

func (r *Registry) RegisterSource(typ string, f SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[typ] = f
}

func (r *Registry) RegisterSink(typ string, f SinkFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[typ] = f
}

// NewSource 按类型构建 Source
func (r *Registry) NewSource(typ string, cfg entity.ConnectorConfig) (Source, error) {
	r.mu.RLock()
	f, ok := r.sources[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: source %q", ErrUnknownType, typ)
	}
	return f(cfg)
}

// NewSink 按类型构建 Sink
func (r *Registry) NewSink(typ string, cfg entity.ConnectorConfig) (Sink, error) {
	r.mu.RLock()
	f, ok := r.sinks[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: sink %q", ErrUnknownType, typ)
	}
	return f(cfg)
}

// SourceTypes 已注册的 source 类型，按字典序
func (r *Registry) SourceTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for typ := range r.sources {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// SinkTypes 已注册的 sink 类型，按字典序
func (r *Registry) SinkTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sinks))
	for typ := range r.sinks {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// stringKey 取必填的字符串配置项，缺失或为空时报 ErrMissingConfig 并指出键名
func stringKey(cfg entity.ConnectorConfig, key string) (string, error) {
	v, ok := cfg[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingConfig, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingConfig, key)
	}
	return s, nil
}

// optionalString 取可选的字符串配置项
func optionalString(cfg entity.ConnectorConfig, key, def string) string {
	if v, ok := cfg[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// intKey 取必填的整数配置项，兼容 json 反序列化出的 float64
func intKey(cfg entity.ConnectorConfig, key string) (int, error) {
	v, ok := cfg[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingConfig, key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrMissingConfig, key)
	}
}
