package connector

import "github.com/mbeoliero/datafactory/domain/entity"

// defaultMemoryStore memory sink 的进程级后端
var defaultMemoryStore = NewMemoryStore()

// DefaultMemoryStore 返回进程级 memory sink 后端
func DefaultMemoryStore() *MemoryStore {
	return defaultMemoryStore
}

// Defaults 返回注册了全部内置连接器的 Registry
func Defaults() *Registry {
	r := NewRegistry()

	r.RegisterSource("csv", NewCsvSource)
	r.RegisterSource("json", NewJsonSource)
	r.RegisterSource("http", NewHttpSource)
	r.RegisterSource("postgresql", NewPostgresSource)
	r.RegisterSource("mysql", NewMySqlSource)
	r.RegisterSource("memory", NewMemorySource)

	r.RegisterSink("csv", NewCsvSink)
	r.RegisterSink("json", NewJsonSink)
	r.RegisterSink("sqlite", NewSqliteSink)
	r.RegisterSink("postgresql", NewPostgresSink)
	r.RegisterSink("mysql", NewMySqlSink)
	r.RegisterSink("memory", MemorySinkFactory(defaultMemoryStore))

	return r
}

// TypeInfo 连接器类型的静态说明，/connectors 接口返回用
type TypeInfo struct {
	Type          string                 `json:"type"`
	Description   string                 `json:"description"`
	ConfigExample entity.ConnectorConfig `json:"config_example"`
}

// SourceCatalog 内置 source 类型说明
func SourceCatalog() []TypeInfo {
	return []TypeInfo{
		{Type: "csv", Description: "CSV file", ConfigExample: entity.ConnectorConfig{"file_path": "/path/to/file.csv"}},
		{Type: "json", Description: "JSON file", ConfigExample: entity.ConnectorConfig{"file_path": "/path/to/file.json"}},
		{Type: "http", Description: "HTTP endpoint returning a JSON array", ConfigExample: entity.ConnectorConfig{"url": "https://example.com/rows", "method": "GET"}},
		{Type: "postgresql", Description: "PostgreSQL database", ConfigExample: entity.ConnectorConfig{"host": "localhost", "port": 5432, "database": "mydb", "user": "user", "password": "password", "schema": "public"}},
		{Type: "mysql", Description: "MySQL database", ConfigExample: entity.ConnectorConfig{"host": "localhost", "port": 3306, "database": "mydb", "user": "user", "password": "password"}},
		{Type: "memory", Description: "Inline rows, for testing", ConfigExample: entity.ConnectorConfig{"rows": []Row{{"id": 1}}}},
	}
}

// SinkCatalog 内置 sink 类型说明
func SinkCatalog() []TypeInfo {
	return []TypeInfo{
		{Type: "csv", Description: "CSV files", ConfigExample: entity.ConnectorConfig{"directory": "/path/to/output"}},
		{Type: "json", Description: "JSON files", ConfigExample: entity.ConnectorConfig{"directory": "/path/to/output"}},
		{Type: "sqlite", Description: "SQLite database", ConfigExample: entity.ConnectorConfig{"database_path": "/path/to/database.db"}},
		{Type: "postgresql", Description: "PostgreSQL database", ConfigExample: entity.ConnectorConfig{"host": "localhost", "port": 5432, "database": "mydb", "user": "user", "password": "password"}},
		{Type: "mysql", Description: "MySQL database", ConfigExample: entity.ConnectorConfig{"host": "localhost", "port": 3306, "database": "mydb", "user": "user", "password": "password"}},
		{Type: "memory", Description: "In-process table store", ConfigExample: entity.ConnectorConfig{}},
	}
}
