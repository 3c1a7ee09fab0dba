package entity

const (
	FieldId         = "id"
	FieldJobName    = "job_name"
	FieldSourceType = "source_type"
	FieldSourceConf = "source_config"
	FieldSinkType   = "sink_type"
	FieldSinkConf   = "sink_config"
	FieldQuery      = "query"
	FieldSchedule   = "schedule"
	FieldEnabled    = "enabled"
	FieldCreatedAt  = "created_at"
	FieldUpdatedAt  = "updated_at"
)

// Job 一个 source -> sink 数据搬运任务的持久化定义
type Job struct {
	Id           uint64          `json:"id" gorm:"primaryKey"`
	JobName      string          `json:"job_name" gorm:"column:job_name"`
	SourceType   string          `json:"source_type" gorm:"column:source_type"`
	SourceConfig ConnectorConfig `json:"source_config" gorm:"column:source_config;serializer:json"`
	SinkType     string          `json:"sink_type" gorm:"column:sink_type"`
	SinkConfig   ConnectorConfig `json:"sink_config" gorm:"column:sink_config;serializer:json"`
	Query        string          `json:"query" gorm:"column:query"`
	Schedule     string          `json:"schedule" gorm:"column:schedule"`
	Enabled      bool            `json:"enabled" gorm:"column:enabled"`
	CreatedAt    int64           `json:"created_at" gorm:"column:created_at;autoCreateTime"` // time milli
	UpdatedAt    int64           `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"` // time milli
}

// ConnectorConfig 连接器配置，键由具体连接器解释，多余的键会被忽略
type ConnectorConfig map[string]any

func (j *Job) TableName() string {
	return "job"
}

// JobPatch 部分更新，只有非 nil 的字段会被应用
type JobPatch struct {
	JobName      *string          `json:"job_name,omitempty"`
	SourceType   *string          `json:"source_type,omitempty"`
	SourceConfig *ConnectorConfig `json:"source_config,omitempty"`
	SinkType     *string          `json:"sink_type,omitempty"`
	SinkConfig   *ConnectorConfig `json:"sink_config,omitempty"`
	Query        *string          `json:"query,omitempty"`
	Schedule     *string          `json:"schedule,omitempty"`
	Enabled      *bool            `json:"enabled,omitempty"`
}

// IsEmpty 是否没有任何可应用字段
func (p *JobPatch) IsEmpty() bool {
	return p == nil || (p.JobName == nil && p.SourceType == nil && p.SourceConfig == nil &&
		p.SinkType == nil && p.SinkConfig == nil && p.Query == nil && p.Schedule == nil && p.Enabled == nil)
}
